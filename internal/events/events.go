package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/scpnet/authserver/internal/mq"
)

// Event kinds emitted by the auth service.
const (
	UserRegistered  = "user.registered"
	UserLogin       = "user.login"
	UserLoginDenied = "user.login_denied"
)

// Event is the audit payload published for authentication activity.
// Login denials carry no user ID so the stream cannot be used to probe
// which usernames exist.
type Event struct {
	Kind     string    `json:"kind"`
	UserID   string    `json:"userId,omitempty"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// Recorder publishes audit events to a broker channel. A nil Recorder
// is valid and records nothing; publish failures are logged and never
// propagate to the request path.
type Recorder struct {
	pub     mq.Publisher
	channel string
	log     zerolog.Logger
}

func NewRecorder(pub mq.Publisher, channel string, log zerolog.Logger) *Recorder {
	return &Recorder{pub: pub, channel: channel, log: log}
}

// Record publishes one event, fire-and-forget.
func (r *Recorder) Record(ctx context.Context, kind, userID, username string) {
	if r == nil || r.pub == nil {
		return
	}

	data, err := json.Marshal(Event{
		Kind:     kind,
		UserID:   userID,
		Username: username,
		At:       time.Now().UTC(),
	})
	if err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("audit event dropped")
		return
	}

	if _, err := r.pub.Publish(ctx, r.channel, data, map[string]string{"kind": kind}); err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("audit event dropped")
	}
}
