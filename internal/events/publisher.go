package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects for grading lifecycle events.
const (
	SubjectSubmissionReceived = "evalia.submissions.received"
	SubjectSubmissionGraded   = "evalia.submissions.graded"
	SubjectGradingFailed      = "evalia.submissions.grading_failed"
)

// GradingEvent is the wire payload published on submission lifecycle changes.
type GradingEvent struct {
	SubmissionID uint      `json:"submission_id"`
	ExerciseID   uint      `json:"exercise_id"`
	StudentID    uint      `json:"student_id"`
	Status       string    `json:"status"`
	Score        *float64  `json:"score,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher fans grading lifecycle events out to interested consumers.
type Publisher interface {
	Publish(subject string, event GradingEvent)
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewPublisher wraps a NATS connection. A nil connection yields a no-op
// publisher so event delivery stays optional in local setups.
func NewPublisher(conn *nats.Conn, logger zerolog.Logger) Publisher {
	if conn == nil {
		return noopPublisher{}
	}

	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Publish is fire-and-forget: a broker hiccup must never fail the grading
// path that triggered the event.
func (p *natsPublisher) Publish(subject string, event GradingEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("marshal grading event")
		return
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Uint("submission_id", event.SubmissionID).Msg("publish grading event")
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, GradingEvent) {}
