// Package events publishes completed decisions to NATS for external
// consumers (SIEM pipelines, dashboards). Publishing is best-effort: a
// broker failure never changes or delays a decision.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/taskgate/taskgate/internal/pipeline"
)

// SubjectPrefix is the root of all decision event subjects.
const SubjectPrefix = "taskgate.decisions"

// Config holds the NATS connection settings.
type Config struct {
	URL           string
	Name          string // connection name for monitoring
	Token         string // auth token (optional)
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:           url,
		Name:          "taskgate",
		MaxReconnects: -1, // unlimited reconnects
		ReconnectWait: 2 * time.Second,
	}
}

// Event is the wire envelope for one published decision.
type Event struct {
	EventID   string    `json:"event_id"`
	RequestID string    `json:"request_id"`
	Task      string    `json:"task,omitempty"`
	Persona   string    `json:"persona,omitempty"`
	Resource  string    `json:"resource"`
	Operation string    `json:"operation"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidateSubjectToken checks that a name is safe for use in NATS subjects.
// NATS treats '.', '*', and '>' as special characters in subjects.
func ValidateSubjectToken(name string) error {
	if name == "" {
		return fmt.Errorf("subject token must not be empty")
	}
	if strings.ContainsAny(name, ".*> \t\n\r") {
		return fmt.Errorf("subject token %q contains invalid NATS characters (.*> or whitespace)", name)
	}
	return nil
}

// DecisionSubject returns the subject for a persona's decision events.
// Decisions without a resolved persona publish under "unknown".
func DecisionSubject(persona string) (string, error) {
	if persona == "" {
		persona = "unknown"
	}
	if err := ValidateSubjectToken(persona); err != nil {
		return "", fmt.Errorf("invalid persona token: %w", err)
	}
	return fmt.Sprintf("%s.%s", SubjectPrefix, persona), nil
}

// Publisher wraps a NATS connection for decision event publishing.
type Publisher struct {
	conn *nats.Conn
}

// Connect establishes a connection to the NATS server.
func Connect(config Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.Info("nats connection closed")
		}),
	}

	if config.Token != "" {
		opts = append(opts, nats.Token(config.Token))
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", config.URL, err)
	}

	slog.Info("nats connected", "url", config.URL, "name", config.Name)
	return &Publisher{conn: nc}, nil
}

// Publish sends the decision to its persona subject. Failures are logged,
// never propagated: event delivery is not part of decision correctness.
func (p *Publisher) Publish(d pipeline.Decision) {
	subject, err := DecisionSubject(d.Persona)
	if err != nil {
		slog.Warn("skipping decision event with unusable subject", "persona", d.Persona, "error", err)
		return
	}

	ev := Event{
		EventID:   uuid.New().String(),
		RequestID: d.RequestID,
		Task:      string(d.Task),
		Persona:   d.Persona,
		Resource:  string(d.Resource),
		Operation: string(d.Operation),
		Outcome:   d.Outcome.String(),
		Reason:    string(d.Reason),
		Timestamp: d.Timestamp,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("marshaling decision event", "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		slog.Warn("publishing decision event", "subject", subject, "error", err)
	}
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
