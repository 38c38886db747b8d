package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/subtech/mina-dashboard/internal/monitor"
	"github.com/subtech/mina-dashboard/internal/views"
)

// DefaultSubject carries one message per snapshot replacement.
const DefaultSubject = "mina.tags.snapshot"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// SnapshotEvent announces that the displayed tag set changed.
type SnapshotEvent struct {
	EventID   string    `json:"event_id"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	views.Summary
}

type NATSPublisher struct {
	conn       Conn
	subject    string
	maxRetries int
	backoff    time.Duration
}

func NewNATSPublisher(conn Conn, subject string, maxRetries int) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{
		conn:       conn,
		subject:    subject,
		maxRetries: maxRetries,
		backoff:    100 * time.Millisecond,
	}
}

// Connect dials NATS with the service name set on the connection.
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	return nats.Connect(url, nats.Name(name))
}

func (p *NATSPublisher) Publish(event *SnapshotEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(p.subject, data)
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(i) * p.backoff)
	}

	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}

// HandleSnapshot is a monitor.Listener. Failures are logged only.
func (p *NATSPublisher) HandleSnapshot(s monitor.Snapshot) {
	ev := &SnapshotEvent{
		EventID:   uuid.NewString(),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
		Summary:   views.Summarize(s.Tags),
	}
	if err := p.Publish(ev); err != nil {
		log.Printf("[ERROR] Snapshot Events: %v", err)
	}
}
