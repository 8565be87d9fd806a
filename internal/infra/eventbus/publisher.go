package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bryanwahyu/plant-md/internal/domain/events"
)

// DefaultSubject is where relay request events are published.
const DefaultSubject = "plantmd.analysis.events"

var ErrNotConnected = errors.New("nats: not connected")

type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Close()
}

// Publisher sends request events to NATS as JSON.
type Publisher struct {
	conn    conn
	subject string
}

func NewPublisher(natsURL, subject string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("plantmd-relay"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("eventbus: connected to NATS at %s", natsURL)
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: c, subject: subject}
}

// Record implements events.Recorder.
func (p *Publisher) Record(_ context.Context, e *events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, data)
}

// Check backs GET /ready.
func (p *Publisher) Check(context.Context) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		log.Printf("eventbus: disconnected from NATS")
	}
}
