package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// NopPublisher drops events. Used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject string, data interface{}) error { return nil }
func (NopPublisher) Close() error                                                        { return nil }

// Event subjects
const (
	PassCreated     = "pass.created"
	PassCheckedIn   = "pass.checked_in"
	VisitorCheckout = "visitor.checkout"
	StaffCreated    = "staff.created"
)

// Event payloads
type PassCreatedEvent struct {
	VisitorID    int64     `json:"visitor_id"`
	PassID       string    `json:"pass_id"`
	VisitorName  string    `json:"visitor_name"`
	PersonToMeet string    `json:"person_to_meet"`
	DemoMode     bool      `json:"demo_mode"`
	CreatedAt    time.Time `json:"created_at"`
}

type PassCheckedInEvent struct {
	VisitorID   int64     `json:"visitor_id"`
	PassID      string    `json:"pass_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

type VisitorCheckoutEvent struct {
	VisitorID int64     `json:"visitor_id"`
	PassID    string    `json:"pass_id"`
	ExitTime  time.Time `json:"exit_time"`
}

type StaffCreatedEvent struct {
	UserID    int64     `json:"user_id"`
	StaffID   string    `json:"staff_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
