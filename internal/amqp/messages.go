package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// ChangeMessage is the wire form of a committed ledger change.
type ChangeMessage struct {
	MessageID string            `json:"message_id"`
	Kind      core.Kind         `json:"kind"`
	Op        core.ChangeOp     `json:"op"`
	RecordID  string            `json:"record_id"`
	Record    map[string]string `json:"record,omitempty"`
	Version   uint64            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewChangeMessage wraps c with a fresh message id.
func NewChangeMessage(c core.Change) ChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return ChangeMessage{
		MessageID: uuid.NewString(),
		Kind:      c.Kind,
		Op:        c.Op,
		RecordID:  c.RecordID,
		Record:    c.Record,
		Version:   c.Version,
		Timestamp: ts.UTC(),
	}
}

// Change converts the message back into a ledger change.
func (m ChangeMessage) Change() core.Change {
	return core.Change{
		Kind:     m.Kind,
		Op:       m.Op,
		RecordID: m.RecordID,
		Record:   m.Record,
		Version:  m.Version,
		At:       m.Timestamp,
	}
}

func (m ChangeMessage) Validate() error {
	switch m.Kind {
	case core.KindExpense, core.KindBudget, core.KindGoal:
	default:
		return fmt.Errorf("unknown kind %q", m.Kind)
	}
	switch m.Op {
	case core.OpCreate, core.OpUpdate:
		if m.Record == nil {
			return fmt.Errorf("%s %s without record", m.Kind, m.Op)
		}
	case core.OpDelete:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	if m.RecordID == "" {
		return fmt.Errorf("missing record id")
	}
	return nil
}

func (m ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChangeMessage{}, err
	}
	if err := msg.Validate(); err != nil {
		return ChangeMessage{}, err
	}
	return msg, nil
}
