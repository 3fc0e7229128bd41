package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const Subject = "taskboard.events"

// envelope is the wire form of an Event on NATS.
type envelope struct {
	Origin  string          `json:"origin"`
	Kind    Kind            `json:"kind"`
	TaskID  uuid.UUID       `json:"taskId"`
	Payload json.RawMessage `json:"payload"`
}

// NATSRelay mirrors events between instances. Publish sends local events to
// the subject; Forward republishes events from other instances into a local
// broadcaster. Per-task order across instances follows NATS per-connection
// ordering; observers can compare the version carried in task payloads.
type NATSRelay struct {
	conn   *nats.Conn
	origin string
	sub    *nats.Subscription
}

func NewNATSRelay(conn *nats.Conn) *NATSRelay {
	return &NATSRelay{conn: conn, origin: uuid.NewString()}
}

func (r *NATSRelay) Publish(_ context.Context, ev Event) {
	data, err := encodeEnvelope(r.origin, ev)
	if err != nil {
		slog.Error("failed to encode event for relay", "event", ev.Kind, "error", err)
		return
	}
	if err := r.conn.Publish(Subject, data); err != nil {
		slog.Warn("failed to relay event", "event", ev.Kind, "task_id", ev.TaskID, "error", err)
	}
}

// Forward subscribes to the relay subject and hands foreign events to local.
func (r *NATSRelay) Forward(local Broadcaster) error {
	sub, err := r.conn.Subscribe(Subject, func(msg *nats.Msg) {
		ev, origin, err := decodeEnvelope(msg.Data)
		if err != nil {
			slog.Warn("dropping malformed relay message", "error", err)
			return
		}
		if origin == r.origin {
			return
		}
		local.Publish(context.Background(), ev)
	})
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

func (r *NATSRelay) Close() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}

func encodeEnvelope(origin string, ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Origin: origin, Kind: ev.Kind, TaskID: ev.TaskID, Payload: payload})
}

func decodeEnvelope(data []byte) (Event, string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, "", err
	}
	return Event{Kind: env.Kind, TaskID: env.TaskID, Payload: env.Payload}, env.Origin, nil
}
