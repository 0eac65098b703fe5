package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// KindWrapRequested signals that an entropy-backed wrap was requested.
	KindWrapRequested = "wrap_requested"
	// KindWrapped signals a completed wrap.
	KindWrapped = "wrapped"
	// KindUnwrapped signals a completed unwrap.
	KindUnwrapped = "unwrapped"
)

// Event describes an observable state transition of the wrap coordinator.
type Event struct {
	Kind         string         `json:"kind"`
	Caller       common.Address `json:"caller"`
	RequestID    uint64         `json:"request_id,omitempty"`
	PublicAmount int64          `json:"public_amount,omitempty"`
	Handle       string         `json:"handle,omitempty"`
	At           time.Time      `json:"at"`
}

// Emitter delivers events to downstream listeners.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// LoggerEmitter writes events to the structured logger.
type LoggerEmitter struct {
	logger *slog.Logger
}

// NewLoggerEmitter constructs a logging emitter.
func NewLoggerEmitter(logger *slog.Logger) *LoggerEmitter {
	return &LoggerEmitter{logger: logger}
}

// Emit writes the event to the structured logger.
func (e *LoggerEmitter) Emit(_ context.Context, event Event) error {
	if e == nil || e.logger == nil {
		return nil
	}
	e.logger.Info("event",
		"kind", event.Kind,
		"caller", event.Caller.Hex(),
		"request_id", event.RequestID,
		"public_amount", event.PublicAmount,
		"handle", event.Handle,
	)
	return nil
}

// Multi fans an event out to several emitters, returning the first error.
type Multi []Emitter

// Emit delivers the event to each emitter in order.
func (m Multi) Emit(ctx context.Context, event Event) error {
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
