// Package events implements the host event bus: typed signals that plugins
// subscribe to with explicit Connect calls.
package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const sourceLib = "openedx-sample-plugin/events"

var (
	ErrNilReceiver       = errors.New("events: receiver is nil")
	ErrDuplicateReceiver = errors.New("events: receiver already connected")
)

// Metadata describes a single emission of an event.
type Metadata struct {
	ID           uuid.UUID `json:"id"`
	EventType    string    `json:"event_type"`
	MinorVersion int       `json:"minorversion"`
	Source       string    `json:"source"`
	SourceHost   string    `json:"sourcehost"`
	SourceLib    string    `json:"sourcelib"`
	Time         time.Time `json:"time"`
}

// Receiver handles one event payload. The payload type is fixed by the
// signal, so a mismatched handler does not compile.
type Receiver[T any] func(ctx context.Context, meta Metadata, data T) error

// Observer is notified after every receiver invocation.
type Observer func(eventType, receiver string, err error)

// ReceiverError ties a receiver failure to its name.
type ReceiverError struct {
	Receiver string
	Err      error
}

func (e ReceiverError) Error() string {
	return fmt.Sprintf("receiver %s: %v", e.Receiver, e.Err)
}

func (e ReceiverError) Unwrap() error {
	return e.Err
}

type connection[T any] struct {
	name    string
	handler Receiver[T]
}

// Signal is a named event with a fixed payload type.
type Signal[T any] struct {
	eventType    string
	minorVersion int
	source       string
	sourceHost   string
	observer     Observer
	tracer       trace.Tracer

	mu        sync.RWMutex
	receivers []connection[T]
}

// NewSignal declares a signal. Signals are normally created through a Catalog.
func NewSignal[T any](eventType string, minorVersion int) *Signal[T] {
	host, _ := os.Hostname()
	return &Signal[T]{
		eventType:    eventType,
		minorVersion: minorVersion,
		sourceHost:   host,
		tracer:       otel.Tracer(sourceLib),
	}
}

// EventType returns the dotted event type name.
func (s *Signal[T]) EventType() string {
	return s.eventType
}

// Connect subscribes a named receiver. Names must be unique per signal.
func (s *Signal[T]) Connect(name string, handler Receiver[T]) error {
	if handler == nil {
		return ErrNilReceiver
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.receivers {
		if r.name == name {
			return fmt.Errorf("%w: %s on %s", ErrDuplicateReceiver, name, s.eventType)
		}
	}
	s.receivers = append(s.receivers, connection[T]{name: name, handler: handler})
	return nil
}

// Disconnect removes a receiver and reports whether it was connected.
func (s *Signal[T]) Disconnect(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.receivers {
		if r.name == name {
			s.receivers = append(s.receivers[:i], s.receivers[i+1:]...)
			return true
		}
	}
	return false
}

// Receivers lists connected receiver names in dispatch order.
func (s *Signal[T]) Receivers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.receivers))
	for i, r := range s.receivers {
		names[i] = r.name
	}
	return names
}

// NewMetadata stamps a fresh emission of this signal.
func (s *Signal[T]) NewMetadata() Metadata {
	return Metadata{
		ID:           uuid.New(),
		EventType:    s.eventType,
		MinorVersion: s.minorVersion,
		Source:       s.source,
		SourceHost:   s.sourceHost,
		SourceLib:    sourceLib,
		Time:         time.Now().UTC(),
	}
}

// Send dispatches synchronously in connection order and stops at the first
// receiver error, which is returned to the sender.
func (s *Signal[T]) Send(ctx context.Context, data T) error {
	return s.SendWithMetadata(ctx, s.NewMetadata(), data)
}

// SendWithMetadata is Send for events that already carry metadata, such as
// those replayed from the event bus.
func (s *Signal[T]) SendWithMetadata(ctx context.Context, meta Metadata, data T) error {
	for _, r := range s.snapshot() {
		if err := s.dispatch(ctx, meta, r, data); err != nil {
			return ReceiverError{Receiver: r.name, Err: err}
		}
	}
	return nil
}

// SendRobust calls every receiver and collects their failures.
func (s *Signal[T]) SendRobust(ctx context.Context, data T) []ReceiverError {
	meta := s.NewMetadata()
	var failures []ReceiverError
	for _, r := range s.snapshot() {
		if err := s.dispatch(ctx, meta, r, data); err != nil {
			failures = append(failures, ReceiverError{Receiver: r.name, Err: err})
		}
	}
	return failures
}

func (s *Signal[T]) snapshot() []connection[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]connection[T], len(s.receivers))
	copy(out, s.receivers)
	return out
}

func (s *Signal[T]) dispatch(ctx context.Context, meta Metadata, r connection[T], data T) (err error) {
	ctx, span := s.tracer.Start(ctx, "signal "+s.eventType, trace.WithAttributes(
		attribute.String("event.type", s.eventType),
		attribute.String("event.id", meta.ID.String()),
		attribute.String("event.receiver", r.name),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.observer != nil {
			s.observer(s.eventType, r.name, err)
		}
	}()
	return r.handler(ctx, meta, data)
}
