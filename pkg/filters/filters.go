// Package filters runs named pipelines of steps configured through settings.
package filters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "openedx-sample-plugin/filters"

// Step outcomes reported to observers.
const (
	OutcomeApplied   = "applied"
	OutcomeUnchanged = "unchanged"
	OutcomeHalted    = "halted"
	OutcomeFallback  = "fallback"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

var (
	ErrUnknownStep   = errors.New("filters: unknown pipeline step")
	ErrStepType      = errors.New("filters: pipeline step has wrong parameter type")
	ErrDuplicateStep = errors.New("filters: step already registered")
)

// Config is the per-filter entry of the filters setting.
type Config struct {
	Pipeline     []string `json:"pipeline" mapstructure:"pipeline"`
	FailSilently bool     `json:"fail_silently" mapstructure:"fail_silently"`
}

// Step transforms filter parameters. Returning nil params keeps the input.
type Step[P any] interface {
	RunFilter(ctx context.Context, params P) (*P, error)
}

// StepFunc adapts a function to Step.
type StepFunc[P any] func(ctx context.Context, params P) (*P, error)

// RunFilter implements Step.
func (f StepFunc[P]) RunFilter(ctx context.Context, params P) (*P, error) {
	return f(ctx, params)
}

// Halt stops the pipeline. With a Fallback the fallback becomes the filter
// result; without one Run returns the Halt as an error.
type Halt[P any] struct {
	Reason   string
	Fallback *P
}

func (h *Halt[P]) Error() string {
	return "pipeline halted: " + h.Reason
}

// Observer is notified once per executed step.
type Observer func(filterType, step, outcome string)

// StepRegistry maps dotted step names to implementations.
type StepRegistry struct {
	mu    sync.RWMutex
	steps map[string]any
}

// NewStepRegistry creates an empty registry.
func NewStepRegistry() *StepRegistry {
	return &StepRegistry{steps: make(map[string]any)}
}

// Register adds a step under name.
func Register[P any](r *StepRegistry, name string, step Step[P]) error {
	if step == nil {
		return fmt.Errorf("filters: step %s is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, name)
	}
	r.steps[name] = step
	return nil
}

// Lookup resolves a step and checks it accepts P.
func Lookup[P any](r *StepRegistry, name string) (Step[P], error) {
	r.mu.RLock()
	raw, ok := r.steps[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}
	step, ok := raw.(Step[P])
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrStepType, name, raw)
	}
	return step, nil
}

// Names lists registered step names.
func (r *StepRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	return names
}

type namedStep[P any] struct {
	name string
	step Step[P]
}

// Filter is a resolved pipeline for one filter type.
type Filter[P any] struct {
	filterType   string
	failSilently bool
	steps        []namedStep[P]
	logger       *zap.Logger
	observer     Observer
	tracer       trace.Tracer
}

// Option customises a Filter.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	observer Observer
}

// WithLogger sets the logger used for step failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver sets a per-step outcome hook.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Build resolves the configured pipeline for filterType. A filter without
// configuration runs no steps and returns its input.
func Build[P any](filterType string, configs map[string]Config, registry *StepRegistry, opts ...Option) (*Filter[P], error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Filter[P]{
		filterType: filterType,
		logger:     o.logger,
		observer:   o.observer,
		tracer:     otel.Tracer(tracerName),
	}

	cfg, ok := configs[filterType]
	if !ok {
		return f, nil
	}
	f.failSilently = cfg.FailSilently
	for _, name := range cfg.Pipeline {
		step, err := Lookup[P](registry, name)
		if err != nil {
			return nil, fmt.Errorf("build filter %s: %w", filterType, err)
		}
		f.steps = append(f.steps, namedStep[P]{name: name, step: step})
	}
	return f, nil
}

// Type returns the filter type name.
func (f *Filter[P]) Type() string {
	return f.filterType
}

// Steps lists the resolved step names in execution order.
func (f *Filter[P]) Steps() []string {
	names := make([]string, len(f.steps))
	for i, s := range f.steps {
		names[i] = s.name
	}
	return names
}

// Run feeds params through every step in order.
func (f *Filter[P]) Run(ctx context.Context, params P) (P, error) {
	ctx, span := f.tracer.Start(ctx, "filter "+f.filterType, trace.WithAttributes(
		attribute.String("filter.type", f.filterType),
		attribute.Int("filter.steps", len(f.steps)),
	))
	defer span.End()

	current := params
	for _, s := range f.steps {
		next, outcome, err := f.runStep(ctx, s, current)
		f.observe(s.name, outcome)
		switch outcome {
		case OutcomeFallback:
			return next, nil
		case OutcomeHalted:
			span.SetStatus(codes.Error, err.Error())
			return current, err
		case OutcomeFailed:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return current, fmt.Errorf("filter %s step %s: %w", f.filterType, s.name, err)
		case OutcomeSkipped:
			f.logger.Warn("pipeline step failed silently",
				zap.String("filter", f.filterType),
				zap.String("step", s.name),
				zap.Error(err))
		default:
			current = next
		}
	}
	return current, nil
}

func (f *Filter[P]) runStep(ctx context.Context, s namedStep[P], params P) (P, string, error) {
	ctx, span := f.tracer.Start(ctx, "step "+s.name, trace.WithAttributes(attribute.String("filter.step", s.name)))
	defer span.End()

	out, err := s.step.RunFilter(ctx, params)
	if err != nil {
		var halt *Halt[P]
		if errors.As(err, &halt) {
			if halt.Fallback != nil {
				return *halt.Fallback, OutcomeFallback, nil
			}
			return params, OutcomeHalted, err
		}
		if f.failSilently {
			return params, OutcomeSkipped, err
		}
		return params, OutcomeFailed, err
	}
	if out == nil {
		return params, OutcomeUnchanged, nil
	}
	return *out, OutcomeApplied, nil
}

func (f *Filter[P]) observe(step, outcome string) {
	if f.observer != nil {
		f.observer(f.filterType, step, outcome)
	}
}
