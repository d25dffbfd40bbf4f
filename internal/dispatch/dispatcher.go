package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/events"
	"github.com/mrkirby153/todoist-bot/internal/log"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

const (
	// DefaultAckDeadline leaves headroom under the platform's 3s response limit.
	DefaultAckDeadline = 2 * time.Second

	// DefaultGraceWindow stays inside the 15 minute interaction token validity.
	DefaultGraceWindow = 14 * time.Minute

	// DefaultFollowUpTimeout bounds the single follow-up POST.
	DefaultFollowUpTimeout = 10 * time.Second

	// ErrorAccent is the container accent of rendered handler errors.
	ErrorAccent = 0xAA0000

	// NoHandlerMessage answers interactions nothing is registered for.
	NoHandlerMessage = "No handler found for this interaction."
)

var errEmptyResponse = errors.New("handler returned no response")

//go:generate mockgen -destination=mocks/mock_sender.go -package=mocks github.com/mrkirby153/todoist-bot/internal/dispatch FollowUpSender

// FollowUpSender delivers the late result of a deferred interaction.
type FollowUpSender interface {
	FollowUp(ctx context.Context, token string, data *protocol.ResponseData) error
}

// ComponentHandler handles a message component. arg is the part of the
// custom id after the first ':'.
type ComponentHandler func(ctx context.Context, in *protocol.Interaction, arg string) (*protocol.Response, error)

// Config holds the dispatcher timings.
type Config struct {
	AckDeadline     time.Duration
	GraceWindow     time.Duration
	FollowUpTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.AckDeadline <= 0 {
		c.AckDeadline = DefaultAckDeadline
	}
	if c.GraceWindow <= 0 {
		c.GraceWindow = DefaultGraceWindow
	}
	if c.FollowUpTimeout <= 0 {
		c.FollowUpTimeout = DefaultFollowUpTimeout
	}
	return c
}

// PendingDelivery tracks a handler that missed the ack deadline. It lives
// until the follow-up is sent or the grace window lapses.
type PendingDelivery struct {
	ID            string
	InteractionID string
	Token         string
	Label         string
	StartedAt     time.Time
	DeferredAt    time.Time

	results <-chan result
}

type result struct {
	resp *protocol.Response
	err  error
}

// task is a resolved handler invocation.
type task func(ctx context.Context) (*protocol.Response, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEvents publishes lifecycle events to p.
func WithEvents(p events.Publisher) Option {
	return func(d *Dispatcher) { d.events = p }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// Dispatcher races each handler against the ack deadline and falls back to a
// deferred acknowledgement plus one follow-up when the handler is slow.
type Dispatcher struct {
	registry   *command.Registry
	components map[string]ComponentHandler
	sender     FollowUpSender
	cfg        Config
	events     events.Publisher
	tracer     trace.Tracer
	logger     *slog.Logger

	wg      sync.WaitGroup
	pending atomic.Int64
}

// New creates a new Dispatcher.
func New(reg *command.Registry, sender FollowUpSender, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:   reg,
		components: make(map[string]ComponentHandler),
		sender:     sender,
		cfg:        cfg.withDefaults(),
		events:     events.Discard,
		tracer:     otel.Tracer("github.com/mrkirby153/todoist-bot/internal/dispatch"),
		logger:     log.WithComponent("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleComponent routes component interactions whose custom id starts with
// prefix (followed by ':' or nothing). Registration happens at startup.
func (d *Dispatcher) HandleComponent(prefix string, h ComponentHandler) {
	if prefix == "" || strings.Contains(prefix, ":") {
		panic(fmt.Sprintf("component prefix %q: must be non-empty without ':'", prefix))
	}
	if _, exists := d.components[prefix]; exists {
		panic(fmt.Sprintf("component prefix %q: already registered", prefix))
	}
	d.components[prefix] = h
}

// Pending reports how many deferred deliveries are outstanding.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Dispatch returns the synchronous response for in. An error means the
// interaction could not be resolved and should be rejected as a client error.
func (d *Dispatcher) Dispatch(ctx context.Context, in *protocol.Interaction) (*protocol.Response, error) {
	ctx, span := d.tracer.Start(ctx, "interaction.dispatch", trace.WithAttributes(
		attribute.String("interaction.id", in.ID),
		attribute.String("interaction.type", in.Type.String()),
	))
	defer span.End()

	if in.Type == protocol.InteractionPing {
		return protocol.Pong(), nil
	}

	label, run, err := d.resolve(in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unresolvable interaction")
		return nil, err
	}
	if run == nil {
		log.WithInteraction(in.ID).Info("no handler for interaction", "type", in.Type.String(), "label", label)
		return NoHandlerResponse(), nil
	}
	span.SetAttributes(attribute.String("interaction.label", label))

	return d.execute(ctx, in, label, run), nil
}

// resolve maps an interaction to its handler. A nil task with a nil error
// means nothing is registered.
func (d *Dispatcher) resolve(in *protocol.Interaction) (string, task, error) {
	switch in.Type {
	case protocol.InteractionApplicationCommand:
		data := in.Command
		if data == nil {
			return "", nil, fmt.Errorf("%w: command interaction without data", protocol.ErrMalformedEnvelope)
		}

		switch data.Type {
		case protocol.CommandMessage:
			fn, ok := d.registry.Message(data.Name)
			if !ok {
				return data.Name, nil, nil
			}
			return data.Name, func(ctx context.Context) (*protocol.Response, error) {
				return fn(ctx, in)
			}, nil
		case protocol.CommandChatInput:
			path, options, err := command.ResolvePath(data)
			if err != nil {
				return "", nil, err
			}
			leaf, ok := d.registry.Resolve(path)
			if !ok {
				return path.String(), nil, nil
			}
			return path.String(), func(ctx context.Context) (*protocol.Response, error) {
				return leaf.Handler.Handle(ctx, in, options)
			}, nil
		}
		return data.Name, nil, nil

	case protocol.InteractionMessageComponent:
		if in.Component == nil {
			return "", nil, fmt.Errorf("%w: component interaction without data", protocol.ErrMalformedEnvelope)
		}
		prefix, arg, _ := strings.Cut(in.Component.CustomID, ":")
		h, ok := d.components[prefix]
		if !ok {
			return prefix, nil, nil
		}
		return prefix, func(ctx context.Context) (*protocol.Response, error) {
			return h(ctx, in, arg)
		}, nil
	}

	return in.Type.String(), nil, nil
}

// execute runs the handler detached from the request and waits at most the
// ack deadline for it.
func (d *Dispatcher) execute(ctx context.Context, in *protocol.Interaction, label string, run task) *protocol.Response {
	logger := log.WithInteraction(in.ID).With("label", label)
	started := time.Now()
	results := d.start(ctx, run)

	timer := time.NewTimer(d.cfg.AckDeadline)
	defer timer.Stop()

	select {
	case res := <-results:
		resp := render(res)
		elapsed := time.Since(started)
		if res.err != nil {
			logger.Warn("handler failed", "error", res.err, "duration_ms", elapsed.Milliseconds())
		} else {
			logger.Info("interaction responded", "duration_ms", elapsed.Milliseconds())
		}
		d.events.Publish(events.InteractionResponded, events.InteractionData{
			InteractionID: in.ID,
			Label:         label,
			DurationMS:    elapsed.Milliseconds(),
			Error:         errString(res.err),
		})
		return resp

	case <-timer.C:
		p := &PendingDelivery{
			ID:            uuid.NewString(),
			InteractionID: in.ID,
			Token:         in.Token,
			Label:         label,
			StartedAt:     started,
			DeferredAt:    time.Now(),
			results:       results,
		}
		logger.Info("interaction deferred", "delivery_id", p.ID, "ack_deadline", d.cfg.AckDeadline.String())
		trace.SpanFromContext(ctx).AddEvent("deferred", trace.WithAttributes(attribute.String("delivery.id", p.ID)))
		d.events.Publish(events.InteractionDeferred, events.InteractionData{
			InteractionID: in.ID,
			DeliveryID:    p.ID,
			Label:         label,
			DurationMS:    time.Since(started).Milliseconds(),
		})

		d.wg.Add(1)
		d.pending.Add(1)
		go d.supervise(context.WithoutCancel(ctx), p)
		return protocol.DeferredAck()
	}
}

// start launches run in its own goroutine. The handler context is never
// cancelled; the result channel is buffered so an abandoned handler can
// always finish.
func (d *Dispatcher) start(ctx context.Context, run task) <-chan result {
	results := make(chan result, 1)
	hctx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("handler panicked", "panic", fmt.Sprint(r))
				results <- result{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		resp, err := run(hctx)
		results <- result{resp: resp, err: err}
	}()

	return results
}

// supervise waits out the grace window for a deferred handler and sends
// at most one follow-up. Delivery is never retried.
func (d *Dispatcher) supervise(ctx context.Context, p *PendingDelivery) {
	defer d.wg.Done()
	defer d.pending.Add(-1)

	ctx, span := d.tracer.Start(ctx, "interaction.followup", trace.WithAttributes(
		attribute.String("interaction.id", p.InteractionID),
		attribute.String("delivery.id", p.ID),
		attribute.String("interaction.label", p.Label),
	))
	defer span.End()

	logger := log.WithInteraction(p.InteractionID).With("delivery_id", p.ID, "label", p.Label)
	remaining := d.cfg.GraceWindow - time.Since(p.StartedAt)
	grace := time.NewTimer(remaining)
	defer grace.Stop()

	data := events.InteractionData{InteractionID: p.InteractionID, DeliveryID: p.ID, Label: p.Label}

	select {
	case res := <-p.results:
		data.DurationMS = time.Since(p.StartedAt).Milliseconds()
		if res.err != nil {
			logger.Warn("deferred handler failed", "error", res.err)
			data.Error = res.err.Error()
		}

		resp := render(res)
		if resp.Data == nil {
			logger.Info("deferred handler produced no follow-up data")
			span.AddEvent("empty response")
			d.events.Publish(events.InteractionGraceExpired, data)
			return
		}

		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.FollowUpTimeout)
		defer cancel()
		if err := d.sender.FollowUp(sendCtx, p.Token, resp.Data); err != nil {
			logger.Error("follow-up delivery failed", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "follow-up failed")
			data.Error = err.Error()
			d.events.Publish(events.InteractionFollowUpFailed, data)
			return
		}

		logger.Info("follow-up delivered", "duration_ms", data.DurationMS)
		d.events.Publish(events.InteractionFollowedUp, data)

	case <-grace.C:
		data.DurationMS = time.Since(p.StartedAt).Milliseconds()
		logger.Warn("grace window expired before handler finished", "grace_window", d.cfg.GraceWindow.String())
		span.AddEvent("grace expired")
		d.events.Publish(events.InteractionGraceExpired, data)
	}
}

// Wait blocks until every deferred delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// render is the single conversion point from a handler result to the
// response sent on either path.
func render(res result) *protocol.Response {
	if res.err != nil {
		return ErrorResponse(res.err)
	}
	if res.resp == nil {
		return ErrorResponse(errEmptyResponse)
	}
	return res.resp
}

// ErrorResponse renders a handler error for the user.
func ErrorResponse(err error) *protocol.Response {
	return protocol.EphemeralComponents(
		protocol.Container(ErrorAccent, protocol.TextDisplay("An error occurred: "+err.Error())),
	)
}

// NoHandlerResponse answers interactions with no registered handler.
func NoHandlerResponse() *protocol.Response {
	return protocol.EphemeralText(NoHandlerMessage)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
