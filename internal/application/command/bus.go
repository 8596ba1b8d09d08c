// Package command is the core's only entry point: a bus that routes each
// command to its handler, opens a unit of work for it, and injects only
// the dependencies the handler declares.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/notification"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Command is a request to the core. Name is the routing key.
type Command interface {
	CommandName() string
}

// Actor is the authenticated caller, as extracted at the boundary
type Actor struct {
	UserID    *uuid.UUID
	CompanyID *uuid.UUID
}

// UserActor builds an actor without a company context
func UserActor(id uuid.UUID) Actor {
	return Actor{UserID: &id}
}

// WithCompany returns a copy of the actor acting for a company
func (a Actor) WithCompany(id uuid.UUID) Actor {
	a.CompanyID = &id
	return a
}

// Capability declares what a handler needs injected
type Capability uint8

const (
	NeedUoW Capability = 1 << iota
	NeedEmail
	NeedSMS
	NeedUser
	NeedCompany
)

// Has reports whether every flag in other is set
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Handler executes one command type
type Handler[C Command, R any] func(ctx context.Context, cmd C, d *Deps) (R, error)

// Dependencies are the collaborators the bus can inject
type Dependencies struct {
	UnitOfWork uow.UnitOfWork
	Email      notification.Sender
	SMS        notification.Sender
}

type route struct {
	needs         Capability
	unimplemented bool
	invoke        func(ctx context.Context, cmd Command, d *Deps) (any, error)
}

// Bus routes commands to handlers. Routes are registered at startup and
// frozen by Seal; after that the bus is read-only and safe for concurrent use.
type Bus struct {
	deps       Dependencies
	routes     map[string]route
	sealed     atomic.Bool
	logger     *zap.Logger
	metrics    *telemetry.CommandMetrics
	dispatcher *notification.Dispatcher
}

// Option configures a Bus
type Option func(*Bus)

// WithLogger sets the dispatch logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// WithMetrics records command counters and durations
func WithMetrics(m *telemetry.CommandMetrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// WithDispatcher sets how post-commit notifications are delivered
func WithDispatcher(d *notification.Dispatcher) Option {
	return func(b *Bus) { b.dispatcher = d }
}

// NewBus creates an empty, unsealed bus
func NewBus(deps Dependencies, opts ...Option) *Bus {
	b := &Bus{
		deps:   deps,
		routes: make(map[string]route),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("command")
	if b.dispatcher == nil {
		b.dispatcher = notification.NewDispatcher(b.logger, 0)
	}
	return b
}

// Register routes commands of type C to h. It panics on a sealed bus or a
// duplicate route; both are wiring mistakes.
func Register[C Command, R any](b *Bus, h Handler[C, R], needs Capability) {
	var zero C
	b.add(zero.CommandName(), route{
		needs: needs,
		invoke: func(ctx context.Context, cmd Command, d *Deps) (any, error) {
			c, ok := cmd.(C)
			if !ok {
				return nil, unsupported(cmd.CommandName())
			}
			return h(ctx, c, d)
		},
	})
}

// Unimplemented reserves name: dispatching it fails with an unsupported
// message error without touching storage.
func (b *Bus) Unimplemented(name string) {
	b.add(name, route{unimplemented: true})
}

func (b *Bus) add(name string, r route) {
	if b.sealed.Load() {
		panic(fmt.Sprintf("command: register %q on a sealed bus", name))
	}
	if _, dup := b.routes[name]; dup {
		panic(fmt.Sprintf("command: duplicate route %q", name))
	}
	b.routes[name] = r
}

// Seal freezes the route table
func (b *Bus) Seal() *Bus {
	b.sealed.Store(true)
	return b
}

// Routes returns the registered command names
func (b *Bus) Routes() []string {
	names := make([]string, 0, len(b.routes))
	for name := range b.routes {
		names = append(names, name)
	}
	return names
}

// Wait blocks until pending notifications are delivered
func (b *Bus) Wait() {
	b.dispatcher.Wait()
}

// Dispatch runs cmd on behalf of actor and returns the handler's result.
// Handlers declaring NeedUoW get a fresh scope which is rolled back unless
// the handler commits it. Notifications queued by the handler are sent
// only after a successful commit.
func (b *Bus) Dispatch(ctx context.Context, cmd Command, actor Actor) (result any, err error) {
	if cmd == nil {
		return nil, unsupported("<nil>")
	}
	name := cmd.CommandName()

	ctx, span := telemetry.StartServiceSpan(ctx, "command", name,
		telemetry.WithAttribute(telemetry.SpanAttrCommand, name))
	start := time.Now()
	defer func() {
		b.observe(ctx, name, actor, time.Since(start), err)
		if err != nil {
			telemetry.RecordError(span, err)
			telemetry.SetAttributes(span, telemetry.SpanAttrErrorCode, shared.CodeOf(err))
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()
	if actor.UserID != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrActorUserID, actor.UserID.String())
	}
	if actor.CompanyID != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrCompanyID, actor.CompanyID.String())
	}

	r, ok := b.routes[name]
	if !ok || r.unimplemented {
		return nil, unsupported(name)
	}

	d, err := b.inject(r.needs, actor)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err == nil && (d.scope == nil || d.scope.Committed()) {
			b.flush(ctx, d)
		}
	}()

	if r.needs.Has(NeedUoW) {
		scope, beginErr := b.deps.UnitOfWork.Begin(ctx)
		if beginErr != nil {
			return nil, beginErr
		}
		d.scope = scope
		defer func() {
			err = scope.Close(ctx, err)
		}()
	}

	return b.invoke(ctx, r, cmd, d)
}

func (b *Bus) invoke(ctx context.Context, r route, cmd Command, d *Deps) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("command handler panicked",
				zap.String("command", cmd.CommandName()),
				zap.Any("panic", p),
				zap.Stack("stack"),
			)
			result, err = nil, shared.ServiceFailure(fmt.Sprintf("handler for %s panicked", cmd.CommandName()))
		}
	}()
	return r.invoke(ctx, cmd, d)
}

func (b *Bus) inject(needs Capability, actor Actor) (*Deps, error) {
	d := &Deps{needs: needs}
	if needs.Has(NeedUoW) && b.deps.UnitOfWork == nil {
		return nil, shared.ServiceFailure("unit of work is not configured")
	}
	if needs.Has(NeedEmail) {
		if b.deps.Email == nil {
			return nil, shared.ServiceFailure("email sender is not configured")
		}
		d.email = b.deps.Email
	}
	if needs.Has(NeedSMS) {
		if b.deps.SMS == nil {
			return nil, shared.ServiceFailure("sms sender is not configured")
		}
		d.sms = b.deps.SMS
	}
	if needs.Has(NeedUser) {
		if actor.UserID == nil {
			return nil, shared.ServiceFailure("command requires an acting user")
		}
		d.user = actor.UserID
	}
	if needs.Has(NeedCompany) {
		if actor.CompanyID == nil {
			return nil, shared.ServiceFailure("command requires a company context")
		}
		d.company = actor.CompanyID
	}
	return d, nil
}

func (b *Bus) flush(ctx context.Context, d *Deps) {
	for _, p := range d.outbox {
		b.dispatcher.Async(ctx, p.sender, p.msg)
	}
}

func (b *Bus) observe(ctx context.Context, name string, actor Actor, elapsed time.Duration, err error) {
	code := shared.CodeOf(err)
	if err != nil && code == "" {
		code = shared.CodeService
	}
	b.metrics.Record(ctx, name, code, elapsed)

	fields := []zap.Field{
		zap.String("command", name),
		zap.Duration("duration", elapsed),
	}
	if actor.UserID != nil {
		fields = append(fields, zap.String("user_id", actor.UserID.String()))
	}
	if actor.CompanyID != nil {
		fields = append(fields, zap.String("company_id", actor.CompanyID.String()))
	}
	if err == nil {
		b.logger.Debug("command handled", fields...)
		return
	}

	fields = append(fields, zap.String("error_code", code), zap.Error(err))
	b.logger.Log(levelFor(code), "command failed", fields...)
}

// levelFor keeps caller mistakes out of the error log
func levelFor(code string) zapcore.Level {
	switch code {
	case shared.CodeNotFound, shared.CodeAlreadyExists, shared.CodePermissionDenied,
		shared.CodeValidation, shared.CodeUnsupportedMessage:
		return zapcore.WarnLevel
	}
	return zapcore.ErrorLevel
}

func unsupported(name string) error {
	return shared.NewDomainError(shared.CodeUnsupportedMessage, fmt.Sprintf("unsupported command %s", name))
}

// DispatchAs dispatches cmd and asserts the result type
func DispatchAs[R any](ctx context.Context, b *Bus, cmd Command, actor Actor) (R, error) {
	var zero R
	res, err := b.Dispatch(ctx, cmd, actor)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	r, ok := res.(R)
	if !ok {
		return zero, shared.ServiceFailure(fmt.Sprintf("unexpected result %T for %s", res, cmd.CommandName()))
	}
	return r, nil
}

// IsUnsupported reports whether err is an unsupported message error
func IsUnsupported(err error) bool {
	return errors.Is(err, shared.ErrUnsupportedMessage)
}
