package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Current returns the unit opened by the transaction middleware.
func Current(ctx context.Context) (UnitOfWork, error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, nil
	}
	return nil, ErrUnitOfWorkMissing
}

// Begin opens a unit and returns the context handlers should run with.
func Begin(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, error) {
	if factory == nil {
		return nil, ctx, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, err
	}
	if binder, ok := unit.(ContextBinder); ok {
		ctx = binder.InjectContext(ctx)
	}
	return unit, ContextWithUnitOfWork(ctx, unit), nil
}

// Read runs fn on the unit already in ctx, or on a fresh read-only unit
// that is released when fn returns. Queries use it so a query issued from
// inside a command sees the command's uncommitted writes.
func Read[T any](ctx context.Context, factory UoWFactory, fn func(ctx context.Context, unit UnitOfWork) (T, error)) (T, error) {
	if unit, ok := FromContext(ctx); ok {
		return fn(ctx, unit)
	}
	unit, execCtx, err := Begin(ctx, factory, TxOptions{ReadOnly: true})
	if err != nil {
		var zero T
		return zero, err
	}
	defer func() { _ = unit.Rollback(execCtx) }()
	return fn(execCtx, unit)
}
