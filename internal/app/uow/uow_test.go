package uow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/app/uow"
	"rentshare/internal/infra/storage/memory"
)

func TestReadOpensAndReleasesUnit(t *testing.T) {
	factory := memory.NewFactory()
	var inside uow.UnitOfWork
	n, err := uow.Read(context.Background(), factory, func(ctx context.Context, unit uow.UnitOfWork) (int, error) {
		inside = unit
		current, err := uow.Current(ctx)
		require.NoError(t, err)
		assert.Same(t, unit, current)
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NotNil(t, inside)
}

func TestReadReusesUnitInContext(t *testing.T) {
	factory := memory.NewFactory()
	outer, ctx, err := uow.Begin(context.Background(), factory, uow.TxOptions{})
	require.NoError(t, err)
	defer func() { _ = outer.Rollback(ctx) }()

	_, err = uow.Read(ctx, nil, func(_ context.Context, unit uow.UnitOfWork) (struct{}, error) {
		assert.Same(t, outer, unit)
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

func TestReadWithoutFactory(t *testing.T) {
	_, err := uow.Read(context.Background(), nil, func(context.Context, uow.UnitOfWork) (int, error) {
		return 0, errors.New("not reached")
	})
	assert.ErrorIs(t, err, uow.ErrUnitOfWorkMissing)

	_, err = uow.Current(context.Background())
	assert.ErrorIs(t, err, uow.ErrUnitOfWorkMissing)
}
