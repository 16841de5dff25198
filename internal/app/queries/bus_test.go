package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupQuery struct{ ID string }

func (lookupQuery) Key() string { return "test.lookup" }

type unknownQuery struct{}

func (unknownQuery) Key() string { return "test.unknown" }

type lookupHandler struct{}

func (lookupHandler) Handle(_ context.Context, q lookupQuery) (map[string]string, error) {
	if q.ID == "" {
		return nil, nil
	}
	return map[string]string{"id": q.ID}, nil
}

func TestAskTyped(t *testing.T) {
	bus := NewInMemoryBus()
	Register[lookupQuery, map[string]string](bus, lookupHandler{})

	got, err := Ask[lookupQuery, map[string]string](context.Background(), bus, lookupQuery{ID: "item-1"})
	require.NoError(t, err)
	assert.Equal(t, "item-1", got["id"])

	empty, err := Ask[lookupQuery, map[string]string](context.Background(), bus, lookupQuery{})
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = Ask[lookupQuery, []string](context.Background(), bus, lookupQuery{ID: "x"})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = bus.Ask(context.Background(), unknownQuery{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Ask[lookupQuery, map[string]string](context.Background(), nil, lookupQuery{})
	assert.ErrorIs(t, err, ErrNilBus)

	assert.Equal(t, []string{"test.lookup"}, bus.Keys())
	assert.Panics(t, func() { Register[lookupQuery, map[string]string](bus, lookupHandler{}) })
}
