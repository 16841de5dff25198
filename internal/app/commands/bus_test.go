package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ Name string }

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestDispatchTyped(t *testing.T) {
	bus := NewInMemoryBus()
	Register[pingCommand, string](bus, HandlerFunc[pingCommand, string](func(_ context.Context, cmd pingCommand) (string, error) {
		return "pong " + cmd.Name, nil
	}))

	got, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "pong a", got)

	_, err = Dispatch[pingCommand, int](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)
	assert.Contains(t, err.Error(), "test.ping returned string")

	_, err = bus.Dispatch(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	assert.Equal(t, []string{"test.ping"}, bus.Keys())
	assert.Panics(t, func() {
		Register[pingCommand, string](bus, HandlerFunc[pingCommand, string](func(context.Context, pingCommand) (string, error) { return "", nil }))
	})
}

func TestDispatchNilBus(t *testing.T) {
	_, err := Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, "test.ping", KeyOf[pingCommand]())
	assert.Equal(t, "test.other", KeyOf[otherCommand]())
}
