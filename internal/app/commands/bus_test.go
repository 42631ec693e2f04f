package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler accepts everything listed in kinds.
type recordingHandler struct {
	name  string
	kinds map[Kind]bool
	log   *[]string
	err   error
}

func (h recordingHandler) Accepts(cmd Command) bool { return h.kinds[cmd.Kind()] }

func (h recordingHandler) Handle(_ context.Context, _ Command) error {
	*h.log = append(*h.log, h.name)
	return h.err
}

func TestBusFirstAcceptingHandlerWins(t *testing.T) {
	var calls []string
	both := map[Kind]bool{KindProductAdd: true, KindProductRemove: true}
	bus := NewBus(
		recordingHandler{name: "add", kinds: both, log: &calls},
		recordingHandler{name: "remove", kinds: both, log: &calls},
	)

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Dispatch(context.Background(), ProductRemove{CartID: "1"}))
	}
	assert.Equal(t, []string{"add", "add", "add", "add", "add"}, calls)
}

func TestBusSkipsNonAcceptingHandlers(t *testing.T) {
	var calls []string
	bus := NewBus(
		recordingHandler{name: "add", kinds: map[Kind]bool{KindProductAdd: true}, log: &calls},
		recordingHandler{name: "remove", kinds: map[Kind]bool{KindProductRemove: true}, log: &calls},
	)

	require.NoError(t, bus.Dispatch(context.Background(), ProductRemove{CartID: "1"}))
	assert.Equal(t, []string{"remove"}, calls)
}

func TestBusUnhandledCommand(t *testing.T) {
	var calls []string
	bus := NewBus(recordingHandler{name: "add", kinds: map[Kind]bool{KindProductAdd: true}, log: &calls})

	err := bus.Dispatch(context.Background(), ProductRemove{CartID: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnhandledCommand))
	assert.Contains(t, err.Error(), "PRODUCT_REMOVE")
	assert.Empty(t, calls)

	err = bus.Dispatch(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrUnhandledCommand))
}

func TestBusPropagatesHandlerError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	bus := NewBus(recordingHandler{name: "add", kinds: map[Kind]bool{KindProductAdd: true}, log: &calls, err: boom})

	err := bus.Dispatch(context.Background(), ProductAdd{CartID: "1"})
	assert.ErrorIs(t, err, boom)
}

func TestBusKinds(t *testing.T) {
	pub := &stubPublisher{}
	bus := NewBus(
		NewProductAddHandler(pub, HandlerConfig{}),
		nil,
		NewProductRemoveHandler(pub, HandlerConfig{}),
		NewProductAddHandler(pub, HandlerConfig{}),
	)
	assert.Equal(t, []Kind{KindProductAdd, KindProductRemove}, bus.Kinds())
}
