package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_SupersededPublishIsDropped(t *testing.T) {
	h := newHolder()

	first, ok := h.begin()
	require.True(t, ok)
	second, ok := h.begin()
	require.True(t, ok)

	// The earlier operation resolves after the later one.
	assert.True(t, h.publish(second, State{Phase: PhaseAuthenticated, User: &CurrentUser{Username: "second"}}))
	assert.False(t, h.publish(first, State{Phase: PhaseAuthenticated, User: &CurrentUser{Username: "first"}}))

	assert.Equal(t, "second", h.snapshot().User.Username)
}

func TestHolder_ResetSupersedesInFlight(t *testing.T) {
	h := newHolder()

	seq, ok := h.begin()
	require.True(t, ok)

	// Logout lands while a fetch is in flight.
	h.reset(State{Phase: PhaseUnauthenticated})

	assert.False(t, h.publish(seq, State{Phase: PhaseAuthenticated, User: &CurrentUser{Username: "late"}}),
		"a fetch must not clobber a logout that happened after it was issued")
	assert.Equal(t, PhaseUnauthenticated, h.snapshot().Phase)
}

func TestHolder_CloseStopsEverything(t *testing.T) {
	h := newHolder()

	seq, ok := h.begin()
	require.True(t, ok)

	h.close()

	assert.False(t, h.publish(seq, State{Phase: PhaseAuthenticated}))
	_, ok = h.begin()
	assert.False(t, ok)
}

func TestHolder_ListenersSeeTransitionsInOrder(t *testing.T) {
	h := newHolder()

	var phases []Phase
	cancel := h.subscribe(func(s State) { phases = append(phases, s.Phase) })

	seq, _ := h.begin()
	h.publish(seq, State{Phase: PhaseAuthenticated, User: &CurrentUser{}})
	h.reset(State{Phase: PhaseUnauthenticated})

	assert.Equal(t, []Phase{PhasePending, PhaseAuthenticated, PhaseUnauthenticated}, phases)

	cancel()
	h.reset(State{Phase: PhaseUnauthenticated})
	assert.Len(t, phases, 3)
}
