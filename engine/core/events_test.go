package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFireStopsAtFirstHandler(t *testing.T) {
	require.True(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })

	var calls []string
	first, second := "first", "second"

	require.True(t, EventRegister(EVENT_CODE_KEY_PRESSED, &first, func(ctx EventContext) bool {
		calls = append(calls, first)
		return ctx.Data.(*KeyEvent).KeyCode == KEY_ESCAPE
	}))
	require.True(t, EventRegister(EVENT_CODE_KEY_PRESSED, &second, func(ctx EventContext) bool {
		calls = append(calls, second)
		return true
	}))
	assert.False(t, EventRegister(EVENT_CODE_KEY_PRESSED, &first, func(EventContext) bool { return false }))

	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_KEY_PRESSED, Data: &KeyEvent{KeyCode: KEY_A}}))
	assert.Equal(t, []string{first, second}, calls)

	calls = nil
	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_KEY_PRESSED, Data: &KeyEvent{KeyCode: KEY_ESCAPE}}))
	assert.Equal(t, []string{first}, calls)
}

func TestEventUnregister(t *testing.T) {
	require.True(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })

	owner := "owner"
	fired := 0
	require.True(t, EventRegister(EVENT_CODE_RESIZED, &owner, func(EventContext) bool {
		fired++
		return true
	}))
	require.True(t, EventUnregister(EVENT_CODE_RESIZED, &owner))
	assert.False(t, EventUnregister(EVENT_CODE_RESIZED, &owner))

	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED}))
	assert.Zero(t, fired)
}
