package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Resized/resolution changed from the OS. Data: *SystemEvent
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// A watched settings file was rewritten. Data: *SettingsEvent
	EVENT_CODE_SETTINGS_CHANGED SystemEventCode = 0x09

	// A watched asset was created or rewritten. Data: *AssetEvent
	EVENT_CODE_ASSET_CHANGED SystemEventCode = 0x0A

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type   SystemEventCode
	Sender interface{}
	Data   interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type SettingsEvent struct {
	Settings *Settings
}

type AssetEvent struct {
	Path string
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystemState struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

var eventState *eventSystemState = nil
var onceEvent sync.Once

func EventSystemInitialize() bool {
	onceEvent.Do(func() {
		eventState = &eventSystemState{
			registered: make(map[SystemEventCode][]registeredEvent),
		}
	})
	return eventState != nil
}

func EventSystemShutdown() error {
	if eventState == nil {
		return nil
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	clear(eventState.registered)
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. A listener can only be
 * registered once per code.
 * @returns true if the event is successfully registered; otherwise false.
 */
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if eventState == nil || onEvent == nil {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code `%d`", code)
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// EventUnregister removes the registration of listener for code.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	if eventState == nil {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func EventFire(context EventContext) bool {
	if eventState == nil {
		return false
	}
	eventState.mu.RLock()
	events := append([]registeredEvent(nil), eventState.registered[context.Type]...)
	eventState.mu.RUnlock()

	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}
