package core

import "sync"

// Key code definitions
type KeyCode uint16

const (
	KEY_UNKNOWN   KeyCode = 0x00
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_0         KeyCode = 0x30
	KEY_1         KeyCode = 0x31
	KEY_2         KeyCode = 0x32
	KEY_3         KeyCode = 0x33
	KEY_4         KeyCode = 0x34
	KEY_5         KeyCode = 0x35
	KEY_6         KeyCode = 0x36
	KEY_7         KeyCode = 0x37
	KEY_8         KeyCode = 0x38
	KEY_9         KeyCode = 0x39
	KEY_A         KeyCode = 0x41
	KEY_B         KeyCode = 0x42
	KEY_C         KeyCode = 0x43
	KEY_D         KeyCode = 0x44
	KEY_E         KeyCode = 0x45
	KEY_F         KeyCode = 0x46
	KEY_G         KeyCode = 0x47
	KEY_H         KeyCode = 0x48
	KEY_I         KeyCode = 0x49
	KEY_J         KeyCode = 0x4A
	KEY_K         KeyCode = 0x4B
	KEY_L         KeyCode = 0x4C
	KEY_M         KeyCode = 0x4D
	KEY_N         KeyCode = 0x4E
	KEY_O         KeyCode = 0x4F
	KEY_P         KeyCode = 0x50
	KEY_Q         KeyCode = 0x51
	KEY_R         KeyCode = 0x52
	KEY_S         KeyCode = 0x53
	KEY_T         KeyCode = 0x54
	KEY_U         KeyCode = 0x55
	KEY_V         KeyCode = 0x56
	KEY_W         KeyCode = 0x57
	KEY_X         KeyCode = 0x58
	KEY_Y         KeyCode = 0x59
	KEY_Z         KeyCode = 0x5A
	KEY_F1        KeyCode = 0x70
	KEY_F2        KeyCode = 0x71
	KEY_F3        KeyCode = 0x72
	KEY_F4        KeyCode = 0x73

	KEYS_MAX_KEYS KeyCode = 0xFF
)

// Keyboard state structure
type KeyboardState struct {
	Keys [256]bool
}

// InputState holds current and previous keyboard states. The platform writes it from the event
// thread, the game reads it from the update goroutine.
type InputState struct {
	mu               sync.RWMutex
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
}

var onceInput sync.Once
var inputState *InputState = nil

func InputInitialize() error {
	onceInput.Do(func() {
		inputState = &InputState{}
	})
	LogInfo("Input subsystem initialized.")
	return nil
}

func InputShutdown() error {
	return nil
}

// InputUpdate copies the current state into the previous one. Called once per update tick.
func InputUpdate() {
	if inputState == nil {
		return
	}
	inputState.mu.Lock()
	inputState.KeyboardPrevious = inputState.KeyboardCurrent
	inputState.mu.Unlock()
}

func InputIsKeyDown(key KeyCode) bool {
	if inputState == nil {
		return false
	}
	inputState.mu.RLock()
	defer inputState.mu.RUnlock()
	return inputState.KeyboardCurrent.Keys[key]
}

func InputIsKeyUp(key KeyCode) bool {
	return !InputIsKeyDown(key)
}

func InputWasKeyDown(key KeyCode) bool {
	if inputState == nil {
		return false
	}
	inputState.mu.RLock()
	defer inputState.mu.RUnlock()
	return inputState.KeyboardPrevious.Keys[key]
}

// InputKeyPressed reports a key that went down since the previous update tick.
func InputKeyPressed(key KeyCode) bool {
	return InputIsKeyDown(key) && !InputWasKeyDown(key)
}

func InputProcessKey(key KeyCode, pressed bool) {
	if inputState == nil {
		return
	}
	inputState.mu.Lock()
	changed := inputState.KeyboardCurrent.Keys[key] != pressed
	inputState.KeyboardCurrent.Keys[key] = pressed
	inputState.mu.Unlock()

	// Only fire when the state actually changed.
	if !changed {
		return
	}
	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	EventFire(EventContext{
		Type: code,
		Data: &KeyEvent{
			KeyCode: key,
		},
	})
}
