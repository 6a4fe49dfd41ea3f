package meter

// Linux input event type for key transitions, and the press value. Release
// is 0 and autorepeat is 2; neither counts, so held keys are not inflated.
const (
	evKey    = 1
	keyPress = 1
)

// Only the legacy compact keycode range is understood; extended and media
// keys fall outside it and are ignored, never an error.
const maxCode = 128

// Modifier and control keys that do not represent typed content.
const (
	codeBackspace  = 14
	codeLeftCtrl   = 29
	codeLeftShift  = 42
	codeRightShift = 54
	codeLeftAlt    = 56
	codeCapsLock   = 58
	codeRightCtrl  = 97
	codeRightAlt   = 100
)

// Countable reports whether a raw input event is a qualifying keystroke:
// a key-press transition of a tracked, non-modifier key. Pure and
// stateless.
func Countable(evType, code uint16, value int32) bool {
	if evType != evKey {
		return false
	}
	if code == 0 || code >= maxCode {
		return false
	}
	if value != keyPress {
		return false
	}
	switch code {
	case codeLeftShift, codeRightShift,
		codeLeftCtrl, codeRightCtrl,
		codeLeftAlt, codeRightAlt,
		codeCapsLock, codeBackspace:
		return false
	}
	return true
}
