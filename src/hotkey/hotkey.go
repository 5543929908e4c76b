package hotkey

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// DefaultChord is used when no HOTKEY is configured.
const DefaultChord = "Ctrl+Alt+S"

// Listen starts a global keyboard hook and calls callback each time the chord
// goes down. It returns once the hook goroutine is running; the hook is
// removed when ctx is cancelled. callback runs on the hook goroutine and must
// not block.
func Listen(ctx context.Context, hotkeyConfig string, callback func()) error {
	m, err := newMatcher(hotkeyConfig)
	if err != nil {
		return err
	}
	log.Printf("Hotkey listener configured for: %s", hotkeyConfig)

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("gohook.Start returned nil channel")
	}

	go func() {
		<-ctx.Done()
		log.Printf("Stopping hotkey hook")
		gohook.End()
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			var fired bool
			switch ev.Kind {
			case gohook.KeyDown:
				fired = m.keyDown(ev.Rawcode)
			case gohook.KeyUp:
				m.keyUp(ev.Rawcode)
			default:
				continue
			}
			if fired {
				log.Printf("Hotkey %s activated", hotkeyConfig)
				if callback != nil {
					callback()
				}
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
	return nil
}

// Validate reports whether hotkeyConfig names only known keys.
func Validate(hotkeyConfig string) error {
	_, err := newMatcher(hotkeyConfig)
	return err
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// matcher tracks chord keys. It fires once per press of the full chord and
// re-arms when any chord key is released, so key auto-repeat does not refire.
type matcher struct {
	mu      sync.Mutex
	keys    []keyState
	latched bool
}

func newMatcher(hotkeyConfig string) (*matcher, error) {
	names := parseHotkey(hotkeyConfig)
	if len(names) == 0 {
		return nil, fmt.Errorf("empty hotkey %q", hotkeyConfig)
	}
	m := &matcher{}
	for _, name := range names {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", hotkeyConfig, name)
		}
		m.keys = append(m.keys, keyState{name: name, rawcodes: codes})
	}
	return m, nil
}

func (m *matcher) keyDown(code uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set(code, true) {
		return false
	}
	for _, k := range m.keys {
		if !k.pressed {
			return false
		}
	}
	if m.latched {
		return false
	}
	m.latched = true
	return true
}

func (m *matcher) keyUp(code uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set(code, false) {
		m.latched = false
	}
}

func (m *matcher) set(code uint16, pressed bool) bool {
	hit := false
	for i := range m.keys {
		for _, rc := range m.keys[i].rawcodes {
			if rc == code {
				m.keys[i].pressed = pressed
				hit = true
				break
			}
		}
	}
	return hit
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+S" to normalized key names.
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "super":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// Windows virtual key codes. Modifiers map to both left and right variants.
var rawcodes = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":       {32},
	"enter":       {13},
	"return":      {13},
	"esc":         {27},
	"escape":      {27},
	"tab":         {9},
	"backspace":   {8},
	"delete":      {46},
	"del":         {46},
	"insert":      {45},
	"ins":         {45},
	"home":        {36},
	"end":         {35},
	"pageup":      {33},
	"pgup":        {33},
	"pagedown":    {34},
	"pgdn":        {34},
	"left":        {37},
	"up":          {38},
	"right":       {39},
	"down":        {40},
	"printscreen": {44}, // VK_SNAPSHOT
	"prtsc":       {44},
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		rawcodes[string(c)] = []uint16{uint16(c - 'a' + 65)}
	}
	for c := '0'; c <= '9'; c++ {
		rawcodes[string(c)] = []uint16{uint16(c - '0' + 48)}
	}
	for n := 1; n <= 24; n++ {
		rawcodes[fmt.Sprintf("f%d", n)] = []uint16{uint16(111 + n)} // VK_F1 = 112
	}
}

// keyNameToRawcodes maps a key name to its Windows virtual key codes, or nil.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	codes, ok := rawcodes[keyName]
	if !ok {
		log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
		return nil
	}
	return codes
}
