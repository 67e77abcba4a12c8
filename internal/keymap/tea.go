package keymap

import (
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

// Tokens translates a terminal key press into the key-down tokens it stands
// for, modifiers first. Terminals report presses only, so callers feed these
// as a tap: every token down in order, then up in reverse.
func Tokens(msg tea.KeyMsg) []string {
	var mods []string
	if msg.Alt {
		mods = append(mods, KeyAlt)
	}

	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return nil
		}
		r := msg.Runes[0]
		if unicode.IsUpper(r) {
			return append(mods, KeyShift, string(unicode.ToLower(r)))
		}
		return append(mods, string(r))
	case tea.KeySpace:
		return append(mods, KeySpace)
	case tea.KeyEnter:
		return append(mods, KeyEnter)
	case tea.KeyEsc:
		return append(mods, KeyEscape)
	case tea.KeyTab:
		return append(mods, KeyTab)
	case tea.KeyShiftTab:
		return append(mods, KeyShift, KeyTab)
	case tea.KeyBackspace:
		return append(mods, KeyBackspace)
	case tea.KeyDelete:
		return append(mods, KeyDelete)
	case tea.KeyUp:
		return append(mods, KeyUp)
	case tea.KeyDown:
		return append(mods, KeyDown)
	case tea.KeyLeft:
		return append(mods, KeyLeft)
	case tea.KeyRight:
		return append(mods, KeyRight)
	case tea.KeyShiftUp:
		return append(mods, KeyShift, KeyUp)
	case tea.KeyShiftDown:
		return append(mods, KeyShift, KeyDown)
	case tea.KeyShiftLeft:
		return append(mods, KeyShift, KeyLeft)
	case tea.KeyShiftRight:
		return append(mods, KeyShift, KeyRight)
	case tea.KeyHome:
		return append(mods, KeyHome)
	case tea.KeyEnd:
		return append(mods, KeyEnd)
	case tea.KeyPgUp:
		return append(mods, KeyPageUp)
	case tea.KeyPgDown:
		return append(mods, KeyPageDown)
	}

	// Control keys print as "ctrl+x".
	s := msg.String()
	if rest, ok := strings.CutPrefix(s, "alt+"); ok {
		s = rest
	}
	if rest, ok := strings.CutPrefix(s, "ctrl+"); ok && rest != "" {
		return append(mods, KeyControl, rest)
	}
	return nil
}
