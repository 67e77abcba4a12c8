package keymap

import (
	"fmt"
	"strings"
)

// HelpBinding is a single line of help.
type HelpBinding struct {
	Keys        string
	Description string
}

// Help lists the described bindings live in mode. Bindings sharing a
// description are folded onto one line, e.g. "j / k".
func (r *Registry) Help(mode Mode) []HelpBinding {
	var out []HelpBinding
	index := make(map[string]int)
	seenCombo := make(map[string]bool)

	for _, b := range r.Bindings(mode) {
		if b.Description == "" {
			continue
		}
		// First match wins, so a shadowed binding is never shown.
		k := b.Combo.key()
		if seenCombo[k] {
			continue
		}
		seenCombo[k] = true

		if i, ok := index[b.Description]; ok {
			out[i].Keys += " / " + b.Combo.String()
			continue
		}
		index[b.Description] = len(out)
		out = append(out, HelpBinding{Keys: b.Combo.String(), Description: b.Description})
	}
	return out
}

// GenerateHelp renders the help for mode as aligned text.
func (r *Registry) GenerateHelp(mode Mode) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s:\n", strings.ToUpper(mode.String())))
	for _, h := range r.Help(mode) {
		sb.WriteString(fmt.Sprintf("  %-18s %s\n", h.Keys, h.Description))
	}
	return sb.String()
}
