package keymap

import "fmt"

// Mode is the interaction mode that gates which bindings are live.
type Mode int

const (
	ViewBoard Mode = iota
	SelectCategory
	ViewCard
	EditCardText
	AddTagFromViewCard
	DeleteTagFromViewCard
)

var modeNames = [...]string{
	ViewBoard:             "ViewBoard",
	SelectCategory:        "SelectCategory",
	ViewCard:              "ViewCard",
	EditCardText:          "EditCardText",
	AddTagFromViewCard:    "AddTagFromViewCard",
	DeleteTagFromViewCard: "DeleteTagFromViewCard",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps a mode name back to its Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// AllModes returns every mode in declaration order.
func AllModes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range modeNames {
		out[i] = Mode(i)
	}
	return out
}

// TakesText reports whether the mode routes unbound keys to a text input.
func (m Mode) TakesText() bool {
	switch m {
	case SelectCategory, EditCardText, AddTagFromViewCard, DeleteTagFromViewCard:
		return true
	}
	return false
}
