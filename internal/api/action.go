package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Scope says what an action operates on. Card-scoped actions mutate the
// currently selected card and are serialised per card.
type Scope int

const (
	ScopeBoard Scope = iota
	ScopeCard
)

// Action is a single intent posted to the backend. Actions are built by key
// handlers and forwarded immediately; they are never stored.
type Action interface {
	Type() string
	Scope() Scope
}

type NewCard struct{}
type DeleteCurrentCard struct{}
type SetCurrentCardText struct{ Text string }
type AddTagToCurrentCard struct{ Tag Tag }
type DeleteTagFromCurrentCard struct{ Tag Tag }
type SelectCardVerticalOffset struct{ Offset int }
type SelectCardHorizontalOffset struct{ Offset int }
type MoveCurrentCardVerticalOffset struct{ Offset int }
type MoveCurrentCardHorizontalInCategory struct{ Offset int }
type ViewCategory struct{ Category string }
type ViewDefault struct{}
type Save struct{}

func (NewCard) Type() string                             { return "NewCard" }
func (DeleteCurrentCard) Type() string                   { return "DeleteCurrentCard" }
func (SetCurrentCardText) Type() string                  { return "SetCurrentCardText" }
func (AddTagToCurrentCard) Type() string                 { return "AddTagToCurrentCard" }
func (DeleteTagFromCurrentCard) Type() string            { return "DeleteTagFromCurrentCard" }
func (SelectCardVerticalOffset) Type() string            { return "SelectCardVerticalOffset" }
func (SelectCardHorizontalOffset) Type() string          { return "SelectCardHorizontalOffset" }
func (MoveCurrentCardVerticalOffset) Type() string       { return "MoveCurrentCardVerticalOffset" }
func (MoveCurrentCardHorizontalInCategory) Type() string { return "MoveCurrentCardHorizontalInCategory" }
func (ViewCategory) Type() string                        { return "ViewCategory" }
func (ViewDefault) Type() string                         { return "ViewDefault" }
func (Save) Type() string                                { return "Save" }

func (NewCard) Scope() Scope                             { return ScopeBoard }
func (DeleteCurrentCard) Scope() Scope                   { return ScopeCard }
func (SetCurrentCardText) Scope() Scope                  { return ScopeCard }
func (AddTagToCurrentCard) Scope() Scope                 { return ScopeCard }
func (DeleteTagFromCurrentCard) Scope() Scope            { return ScopeCard }
func (SelectCardVerticalOffset) Scope() Scope            { return ScopeBoard }
func (SelectCardHorizontalOffset) Scope() Scope          { return ScopeBoard }
func (MoveCurrentCardVerticalOffset) Scope() Scope       { return ScopeCard }
func (MoveCurrentCardHorizontalInCategory) Scope() Scope { return ScopeCard }
func (ViewCategory) Scope() Scope                        { return ScopeBoard }
func (ViewDefault) Scope() Scope                         { return ScopeBoard }
func (Save) Scope() Scope                                { return ScopeBoard }

// wireAction is the JSON form of every action: a "type" discriminator plus
// whichever payload field the variant carries.
type wireAction struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	Tag      *string `json:"tag,omitempty"`
	Offset   *int    `json:"offset,omitempty"`
	Category *string `json:"category,omitempty"`
}

// EncodeAction serialises an action for POST /action.
func EncodeAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("encode action: nil action")
	}
	w := wireAction{Type: a.Type()}
	switch v := a.(type) {
	case NewCard, DeleteCurrentCard, ViewDefault, Save:
	case SetCurrentCardText:
		w.Text = &v.Text
	case AddTagToCurrentCard:
		s := string(v.Tag)
		w.Tag = &s
	case DeleteTagFromCurrentCard:
		s := string(v.Tag)
		w.Tag = &s
	case SelectCardVerticalOffset:
		w.Offset = &v.Offset
	case SelectCardHorizontalOffset:
		w.Offset = &v.Offset
	case MoveCurrentCardVerticalOffset:
		w.Offset = &v.Offset
	case MoveCurrentCardHorizontalInCategory:
		w.Offset = &v.Offset
	case ViewCategory:
		w.Category = &v.Category
	default:
		return nil, fmt.Errorf("encode action: unknown action type %T", a)
	}
	return json.Marshal(w)
}

// DecodeAction parses the JSON form of an action.
func DecodeAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	need := func(field string, present bool) error {
		if !present {
			return fmt.Errorf("decode action: %s requires %q", w.Type, field)
		}
		return nil
	}

	switch w.Type {
	case "NewCard":
		return NewCard{}, nil
	case "DeleteCurrentCard":
		return DeleteCurrentCard{}, nil
	case "ViewDefault":
		return ViewDefault{}, nil
	case "Save":
		return Save{}, nil
	case "SetCurrentCardText":
		if err := need("text", w.Text != nil); err != nil {
			return nil, err
		}
		return SetCurrentCardText{Text: *w.Text}, nil
	case "AddTagToCurrentCard", "DeleteTagFromCurrentCard":
		if err := need("tag", w.Tag != nil); err != nil {
			return nil, err
		}
		if w.Type == "AddTagToCurrentCard" {
			return AddTagToCurrentCard{Tag: Tag(*w.Tag)}, nil
		}
		return DeleteTagFromCurrentCard{Tag: Tag(*w.Tag)}, nil
	case "SelectCardVerticalOffset", "SelectCardHorizontalOffset",
		"MoveCurrentCardVerticalOffset", "MoveCurrentCardHorizontalInCategory":
		if err := need("offset", w.Offset != nil); err != nil {
			return nil, err
		}
		return offsetAction(w.Type, *w.Offset), nil
	case "ViewCategory":
		if err := need("category", w.Category != nil); err != nil {
			return nil, err
		}
		return ViewCategory{Category: *w.Category}, nil
	case "":
		return nil, fmt.Errorf("decode action: missing \"type\"")
	default:
		return nil, fmt.Errorf("decode action: unknown type %q", w.Type)
	}
}

func offsetAction(typ string, offset int) Action {
	switch typ {
	case "SelectCardVerticalOffset":
		return SelectCardVerticalOffset{Offset: offset}
	case "SelectCardHorizontalOffset":
		return SelectCardHorizontalOffset{Offset: offset}
	case "MoveCurrentCardVerticalOffset":
		return MoveCurrentCardVerticalOffset{Offset: offset}
	default:
		return MoveCurrentCardHorizontalInCategory{Offset: offset}
	}
}

// ParseAction builds an action from a type name and an optional textual
// argument, as typed on the command line.
func ParseAction(typ string, arg string) (Action, error) {
	switch typ {
	case "NewCard":
		return NewCard{}, nil
	case "DeleteCurrentCard":
		return DeleteCurrentCard{}, nil
	case "ViewDefault":
		return ViewDefault{}, nil
	case "Save":
		return Save{}, nil
	case "SetCurrentCardText":
		return SetCurrentCardText{Text: arg}, nil
	case "AddTagToCurrentCard", "DeleteTagFromCurrentCard":
		if arg == "" {
			return nil, fmt.Errorf("%s requires a tag argument", typ)
		}
		if typ == "AddTagToCurrentCard" {
			return AddTagToCurrentCard{Tag: Tag(arg)}, nil
		}
		return DeleteTagFromCurrentCard{Tag: Tag(arg)}, nil
	case "SelectCardVerticalOffset", "SelectCardHorizontalOffset",
		"MoveCurrentCardVerticalOffset", "MoveCurrentCardHorizontalInCategory":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%s requires an integer offset, got %q", typ, arg)
		}
		return offsetAction(typ, n), nil
	case "ViewCategory":
		if arg == "" {
			return nil, fmt.Errorf("ViewCategory requires a category argument")
		}
		return ViewCategory{Category: arg}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q (known: %v)", typ, ActionTypes())
	}
}

// ActionTypes lists every action type name, sorted.
func ActionTypes() []string {
	types := []string{
		NewCard{}.Type(), DeleteCurrentCard{}.Type(), SetCurrentCardText{}.Type(),
		AddTagToCurrentCard{}.Type(), DeleteTagFromCurrentCard{}.Type(),
		SelectCardVerticalOffset{}.Type(), SelectCardHorizontalOffset{}.Type(),
		MoveCurrentCardVerticalOffset{}.Type(), MoveCurrentCardHorizontalInCategory{}.Type(),
		ViewCategory{}.Type(), ViewDefault{}.Type(), Save{}.Type(),
	}
	sort.Strings(types)
	return types
}
