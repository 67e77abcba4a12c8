package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CardID identifies a card on the board. IDs are assigned by the backend.
type CardID int

// Tag is a "category:value" label attached to a card.
type Tag string

// Category returns the part of the tag before the first colon, or "" if the
// tag has no colon.
func (t Tag) Category() string {
	if i := strings.IndexByte(string(t), ':'); i >= 0 {
		return string(t[:i])
	}
	return ""
}

// Value returns the part of the tag after the first colon, or the whole tag
// if it has no colon.
func (t Tag) Value() string {
	if i := strings.IndexByte(string(t), ':'); i >= 0 {
		return string(t[i+1:])
	}
	return string(t)
}

// IsQualified reports whether the tag carries a category prefix.
func (t Tag) IsQualified() bool {
	return strings.IndexByte(string(t), ':') >= 0
}

// NewTag joins a category and value into a tag.
func NewTag(category, value string) Tag {
	return Tag(category + ":" + value)
}

type Card struct {
	ID   CardID `json:"id"`
	Text string `json:"text"`
	Tags []Tag  `json:"tags"`
}

// HasTag reports whether the card carries tag.
func (c Card) HasTag(tag Tag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Title returns the first non-empty line of the card text.
func (c Card) Title() string {
	for _, line := range strings.Split(c.Text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			return line
		}
	}
	return ""
}

// CardSet holds the board's cards keyed by id. The backend has served both an
// object keyed by id and a plain array of cards, so both decode.
type CardSet map[CardID]Card

func (s *CardSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	out := make(CardSet)
	if len(data) > 0 && data[0] == '[' {
		var list []Card
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode cards array: %w", err)
		}
		for _, c := range list {
			out[c.ID] = c
		}
		*s = out
		return nil
	}

	var keyed map[CardID]Card
	if err := json.Unmarshal(data, &keyed); err != nil {
		return fmt.Errorf("decode cards object: %w", err)
	}
	for id, c := range keyed {
		// Entries keyed by id may omit the id field.
		if c.ID == 0 {
			c.ID = id
		}
		out[id] = c
	}
	*s = out
	return nil
}

// Selection is the backend's notion of the current card and column tag.
type Selection struct {
	CardID *CardID `json:"card_id"`
	Tag    *Tag    `json:"tag"`
}

type InteractionState struct {
	Selection Selection `json:"selection"`
	Filter    string    `json:"filter"`
}

// AppState is a full snapshot of the board as served by GET /state. It is
// replaced wholesale after every action and never patched locally.
type AppState struct {
	BoardName           string           `json:"board_name"`
	Cards               CardSet          `json:"cards"`
	CardOrder           []CardID         `json:"card_order"`
	Categories          []string         `json:"categories"`
	Tags                []Tag            `json:"tags"`
	InteractionState    InteractionState `json:"interaction_state"`
	CurrentCategoryView map[Tag][]CardID `json:"current_category_view"`
}

// SelectedCard returns the selected card, if any and if it exists.
func (s *AppState) SelectedCard() (Card, bool) {
	if s == nil || s.InteractionState.Selection.CardID == nil {
		return Card{}, false
	}
	c, ok := s.Cards[*s.InteractionState.Selection.CardID]
	return c, ok
}

// SelectedCardID returns the selected card id or nil.
func (s *AppState) SelectedCardID() *CardID {
	if s == nil {
		return nil
	}
	return s.InteractionState.Selection.CardID
}

// SelectedTag returns the selected column tag or nil.
func (s *AppState) SelectedTag() *Tag {
	if s == nil {
		return nil
	}
	return s.InteractionState.Selection.Tag
}

// InCategoryView reports whether the snapshot carries a category view.
func (s *AppState) InCategoryView() bool {
	return s != nil && s.CurrentCategoryView != nil
}

// ViewedCategory returns the category currently viewed, derived from the
// selected tag or, failing that, from any qualified column key.
func (s *AppState) ViewedCategory() string {
	if !s.InCategoryView() {
		return ""
	}
	if t := s.SelectedTag(); t != nil && t.IsQualified() {
		return t.Category()
	}
	keys := make([]string, 0, len(s.CurrentCategoryView))
	for k := range s.CurrentCategoryView {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		if Tag(k).IsQualified() {
			return Tag(k).Category()
		}
	}
	return ""
}

// TagStrings returns the board tags as plain strings, sorted.
func (s *AppState) TagStrings() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// DecodeState parses a GET /state body.
func DecodeState(data []byte) (*AppState, error) {
	var st AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}
