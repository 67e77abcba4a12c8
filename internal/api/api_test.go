package api

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTagParts(t *testing.T) {
	tests := []struct {
		tag      Tag
		category string
		value    string
	}{
		{"color:blue", "color", "blue"},
		{"status:in:progress", "status", "in:progress"},
		{"plain", "", "plain"},
		{":empty", "", "empty"},
	}
	for _, tt := range tests {
		if got := tt.tag.Category(); got != tt.category {
			t.Errorf("%q.Category() = %q, want %q", tt.tag, got, tt.category)
		}
		if got := tt.tag.Value(); got != tt.value {
			t.Errorf("%q.Value() = %q, want %q", tt.tag, got, tt.value)
		}
	}
}

func TestDecodeState_CardsObjectAndArray(t *testing.T) {
	object := `{
		"board_name": "Work",
		"cards": {"1": {"id": 1, "text": "a", "tags": ["color:blue"]}, "2": {"text": "b", "tags": []}},
		"card_order": [2, 1],
		"categories": ["color"],
		"tags": ["color:blue"],
		"interaction_state": {"selection": {"card_id": 1, "tag": null}, "filter": ""},
		"current_category_view": null
	}`
	array := `{
		"board_name": "Work",
		"cards": [{"id": 1, "text": "a", "tags": ["color:blue"]}, {"id": 2, "text": "b", "tags": []}],
		"card_order": [2, 1],
		"categories": ["color"],
		"tags": ["color:blue"],
		"interaction_state": {"selection": {"card_id": 1, "tag": null}, "filter": ""}
	}`

	for name, body := range map[string]string{"object": object, "array": array} {
		st, err := DecodeState([]byte(body))
		if err != nil {
			t.Fatalf("%s: DecodeState: %v", name, err)
		}
		if len(st.Cards) != 2 {
			t.Fatalf("%s: expected 2 cards, got %d", name, len(st.Cards))
		}
		if st.Cards[2].ID != 2 || st.Cards[2].Text != "b" {
			t.Errorf("%s: card 2 = %+v", name, st.Cards[2])
		}
		card, ok := st.SelectedCard()
		if !ok || card.ID != 1 {
			t.Errorf("%s: selected card = %+v, %v", name, card, ok)
		}
		if st.InCategoryView() {
			t.Errorf("%s: expected no category view", name)
		}
	}
}

func TestDecodeState_CategoryView(t *testing.T) {
	body := `{"board_name":"b","cards":{"5":{"id":5,"text":"x","tags":["color:blue"]}},"card_order":[5],
		"interaction_state":{"selection":{"card_id":5,"tag":"color:blue"},"filter":"x"},
		"current_category_view":{"color:blue":[5]}}`
	st, err := DecodeState([]byte(body))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if !st.InCategoryView() {
		t.Fatal("expected category view")
	}
	if got := st.ViewedCategory(); got != "color" {
		t.Errorf("ViewedCategory() = %q, want color", got)
	}
	if st.InteractionState.Filter != "x" {
		t.Errorf("filter = %q", st.InteractionState.Filter)
	}
}

func TestValidate(t *testing.T) {
	st := &AppState{
		Cards: CardSet{
			1: {ID: 1},
			2: {ID: 2},
			3: {ID: 3},
		},
		CardOrder: []CardID{1, 1, 9, 2},
		CurrentCategoryView: map[Tag][]CardID{
			"color:blue": {3, 7},
		},
	}

	got := st.Validate()
	want := []IntegrityWarning{
		{Where: "card_order", CardID: 1, Reason: ReasonDuplicate},
		{Where: "card_order", CardID: 9, Reason: ReasonMissing},
		{Where: "card_order", CardID: 3, Reason: ReasonUnordered},
		{Where: "current_category_view[color:blue]", CardID: 7, Reason: ReasonMissing},
	}
	if len(got) != len(want) {
		t.Fatalf("Validate() returned %d warnings, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("warning %d = %v, want %v", i, got[i], want[i])
		}
	}

	clean := &AppState{Cards: CardSet{1: {ID: 1}}, CardOrder: []CardID{1}}
	if w := clean.Validate(); len(w) != 0 {
		t.Errorf("expected no warnings, got %v", w)
	}
}

func TestEncodeAction(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{NewCard{}, `{"type":"NewCard"}`},
		{SetCurrentCardText{Text: ""}, `{"type":"SetCurrentCardText","text":""}`},
		{AddTagToCurrentCard{Tag: "color:red"}, `{"type":"AddTagToCurrentCard","tag":"color:red"}`},
		{SelectCardVerticalOffset{Offset: 0}, `{"type":"SelectCardVerticalOffset","offset":0}`},
		{MoveCurrentCardVerticalOffset{Offset: -2}, `{"type":"MoveCurrentCardVerticalOffset","offset":-2}`},
		{ViewCategory{Category: "color"}, `{"type":"ViewCategory","category":"color"}`},
	}
	for _, tt := range tests {
		got, err := EncodeAction(tt.action)
		if err != nil {
			t.Fatalf("EncodeAction(%T): %v", tt.action, err)
		}
		if string(got) != tt.want {
			t.Errorf("EncodeAction(%T) = %s, want %s", tt.action, got, tt.want)
		}
	}

	if _, err := EncodeAction(nil); err == nil {
		t.Error("expected error for nil action")
	}
}

func TestDecodeAction_Errors(t *testing.T) {
	tests := []struct {
		body    string
		wantErr string
	}{
		{`{}`, "missing"},
		{`{"type":"Explode"}`, "unknown type"},
		{`{"type":"SetCurrentCardText"}`, `requires "text"`},
		{`{"type":"SelectCardVerticalOffset"}`, `requires "offset"`},
		{`not json`, "decode action"},
	}
	for _, tt := range tests {
		_, err := DecodeAction([]byte(tt.body))
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("DecodeAction(%s) error = %v, want containing %q", tt.body, err, tt.wantErr)
		}
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("MoveCurrentCardHorizontalInCategory", "-1")
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	if a != (MoveCurrentCardHorizontalInCategory{Offset: -1}) {
		t.Errorf("got %#v", a)
	}
	if a.Scope() != ScopeCard {
		t.Errorf("move action should be card scoped")
	}

	if _, err := ParseAction("SelectCardVerticalOffset", "up"); err == nil {
		t.Error("expected error for non-integer offset")
	}
	if _, err := ParseAction("Nope", ""); err == nil {
		t.Error("expected error for unknown type")
	}

	raw, _ := EncodeAction(ViewDefault{})
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || len(m) != 1 {
		t.Errorf("ViewDefault should carry only its type, got %s", raw)
	}
}
