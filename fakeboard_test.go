package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"cardboard/internal/api"
)

// fakeBoard is a small in-memory board server speaking GET /api/state and
// POST /api/action.
type fakeBoard struct {
	mu       sync.Mutex
	name     string
	cards    map[api.CardID]api.Card
	order    []api.CardID
	next     api.CardID
	selected *api.CardID
	category string
	selTag   *api.Tag
	actions  []string
	failWith int // status for the next action, 0 for success
}

func newFakeBoard(name string, texts ...string) *fakeBoard {
	b := &fakeBoard{name: name, cards: make(map[api.CardID]api.Card), next: 1}
	for _, text := range texts {
		b.add(text)
	}
	if len(b.order) > 0 {
		id := b.order[0]
		b.selected = &id
	}
	return b
}

func (b *fakeBoard) add(text string, tags ...api.Tag) api.CardID {
	id := b.next
	b.next++
	b.cards[id] = api.Card{ID: id, Text: text, Tags: tags}
	b.order = append(b.order, id)
	return id
}

func (b *fakeBoard) serve(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return srv
}

func (b *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.URL.Path == "/api/state" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(b.snapshot())
	case r.URL.Path == "/api/action" && r.Method == http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		a, err := api.DecodeAction(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.actions = append(b.actions, a.Type())
		if b.failWith != 0 {
			code := b.failWith
			b.failWith = 0
			http.Error(w, "rejected", code)
			return
		}
		b.apply(a)
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBoard) performed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.actions...)
}

func (b *fakeBoard) card(id api.CardID) api.Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cards[id]
}

func (b *fakeBoard) snapshot() *api.AppState {
	st := &api.AppState{
		BoardName: b.name,
		Cards:     make(api.CardSet, len(b.cards)),
		CardOrder: append([]api.CardID(nil), b.order...),
	}
	tagSet := map[api.Tag]bool{}
	catSet := map[string]bool{}
	for id, c := range b.cards {
		st.Cards[id] = c
		for _, t := range c.Tags {
			tagSet[t] = true
			if cat := t.Category(); cat != "" {
				catSet[cat] = true
			}
		}
	}
	for t := range tagSet {
		st.Tags = append(st.Tags, t)
	}
	sort.Slice(st.Tags, func(i, j int) bool { return st.Tags[i] < st.Tags[j] })
	for c := range catSet {
		st.Categories = append(st.Categories, c)
	}
	sort.Strings(st.Categories)

	st.InteractionState.Selection.CardID = b.selected
	st.InteractionState.Selection.Tag = b.selTag
	if b.category != "" {
		st.CurrentCategoryView = b.columns()
	}
	return st
}

// columns groups the ordered cards by their tag in the viewed category.
func (b *fakeBoard) columns() map[api.Tag][]api.CardID {
	cols := make(map[api.Tag][]api.CardID)
	for _, id := range b.order {
		for _, t := range b.cards[id].Tags {
			if t.Category() == b.category {
				cols[t] = append(cols[t], id)
			}
		}
	}
	return cols
}

func (b *fakeBoard) columnTags() []api.Tag {
	var tags []api.Tag
	for t := range b.columns() {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// list is the id sequence the selection moves through.
func (b *fakeBoard) list() []api.CardID {
	if b.category != "" && b.selTag != nil {
		return b.columns()[*b.selTag]
	}
	return b.order
}

func indexOf(ids []api.CardID, id *api.CardID) int {
	if id == nil {
		return -1
	}
	for i, x := range ids {
		if x == *id {
			return i
		}
	}
	return -1
}

func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}

func (b *fakeBoard) apply(a api.Action) {
	switch a := a.(type) {
	case api.NewCard:
		id := b.add("")
		b.selected = &id
	case api.DeleteCurrentCard:
		i := indexOf(b.order, b.selected)
		if i < 0 {
			return
		}
		delete(b.cards, b.order[i])
		b.order = append(b.order[:i], b.order[i+1:]...)
		b.selected = nil
		if len(b.order) > 0 {
			id := b.order[clampIndex(i, len(b.order))]
			b.selected = &id
		}
	case api.SetCurrentCardText:
		b.edit(func(c *api.Card) { c.Text = a.Text })
	case api.AddTagToCurrentCard:
		b.edit(func(c *api.Card) {
			if !c.HasTag(a.Tag) {
				c.Tags = append(c.Tags, a.Tag)
			}
		})
	case api.DeleteTagFromCurrentCard:
		b.edit(func(c *api.Card) {
			kept := c.Tags[:0]
			for _, t := range c.Tags {
				if t != a.Tag {
					kept = append(kept, t)
				}
			}
			c.Tags = kept
		})
	case api.SelectCardVerticalOffset:
		ids := b.list()
		if i := indexOf(ids, b.selected); i >= 0 {
			id := ids[clampIndex(i+a.Offset, len(ids))]
			b.selected = &id
		}
	case api.MoveCurrentCardVerticalOffset:
		i := indexOf(b.order, b.selected)
		if i < 0 {
			return
		}
		j := clampIndex(i+a.Offset, len(b.order))
		id := b.order[i]
		b.order = append(b.order[:i], b.order[i+1:]...)
		b.order = append(b.order[:j], append([]api.CardID{id}, b.order[j:]...)...)
	case api.SelectCardHorizontalOffset:
		tags := b.columnTags()
		if i := b.selectedColumn(tags); i >= 0 {
			tag := tags[clampIndex(i+a.Offset, len(tags))]
			b.selTag = &tag
			id := b.columns()[tag][0]
			b.selected = &id
		}
	case api.MoveCurrentCardHorizontalInCategory:
		tags := b.columnTags()
		i := b.selectedColumn(tags)
		if i < 0 {
			return
		}
		from, to := tags[i], tags[clampIndex(i+a.Offset, len(tags))]
		b.edit(func(c *api.Card) {
			for k, t := range c.Tags {
				if t == from {
					c.Tags[k] = to
				}
			}
		})
		b.selTag = &to
	case api.ViewCategory:
		b.category = a.Category
		b.selTag = nil
		for _, t := range b.columnTags() {
			if indexOf(b.columns()[t], b.selected) >= 0 {
				tag := t
				b.selTag = &tag
				break
			}
		}
	case api.ViewDefault:
		b.category = ""
		b.selTag = nil
	case api.Save:
	}
}

func (b *fakeBoard) selectedColumn(tags []api.Tag) int {
	if b.selTag == nil {
		return -1
	}
	for i, t := range tags {
		if t == *b.selTag {
			return i
		}
	}
	return -1
}

func (b *fakeBoard) edit(f func(c *api.Card)) {
	if b.selected == nil {
		return
	}
	c, ok := b.cards[*b.selected]
	if !ok {
		return
	}
	c.Tags = append([]api.Tag(nil), c.Tags...)
	f(&c)
	b.cards[c.ID] = c
}

func tagsString(tags []api.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}
