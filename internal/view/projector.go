// Package view derives what the board renders from an api.AppState snapshot.
// Everything here is pure: no I/O, no mutation of the snapshot.
package view

import (
	"sort"

	"cardboard/internal/api"
)

// Item is a card placed in a rendered list.
type Item struct {
	Card     api.Card
	Selected bool
}

// Column is one tag column of the category view.
type Column struct {
	Name  string
	Tag   api.Tag
	Items []Item
}

// Reporter receives integrity warnings raised while projecting.
type Reporter interface {
	ReportIntegrity(w api.IntegrityWarning)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(api.IntegrityWarning)

func (f ReporterFunc) ReportIntegrity(w api.IntegrityWarning) { f(w) }

// Collector gathers warnings in the order they were reported.
type Collector struct {
	Warnings []api.IntegrityWarning
}

func (c *Collector) ReportIntegrity(w api.IntegrityWarning) {
	c.Warnings = append(c.Warnings, w)
}

func report(r Reporter, w api.IntegrityWarning) {
	if r != nil {
		r.ReportIntegrity(w)
	}
}

// ProjectDefault returns the cards of order in order, marking the one whose id
// equals selected. Ids missing from cards are dropped and reported.
func ProjectDefault(cards api.CardSet, order []api.CardID, selected *api.CardID, r Reporter) []Item {
	items := make([]Item, 0, len(order))
	for _, id := range order {
		card, ok := cards[id]
		if !ok {
			report(r, api.IntegrityWarning{Where: "card_order", CardID: id, Reason: api.ReasonMissing})
			continue
		}
		items = append(items, Item{
			Card:     card,
			Selected: selected != nil && *selected == id,
		})
	}
	return items
}

// ProjectCategory returns one column per key of categoryView, sorted by name.
//
// A column's tag is its key when the key is already qualified, otherwise the
// key prefixed with the selected tag's category. A card is selected only in
// the column whose tag equals selectedTag.
func ProjectCategory(cards api.CardSet, categoryView map[api.Tag][]api.CardID, selectedTag *api.Tag, selected *api.CardID, r Reporter) []Column {
	names := make([]string, 0, len(categoryView))
	for k := range categoryView {
		names = append(names, string(k))
	}
	sort.Strings(names)

	category := ""
	if selectedTag != nil {
		category = selectedTag.Category()
	}

	columns := make([]Column, 0, len(names))
	for _, name := range names {
		key := api.Tag(name)
		tag := ColumnTag(key, category)
		inColumn := selectedTag != nil && *selectedTag == tag

		ids := categoryView[key]
		col := Column{Name: name, Tag: tag, Items: make([]Item, 0, len(ids))}
		for _, id := range ids {
			card, ok := cards[id]
			if !ok {
				report(r, api.IntegrityWarning{
					Where:  "current_category_view[" + name + "]",
					CardID: id,
					Reason: api.ReasonMissing,
				})
				continue
			}
			col.Items = append(col.Items, Item{
				Card:     card,
				Selected: inColumn && selected != nil && *selected == id,
			})
		}
		columns = append(columns, col)
	}
	return columns
}

// ColumnTag derives the full tag a category column stands for.
func ColumnTag(key api.Tag, category string) api.Tag {
	if key.IsQualified() || category == "" {
		return key
	}
	return api.NewTag(category, string(key))
}

// Project picks the default or category projection depending on whether the
// snapshot carries a category view.
func Project(st *api.AppState, r Reporter) ([]Item, []Column) {
	if st == nil {
		return nil, nil
	}
	sel := st.InteractionState.Selection
	if st.InCategoryView() {
		return nil, ProjectCategory(st.Cards, st.CurrentCategoryView, sel.Tag, sel.CardID, r)
	}
	return ProjectDefault(st.Cards, st.CardOrder, sel.CardID, r), nil
}

// SelectedIndex returns the index of the selected item, or -1.
func SelectedIndex(items []Item) int {
	for i, it := range items {
		if it.Selected {
			return i
		}
	}
	return -1
}

// SelectedColumn returns the index of the column holding the selection, or -1.
func SelectedColumn(cols []Column) int {
	for i, c := range cols {
		if SelectedIndex(c.Items) >= 0 {
			return i
		}
	}
	return -1
}

// SelectedPosition returns where the selected card sits in the list it is
// shown in: the default list, or its column in a category view. index is -1
// when nothing visible is selected.
func SelectedPosition(st *api.AppState) (index, length int) {
	items, cols := Project(st, nil)
	if cols != nil {
		c := SelectedColumn(cols)
		if c < 0 {
			return -1, 0
		}
		items = cols[c].Items
	}
	return SelectedIndex(items), len(items)
}
