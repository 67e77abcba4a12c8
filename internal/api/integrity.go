package api

import (
	"fmt"
	"sort"
)

// IntegrityWarning describes a dangling or inconsistent card reference in a
// snapshot. Warnings are diagnostics only; rendering continues without the
// offending entry.
type IntegrityWarning struct {
	Where  string
	CardID CardID
	Reason string
}

func (w IntegrityWarning) String() string {
	return fmt.Sprintf("%s: card %d %s", w.Where, w.CardID, w.Reason)
}

const (
	ReasonMissing   = "is not in cards"
	ReasonDuplicate = "appears more than once"
	ReasonUnordered = "is missing from card_order"
)

// Validate checks the snapshot's reference invariants and returns every
// violation found. card_order must be a permutation of the card ids and every
// id in the category view must exist.
func (s *AppState) Validate() []IntegrityWarning {
	if s == nil {
		return nil
	}

	var warnings []IntegrityWarning
	seen := make(map[CardID]bool, len(s.CardOrder))
	for _, id := range s.CardOrder {
		if seen[id] {
			warnings = append(warnings, IntegrityWarning{Where: "card_order", CardID: id, Reason: ReasonDuplicate})
			continue
		}
		seen[id] = true
		if _, ok := s.Cards[id]; !ok {
			warnings = append(warnings, IntegrityWarning{Where: "card_order", CardID: id, Reason: ReasonMissing})
		}
	}

	var unordered []CardID
	for id := range s.Cards {
		if !seen[id] {
			unordered = append(unordered, id)
		}
	}
	sort.Slice(unordered, func(i, j int) bool { return unordered[i] < unordered[j] })
	for _, id := range unordered {
		warnings = append(warnings, IntegrityWarning{Where: "card_order", CardID: id, Reason: ReasonUnordered})
	}

	tags := make([]string, 0, len(s.CurrentCategoryView))
	for t := range s.CurrentCategoryView {
		tags = append(tags, string(t))
	}
	sort.Strings(tags)
	for _, t := range tags {
		for _, id := range s.CurrentCategoryView[Tag(t)] {
			if _, ok := s.Cards[id]; !ok {
				warnings = append(warnings, IntegrityWarning{
					Where:  fmt.Sprintf("current_category_view[%s]", t),
					CardID: id,
					Reason: ReasonMissing,
				})
			}
		}
	}

	return warnings
}
