package view

import "cardboard/internal/api"

// Reorder turns a drag from index from to index to within the selected card's
// list into the move action the backend understands. It returns nil when
// nothing moves.
func Reorder(from, to int) api.Action {
	if from == to || from < 0 || to < 0 {
		return nil
	}
	return api.MoveCurrentCardVerticalOffset{Offset: to - from}
}

// ReorderColumn is the horizontal counterpart of Reorder for category views.
func ReorderColumn(from, to int) api.Action {
	if from == to || from < 0 || to < 0 {
		return nil
	}
	return api.MoveCurrentCardHorizontalInCategory{Offset: to - from}
}
