package controller

import (
	"strings"

	"cardboard/internal/api"
	"cardboard/internal/keymap"
	"cardboard/internal/view"
)

// Signals the default bindings raise for the UI to handle locally.
const (
	SignalQuit       = "quit"
	SignalHelp       = "help"
	SignalRefresh    = "refresh"
	SignalOpen       = "open"
	SignalCopy       = "copy"
	SignalComplete   = "complete"
	SignalToggleTags = "toggle-tags"
	SignalToggleIDs  = "toggle-ids"
)

var (
	boardModes    = []keymap.Mode{keymap.ViewBoard}
	navModes      = []keymap.Mode{keymap.ViewBoard, keymap.ViewCard}
	cardModes     = []keymap.Mode{keymap.ViewCard}
	categoryModes = []keymap.Mode{keymap.SelectCategory}
	editModes     = []keymap.Mode{keymap.EditCardText}
	tagModes      = []keymap.Mode{keymap.AddTagFromViewCard, keymap.DeleteTagFromViewCard}
	selectorModes = []keymap.Mode{keymap.SelectCategory, keymap.AddTagFromViewCard, keymap.DeleteTagFromViewCard}
)

// RegisterDefaults installs the board's key bindings. Calling it twice leaves
// the registry unchanged.
func RegisterDefaults(reg *keymap.Registry) {
	k := keymap.Keys
	shift := func(key string) keymap.Combo { return k(keymap.KeyShift, key) }
	desc := keymap.WithDescription
	repeat := keymap.WithRepeat()

	// Navigation, shared by the board and the open card.
	reg.Register("select-down", navModes, k("j"), offset(selectVertical, 1), desc("next card"), repeat)
	reg.Register("select-up", navModes, k("k"), offset(selectVertical, -1), desc("previous card"), repeat)
	reg.Register("select-down", navModes, k(keymap.KeyDown), offset(selectVertical, 1), desc("next card"), repeat)
	reg.Register("select-up", navModes, k(keymap.KeyUp), offset(selectVertical, -1), desc("previous card"), repeat)
	reg.Register("select-left", navModes, k("h"), offset(selectHorizontal, -1), desc("previous column"), repeat)
	reg.Register("select-right", navModes, k("l"), offset(selectHorizontal, 1), desc("next column"), repeat)
	reg.Register("select-left", navModes, k(keymap.KeyLeft), offset(selectHorizontal, -1), desc("previous column"), repeat)
	reg.Register("select-right", navModes, k(keymap.KeyRight), offset(selectHorizontal, 1), desc("next column"), repeat)
	reg.Register("move-down", navModes, shift("j"), offset(moveVertical, 1), desc("move card down"))
	reg.Register("move-up", navModes, shift("k"), offset(moveVertical, -1), desc("move card up"))
	reg.Register("move-left", navModes, shift("h"), offset(moveHorizontal, -1), desc("move card to previous column"))
	reg.Register("move-right", navModes, shift("l"), offset(moveHorizontal, 1), desc("move card to next column"))
	reg.Register("select-first", navModes, k("g", "g"), selectFirst, desc("first card"))
	reg.Register("select-last", navModes, shift("g"), selectLast, desc("last card"))

	// Board.
	reg.Register("new-card", boardModes, k("a"), always(api.NewCard{}), desc("new card"))
	reg.Register("delete-card", boardModes, k("d"), always(api.DeleteCurrentCard{}), desc("delete card"))
	reg.Register("open-card", boardModes, k(keymap.KeyEnter), openCard, desc("open card"))
	reg.Register("select-category", boardModes, k("c"), toMode(keymap.SelectCategory), desc("view by category"))
	reg.Register("view-default", boardModes, k(keymap.KeyEscape), always(api.ViewDefault{}), desc("default view"))
	reg.Register("save", boardModes, k("w"), always(api.Save{}), desc("save board"))
	reg.Register("refresh", boardModes, k("r"), signal(SignalRefresh), desc("refresh"))
	reg.Register("open-web", boardModes, k("o"), signal(SignalOpen), desc("open in browser"))
	reg.Register("toggle-tags", boardModes, k("t"), signal(SignalToggleTags), desc("show/hide tags"))
	reg.Register("toggle-ids", boardModes, k("i"), signal(SignalToggleIDs), desc("show/hide ids"))
	reg.Register("help", navModes, k("?"), signal(SignalHelp), desc("help"))
	reg.Register("quit", boardModes, k("q"), signal(SignalQuit), desc("quit"))

	// Open card.
	reg.Register("close-card", cardModes, k(keymap.KeyEscape), toMode(keymap.ViewBoard), desc("back to board"))
	reg.Register("edit-text", cardModes, k(keymap.KeyEnter), toMode(keymap.EditCardText), desc("edit text"))
	reg.Register("add-tag", cardModes, k("a"), toMode(keymap.AddTagFromViewCard), desc("add tag"))
	reg.Register("delete-tag", cardModes, k("d"), func(ctx *keymap.Context) api.Action {
		// The d must not land in the freshly focused selector.
		ctx.PreventDefault()
		ctx.SetMode(keymap.DeleteTagFromViewCard)
		return nil
	}, desc("delete tag"))
	reg.Register("copy-text", cardModes, k("y"), signal(SignalCopy), desc("copy text"))

	// Text entry.
	reg.Register("commit-category", categoryModes, k(keymap.KeyEnter), commitCategory, desc("view category"))
	reg.Register("cancel", categoryModes, k(keymap.KeyEscape), toMode(keymap.ViewBoard), desc("cancel"))
	reg.Register("commit-text", editModes, k(keymap.KeyEscape), commitText, desc("save text"))
	reg.Register("commit-tag", tagModes, k(keymap.KeyEnter), commitTag, desc("apply"))
	reg.Register("cancel", tagModes, k(keymap.KeyEscape), toMode(keymap.ViewCard), desc("cancel"))
	reg.Register("complete", selectorModes, k(keymap.KeyTab), func(ctx *keymap.Context) api.Action {
		ctx.PreventDefault()
		ctx.Signal(SignalComplete)
		return nil
	}, desc("complete suggestion"))

	reg.Register("quit", keymap.AllModes(), k(keymap.KeyControl, "c"), signal(SignalQuit), desc("quit"))
}

type offsetKind int

const (
	selectVertical offsetKind = iota
	selectHorizontal
	moveVertical
	moveHorizontal
)

func offsetAction(kind offsetKind, n int) api.Action {
	switch kind {
	case selectHorizontal:
		return api.SelectCardHorizontalOffset{Offset: n}
	case moveVertical:
		return api.MoveCurrentCardVerticalOffset{Offset: n}
	case moveHorizontal:
		return api.MoveCurrentCardHorizontalInCategory{Offset: n}
	default:
		return api.SelectCardVerticalOffset{Offset: n}
	}
}

func offset(kind offsetKind, n int) keymap.Handler {
	return func(*keymap.Context) api.Action { return offsetAction(kind, n) }
}

func always(a api.Action) keymap.Handler {
	return func(*keymap.Context) api.Action { return a }
}

func toMode(m keymap.Mode) keymap.Handler {
	return func(ctx *keymap.Context) api.Action {
		ctx.SetMode(m)
		return nil
	}
}

func signal(name string) keymap.Handler {
	return func(ctx *keymap.Context) api.Action {
		ctx.Signal(name)
		return nil
	}
}

func selectFirst(ctx *keymap.Context) api.Action {
	idx, _ := view.SelectedPosition(ctx.State)
	if idx <= 0 {
		return nil
	}
	return api.SelectCardVerticalOffset{Offset: -idx}
}

func selectLast(ctx *keymap.Context) api.Action {
	idx, n := view.SelectedPosition(ctx.State)
	if idx < 0 || idx == n-1 {
		return nil
	}
	return api.SelectCardVerticalOffset{Offset: n - 1 - idx}
}

func openCard(ctx *keymap.Context) api.Action {
	if _, ok := ctx.State.SelectedCard(); ok {
		ctx.SetMode(keymap.ViewCard)
	}
	return nil
}

func commitCategory(ctx *keymap.Context) api.Action {
	ctx.SetMode(keymap.ViewBoard)
	category := strings.TrimSpace(ctx.Input)
	if category == "" {
		return nil
	}
	return api.ViewCategory{Category: category}
}

func commitText(ctx *keymap.Context) api.Action {
	ctx.SetMode(keymap.ViewCard)
	if card, ok := ctx.State.SelectedCard(); ok && card.Text == ctx.Input {
		return nil
	}
	return api.SetCurrentCardText{Text: ctx.Input}
}

func commitTag(ctx *keymap.Context) api.Action {
	mode := ctx.Mode
	ctx.SetMode(keymap.ViewCard)
	tag := api.Tag(strings.TrimSpace(ctx.Input))
	if tag == "" {
		return nil
	}
	if mode == keymap.DeleteTagFromViewCard {
		return api.DeleteTagFromCurrentCard{Tag: tag}
	}
	return api.AddTagToCurrentCard{Tag: tag}
}
