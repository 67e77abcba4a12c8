package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardboard/internal/api"
	"cardboard/internal/backend"
	"cardboard/internal/controller"
	"cardboard/internal/errors"
	"cardboard/internal/keymap"
	"cardboard/internal/logger"
	"cardboard/internal/render"
	"cardboard/internal/usercfg"
	"cardboard/internal/view"

	"github.com/atotto/clipboard"
	textarea "github.com/charmbracelet/bubbles/textarea"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
)

// Rows above the first card line: header, panel, help, blank, box border,
// column title, top indicator.
const firstItemRow = 7

const (
	requestDeadline = 30 * time.Second
	maxSuggestions  = 5
)

// completionMsg carries a finished perform/refetch back to the event loop.
type completionMsg struct{ controller.Completion }

type pollMsg struct{}

// noticeMsg reports the outcome of a local command such as copy or open.
type noticeMsg struct {
	text string
	err  error
}

// listHit is a card row under the mouse.
type listHit struct {
	col      int
	idx      int
	selected bool
}

type boardModel struct {
	cfg         usercfg.Config
	ctrl        *controller.Controller
	md          *render.Markdown
	selector    textinput.Model
	editor      textarea.Model
	suggestions []string
	offsets     map[string]int // scroll offset per list, "" for the default view
	warnings    []api.IntegrityWarning
	drag        *listHit
	loading     bool
	width       int
	height      int
	showingHelp bool
	helpOffset  int
	showTags    bool
	showIDs     bool
	lastCat     string
	notice      string
	styles      boardStyles
}

func newBoardStyles() boardStyles {
	return boardStyles{
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		boxStyle:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("240")),
		boxActive:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("10")),
		selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		tag:         lipgloss.NewStyle().Foreground(lipgloss.Color("99")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		helpOverlay: lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("255")).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("99")).Padding(1, 2),
		helpTitle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		helpKey:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		warn:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		error:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

type boardStyles struct {
	header      lipgloss.Style
	title       lipgloss.Style
	boxStyle    lipgloss.Style
	boxActive   lipgloss.Style
	selected    lipgloss.Style
	muted       lipgloss.Style
	tag         lipgloss.Style
	help        lipgloss.Style
	helpOverlay lipgloss.Style
	helpTitle   lipgloss.Style
	helpKey     lipgloss.Style
	warn        lipgloss.Style
	error       lipgloss.Style
}

func initialBoardModel(cfg usercfg.Config, ctrl *controller.Controller) boardModel {
	ti := textinput.New()
	ti.CharLimit = 256

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Placeholder = "card text (markdown)"

	uiPrefs := usercfg.GetUIPrefs()

	return boardModel{
		cfg:      cfg,
		ctrl:     ctrl,
		md:       render.NewMarkdown(cfg.MarkdownEnabled()),
		selector: ti,
		editor:   ta,
		offsets:  make(map[string]int),
		loading:  true,
		width:    100,
		height:   30,
		showTags: uiPrefs.ShowTags,
		showIDs:  uiPrefs.ShowIDs,
		lastCat:  uiPrefs.LastCategory,
		styles:   newBoardStyles(),
	}
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.pollCmd())
}

func (m boardModel) refreshCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestDeadline)
		defer cancel()
		return completionMsg{ctrl.Refresh(ctx)}
	}
}

// performCmd binds the action to the selection as it is now and runs it off
// the event loop.
func (m boardModel) performCmd(a api.Action) tea.Cmd {
	if a == nil {
		return nil
	}
	req := m.ctrl.Prepare(a)
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestDeadline)
		defer cancel()
		return completionMsg{ctrl.Execute(ctx, req)}
	}
}

func (m boardModel) pollCmd() tea.Cmd {
	interval := m.cfg.PollInterval()
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeInputs()
		m.ensureSelectionVisible()
		return m, nil
	case completionMsg:
		if !m.ctrl.Apply(msg.Completion) {
			return m, nil
		}
		m.loading = false
		m.warnings = m.ctrl.State().Validate()
		m.ensureSelectionVisible()
		m.refreshSuggestions()
		return m, nil
	case pollMsg:
		if m.ctrl.Closed() {
			return m, nil
		}
		return m, tea.Batch(m.refreshCmd(), m.pollCmd())
	case noticeMsg:
		if msg.err != nil {
			logger.Warn("%s: %v", msg.text, msg.err)
			m.notice = fmt.Sprintf("%s failed: %v", msg.text, msg.err)
		} else {
			m.notice = msg.text
		}
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		if m.showingHelp {
			return m.handleHelpKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m boardModel) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lines, _, viewport := m.helpLayout()
	maxOffset := 0
	if viewport < len(lines) {
		maxOffset = len(lines) - viewport
	}
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "q", "?", "esc":
		m.showingHelp = false
	case "up", "k":
		if m.helpOffset > 0 {
			m.helpOffset--
		}
	case "down", "j":
		if m.helpOffset < maxOffset {
			m.helpOffset++
		}
	case "pgup":
		step := max(1, viewport-1)
		m.helpOffset = max(0, m.helpOffset-step)
	case "pgdown":
		step := max(1, viewport-1)
		m.helpOffset = min(maxOffset, m.helpOffset+step)
	case "home":
		m.helpOffset = 0
	case "end":
		m.helpOffset = maxOffset
	}
	return m, nil
}

// handleKey feeds the key to the controller as a tap. The raw key still
// reaches the focused input when the mode takes text and the binding did not
// prevent it.
func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.ctrl.Mode()
	m.notice = ""

	var out controller.Outcome
	if tokens := keymap.Tokens(msg); len(tokens) > 0 {
		out = m.ctrl.Tap(tokens, m.inputValue(before))
	}

	var cmds []tea.Cmd
	if before.TakesText() && !out.PreventDefault {
		cmds = append(cmds, m.forwardToInput(before, msg))
	}
	if after := m.ctrl.Mode(); after != before {
		m.enterMode(after)
	}
	if a, ok := out.Action.(api.ViewCategory); ok {
		m.lastCat = a.Category
	}
	cmds = append(cmds, m.performCmd(out.Action))

	for _, sig := range out.Signals {
		switch sig {
		case controller.SignalQuit:
			return m.quit()
		case controller.SignalHelp:
			m.showingHelp = !m.showingHelp
			m.helpOffset = 0
		case controller.SignalRefresh:
			m.loading = true
			cmds = append(cmds, m.refreshCmd())
		case controller.SignalOpen:
			cmds = append(cmds, openURLCmd(m.cfg.BoardWebURL()))
		case controller.SignalCopy:
			if card, ok := m.ctrl.State().SelectedCard(); ok {
				cmds = append(cmds, copyCmd(card.Text))
			}
		case controller.SignalComplete:
			if len(m.suggestions) > 0 {
				m.selector.SetValue(m.suggestions[0])
				m.selector.CursorEnd()
				m.refreshSuggestions()
			}
		case controller.SignalToggleTags:
			m.showTags = !m.showTags
		case controller.SignalToggleIDs:
			m.showIDs = !m.showIDs
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *boardModel) forwardToInput(mode keymap.Mode, msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	if mode == keymap.EditCardText {
		m.editor, cmd = m.editor.Update(msg)
		return cmd
	}
	m.selector, cmd = m.selector.Update(msg)
	m.refreshSuggestions()
	return cmd
}

func (m boardModel) inputValue(mode keymap.Mode) string {
	switch mode {
	case keymap.EditCardText:
		return m.editor.Value()
	case keymap.SelectCategory, keymap.AddTagFromViewCard, keymap.DeleteTagFromViewCard:
		return m.selector.Value()
	}
	return ""
}

// enterMode resets the input that the new mode focuses.
func (m *boardModel) enterMode(mode keymap.Mode) {
	m.selector.Blur()
	m.editor.Blur()

	switch mode {
	case keymap.SelectCategory:
		m.selector.Reset()
		m.selector.Prompt = "Category: "
		m.selector.Placeholder = m.lastCat
		m.selector.Focus()
	case keymap.AddTagFromViewCard:
		m.selector.Reset()
		m.selector.Prompt = "Add tag: "
		m.selector.Placeholder = "category:value"
		m.selector.Focus()
	case keymap.DeleteTagFromViewCard:
		m.selector.Reset()
		m.selector.Prompt = "Remove tag: "
		m.selector.Placeholder = ""
		m.selector.Focus()
	case keymap.EditCardText:
		card, _ := m.ctrl.State().SelectedCard()
		m.editor.SetValue(card.Text)
		m.editor.Focus()
	}
	m.refreshSuggestions()
}

// refreshSuggestions ranks the selector's candidates against its input. The
// tag remover only offers the card's own tags.
func (m *boardModel) refreshSuggestions() {
	st := m.ctrl.State()
	var candidates []string
	switch m.ctrl.Mode() {
	case keymap.SelectCategory:
		if st != nil {
			candidates = st.Categories
		}
	case keymap.AddTagFromViewCard:
		candidates = st.TagStrings()
	case keymap.DeleteTagFromViewCard:
		if card, ok := st.SelectedCard(); ok {
			for _, t := range card.Tags {
				candidates = append(candidates, string(t))
			}
		}
	default:
		m.suggestions = nil
		return
	}
	m.suggestions = usercfg.RankSuggestions(m.selector.Value(), candidates)
}

func (m boardModel) quit() (tea.Model, tea.Cmd) {
	m.saveUIPreferences()
	m.ctrl.Close()
	return m, tea.Quit
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{text: "opened " + url, err: browser.OpenURL(url)}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return noticeMsg{text: "copy", err: err}
		}
		return noticeMsg{text: "copied card text"}
	}
}

// handleMouse lets the board be driven by clicks and drags. A click selects
// the card under the pointer; dragging the selected card moves it.
func (m boardModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showingHelp || m.ctrl.Mode() != keymap.ViewBoard {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return m, m.performCmd(api.SelectCardVerticalOffset{Offset: -1})
		case tea.MouseButtonWheelDown:
			return m, m.performCmd(api.SelectCardVerticalOffset{Offset: 1})
		case tea.MouseButtonLeft:
			hit, ok := m.hitTest(msg.X, msg.Y)
			if !ok {
				return m, nil
			}
			if hit.selected {
				m.drag = &hit
				return m, nil
			}
			return m, m.performCmd(m.selectAction(hit))
		}
	case tea.MouseActionRelease:
		from := m.drag
		m.drag = nil
		if from == nil {
			return m, nil
		}
		to, ok := m.hitTest(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		if to.col != from.col {
			return m, m.performCmd(view.ReorderColumn(from.col, to.col))
		}
		return m, m.performCmd(view.Reorder(from.idx, to.idx))
	}
	return m, nil
}

// selectAction moves the selection onto hit: across columns first, then
// within the selected list.
func (m boardModel) selectAction(hit listHit) api.Action {
	st := m.ctrl.State()
	items, cols := view.Project(st, nil)
	if cols != nil {
		selCol := view.SelectedColumn(cols)
		if selCol >= 0 && hit.col != selCol {
			return api.SelectCardHorizontalOffset{Offset: hit.col - selCol}
		}
		if selCol < 0 {
			return nil
		}
		items = cols[selCol].Items
	}
	cur := view.SelectedIndex(items)
	if cur < 0 || cur == hit.idx {
		return nil
	}
	return api.SelectCardVerticalOffset{Offset: hit.idx - cur}
}

// hitTest maps a screen cell to the card row drawn there.
func (m boardModel) hitTest(x, y int) (listHit, bool) {
	st := m.ctrl.State()
	if st == nil {
		return listHit{}, false
	}
	items, cols := view.Project(st, nil)

	n, key := 1, ""
	if cols != nil {
		n = len(cols)
	}
	if n == 0 {
		return listHit{}, false
	}
	outer := m.columnWidth(n, false) + 2
	col := x / outer
	if x < 0 || col >= n {
		return listHit{}, false
	}
	if cols != nil {
		items, key = cols[col].Items, cols[col].Name
	}

	row := y - firstItemRow
	if row < 0 || row >= m.itemsWindowCount() {
		return listHit{}, false
	}
	idx := m.offsets[key] + row
	if idx >= len(items) {
		return listHit{}, false
	}
	return listHit{col: col, idx: idx, selected: items[idx].Selected}, true
}

func (m boardModel) View() string {
	st := m.ctrl.State()
	mode := m.ctrl.Mode()

	header := m.styles.header.Render(clip("Cardboard: "+boardName(st), m.width))
	panel := m.styles.muted.Render(clip(m.panelLine(st, mode), m.width))
	help := m.styles.help.Render(clip(m.compactHelp(mode), m.width))

	body := m.renderBoard(st, mode)
	if pane := m.renderCardPane(st, mode); pane != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, pane)
	}
	if mode == keymap.SelectCategory {
		body += "\n" + m.renderSelector()
	}

	baseView := header + "\n" + panel + "\n" + help + "\n\n" + body + m.footer(st) + "\n"
	if m.showingHelp {
		return m.renderWithHelpOverlay(baseView)
	}
	return baseView
}

func boardName(st *api.AppState) string {
	if st == nil || st.BoardName == "" {
		return "(no board)"
	}
	return st.BoardName
}

func (m boardModel) panelLine(st *api.AppState, mode keymap.Mode) string {
	viewName := "default"
	if cat := st.ViewedCategory(); cat != "" {
		viewName = "category " + cat
	} else if st.InCategoryView() {
		viewName = "category"
	}
	cats := "(none)"
	if st != nil && len(st.Categories) > 0 {
		cats = strings.Join(st.Categories, ", ")
	}
	return fmt.Sprintf("Mode: %s • View: %s • Categories: %s", mode, viewName, cats)
}

// compactHelp lists the first few bindings of the mode; the full list is
// behind ?.
func (m boardModel) compactHelp(mode keymap.Mode) string {
	entries := m.ctrl.Registry().Help(mode)
	parts := make([]string, 0, 6)
	for i, h := range entries {
		if i == 6 {
			break
		}
		parts = append(parts, h.Keys+" "+h.Description)
	}
	return "(" + strings.Join(parts, " • ") + ")"
}

func (m boardModel) renderBoard(st *api.AppState, mode keymap.Mode) string {
	paneOpen := m.paneOpen(st, mode)
	if st == nil {
		w := m.columnWidth(1, paneOpen)
		msg := "Waiting for state from server…"
		if err := m.ctrl.LastError(); err == nil && m.loading {
			msg = "Loading…"
		}
		return m.styles.boxStyle.Width(w).Render(m.styles.title.Render("Board") + "\n" + m.styles.muted.Render(msg))
	}

	items, cols := view.Project(st, nil)
	if cols == nil {
		return m.renderList("Cards", "", items, m.columnWidth(1, paneOpen), true)
	}
	if len(cols) == 0 {
		w := m.columnWidth(1, paneOpen)
		return m.styles.boxStyle.Width(w).Render(m.styles.title.Render("Category view") + "\n" + m.styles.muted.Render("(no columns)"))
	}

	selCol := view.SelectedColumn(cols)
	w := m.columnWidth(len(cols), paneOpen)
	rendered := make([]string, len(cols))
	for i, c := range cols {
		rendered[i] = m.renderList(c.Name, c.Name, c.Items, w, i == selCol)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m boardModel) renderList(title, key string, items []view.Item, width int, active bool) string {
	var lines []string
	if len(items) == 0 {
		lines = []string{m.styles.muted.Render("(empty)")}
	} else {
		window := m.itemsWindowCount()
		start := min(m.offsets[key], max(0, len(items)-1))
		end := min(len(items), start+window)

		if start > 0 {
			lines = append(lines, m.styles.muted.Render(fmt.Sprintf("… %d above", start)))
		} else {
			lines = append(lines, "")
		}
		for idx := start; idx < end; idx++ {
			line := clip(m.itemLine(items[idx].Card), width-4)
			if items[idx].Selected {
				line = m.styles.selected.Render(line)
			}
			lines = append(lines, line)
		}
		if end < len(items) {
			lines = append(lines, m.styles.muted.Render(fmt.Sprintf("… %d below", len(items)-end)))
		} else {
			lines = append(lines, "")
		}
	}

	box := m.styles.boxStyle
	if active {
		box = m.styles.boxActive
	}
	heading := m.styles.title.Render(clip(fmt.Sprintf("%s (%d)", title, len(items)), width-4))
	return box.Width(width).Render(heading + "\n" + strings.Join(lines, "\n"))
}

func (m boardModel) itemLine(card api.Card) string {
	line := card.Title()
	if line == "" {
		line = "(untitled)"
	}
	if m.showIDs {
		line = fmt.Sprintf("#%d %s", card.ID, line)
	}
	if m.showTags && len(card.Tags) > 0 {
		line += " [" + joinTags(card.Tags) + "]"
	}
	return line
}

func joinTags(tags []api.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, " ")
}

func (m boardModel) paneOpen(st *api.AppState, mode keymap.Mode) bool {
	if st == nil {
		return false
	}
	switch mode {
	case keymap.ViewCard, keymap.EditCardText, keymap.AddTagFromViewCard, keymap.DeleteTagFromViewCard:
		return true
	}
	return false
}

func (m boardModel) renderCardPane(st *api.AppState, mode keymap.Mode) string {
	if !m.paneOpen(st, mode) {
		return ""
	}
	w := m.paneWidth()
	card, ok := st.SelectedCard()
	if !ok {
		return m.styles.boxStyle.Width(w).Render(m.styles.muted.Render("(no card selected)"))
	}

	var body string
	switch {
	case mode == keymap.EditCardText:
		body = m.editor.View()
	case strings.TrimSpace(card.Text) == "":
		body = m.styles.muted.Render("(no text)")
	default:
		body = m.md.Render(card.Text, w-4)
	}

	tags := m.styles.muted.Render("(no tags)")
	if len(card.Tags) > 0 {
		tags = m.styles.tag.Render(joinTags(card.Tags))
	}

	parts := []string{m.styles.title.Render(fmt.Sprintf("Card #%d", card.ID)), body, "", "Tags: " + tags}
	if mode == keymap.AddTagFromViewCard || mode == keymap.DeleteTagFromViewCard {
		parts = append(parts, "", m.renderSelector())
	}
	return m.styles.boxActive.Width(w).Render(strings.Join(parts, "\n"))
}

func (m boardModel) renderSelector() string {
	lines := []string{m.selector.View()}
	for i, s := range m.suggestions {
		if i == maxSuggestions {
			lines = append(lines, m.styles.muted.Render(fmt.Sprintf("  … %d more", len(m.suggestions)-maxSuggestions)))
			break
		}
		if i == 0 {
			lines = append(lines, "  "+m.styles.helpKey.Render(s)+m.styles.muted.Render("  (tab)"))
			continue
		}
		lines = append(lines, "  "+m.styles.muted.Render(s))
	}
	return strings.Join(lines, "\n")
}

func (m boardModel) footer(st *api.AppState) string {
	var lines []string
	if err := m.ctrl.LastError(); err != nil {
		lines = append(lines, m.styles.error.Render("Error: "+errors.Short(err)))
	} else if m.loading {
		lines = append(lines, m.styles.muted.Render("Loading..."))
	}
	if n := len(m.warnings); n > 0 {
		lines = append(lines, m.styles.warn.Render(clip(fmt.Sprintf("⚠ %d integrity warning(s): %s", n, m.warnings[0]), m.width)))
	}
	if st != nil && st.InteractionState.Filter != "" {
		lines = append(lines, m.styles.muted.Render("Filter: "+st.InteractionState.Filter))
	}
	if matcher := m.ctrl.Matcher(); matcher.Pending() {
		lines = append(lines, m.styles.muted.Render("Keys: "+matcher.Sequence().String()+" …"))
	}
	if m.notice != "" {
		lines = append(lines, m.styles.muted.Render(m.notice))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n")
}

func (m boardModel) renderWithHelpOverlay(baseView string) string {
	lines, overlayWidth, viewport := m.helpLayout()
	maxOffset := 0
	if viewport < len(lines) {
		maxOffset = len(lines) - viewport
	}
	offset := min(max(0, m.helpOffset), maxOffset)

	end := min(len(lines), offset+viewport)
	helpContent := strings.Join(lines[offset:end], "\n")
	overlayHeight := viewport + 3
	y := max(0, (m.height-overlayHeight)/2)

	pos := fmt.Sprintf("%d/%d lines — ↑/↓ PgUp/PgDn Home/End — q/? close", end, len(lines))
	overlay := m.styles.helpOverlay.Width(overlayWidth).Render(helpContent + "\n" + m.styles.muted.Render(pos))

	baseLines := strings.Split(baseView, "\n")
	overlayLines := strings.Split(overlay, "\n")
	for len(baseLines) < y+len(overlayLines) {
		baseLines = append(baseLines, "")
	}
	for i, overlayLine := range overlayLines {
		baseLines[y+i] = overlayLine
	}
	return strings.Join(baseLines, "\n")
}

// helpLayout computes help lines, target overlay width, and viewport height (content rows)
func (m boardModel) helpLayout() ([]string, int, int) {
	overlayWidth := min(80, max(40, m.width-8))
	// Lines carry styling, so overlong ones are cut rather than wrapped.
	fit := lipgloss.NewStyle().MaxWidth(max(10, overlayWidth-4))
	contentLines := strings.Split(m.buildHelpContent(), "\n")
	wrapped := make([]string, 0, len(contentLines))
	for _, line := range contentLines {
		wrapped = append(wrapped, fit.Render(line))
	}
	viewport := max(3, min(m.height-4, len(wrapped)+3)-3)
	return wrapped, overlayWidth, viewport
}

// buildHelpContent lists the bindings of the current mode first, then those
// of every other mode.
func (m boardModel) buildHelpContent() string {
	reg := m.ctrl.Registry()
	current := m.ctrl.Mode()

	modes := []keymap.Mode{current}
	for _, mode := range keymap.AllModes() {
		if mode != current {
			modes = append(modes, mode)
		}
	}

	var sections []string
	for _, mode := range modes {
		lines := []string{m.styles.helpTitle.Render(mode.String() + ":")}
		for _, h := range reg.Help(mode) {
			lines = append(lines, fmt.Sprintf("  %s %s", m.styles.helpKey.Render(fmt.Sprintf("%-14s", h.Keys)), h.Description))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	title := m.styles.helpTitle.Render("Cardboard - Keyboard Shortcuts")
	return title + "\n\n" + strings.Join(sections, "\n\n") + "\n\n" + m.styles.muted.Render("Press ? again to close")
}

// viewportItemsHeight calculates how many rows of items can be displayed per column
// given the current terminal height and rough space usage of headers/footers.
func (m boardModel) viewportItemsHeight() int {
	reserved := 7
	if m.ctrl.Mode() == keymap.SelectCategory {
		reserved += 1 + maxSuggestions
	}
	avail := max(5, m.height-reserved)
	return max(1, avail-3)
}

// itemsWindowCount returns the number of item rows we draw, excluding the two
// indicator lines (top and bottom).
func (m boardModel) itemsWindowCount() int {
	base := m.viewportItemsHeight()
	if base <= 2 {
		return 1
	}
	return base - 2
}

// columnWidth is the inner width of each of n list boxes, leaving room for
// the card pane when it is open.
func (m boardModel) columnWidth(n int, paneOpen bool) int {
	left := max(40, m.width)
	if paneOpen {
		left -= m.paneWidth() + 2
	}
	return max(16, left/max(1, n)-2)
}

func (m boardModel) paneWidth() int {
	return max(30, m.width*2/5)
}

func (m *boardModel) resizeInputs() {
	w := m.paneWidth() - 4
	m.selector.Width = max(10, w-12)
	m.editor.SetWidth(max(10, w))
	m.editor.SetHeight(max(3, m.height-14))
}

// ensureSelectionVisible keeps the selected card inside each list's window.
func (m *boardModel) ensureSelectionVisible() {
	items, cols := view.Project(m.ctrl.State(), nil)
	window := m.itemsWindowCount()
	if cols == nil {
		m.offsets[""] = scrollOffset(m.offsets[""], view.SelectedIndex(items), len(items), window)
		return
	}
	for _, c := range cols {
		m.offsets[c.Name] = scrollOffset(m.offsets[c.Name], view.SelectedIndex(c.Items), len(c.Items), window)
	}
}

// scrollOffset returns the top index that keeps cursor within a window of
// the given size. A negative cursor only clamps the offset.
func scrollOffset(offset, cursor, n, window int) int {
	if n == 0 {
		return 0
	}
	if cursor >= 0 {
		cursor = min(cursor, n-1)
		if cursor < offset {
			offset = cursor
		}
		if cursor >= offset+window {
			offset = cursor - window + 1
		}
	}
	maxOffset := 0
	if n > window {
		maxOffset = n - window
	}
	return max(0, min(offset, maxOffset))
}

func (m boardModel) saveUIPreferences() {
	prefs := usercfg.UIPreferences{
		LastCategory: m.lastCat,
		ShowTags:     m.showTags,
		ShowIDs:      m.showIDs,
	}
	if err := usercfg.SaveUIPrefs(prefs); err != nil {
		logger.Debug("save ui prefs: %v", err)
	}
}

// newController wires the default bindings to a backend client built from cfg.
func newController(cfg usercfg.Config) *controller.Controller {
	client := backend.NewClient(cfg.BaseURL, cfg.RequestTimeout(), cfg.Retries())
	reg := keymap.NewRegistry()
	controller.RegisterDefaults(reg)
	return controller.New(reg, client, controller.WithSequenceTimeout(cfg.SequenceTimeout()))
}

func StartBoard(cfg usercfg.Config) error {
	// The board owns the terminal; logs go to the debug file only.
	logger.SetConsoleEnabled(false)
	defer logger.SetConsoleEnabled(true)
	if err := logger.EnableFile(""); err != nil {
		logger.Debug("board log file: %v", err)
	}

	ctrl := newController(cfg)
	model := initialBoardModel(cfg, ctrl)
	model.resizeInputs()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()

	if bm, ok := finalModel.(boardModel); ok {
		bm.saveUIPreferences()
	}
	ctrl.Close()
	return err
}

// clip is a local helper similar to truncate but safe for narrow widths
func clip(s string, w int) string {
	r := []rune(s)
	if w <= 0 || len(r) <= w {
		return s
	}
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-3]) + "..."
}
