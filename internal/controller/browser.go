package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

const (
	listSearchDelay = 200 * time.Millisecond
	logSearchDelay  = 300 * time.Millisecond

	minListWidth   = 30
	defaultWidth   = 120
	defaultHeight  = 30
	chromeRows     = 2
	paneBorderSize = 2
)

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
)

type inputMode int

const (
	inputNone inputMode = iota
	inputListSearch
	inputLogSearch
)

type filterMode int

const (
	filterAll filterMode = iota
	filterPassed
	filterFailed
	filterSkipped
	filterError
	filterMarked
)

var filterNames = map[filterMode]string{
	filterAll:     "all",
	filterPassed:  "passed",
	filterFailed:  "failed",
	filterSkipped: "skipped",
	filterError:   "error",
	filterMarked:  "marked",
}

var filterKeys = map[string]filterMode{
	"a": filterAll,
	"p": filterPassed,
	"f": filterFailed,
	"s": filterSkipped,
	"e": filterError,
	"m": filterMarked,
}

var sectionKeys = map[string]string{
	"1": m.SectionSetup,
	"2": m.SectionCall,
	"3": m.SectionTeardown,
}

var statusIcons = map[m.Status]string{
	m.StatusPassed:  "+",
	m.StatusFailed:  "x",
	m.StatusSkipped: "-",
	m.StatusError:   "!",
	m.StatusXFailed: "~",
	m.StatusXPassed: "~",
	m.StatusRerun:   "?",
}

type listSearchMsg struct{ seq int }

type logSearchMsg struct{ seq int }

// browserModel is the bubbletea model of the record browser.
type browserModel struct {
	records []m.Record
	visible []int
	marked  map[int]bool
	cursor  int
	offset  int

	filter    filterMode
	listQuery string

	focus    focusPane
	showList bool
	input    inputMode

	listInput textinput.Model
	logInput  textinput.Model
	detail    viewport.Model

	opts     BrowseOptions
	styles   styles
	rendered int

	width, height int
	listSeq       int
	logSeq        int
	notice        string
	quitting      bool
}

func newBrowserModel(records []m.Record, opts BrowseOptions) browserModel {
	listInput := textinput.New()
	listInput.Prompt = "/"
	listInput.Placeholder = "search tests"

	logInput := textinput.New()
	logInput.Prompt = "log /"
	logInput.Placeholder = "search log"

	if opts.Matches == nil {
		opts.Matches = func(r m.Record, query string) bool {
			return strings.Contains(strings.ToLower(r.Identifier+" "+r.Name), strings.ToLower(query))
		}
	}

	bm := browserModel{
		records:   records,
		marked:    make(map[int]bool),
		showList:  true,
		listInput: listInput,
		logInput:  logInput,
		detail:    viewport.New(0, 0),
		opts:      opts,
		styles:    newStyles(opts.Theme),
		rendered:  -1,
		width:     defaultWidth,
		height:    defaultHeight,
	}

	bm.applyFilter()
	bm.resize()

	return bm
}

func (bm browserModel) Init() tea.Cmd {
	return nil
}

func (bm browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		bm.width = msg.Width
		bm.height = msg.Height
		bm.resize()

		return bm, nil

	case listSearchMsg:
		if msg.seq == bm.listSeq {
			bm.listQuery = strings.TrimSpace(bm.listInput.Value())
			bm.applyFilter()
		}

		return bm, nil

	case logSearchMsg:
		if msg.seq == bm.logSeq {
			bm.runLogSearch(bm.logInput.Value())
		}

		return bm, nil

	case tea.KeyMsg:
		if bm.input != inputNone {
			return bm.handleInputKey(msg)
		}

		return bm.handleKeyPress(msg)
	}

	return bm, nil
}

func (bm browserModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		bm.quitting = true
		return bm, tea.Quit
	case tea.KeyEsc, tea.KeyEnter:
		if bm.input == inputListSearch {
			bm.listQuery = strings.TrimSpace(bm.listInput.Value())
			bm.applyFilter()
			bm.listInput.Blur()
		} else {
			if msg.Type == tea.KeyEnter {
				bm.runLogSearch(bm.logInput.Value())
			} else {
				bm.logSeq++
				bm.runLogSearch("")
				bm.logInput.SetValue("")
			}

			bm.logInput.Blur()
		}

		bm.input = inputNone

		return bm, nil
	default:
	}

	var cmd tea.Cmd

	if bm.input == inputListSearch {
		before := bm.listInput.Value()
		bm.listInput, cmd = bm.listInput.Update(msg)

		if bm.listInput.Value() != before {
			bm.listSeq++
			seq := bm.listSeq

			return bm, tea.Batch(cmd, tea.Tick(listSearchDelay, func(time.Time) tea.Msg {
				return listSearchMsg{seq: seq}
			}))
		}

		return bm, cmd
	}

	before := bm.logInput.Value()
	bm.logInput, cmd = bm.logInput.Update(msg)

	if bm.logInput.Value() != before {
		bm.logSeq++
		seq := bm.logSeq

		return bm, tea.Batch(cmd, tea.Tick(logSearchDelay, func(time.Time) tea.Msg {
			return logSearchMsg{seq: seq}
		}))
	}

	return bm, cmd
}

//nolint:cyclop,gocyclo,funlen // Key handling requires multiple cases for UI navigation
func (bm browserModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		bm.quitting = true
		return bm, tea.Quit
	case tea.KeyEsc:
		bm.focus = focusList
		bm.showList = true
		bm.resize()

		return bm, nil
	default:
		// Handle other key types in the string switch below
	}

	key := msg.String()

	if filter, ok := filterKeys[key]; ok {
		bm.filter = filter
		bm.applyFilter()

		return bm, nil
	}

	if section, ok := sectionKeys[key]; ok {
		if line, found := bm.opts.Annotator.JumpToSection(section); found {
			bm.detail.SetYOffset(line)
			bm.notice = ""
		} else {
			bm.notice = "No " + section + " section"
		}

		return bm, nil
	}

	bm.notice = ""

	switch key {
	case "q":
		bm.quitting = true
		return bm, tea.Quit

	case "/":
		if bm.focus == focusDetail {
			bm.input = inputLogSearch
			return bm, bm.logInput.Focus()
		}

		bm.input = inputListSearch

		return bm, bm.listInput.Focus()

	case " ":
		if idx, ok := bm.current(); ok {
			bm.marked[idx] = !bm.marked[idx]
			if !bm.marked[idx] {
				delete(bm.marked, idx)
			}
		}

		if bm.filter == filterMarked {
			bm.applyFilter()
		}

	case "y":
		bm.copyMarked()

	case "c":
		if r, ok := bm.currentRecord(); ok {
			text := r.Identifier + ": " + r.Name
			if r.FailureText != "" {
				text += "\n\n" + r.FailureText
			}

			bm.copyText(text, "Copied "+r.Identifier)
		}

	case "C":
		if r, ok := bm.currentRecord(); ok {
			if r.ExecutionLog == "" {
				bm.notice = "No log to copy"
			} else {
				bm.copyText(r.ExecutionLog, "Copied log of "+r.Identifier)
			}
		}

	case "o":
		bm.openCurrent()

	case "enter":
		bm.focus = focusDetail

	case "tab":
		if bm.focus == focusList {
			bm.focus = focusDetail
		} else if bm.showList {
			bm.focus = focusList
		}

	case "l":
		bm.showList = !bm.showList
		if !bm.showList {
			bm.focus = focusDetail
		}

		bm.resize()

	case "n":
		if line, ok := bm.opts.Annotator.NextMatch(); ok {
			bm.detail.SetYOffset(line)
			bm.noticeMatch()
		}

	case "N":
		if line, ok := bm.opts.Annotator.PrevMatch(); ok {
			bm.detail.SetYOffset(line)
			bm.noticeMatch()
		}

	case "down", "j":
		bm.move(1)

	case "up", "k":
		bm.move(-1)

	case "pgdown", "d":
		bm.move(bm.pageSize())

	case "pgup", "u":
		bm.move(-bm.pageSize())

	case "g", "home":
		if bm.focus == focusDetail {
			bm.detail.GotoTop()
		} else {
			bm.setCursor(0)
		}

	case "G", "end":
		if bm.focus == focusDetail {
			bm.detail.GotoBottom()
		} else {
			bm.setCursor(len(bm.visible) - 1)
		}
	}

	return bm, nil
}

func (bm *browserModel) move(delta int) {
	if bm.focus == focusDetail {
		bm.detail.SetYOffset(bm.detail.YOffset + delta)
		return
	}

	bm.setCursor(bm.cursor + delta)
}

func (bm *browserModel) setCursor(cursor int) {
	if cursor >= len(bm.visible) {
		cursor = len(bm.visible) - 1
	}

	if cursor < 0 {
		cursor = 0
	}

	bm.cursor = cursor

	rows := bm.paneHeight()
	if bm.cursor < bm.offset {
		bm.offset = bm.cursor
	}

	if rows > 0 && bm.cursor >= bm.offset+rows {
		bm.offset = bm.cursor - rows + 1
	}

	bm.refreshDetail()
}

func (bm *browserModel) current() (int, bool) {
	if bm.cursor < 0 || bm.cursor >= len(bm.visible) {
		return 0, false
	}

	return bm.visible[bm.cursor], true
}

func (bm *browserModel) currentRecord() (m.Record, bool) {
	idx, ok := bm.current()
	if !ok {
		return m.Record{}, false
	}

	return bm.records[idx], true
}

func (bm *browserModel) matchesFilter(idx int) bool {
	r := bm.records[idx]

	switch bm.filter {
	case filterPassed:
		return r.Status == m.StatusPassed
	case filterFailed:
		return r.Status == m.StatusFailed
	case filterSkipped:
		return r.Status == m.StatusSkipped
	case filterError:
		return r.Status == m.StatusError
	case filterMarked:
		return bm.marked[idx]
	default:
		return true
	}
}

// applyFilter recomputes the visible rows, keeping the selected record when it is still shown.
func (bm *browserModel) applyFilter() {
	selected, hadSelection := bm.current()

	bm.visible = bm.visible[:0]

	for i, r := range bm.records {
		if !bm.matchesFilter(i) {
			continue
		}

		if bm.listQuery != "" && !bm.opts.Matches(r, bm.listQuery) {
			continue
		}

		bm.visible = append(bm.visible, i)
	}

	cursor := 0

	if hadSelection {
		for pos, idx := range bm.visible {
			if idx == selected {
				cursor = pos
				break
			}
		}
	}

	bm.offset = 0
	bm.setCursor(cursor)
}

func (bm *browserModel) refreshDetail() {
	idx, ok := bm.current()
	if !ok {
		bm.rendered = -1
		bm.detail.SetContent(bm.styles.muted.Render("No tests match the current filter."))

		return
	}

	if idx == bm.rendered {
		return
	}

	bm.rendered = idx
	view := bm.opts.Annotator.Render(bm.records[idx])
	bm.detail.SetContent(bm.styles.renderView(view))
	bm.detail.GotoTop()
	bm.logInput.SetValue("")
}

func (bm *browserModel) runLogSearch(query string) {
	if _, ok := bm.current(); !ok {
		return
	}

	count := bm.opts.Annotator.Search(strings.TrimSpace(query))
	bm.detail.SetContent(bm.styles.renderView(bm.opts.Annotator.View()))

	switch {
	case strings.TrimSpace(query) == "":
		bm.notice = ""
	case count == 0:
		bm.notice = "No matches"
	default:
		if _, line, ok := bm.opts.Annotator.CurrentMatch(); ok {
			bm.detail.SetYOffset(line)
		}

		bm.noticeMatch()
	}
}

func (bm *browserModel) noticeMatch() {
	index, _, ok := bm.opts.Annotator.CurrentMatch()
	if !ok {
		return
	}

	bm.notice = fmt.Sprintf("Match %d/%d", index+1, len(bm.opts.Annotator.View().Matches))
}

func (bm *browserModel) copyMarked() {
	ids := make([]string, 0, len(bm.marked))

	for i, r := range bm.records {
		if bm.marked[i] {
			ids = append(ids, r.Identifier)
		}
	}

	if len(ids) == 0 {
		if r, ok := bm.currentRecord(); ok {
			ids = append(ids, r.Identifier)
		}
	}

	if len(ids) == 0 {
		return
	}

	bm.copyText(strings.Join(ids, ", "), "Copied "+strconv.Itoa(len(ids)))
}

func (bm *browserModel) copyText(text, success string) {
	if bm.opts.Clipboard == nil {
		bm.notice = "Copy failed"
		return
	}

	if err := bm.opts.Clipboard.Copy(text); err != nil {
		bm.notice = "Copy failed"
		return
	}

	bm.notice = success
}

func (bm *browserModel) openCurrent() {
	r, ok := bm.currentRecord()
	if !ok {
		return
	}

	if bm.opts.TrackerURL == "" || bm.opts.Opener == nil {
		bm.notice = "No tracker URL configured"
		return
	}

	if err := bm.opts.Opener.Open(r.BrowseURL(bm.opts.TrackerURL)); err != nil {
		bm.notice = "Open failed"
		return
	}

	bm.notice = "Opened " + r.TrackerKey()
}

func (bm *browserModel) listWidth() int {
	if !bm.showList {
		return 0
	}

	width := bm.width / 3
	if width < minListWidth {
		width = minListWidth
	}

	if width > bm.width {
		width = bm.width
	}

	return width
}

func (bm *browserModel) paneHeight() int {
	h := bm.height - chromeRows - paneBorderSize
	if h < 1 {
		h = 1
	}

	return h
}

func (bm *browserModel) pageSize() int {
	if bm.focus == focusDetail {
		return bm.detail.Height
	}

	return bm.paneHeight()
}

func (bm *browserModel) resize() {
	width := bm.width - bm.listWidth() - paneBorderSize
	if width < 1 {
		width = 1
	}

	bm.detail.Width = width
	bm.detail.Height = bm.paneHeight()
	bm.listInput.Width = bm.width - 2
	bm.logInput.Width = bm.width - 6
	bm.setCursor(bm.cursor)
}

// statusLine summarizes the visible rows, per-status counts and the active filter.
func (bm browserModel) statusLine() string {
	counts := m.CountRecords(bm.records)

	parts := []string{fmt.Sprintf("%d/%d", len(bm.visible), len(bm.records))}

	for _, c := range []struct {
		label string
		n     int
	}{
		{"F", counts.Of(m.StatusFailed)},
		{"E", counts.Of(m.StatusError)},
		{"P", counts.Of(m.StatusPassed)},
		{"S", counts.Of(m.StatusSkipped)},
		{"*", len(bm.marked)},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", c.label, c.n))
		}
	}

	filter := "[" + filterNames[bm.filter] + "]"
	if bm.listQuery != "" {
		filter += " /" + bm.listQuery
	}

	return strings.Join(append(parts, filter), " | ")
}

func (bm browserModel) renderRow(idx int, width int) string {
	r := bm.records[idx]

	mark := " "
	if bm.marked[idx] {
		mark = "*"
	}

	icon, ok := statusIcons[r.Status]
	if !ok {
		icon = " "
	}

	row := fmt.Sprintf("%s%s %s %s", mark, icon, r.TrackerKey(), r.ReadableName())
	row = runewidth.Truncate(row, width, "…")

	return runewidth.FillRight(row, width)
}

func (bm browserModel) renderList(width, height int) string {
	lines := make([]string, 0, height)

	if len(bm.visible) == 0 {
		lines = append(lines, bm.styles.muted.Render(runewidth.Truncate("No tests found.", width, "…")))
	}

	for pos := bm.offset; pos < len(bm.visible) && len(lines) < height; pos++ {
		idx := bm.visible[pos]
		row := bm.renderRow(idx, width)

		if pos == bm.cursor {
			lines = append(lines, bm.styles.selected.Render(row))
			continue
		}

		lines = append(lines, bm.styles.status(bm.records[idx].Status).Render(row))
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

func (bm browserModel) footer() string {
	switch bm.input {
	case inputListSearch:
		return bm.listInput.View()
	case inputLogSearch:
		return bm.logInput.View()
	default:
	}

	if bm.notice != "" {
		return bm.notice
	}

	return bm.styles.muted.Render("q quit • / search • a/p/f/s/e/m filter • space mark • y/c/C copy • o open • 1/2/3 sections • n/N matches")
}

func (bm browserModel) View() string {
	if bm.quitting {
		return ""
	}

	height := bm.paneHeight()

	detailStyle := bm.styles.border
	listStyle := bm.styles.border

	if bm.focus == focusDetail {
		detailStyle = bm.styles.focused
	} else {
		listStyle = bm.styles.focused
	}

	detail := detailStyle.Render(bm.detail.View())

	body := detail
	if bm.showList {
		inner := bm.listWidth() - paneBorderSize
		if inner < 1 {
			inner = 1
		}

		list := listStyle.Render(bm.renderList(inner, height))
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, bm.statusLine(), bm.footer())
}
