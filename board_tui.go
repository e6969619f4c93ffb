package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kanban/internal/api"
	"kanban/internal/board"
	"kanban/internal/drag"
	kerrors "kanban/internal/errors"
	"kanban/internal/geom"
	"kanban/internal/grid"
	"kanban/internal/logger"
	"kanban/internal/usercfg"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
)

// boardTop is the first screen row of the board: header, help line, blank.
const boardTop = 3

// footerRows is reserved under the board for the status and prompt lines.
const footerRows = 3

type boardLoadedMsg struct{ snap board.Snapshot }

type errMsg struct{ err error }

type pollMsg struct{}

// structureMsg returns from creating the column or swimlane a drop needs.
type structureMsg struct {
	plan board.Plan
	st   board.Structure
	err  error
}

// syncedMsg carries the store's answer to an applied move.
type syncedMsg struct{ outcome board.Outcome }

// mutationMsg is the server-confirmed result of a keyboard or click action.
type mutationMsg struct {
	intents []board.Intent
	status  string
	err     error
}

type promptKind int

const (
	promptNone promptKind = iota
	promptAddCard
	promptRenameCard
	promptCardCategory
	promptListTitle
	promptListCategory
	promptColumnTitle
	promptFilter
)

func (p promptKind) label() string {
	switch p {
	case promptAddCard:
		return "New card: "
	case promptRenameCard:
		return "Card text: "
	case promptCardCategory:
		return "Card category: "
	case promptListTitle:
		return "List title: "
	case promptListCategory:
		return "Locked category: "
	case promptColumnTitle:
		return "Column title: "
	case promptFilter:
		return "Filter: "
	}
	return ""
}

// listColors is the palette K cycles through; "" clears the color.
var listColors = []string{"#FF5F87", "#5FAFFF", "#87D787", "#FFD75F", ""}

type boardModel struct {
	cfg       usercfg.Config
	client    *api.Client
	state     *board.State
	committer *board.Committer
	frames    *frameScheduler
	drag      *drag.Controller

	selected grid.Coord
	cursor   int
	scroll   int
	width    int
	height   int

	loading   bool
	err       error
	status    string
	statusErr bool
	inflight  int
	deferred  *board.Snapshot

	prompt     promptKind
	promptCard int64
	promptLoc  grid.Location
	input      textinput.Model
	filter     string
	fuzzy      bool
	extras     bool
	confirmDel bool

	showingHelp bool
	helpOffset  int
	styles      boardStyles
}

func newBoardStyles() boardStyles {
	return boardStyles{
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		error:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		warning:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		helpOverlay: lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("255")).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("99")).Padding(1, 2),
		helpTitle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		helpKey:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		inks: map[ink]lipgloss.Style{
			inkMuted:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			inkTitle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
			inkLane:     lipgloss.NewStyle().Foreground(lipgloss.Color("99")),
			inkBorder:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			inkAccent:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			inkSelected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
			inkDim:      lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("238")),
			inkGhost:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
			inkDanger:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
			inkAddable:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		},
	}
}

type boardStyles struct {
	header      lipgloss.Style
	help        lipgloss.Style
	muted       lipgloss.Style
	error       lipgloss.Style
	warning     lipgloss.Style
	helpOverlay lipgloss.Style
	helpTitle   lipgloss.Style
	helpKey     lipgloss.Style
	inks        map[ink]lipgloss.Style
}

func initialBoardModel(cfg usercfg.Config, client *api.Client) boardModel {
	ti := textinput.New()
	ti.CharLimit = 256

	state := board.NewState()
	frames := newFrameScheduler()
	prefs := usercfg.GetUIPrefs()

	return boardModel{
		cfg:       cfg,
		client:    client,
		state:     state,
		committer: board.NewCommitter(state, client),
		frames:    frames,
		drag:      drag.New(frames, nil),
		selected:  grid.Coord{Col: max(0, prefs.LastSelectedCol), Swim: max(0, prefs.LastSelectedRow)},
		loading:   true,
		input:     ti,
		filter:    prefs.LastFilter,
		fuzzy:     prefs.FuzzySearch,
		extras:    prefs.ShowExtraFields,
		styles:    newBoardStyles(),
	}
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(m.loadBoardCmd(), m.pollCmd())
}

func (m boardModel) loadBoardCmd() tea.Cmd {
	client := m.client
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := client.GetBoard(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return boardLoadedMsg{snap: snap}
	}
}

func (m boardModel) pollCmd() tea.Cmd {
	d := m.cfg.Poll()
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return pollMsg{} })
}

// busy reports whether a gesture or a commit owns the board right now.
func (m boardModel) busy() bool {
	return m.drag.Dragging() || m.inflight > 0
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-20)
		return m, nil
	case frameMsg:
		m.frames.run(msg.id)
		return m, m.frames.flush()
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case boardLoadedMsg:
		m.loading = false
		if m.busy() {
			snap := msg.snap
			m.deferred = &snap
			return m, nil
		}
		m.state.Dispatch(board.BoardLoaded{Snapshot: msg.snap})
		logger.TUI("board loaded: %d lists, %d cards", len(m.state.Layout().Kinds(grid.Active)), len(msg.snap.Tasks))
		m.err = nil
		m.clampSelection()
		return m, nil
	case pollMsg:
		if m.busy() || m.loading {
			return m, m.pollCmd()
		}
		return m, tea.Batch(m.loadBoardCmd(), m.pollCmd())
	case structureMsg:
		if msg.err != nil {
			m.inflight--
			m.noteResult(m.committer.Fail(msg.plan, msg.err))
			return m, m.afterCommit()
		}
		pending, ok := m.committer.Apply(msg.plan, msg.st)
		if !ok {
			m.inflight--
			return m, m.afterCommit()
		}
		m.followCard(pending.CardID)
		return m, m.syncCmd(pending)
	case syncedMsg:
		m.inflight--
		m.noteResult(m.committer.Settle(msg.outcome))
		return m, m.afterCommit()
	case mutationMsg:
		if msg.err != nil {
			logger.TUI("mutation failed: %v", msg.err)
			m.setError(msg.err)
			m.state.MarkStale()
			return m, m.afterCommit()
		}
		for _, in := range msg.intents {
			m.state.Dispatch(in)
		}
		m.clampSelection()
		m.setStatus(msg.status)
		return m, nil
	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m *boardModel) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *boardModel) setError(err error) {
	m.statusErr = true
	if ue, ok := err.(*kerrors.UserError); ok {
		m.status = ue.Short()
		return
	}
	m.status = err.Error()
}

func (m *boardModel) noteResult(res board.Result) {
	switch {
	case res.Err != nil:
		m.setError(res.Err)
	case res.Noop:
	default:
		m.setStatus("Card moved")
	}
}

// afterCommit refetches once nothing is in flight if the board went stale or
// a poll result was held back.
func (m *boardModel) afterCommit() tea.Cmd {
	if m.busy() {
		return nil
	}
	if m.deferred == nil && !m.state.Stale() {
		return nil
	}
	// A held snapshot may predate the commit that just settled.
	m.deferred = nil
	m.loading = true
	return m.loadBoardCmd()
}

func (m boardModel) syncCmd(p board.Pending) tea.Cmd {
	committer := m.committer
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return syncedMsg{outcome: committer.Sync(ctx, p)}
	}
}

// startCommit runs the optimistic part of a drop on the UI loop and hands
// the remote steps to commands.
func (m boardModel) startCommit(d drag.Drop) (tea.Model, tea.Cmd) {
	plan, ok := m.committer.Plan(d.CardID, d.Target)
	if !ok {
		return m, m.afterCommit()
	}
	m.inflight++
	if plan.Target.Resolved() {
		pending, ok := m.committer.Apply(plan, board.Structure{To: plan.Target.Location()})
		if !ok {
			m.inflight--
			return m, m.afterCommit()
		}
		m.followCard(pending.CardID)
		return m, m.syncCmd(pending)
	}
	committer := m.committer
	timeout := m.cfg.Timeout()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		st, err := committer.CreateStructure(ctx, plan)
		return structureMsg{plan: plan, st: st, err: err}
	}
}

func (m boardModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := geom.Point{X: float64(msg.X), Y: float64(msg.Y)}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll = max(0, m.scroll-2)
			return m, nil
		case tea.MouseButtonWheelDown:
			m.scroll += 2
			return m, nil
		case tea.MouseButtonLeft:
		default:
			return m, nil
		}
		if m.prompt != promptNone || m.showingHelp {
			return m, nil
		}
		m.confirmDel = false
		geo := m.geometry()
		h := geo.hitTest(p)
		if h.kind != hitNothing {
			m.selected = h.coord
			m.cursor = 0
			if h.card != nil {
				for i := range h.list.cards {
					if h.list.cards[i].card.ID == h.card.card.ID {
						m.cursor = i
					}
				}
			}
		}
		if m.drag.PointerDown(p, h.kind.element(), h.source(), geo.zones()) {
			return m, m.frames.flush()
		}
		return m.click(h)
	case tea.MouseActionMotion:
		m.drag.PointerMove(p)
		return m, nil
	case tea.MouseActionRelease:
		if d, ok := m.drag.PointerUp(); ok {
			return m.startCommit(d)
		}
		return m, m.afterCommit()
	}
	return m, nil
}

// click handles presses that did not start a drag.
func (m boardModel) click(h hit) (tea.Model, tea.Cmd) {
	switch h.kind {
	case hitCardDelete:
		return m, m.deleteCardCmd(h.card.card.ID)
	case hitAddCard:
		return m.openPrompt(promptAddCard, 0, h.list.location(), "")
	case hitListTitle:
		loc := h.list.location()
		return m.openPrompt(promptListTitle, 0, loc, m.state.ListTitle(loc))
	case hitAddList:
		if target, ok := m.state.Layout().Target(h.coord); ok {
			return m, m.addListCmd(target)
		}
	}
	return m, nil
}

func (lb *listBox) location() grid.Location {
	return grid.Location{ColumnID: lb.cell.ColumnID, SwimlaneID: lb.cell.SwimlaneID}
}

func (m boardModel) openPrompt(kind promptKind, cardID int64, loc grid.Location, value string) (tea.Model, tea.Cmd) {
	m.prompt = kind
	m.promptCard = cardID
	m.promptLoc = loc
	m.input.Prompt = kind.label()
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showingHelp {
		return m.handleHelpKey(msg.String())
	}
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}
	key := msg.String()
	if m.confirmDel {
		m.confirmDel = false
		if key == "y" {
			if lb, ok := m.selectedList(); ok {
				return m, m.deleteListCmd(lb.location())
			}
		}
		m.setStatus("Delete cancelled")
		return m, nil
	}

	card, hasCard := m.selectedCard()
	lb, hasList := m.selectedList()

	switch {
	// Critical actions first to avoid conflicts with navigation keys
	case key == "q" || key == "ctrl+c":
		m.drag.Close()
		m.saveUIPreferences()
		return m, tea.Quit
	case key == "esc":
		if m.drag.Dragging() {
			m.drag.Close()
			m.setStatus("Drag cancelled")
			return m, m.afterCommit()
		}
		m.filter = ""
	case key == "?":
		m.showingHelp = true
		m.helpOffset = 0
	case key == "r":
		m.loading = true
		return m, m.loadBoardCmd()
	case key == "/":
		return m.openPrompt(promptFilter, 0, grid.Location{}, m.filter)
	case key == "f":
		m.fuzzy = !m.fuzzy
		m.setStatus(fmt.Sprintf("Fuzzy filter %s", onOff(m.fuzzy)))
	case key == "v":
		m.extras = !m.extras
	case key == "o":
		url := m.client.BoardURL()
		if hasCard {
			url = m.client.TaskURL(card.ID)
		}
		if err := browser.OpenURL(url); err != nil {
			m.setError(err)
		}
	case key == "a" && hasList:
		return m.openPrompt(promptAddCard, 0, lb.location(), "")
	case key == "e" && hasCard:
		return m.openPrompt(promptRenameCard, card.ID, card.Location(), card.Text)
	case key == "c" && hasCard:
		return m.openPrompt(promptCardCategory, card.ID, card.Location(), card.Category)
	case key == "d" && hasCard:
		return m, m.deleteCardCmd(card.ID)
	case key == "t" && hasList:
		return m.openPrompt(promptListTitle, 0, lb.location(), m.state.ListTitle(lb.location()))
	case key == "T" && hasList:
		col, _ := m.state.Column(lb.cell.ColumnID)
		return m.openPrompt(promptColumnTitle, 0, lb.location(), col.Title)
	case key == "C" && hasList:
		cfg, _ := m.state.ListConfig(lb.location())
		return m.openPrompt(promptListCategory, 0, lb.location(), cfg.Category)
	case key == "L" && hasList:
		cfg, _ := m.state.ListConfig(lb.location())
		locked := !cfg.Locked
		status := "List unlocked"
		if locked {
			status = "List locked"
		}
		return m, m.configureListCmd(lb.location(), board.ListConfigPatch{Locked: &locked}, status)
	case key == "K" && hasList:
		return m, m.cycleColorCmd(lb.location())
	case key == "x" && hasList:
		m.confirmDel = true
		m.setStatus(fmt.Sprintf("Delete list %q and its cards? (y/n)", m.state.ListTitle(lb.location())))
	case key == "enter":
		if m.state.Layout().At(m.selected).Kind == grid.Addable {
			if target, ok := m.state.Layout().Target(m.selected); ok {
				return m, m.addListCmd(target)
			}
		}
	case (key == "shift+left" || key == "<" || key == "shift+right" || key == ">") && hasCard:
		dx := 1
		if key == "shift+left" || key == "<" {
			dx = -1
		}
		return m.nudgeCard(card, dx)
	case key == "pgup":
		m.scroll = max(0, m.scroll-10)
	case key == "pgdown":
		m.scroll += 10
	// Navigation last
	case key == "l" || key == "right" || key == "tab":
		m.selected.Col = min(m.selected.Col+1, m.state.Layout().Width()-1)
		m.cursor = 0
	case key == "h" || key == "left" || key == "shift+tab":
		m.selected.Col = max(0, m.selected.Col-1)
		m.cursor = 0
	case key == "j" || key == "down":
		if hasList && m.cursor < len(lb.cards)-1 {
			m.cursor++
		} else if m.selected.Swim < m.state.Layout().Height()-1 {
			m.selected.Swim++
			m.cursor = 0
		}
	case key == "k" || key == "up":
		if m.cursor > 0 {
			m.cursor--
		} else if m.selected.Swim > 0 {
			m.selected.Swim--
			if prev, ok := m.selectedList(); ok {
				m.cursor = max(0, len(prev.cards)-1)
			}
		}
	}
	return m, nil
}

// nudgeCard moves a card one cell sideways through the same commit path a
// drop uses.
func (m boardModel) nudgeCard(card board.Card, dx int) (tea.Model, tea.Cmd) {
	layout := m.state.Layout()
	from, ok := layout.Find(card.Location())
	if !ok {
		return m, nil
	}
	target, ok := layout.Target(grid.Coord{Col: from.Col + dx, Swim: from.Swim})
	if !ok {
		return m, nil
	}
	m.selected = target.Coord
	return m.startCommit(drag.Drop{CardID: card.ID, From: card.Location(), Target: target})
}

func (m boardModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.prompt = promptNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		kind, value := m.prompt, strings.TrimSpace(m.input.Value())
		m.prompt = promptNone
		m.input.Blur()
		return m.submitPrompt(kind, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.prompt == promptFilter {
		m.filter = m.input.Value()
		m.cursor = 0
	}
	return m, cmd
}

func (m boardModel) submitPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	loc := m.promptLoc
	switch kind {
	case promptFilter:
		m.filter = value
		return m, nil
	case promptAddCard:
		if value == "" {
			return m, nil
		}
		return m, m.addCardCmd(loc, value)
	case promptRenameCard:
		if value == "" {
			m.setError(kerrors.NewInvalidInputError("text", "a card needs some text"))
			return m, nil
		}
		return m, m.updateCardCmd(m.promptCard, board.TaskPatch{Text: &value}, "Card renamed")
	case promptCardCategory:
		return m, m.updateCardCmd(m.promptCard, board.TaskPatch{Category: &value}, "Category set")
	case promptListTitle:
		return m, m.configureListCmd(loc, board.ListConfigPatch{Title: &value}, "List renamed")
	case promptListCategory:
		return m, m.configureListCmd(loc, board.ListConfigPatch{Category: &value}, "List category set")
	case promptColumnTitle:
		if value == "" {
			return m, nil
		}
		return m, m.renameColumnCmd(loc.ColumnID, value)
	}
	return m, nil
}

func (m boardModel) handleHelpKey(key string) (tea.Model, tea.Cmd) {
	lines, _, viewport := m.helpLayout()
	maxOffset := 0
	if viewport < len(lines) {
		maxOffset = len(lines) - viewport
	}
	switch key {
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
		m.helpOffset = max(0, m.helpOffset-max(1, viewport-1))
	case "pgdown":
		m.helpOffset = min(maxOffset, m.helpOffset+max(1, viewport-1))
	case "home":
		m.helpOffset = 0
	case "end":
		m.helpOffset = maxOffset
	}
	return m, nil
}

// mutate runs fn against the server and reports its intents back to the loop.
func (m boardModel) mutate(fn func(ctx context.Context, client *api.Client) ([]board.Intent, string, error)) tea.Cmd {
	client := m.client
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		intents, status, err := fn(ctx, client)
		return mutationMsg{intents: intents, status: status, err: err}
	}
}

func (m boardModel) addCardCmd(loc grid.Location, text string) tea.Cmd {
	owner := m.cfg.Username
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		card, err := c.CreateTask(ctx, board.NewTask{ColumnID: loc.ColumnID, SwimlaneID: loc.SwimlaneID, Text: text, Owner: owner})
		if err != nil {
			return nil, "", err
		}
		return []board.Intent{board.TaskAdded{Card: card}}, "Card added", nil
	})
}

func (m boardModel) updateCardCmd(id int64, patch board.TaskPatch, status string) tea.Cmd {
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		card, err := c.UpdateTask(ctx, id, patch)
		if err != nil {
			return nil, "", err
		}
		return []board.Intent{board.TaskUpdated{Card: card}}, status, nil
	})
}

func (m boardModel) deleteCardCmd(id int64) tea.Cmd {
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		if err := c.DeleteTask(ctx, id); err != nil {
			return nil, "", err
		}
		return []board.Intent{board.TaskDeleted{CardID: id}}, "Card deleted", nil
	})
}

func (m boardModel) renameColumnCmd(id int64, title string) tea.Cmd {
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		col, err := c.RenameColumn(ctx, id, title)
		if err != nil {
			return nil, "", err
		}
		return []board.Intent{board.ColumnRenamed{ColumnID: col.ID, Title: col.Title}}, "Column renamed", nil
	})
}

func (m boardModel) configureListCmd(loc grid.Location, patch board.ListConfigPatch, status string) tea.Cmd {
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		lc, err := c.ConfigureList(ctx, loc.ColumnID, loc.SwimlaneID, patch)
		if err != nil {
			return nil, "", err
		}
		return []board.Intent{board.ListConfigured{Config: lc}}, status, nil
	})
}

func (m boardModel) cycleColorCmd(loc grid.Location) tea.Cmd {
	cfg, _ := m.state.ListConfig(loc)
	next := listColors[0]
	for i, c := range listColors {
		if c == cfg.Color {
			next = listColors[(i+1)%len(listColors)]
			break
		}
	}
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		if _, err := c.ConfigureList(ctx, loc.ColumnID, loc.SwimlaneID, board.ListConfigPatch{Color: &next}); err != nil {
			return nil, "", err
		}
		return []board.Intent{board.ListColorChanged{Location: loc, Color: next}}, "List color changed", nil
	})
}

func (m boardModel) deleteListCmd(loc grid.Location) tea.Cmd {
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		res, err := c.DeleteList(ctx, loc.ColumnID, loc.SwimlaneID)
		if err != nil {
			return nil, "", err
		}
		return []board.Intent{board.ListDeleted{Location: loc}}, fmt.Sprintf("List deleted with %d card(s)", res.TasksDeleted), nil
	})
}

// addListCmd turns an addable cell into a list, creating the column and
// swimlane first when the cell lies beyond the current ones.
func (m boardModel) addListCmd(target grid.Target) tea.Cmd {
	return m.mutate(func(ctx context.Context, c *api.Client) ([]board.Intent, string, error) {
		var intents []board.Intent
		loc := target.Location()
		if target.NeedsColumn() {
			col, err := c.CreateColumn(ctx, board.DefaultColumnTitle)
			if err != nil {
				return nil, "", err
			}
			intents = append(intents, board.ColumnAdded{Column: col})
			loc.ColumnID = col.ID
		}
		if target.NeedsSwimlane() {
			sw, err := c.CreateSwimlane(ctx, board.DefaultSwimlaneTitle)
			if err != nil {
				return intents, "", err
			}
			intents = append(intents, board.SwimlaneAdded{Swimlane: sw})
			loc.SwimlaneID = sw.ID
		}
		lc, err := c.ConfigureList(ctx, loc.ColumnID, loc.SwimlaneID, board.ListConfigPatch{})
		if err != nil {
			return intents, "", err
		}
		return append(intents, board.ListConfigured{Config: lc}), "List added", nil
	})
}

// visible applies the card filter.
func (m boardModel) visible(c board.Card) bool {
	return usercfg.MatchCard(m.filter, m.fuzzy, c.Text, c.Category, c.Assignee, c.Owner)
}

func (m boardModel) geometry() *boardGeometry {
	return measureBoard(m.state, geom.Point{X: 0, Y: float64(boardTop - m.scroll)}, m.visible)
}

func (m boardModel) selectedList() (*listBox, bool) {
	lb, ok := m.geometry().lists[m.selected]
	if !ok || lb.cell.Kind != grid.Active {
		return nil, false
	}
	return lb, true
}

func (m boardModel) selectedCard() (board.Card, bool) {
	cb, ok := m.geometry().cardAt(m.selected, m.cursor)
	if !ok {
		return board.Card{}, false
	}
	return cb.card, true
}

// followCard moves the selection to wherever the card now is.
func (m *boardModel) followCard(id int64) {
	card, ok := m.state.Card(id)
	if !ok {
		return
	}
	if c, ok := m.state.Layout().Find(card.Location()); ok {
		m.selected = c
		m.cursor = 0
	}
}

func (m *boardModel) clampSelection() {
	layout := m.state.Layout()
	m.selected.Col = max(0, min(m.selected.Col, layout.Width()-1))
	m.selected.Swim = max(0, min(m.selected.Swim, layout.Height()-1))
	if lb, ok := m.geometry().lists[m.selected]; ok {
		m.cursor = max(0, min(m.cursor, len(lb.cards)-1))
	} else {
		m.cursor = 0
	}
}

func (m boardModel) View() string {
	width, height := m.width, m.height
	if width <= 0 {
		width = 120
	}
	if height <= 0 {
		height = 40
	}

	cards := len(m.state.Cards())
	lists := len(m.state.Layout().Kinds(grid.Active))
	header := m.styles.header.Render(clip(fmt.Sprintf("Kanban · %s · %d lists · %d cards", m.cfg.ServerURL, lists, cards), width))
	help := m.styles.help.Render(clip("(? help • q quit • drag cards with the mouse • hjkl select • a add • e edit • / filter)", width))

	canvasHeight := max(1, height-boardTop-footerRows)
	c := newCanvas(width, canvasHeight)
	opts := paintOptions{selected: m.selected, cursor: m.cursor, extras: m.extras}
	if id, ok := m.drag.Placeholder(); ok {
		opts.placeholder = id
	}
	if z, ok := m.drag.Highlighted(); ok {
		coord := z.Target.Coord
		opts.highlighted = &coord
	}
	if g, ok := m.drag.Ghost(); ok {
		opts.ghost = &g
	}
	paintBoard(c, m.geometry(), m.state, geom.Point{X: 0, Y: boardTop}, opts)
	boardView := c.render(m.styles.inks)

	var footer []string
	switch {
	case m.prompt != promptNone:
		footer = append(footer, m.input.View())
	case m.err != nil:
		footer = append(footer, m.styles.error.Render(clip("Error: "+m.err.Error(), width)))
	case m.loading:
		footer = append(footer, m.styles.muted.Render("Loading..."))
	case m.status != "":
		st := m.styles.muted
		if m.statusErr {
			st = m.styles.error
		}
		footer = append(footer, st.Render(clip(m.status, width)))
	}
	if m.committer.Unreachable() {
		footer = append(footer, m.styles.warning.Render(clip("⚠ store unreachable: moves are not being saved", width)))
	}
	if m.filter != "" && m.prompt != promptFilter {
		mode := "substring"
		if m.fuzzy {
			mode = "fuzzy"
		}
		footer = append(footer, m.styles.muted.Render(clip(fmt.Sprintf("Filter (%s): %s", mode, m.filter), width)))
	}

	baseView := header + "\n" + help + "\n\n" + boardView + "\n" + strings.Join(footer, "\n")
	if m.showingHelp {
		return m.renderWithHelpOverlay(baseView)
	}
	return baseView
}

func (m boardModel) renderWithHelpOverlay(baseView string) string {
	lines, overlayWidth, viewport := m.helpLayout()
	maxOffset := 0
	if viewport < len(lines) {
		maxOffset = len(lines) - viewport
	}
	offset := max(0, min(m.helpOffset, maxOffset))
	end := min(len(lines), offset+viewport)
	visible := lines[offset:end]
	overlayHeight := viewport + 3
	y := max(0, (m.height-overlayHeight)/2)

	pos := fmt.Sprintf("%d/%d lines · ↑/↓ PgUp/PgDn Home/End · q/? close", end, len(lines))
	overlay := m.styles.helpOverlay.Width(overlayWidth).Render(strings.Join(visible, "\n") + "\n" + m.styles.muted.Render(pos))

	baseLines := strings.Split(baseView, "\n")
	overlayLines := strings.Split(overlay, "\n")
	for len(baseLines) < y+len(overlayLines) {
		baseLines = append(baseLines, "")
	}
	for i, line := range overlayLines {
		baseLines[y+i] = line
	}
	return strings.Join(baseLines, "\n")
}

// helpLayout computes wrapped help lines, overlay width, and viewport height.
func (m boardModel) helpLayout() ([]string, int, int) {
	overlayWidth := min(80, max(40, m.width-8))
	wrapWidth := max(10, overlayWidth-4)
	wrap := lipgloss.NewStyle().Width(wrapWidth)
	var wrapped []string
	for _, line := range strings.Split(m.buildHelpContent(), "\n") {
		if lipgloss.Width(line) <= wrapWidth {
			wrapped = append(wrapped, line)
			continue
		}
		wrapped = append(wrapped, strings.Split(wrap.Render(line), "\n")...)
	}
	viewport := max(3, min(m.height-4, len(wrapped)+3)-3)
	return wrapped, overlayWidth, viewport
}

func (m boardModel) buildHelpContent() string {
	k := m.styles.helpKey.Render
	t := m.styles.helpTitle.Render
	lines := []string{
		k("q/ctrl+c") + "    Quit",
		k("?") + "           Toggle this help",
		"",
		t("Mouse:"),
		"  Drag a card onto any list or onto a dashed + Add List cell",
		"  Click × to delete a card, + Add a card to add one",
		"  Click a dashed cell to create a list there",
		"",
		t("Navigation:"),
		k("hjkl/arrows") + " Select list and card",
		k("pgup/pgdown") + " Scroll the board",
		k("enter") + "       Create a list on a dashed cell",
		"",
		t("Cards:"),
		k("a") + "           Add a card to the selected list",
		k("e") + "           Edit card text",
		k("c") + "           Set card category",
		k("d") + "           Delete card",
		k("< / >") + "       Move card to the neighbouring cell",
		k("o") + "           Open card (or board) in browser",
		"",
		t("Lists:"),
		k("t") + "           Rename list",
		k("T") + "           Rename column",
		k("C") + "           Set locked category",
		k("L") + "           Toggle category lock",
		k("K") + "           Cycle list color",
		k("x") + "           Delete list and its cards",
		"",
		t("View:"),
		k("/") + "           Filter cards",
		k("f") + "           Toggle fuzzy filter",
		k("v") + "           Toggle assignee and due date",
		k("r") + "           Refresh board",
		k("esc") + "         Cancel drag or clear filter",
	}
	return t("Kanban board · Keyboard and mouse") + "\n\n" + strings.Join(lines, "\n") + "\n\n" + m.styles.muted.Render("Press ? again to close")
}

func (m boardModel) saveUIPreferences() {
	prefs := usercfg.UIPreferences{
		LastFilter:      m.filter,
		FuzzySearch:     m.fuzzy,
		ShowExtraFields: m.extras,
		LastSelectedCol: m.selected.Col,
		LastSelectedRow: m.selected.Swim,
	}
	// best-effort
	_ = usercfg.SaveUIPrefs(prefs)
}

// StartBoard runs the board until the user quits.
func StartBoard(cfg usercfg.Config) error {
	logger.ToDebugFile()
	client := api.New(cfg.ServerURL, cfg.Timeout())
	model := initialBoardModel(cfg, client)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if bm, ok := finalModel.(boardModel); ok {
		bm.drag.Close()
		bm.saveUIPreferences()
	}
	return err
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func clip(s string, w int) string {
	if w <= 0 || lipgloss.Width(s) <= w {
		return s
	}
	r := []rune(s)
	if w <= 3 {
		return string(r[:min(w, len(r))])
	}
	for lipgloss.Width(string(r)) > w-3 && len(r) > 0 {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
