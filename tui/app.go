package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nachoal/sse-chat-go/history"
	"github.com/nachoal/sse-chat-go/session"
)

const (
	inputHeight  = 2
	headerHeight = 1
	statusHeight = 1
	footerHeight = 1

	// Below this terminal width the sidebar is hidden.
	minSidebarTerminalWidth = 72

	noticeDuration = 4 * time.Second
	closeTimeout   = 5 * time.Second
)

// Run creates a controller on b, shows the chat screen and blocks until the
// user quits. The controller is closed before Run returns.
func Run(ctx context.Context, b session.Backend, opts Options, sessionOpts ...session.Option) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	br := &bridge{}
	sessionOpts = append(sessionOpts, session.WithListener(br.send))
	ctrl := session.New(b, sessionOpts...)

	p := tea.NewProgram(New(ctx, ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	br.attach(p)
	_, runErr := p.Run()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := ctrl.Close(closeCtx); err != nil {
		logger.Warn("controller close timed out", slog.String("error", err.Error()))
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}

// bridge forwards controller events to the program
type bridge struct {
	mu sync.Mutex
	p  *tea.Program
}

func (b *bridge) attach(p *tea.Program) {
	b.mu.Lock()
	b.p = p
	b.mu.Unlock()
}

func (b *bridge) send(ev session.Event) {
	b.mu.Lock()
	p := b.p
	b.mu.Unlock()
	if p == nil {
		return
	}
	// Program.Send blocks until the update loop reads the message.
	go p.Send(controllerEventMsg{event: ev})
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.loadHistory()}
	if m.opts.OpenID != 0 {
		cmds = append(cmds, m.switchCmd(m.opts.OpenID, nil))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshTranscript(true)
		m.ready = true
		return m, nil

	case controllerEventMsg:
		return m.handleEvent(msg.event)

	case opDoneMsg:
		return m.handleOpDone(msg)

	case historyPageMsg:
		if !msg.newer {
			m.sidebar.loading = false
		}
		m.syncState()
		if msg.err != nil && !errors.Is(msg.err, history.ErrPageInFlight) {
			cmd := m.showNotice(msg.err.Error())
			return m, cmd
		}
		return m, nil

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.pending != nil {
			return m.handleConfirmKey(msg)
		}
		return m.handleKey(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	wasGenerating := m.generating
	m.syncState()

	switch ev.Kind {
	case session.EventHistory:
		return m, nil
	case session.EventError:
		if ev.Err != nil {
			cmds = append(cmds, m.showNotice(ev.Err.Error()))
		}
	}

	m.refreshTranscript(ev.Kind == session.EventSession)
	if m.generating && !wasGenerating {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		if msg.op == "switch" || msg.op == "new" {
			m.focusInput()
			m.syncState()
			m.refreshTranscript(true)
		}
		return m, nil
	case errors.Is(msg.err, session.ErrSwitchDeclined):
		kind := pendingSwitch
		if msg.op == "new" {
			kind = pendingNew
		}
		m.pending = &pendingAction{kind: kind, id: msg.id}
		return m, nil
	case errors.Is(msg.err, session.ErrEmptyInput),
		errors.Is(msg.err, session.ErrGenerating),
		errors.Is(msg.err, session.ErrClosed),
		errors.Is(msg.err, context.Canceled):
		return m, nil
	}

	m.logger.Warn("operation failed", slog.String("op", msg.op), slog.String("error", msg.err.Error()))
	cmd := m.showNotice(msg.err.Error())
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.PersistOnExit()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm):
		p := m.pending
		m.pending = nil
		if p.kind == pendingNew {
			return m, m.newCmd(session.Confirmed)
		}
		return m, m.switchCmd(p.id, session.Confirmed)
	case key.Matches(msg, m.keys.Decline):
		m.pending = nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.logger.Info("app_quit", slog.String("key", msg.String()))
		m.ctrl.PersistOnExit()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Suspend):
		m.ctrl.PersistOnExit()
		return m, tea.Suspend

	case key.Matches(msg, m.keys.NewChat):
		return m.requestNew()

	case key.Matches(msg, m.keys.ToggleThink):
		m.ctrl.SetThinkCollapsed(!m.ctrl.ThinkCollapsed())
		m.refreshTranscript(false)
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		if m.ctrl.Stop() {
			return m, nil
		}
		if m.focus == focusSidebar {
			m.focusInput()
		}
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusSidebar {
			m.focusInput()
		} else if m.showSidebar() {
			m.focus = focusSidebar
			m.textarea.Blur()
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		if m.generating || m.ctrl.Generating() {
			m.ctrl.Stop()
			return m, nil
		}
		return m.send()

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.move(-1)
	case key.Matches(msg, m.keys.Down):
		if m.sidebar.atEnd() {
			cmd := m.loadOlder()
			return m, cmd
		}
		m.sidebar.move(1)
	case key.Matches(msg, m.keys.PageDown):
		if m.sidebar.atEnd() {
			cmd := m.loadOlder()
			return m, cmd
		}
		m.sidebar.move(m.sidebar.visibleRows())
	case key.Matches(msg, m.keys.PageUp):
		if m.sidebar.atTop() {
			cmd := m.loadNewer()
			return m, cmd
		}
		m.sidebar.move(-len(m.sidebar.entries))
	case key.Matches(msg, m.keys.Open):
		if e, ok := m.sidebar.selectedEntry(); ok {
			return m.requestSwitch(e.ID)
		}
	}
	return m, nil
}

func (m Model) send() (tea.Model, tea.Cmd) {
	text, images := splitAttachments(m.textarea.Value())
	if text == "" && len(images) == 0 {
		return m, nil
	}
	m.textarea.Reset()

	ctx, ctrl := m.ctx, m.ctrl
	in := session.Input{Text: text, Images: images}
	m.logger.Debug("send", slog.Int("chars", len(text)), slog.Int("images", len(images)))
	return m, func() tea.Msg {
		return opDoneMsg{op: "send", err: ctrl.Send(ctx, in)}
	}
}

func (m Model) requestSwitch(id int64) (tea.Model, tea.Cmd) {
	if id == m.sessionID {
		m.focusInput()
		return m, nil
	}
	if m.generating {
		m.pending = &pendingAction{kind: pendingSwitch, id: id}
		return m, nil
	}
	return m, m.switchCmd(id, nil)
}

func (m Model) requestNew() (tea.Model, tea.Cmd) {
	if m.generating {
		m.pending = &pendingAction{kind: pendingNew}
		return m, nil
	}
	return m, m.newCmd(nil)
}

func (m Model) switchCmd(id int64, confirm session.ConfirmFunc) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return opDoneMsg{op: "switch", id: id, err: ctrl.SwitchTo(ctx, id, confirm)}
	}
}

func (m Model) newCmd(confirm session.ConfirmFunc) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return opDoneMsg{op: "new", err: ctrl.StartNew(ctx, confirm)}
	}
}

func (m Model) loadHistory() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return opDoneMsg{op: "history", err: ctrl.LoadHistory(ctx)}
	}
}

func (m *Model) loadOlder() tea.Cmd {
	if m.sidebar.loading || m.sidebar.exhausted {
		return nil
	}
	m.sidebar.loading = true
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		n, err := ctrl.LoadHistoryPage(ctx)
		return historyPageMsg{n: n, err: err}
	}
}

func (m *Model) loadNewer() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		n, err := ctrl.LoadNewerHistory(ctx)
		return historyPageMsg{newer: true, n: n, err: err}
	}
}

func (m *Model) showNotice(text string) tea.Cmd {
	m.notice = strings.TrimSpace(text)
	m.noticeID++
	currentID := m.noticeID

	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: currentID}
	})
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.textarea.Focus()
}

// syncState copies the controller snapshot the view depends on
func (m *Model) syncState() {
	m.sessionID = m.ctrl.SessionID()
	m.generating = m.ctrl.Generating()
	m.sidebar.setEntries(m.ctrl.History())
	m.sidebar.exhausted = m.ctrl.HistoryExhausted()
}

// refreshTranscript re-renders the conversation. The view follows new
// content when it was at the bottom, while streaming, or when forced.
func (m *Model) refreshTranscript(force bool) {
	atBottom := m.viewport.AtBottom()
	content := renderTranscript(m.ctrl.Messages(), m.renderer, m.styles, m.viewport.Width)
	m.viewport.SetContent(content)
	if force || atBottom || m.generating {
		m.viewport.GotoBottom()
	}
}

func (m *Model) showSidebar() bool {
	return m.width >= minSidebarTerminalWidth
}

func (m *Model) layout() {
	mainHeight := m.height - headerHeight - statusHeight - (inputHeight + 2) - footerHeight
	if mainHeight < 3 {
		mainHeight = 3
	}

	chatOuter := m.width
	if m.showSidebar() {
		chatOuter -= sidebarWidth
		m.sidebar.setHeight(mainHeight - 2)
	} else if m.focus == focusSidebar {
		m.focusInput()
	}

	m.viewport.Width = max(chatOuter-4, 1)
	m.viewport.Height = max(mainHeight-2, 1)
	m.textarea.SetWidth(max(m.width-4, 1))
	m.help.Width = max(m.width-2, 0)

	if w := wrapWidth(m.viewport.Width); w != m.renderWidth {
		m.renderWidth = w
		if m.opts.RenderMarkdown {
			m.renderer = newRenderer(m.viewport.Width)
		}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderMain(),
		m.renderStatus(),
		m.renderInput(),
		m.renderFooter(),
	)
}

func (m Model) currentTitle() string {
	if m.sessionID == 0 {
		return history.DefaultTitle
	}
	for _, e := range m.sidebar.entries {
		if e.ID == m.sessionID {
			return e.DisplayTitle()
		}
	}
	return fmt.Sprintf("chat %d", m.sessionID)
}

func (m Model) renderHeader() string {
	left := m.styles.Title.Render("sse-chat") + m.styles.Label.Render(" · ")
	right := ""
	if m.generating {
		right = m.spinner.View() + m.styles.Label.Render(" generating")
	}

	room := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right) - 1
	title := truncateTitle(m.currentTitle(), max(room, 0))
	left += title

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return m.styles.Header.Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderMain() string {
	chat := m.styles.ChatPanel.
		Width(m.viewport.Width + 2).
		Height(m.viewport.Height).
		Render(m.viewport.View())

	if !m.showSidebar() {
		return chat
	}

	side := m.styles.Sidebar.
		Width(sidebarWidth - 2).
		Height(m.sidebar.height).
		Render(m.sidebar.view(m.styles, sidebarWidth-4, m.sessionID, m.focus == focusSidebar))

	return lipgloss.JoinHorizontal(lipgloss.Top, side, chat)
}

func (m Model) renderStatus() string {
	switch {
	case m.pending != nil:
		prompt := "A response is still streaming. Abort it and switch? [y/n]"
		if m.pending.kind == pendingNew {
			prompt = "A response is still streaming. Abort it and start a new chat? [y/n]"
		}
		return m.styles.Confirm.Render(truncateTitle(prompt, m.width-2))
	case m.notice != "":
		return m.styles.Notice.Render(truncateTitle(m.notice, m.width-2))
	}
	return ""
}

func (m Model) renderInput() string {
	style := m.styles.InputArea
	if m.focus != focusInput {
		style = m.styles.InputIdle
	}
	return style.Width(max(m.width-2, 1)).Render(m.textarea.View())
}

func (m Model) renderFooter() string {
	bindings := m.keys.inputHelp()
	switch {
	case m.pending != nil:
		bindings = m.keys.confirmHelp()
	case m.focus == focusSidebar:
		bindings = m.keys.sidebarHelp()
	}
	// help keeps adding items when its ellipsis does not fit; clip the row.
	return m.styles.Footer.MaxWidth(max(m.width, 1)).Render(m.help.ShortHelpView(bindings))
}
