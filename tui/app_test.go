package tui

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nachoal/sse-chat-go/backend"
	"github.com/nachoal/sse-chat-go/history"
	"github.com/nachoal/sse-chat-go/session"
	"github.com/nachoal/sse-chat-go/stream"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// stubBackend answers history calls from memory. Generate replays body, or
// blocks until the stream context ends when body is empty.
type stubBackend struct {
	mu     sync.Mutex
	calls  []string
	chats  []history.Entry
	below  map[int64][]history.Entry
	stored map[int64][]backend.StoredMessage
	body   string
}

func (s *stubBackend) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubBackend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubBackend) Chats(context.Context) ([]history.Entry, error) {
	s.record("chats")
	return s.chats, nil
}

func (s *stubBackend) ChatsBelow(_ context.Context, id int64) ([]history.Entry, error) {
	s.record(fmt.Sprintf("below %d", id))
	return s.below[id], nil
}

func (s *stubBackend) ChatsAbove(_ context.Context, id int64) ([]history.Entry, error) {
	s.record(fmt.Sprintf("above %d", id))
	return nil, nil
}

func (s *stubBackend) Messages(_ context.Context, id int64) ([]backend.StoredMessage, error) {
	s.record(fmt.Sprintf("messages %d", id))
	return s.stored[id], nil
}

func (s *stubBackend) Save(_ context.Context, id int64) error {
	s.record(fmt.Sprintf("save %d", id))
	return nil
}

func (s *stubBackend) Alive(context.Context, int64) error { return nil }

func (s *stubBackend) Generate(ctx context.Context, _ backend.GenerateRequest) (io.ReadCloser, error) {
	s.record("generate")
	if s.body != "" {
		return io.NopCloser(strings.NewReader(s.body)), nil
	}
	pr, pw := io.Pipe()
	go func() {
		<-ctx.Done()
		pw.CloseWithError(ctx.Err())
	}()
	return pr, nil
}

func frames(recs ...stream.Record) string {
	var b strings.Builder
	for _, r := range recs {
		b.WriteString(r.Line())
		b.WriteString("\n\n")
	}
	return b.String()
}

func newTestModel(t *testing.T, b *stubBackend) (Model, *session.Controller) {
	t.Helper()
	ctrl := session.New(b)
	t.Cleanup(func() { _ = ctrl.Close(context.Background()) })

	m := New(context.Background(), ctrl, Options{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), ctrl
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewDoesNotOverflowTerminalWidth(t *testing.T) {
	b := &stubBackend{chats: []history.Entry{{ID: 3, Title: strings.Repeat("very long title ", 10)}}}
	for _, width := range []int{48, 100} {
		ctrl := session.New(b)
		if err := ctrl.LoadHistory(context.Background()); err != nil {
			t.Fatalf("LoadHistory: %v", err)
		}
		m := New(context.Background(), ctrl, Options{})
		m.textarea.SetValue(strings.Repeat("x", 200))

		updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: 20})
		view := stripANSI(updated.(Model).View())
		for i, line := range strings.Split(view, "\n") {
			if w := lipgloss.Width(line); w > width {
				t.Fatalf("width %d: line %d is %d cells: %q", width, i+1, w, line)
			}
		}
		_ = ctrl.Close(context.Background())
	}
}

func TestEnterSendsAndRendersAnswer(t *testing.T) {
	b := &stubBackend{body: frames(
		stream.Record{ID: stream.Int64(42)},
		stream.Record{Signal: stream.SignalPtr(stream.SignalAnswer)},
		stream.Record{Data: stream.String("hello there")},
	)}
	m, ctrl := newTestModel(t, b)

	m.textarea.SetValue("hi")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a send command")
	}
	if m.textarea.Value() != "" {
		t.Fatalf("expected input to be cleared")
	}
	if done, ok := cmd().(opDoneMsg); !ok || done.err != nil {
		t.Fatalf("unexpected send result %+v", done)
	}
	if err := ctrl.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	updated, _ := m.Update(controllerEventMsg{event: session.Event{Kind: session.EventStreamEnd}})
	m = updated.(Model)
	if m.sessionID != 42 {
		t.Fatalf("expected session 42, got %d", m.sessionID)
	}
	view := stripANSI(m.View())
	if !strings.Contains(view, "hello there") || !strings.Contains(view, "hi") {
		t.Fatalf("expected transcript in view:\n%s", view)
	}
}

func TestEnterStopsWhileGenerating(t *testing.T) {
	b := &stubBackend{}
	m, ctrl := newTestModel(t, b)

	if err := ctrl.Send(context.Background(), session.Input{Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if err := ctrl.Wait(); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if ctrl.Generating() {
		t.Fatalf("expected stream to be stopped")
	}
}

func TestSwitchWhileGeneratingAsksFirst(t *testing.T) {
	b := &stubBackend{
		chats: []history.Entry{{ID: 7, Title: "older chat"}},
		stored: map[int64][]backend.StoredMessage{
			7: {{Role: "assistant", Content: backend.StringContent("from history")}},
		},
	}
	m, ctrl := newTestModel(t, b)
	if err := ctrl.LoadHistory(context.Background()); err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if err := ctrl.Send(context.Background(), session.Input{Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	updated, _ := m.Update(controllerEventMsg{event: session.Event{Kind: session.EventStreamStart}})
	m = updated.(Model)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusSidebar {
		t.Fatalf("expected sidebar focus")
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.pending == nil {
		t.Fatalf("expected a confirmation prompt instead of a switch")
	}
	if !strings.Contains(stripANSI(m.View()), "[y/n]") {
		t.Fatalf("expected prompt in view")
	}

	m, _ = press(t, m, runes("n"))
	if m.pending != nil || !ctrl.Generating() {
		t.Fatalf("expected decline to keep the stream running")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd = press(t, m, runes("y"))
	if cmd == nil {
		t.Fatalf("expected switch command after confirmation")
	}
	done, ok := cmd().(opDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("unexpected switch result %+v", done)
	}
	updated, _ = m.Update(done)
	m = updated.(Model)

	if ctrl.SessionID() != 7 || ctrl.Generating() {
		t.Fatalf("expected session 7 without a stream, got %d", ctrl.SessionID())
	}
	if m.focus != focusInput {
		t.Fatalf("expected focus back on input")
	}
	if !strings.Contains(stripANSI(m.View()), "from history") {
		t.Fatalf("expected loaded transcript in view")
	}
}

func TestSidebarPagesAtEnd(t *testing.T) {
	b := &stubBackend{
		chats: []history.Entry{{ID: 9}, {ID: 8}},
		below: map[int64][]history.Entry{8: {{ID: 5}, {ID: 4}}},
	}
	m, ctrl := newTestModel(t, b)
	if err := ctrl.LoadHistory(context.Background()); err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	updated, _ := m.Update(controllerEventMsg{event: session.Event{Kind: session.EventHistory}})
	m = updated.(Model)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, runes("j"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	if cmd == nil || !m.sidebar.loading {
		t.Fatalf("expected a page load at the end of the list")
	}
	if _, again := press(t, m, tea.KeyMsg{Type: tea.KeyPgDown}); again != nil {
		t.Fatalf("expected no second load while one is running")
	}

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if m.sidebar.loading || len(m.sidebar.entries) != 4 {
		t.Fatalf("expected 4 entries after paging, got %d", len(m.sidebar.entries))
	}
	if e, _ := m.sidebar.selectedEntry(); e.ID != 8 {
		t.Fatalf("expected cursor to stay on 8, got %d", e.ID)
	}
}

func TestToggleThinking(t *testing.T) {
	m, ctrl := newTestModel(t, &stubBackend{})
	before := ctrl.ThinkCollapsed()
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if ctrl.ThinkCollapsed() == before {
		t.Fatalf("expected ctrl+t to toggle thinking collapse")
	}
}

func TestQuitPersists(t *testing.T) {
	b := &stubBackend{stored: map[int64][]backend.StoredMessage{3: nil}}
	m, ctrl := newTestModel(t, b)
	if err := ctrl.SwitchTo(context.Background(), 3, nil); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if err := ctrl.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	calls := b.Calls()
	if calls[len(calls)-1] != "save 3" {
		t.Fatalf("expected save on exit, got %v", calls)
	}
}

func TestFooterFitsNarrowTerminal(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = updated.(Model)

	check := func(name string, m Model) {
		t.Helper()
		for _, line := range strings.Split(stripANSI(m.renderFooter()), "\n") {
			if w := lipgloss.Width(line); w > 40 {
				t.Fatalf("%s footer is %d cells: %q", name, w, line)
			}
		}
	}
	check("input", m)
	m.focus = focusSidebar
	check("sidebar", m)
	m.pending = &pendingAction{kind: pendingNew}
	check("confirm", m)
}

func TestSendWhileGeneratingIsQuiet(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	updated, cmd := m.Update(opDoneMsg{op: "send", err: session.ErrGenerating})
	m = updated.(Model)
	if m.notice != "" || cmd != nil {
		t.Fatalf("expected no notice, got %q", m.notice)
	}
}
