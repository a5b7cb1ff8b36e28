package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/nachoal/sse-chat-go/session"
	"github.com/nachoal/sse-chat-go/tui/styles"
)

// Options configures the chat screen
type Options struct {
	// Theme names a palette from tui/styles.
	Theme string
	// RenderMarkdown renders assistant answers with glamour.
	RenderMarkdown bool
	// OpenID opens a stored conversation on start when non-zero.
	OpenID int64
	Logger *slog.Logger
}

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

type pendingKind int

const (
	pendingSwitch pendingKind = iota
	pendingNew
)

// pendingAction waits for the user to confirm aborting the open stream
type pendingAction struct {
	kind pendingKind
	id   int64
}

// Messages for the update loop
type (
	// controllerEventMsg carries a session.Event into the program
	controllerEventMsg struct {
		event session.Event
	}

	// opDoneMsg reports the outcome of a controller call run as a command
	opDoneMsg struct {
		op  string
		id  int64
		err error
	}

	// historyPageMsg reports a sidebar page load
	historyPageMsg struct {
		newer bool
		n     int
		err   error
	}

	clearNoticeMsg struct {
		id int
	}
)

// Model is the chat screen: a history sidebar, the transcript and the
// prompt. All conversation state lives in the controller; the model keeps
// rendered snapshots of it.
type Model struct {
	ctx    context.Context
	ctrl   *session.Controller
	opts   Options
	logger *slog.Logger

	styles      *styles.Styles
	keys        KeyMap
	help        help.Model
	renderer    *glamour.TermRenderer
	renderWidth int

	textarea textarea.Model
	spinner  spinner.Model
	viewport viewport.Model
	sidebar  sidebar
	focus    focusArea
	pending  *pendingAction

	sessionID  int64
	generating bool
	notice     string
	noticeID   int

	width  int
	height int
	ready  bool
}

// New creates the chat screen for ctrl. ctx bounds every controller call
// made from the screen, including open streams.
func New(ctx context.Context, ctrl *session.Controller, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ta := textarea.New()
	ta.Placeholder = "Send a message (image paths are attached)"
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.Focus()

	transparentStyle := lipgloss.NewStyle().
		UnsetBackground().
		UnsetBorderBackground().
		UnsetBorderStyle()
	ta.FocusedStyle.Base = transparentStyle
	ta.FocusedStyle.CursorLine = transparentStyle
	ta.BlurredStyle.Base = transparentStyle
	ta.BlurredStyle.CursorLine = transparentStyle

	// Enter sends the message
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetWidth(assistantMessageWrapWidth)

	st := styles.NewStyles(styles.GetTheme(opts.Theme))

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = st.Spinner

	h := help.New()
	h.ShortSeparator = " • "

	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		opts:      opts,
		logger:    logger.With(slog.String("module", "tui")),
		styles:    st,
		keys:      DefaultKeyMap(),
		help:      h,
		textarea:  ta,
		spinner:   s,
		viewport:  viewport.New(80, 20),
		width:     80,
		sessionID: ctrl.SessionID(),
	}
	m.sidebar.setEntries(ctrl.History())
	return m
}
