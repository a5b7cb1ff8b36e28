package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nachoal/sse-chat-go/backend"
	"github.com/nachoal/sse-chat-go/chat"
	"github.com/nachoal/sse-chat-go/history"
	"github.com/nachoal/sse-chat-go/stream"
)

var (
	// ErrGenerating is returned by Send while a response is streaming.
	ErrGenerating = errors.New("a response is still being generated")
	// ErrSwitchDeclined is returned when a switch would abort a stream and
	// was not confirmed.
	ErrSwitchDeclined = errors.New("switch declined while generating")
	// ErrEmptyInput is returned by Send for input without text or images.
	ErrEmptyInput = errors.New("empty input")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session controller closed")
)

// Backend is the part of the backend API the controller drives
type Backend interface {
	history.PageSource
	Chats(ctx context.Context) ([]history.Entry, error)
	Messages(ctx context.Context, id int64) ([]backend.StoredMessage, error)
	Save(ctx context.Context, id int64) error
	Alive(ctx context.Context, id int64) error
	Generate(ctx context.Context, req backend.GenerateRequest) (io.ReadCloser, error)
}

// Input is one user turn. Images are data URLs.
type Input struct {
	Text   string
	Images []string
}

// ConfirmFunc asks whether an open stream may be aborted
type ConfirmFunc func() bool

// Confirmed always agrees to abort
func Confirmed() bool { return true }

// generation is one open stream
type generation struct {
	runID  string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Controller owns the current conversation: its id, transcript, keep-alive
// loop and the single open generation. It also holds the history list.
type Controller struct {
	backend Backend
	opts    options
	logger  *slog.Logger
	events  *emitter

	baseCtx    context.Context
	baseCancel context.CancelFunc

	// lifecycle serializes Send, SwitchTo, StartNew and Close.
	lifecycle sync.Mutex

	mu         sync.Mutex
	sessionID  int64
	transcript *chat.Transcript
	keepAlive  *KeepAlive
	gen        *generation
	last       *generation
	collapsed  bool
	closed     bool

	list  *history.List
	pager *history.Pager

	background sync.WaitGroup
}

// New creates a controller for an unsaved conversation
func New(b Backend, opts ...Option) *Controller {
	o := options{
		keepAliveInterval: DefaultKeepAliveInterval,
		saveTimeout:       defaultSaveTimeout,
		eventRate:         DefaultEventRate,
		logger:            slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	list := history.NewList()
	return &Controller{
		backend:    b,
		opts:       o,
		logger:     o.logger.With(slog.String("module", "session")),
		events:     newEmitter(o.listener, o.eventRate),
		baseCtx:    ctx,
		baseCancel: cancel,
		transcript: chat.NewTranscript(),
		list:       list,
		pager:      history.NewPager(list, b),
	}
}

// SessionID returns the current conversation id, 0 while unsaved
func (c *Controller) SessionID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Messages returns a copy of the transcript
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Snapshot()
}

// History returns a copy of the history list
func (c *Controller) History() []history.Entry {
	return c.list.Entries()
}

// HistoryExhausted reports whether the oldest history page was reached
func (c *Controller) HistoryExhausted() bool {
	return c.pager.Exhausted()
}

// Generating reports whether a stream is open
func (c *Controller) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen != nil
}

// ThinkCollapsed reports whether reasoning is shown collapsed
func (c *Controller) ThinkCollapsed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapsed
}

// SetThinkCollapsed collapses or expands reasoning in the transcript
func (c *Controller) SetThinkCollapsed(collapsed bool) {
	c.mu.Lock()
	c.collapsed = collapsed
	c.transcript.SetThinkCollapsed(collapsed)
	c.mu.Unlock()
	c.emit(EventMessages)
}

// Send appends the user turn and starts a generation. The stream runs in the
// background, bound to ctx; use Stop to abort it and Wait to await it.
func (c *Controller) Send(ctx context.Context, in Input) error {
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Images) == 0 {
		return ErrEmptyInput
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.gen != nil {
		c.mu.Unlock()
		return ErrGenerating
	}

	req := backend.GenerateRequest{Content: make([]backend.ContentPart, 0, len(in.Images)+1)}
	for _, img := range in.Images {
		req.Content = append(req.Content, backend.ImageURLPart(img))
	}
	if text != "" {
		req.Content = append(req.Content, backend.TextPart(text))
	}
	if c.sessionID != 0 {
		id := c.sessionID
		req.ID = &id
	}

	c.transcript.Append(chat.UserMessage(text, in.Images))

	runCtx, cancel := context.WithCancel(ctx)
	g := &generation{
		runID:  uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.gen = g
	c.last = g
	sessionID := c.sessionID
	c.mu.Unlock()

	c.logger.Info("generation started",
		slog.String("run", g.runID),
		slog.Int64("session", sessionID),
		slog.Int("images", len(in.Images)),
	)
	c.emit(EventMessages)
	c.events.emit(Event{Kind: EventStreamStart, SessionID: sessionID, RunID: g.runID})

	go c.run(runCtx, g, req)
	return nil
}

// run drives one generation from request to end of stream.
func (c *Controller) run(ctx context.Context, g *generation, req backend.GenerateRequest) {
	logger := c.logger.With(slog.String("run", g.runID))
	defer close(g.done)
	defer g.cancel()

	body, err := c.backend.Generate(ctx, req)
	if err != nil {
		c.mu.Lock()
		if ctx.Err() == nil {
			c.transcript.Append(chat.ErrorMessage())
		} else {
			err = nil
		}
		c.mu.Unlock()
		c.endRun(g, err, logger)
		return
	}
	defer body.Close()

	sink := &runSink{c: c, logger: logger}
	c.mu.Lock()
	asm := chat.Begin(c.transcript, sink)
	c.mu.Unlock()
	sink.flush()

	var streamErr error
	for rec, err := range stream.Read(ctx, body, stream.WithLogger(logger)) {
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				streamErr = err
			}
			break
		}
		c.mu.Lock()
		asm.Apply(rec)
		c.mu.Unlock()
		sink.flush()
	}

	c.mu.Lock()
	if streamErr != nil {
		asm.Fail()
	} else {
		asm.Finish()
	}
	state := asm.State()
	c.mu.Unlock()

	logger.Debug("stream finished",
		slog.Int("records", state.Records),
		slog.Int("tool_calls", state.ToolCalls),
		slog.Int("dropped", state.Dropped),
	)
	c.endRun(g, streamErr, logger)
}

func (c *Controller) endRun(g *generation, err error, logger *slog.Logger) {
	c.mu.Lock()
	g.err = err
	if c.gen == g {
		c.gen = nil
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	c.emit(EventMessages)
	if err != nil {
		logger.Error("generation failed", slog.String("error", err.Error()))
		c.events.emit(Event{Kind: EventError, SessionID: sessionID, RunID: g.runID, Err: err})
	} else {
		logger.Info("generation finished")
	}
	c.events.emit(Event{Kind: EventStreamEnd, SessionID: sessionID, RunID: g.runID, Err: err})
}

// Stop aborts the open stream. Content received so far is kept. It reports
// whether a stream was open.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	g := c.gen
	c.mu.Unlock()
	if g == nil {
		return false
	}
	c.logger.Info("generation stop requested", slog.String("run", g.runID))
	g.cancel()
	return true
}

// Wait blocks until the most recent generation has ended and returns its
// transport error, if any. Cancellation is not an error.
func (c *Controller) Wait() error {
	c.mu.Lock()
	g := c.last
	c.mu.Unlock()
	if g == nil {
		return nil
	}
	<-g.done
	c.mu.Lock()
	defer c.mu.Unlock()
	return g.err
}

// SwitchTo saves the current conversation and loads conversation id. While a
// stream is open the switch only happens if confirm agrees; the stream is
// then aborted first.
func (c *Controller) SwitchTo(ctx context.Context, id int64, confirm ConfirmFunc) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if id == c.sessionID {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.abortForSwitch(confirm); err != nil {
		return err
	}
	c.leave(ctx)

	c.mu.Lock()
	c.sessionID = id
	c.transcript.Reset()
	c.mu.Unlock()
	c.emit(EventSession)
	c.emit(EventMessages)

	stored, err := c.backend.Messages(ctx, id)
	if err != nil {
		err = fmt.Errorf("failed to load chat %d: %w", id, err)
		c.logger.Error("load failed", slog.Int64("session", id), slog.String("error", err.Error()))
		c.events.emit(Event{Kind: EventError, SessionID: id, Err: err})
		return err
	}

	c.mu.Lock()
	if c.sessionID == id && !c.closed {
		c.transcript.Replace(chat.FromStored(stored))
		c.transcript.SetThinkCollapsed(true)
		c.startKeepAliveLocked(id)
	}
	c.mu.Unlock()

	c.logger.Info("switched session", slog.Int64("session", id), slog.Int("messages", len(stored)))
	c.emit(EventMessages)
	return nil
}

// StartNew saves the current conversation and resets to an unsaved one. It
// follows the same confirmation rule as SwitchTo.
func (c *Controller) StartNew(ctx context.Context, confirm ConfirmFunc) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := c.abortForSwitch(confirm); err != nil {
		return err
	}
	c.leave(ctx)

	c.mu.Lock()
	c.sessionID = 0
	c.transcript.Reset()
	c.mu.Unlock()

	c.logger.Info("started new session")
	c.emit(EventSession)
	c.emit(EventMessages)
	return nil
}

// abortForSwitch cancels the open stream if confirm agrees and waits for it.
func (c *Controller) abortForSwitch(confirm ConfirmFunc) error {
	c.mu.Lock()
	g := c.gen
	c.mu.Unlock()
	if g == nil {
		return nil
	}
	if confirm == nil || !confirm() {
		return ErrSwitchDeclined
	}
	g.cancel()
	<-g.done
	return nil
}

// leave stops the keep-alive loop and saves the outgoing conversation. A
// failed save is logged and does not block the switch.
func (c *Controller) leave(ctx context.Context) {
	c.mu.Lock()
	id := c.sessionID
	ka := c.keepAlive
	c.keepAlive = nil
	c.mu.Unlock()

	ka.Stop()
	if id == 0 {
		return
	}

	sctx, cancel := context.WithTimeout(ctx, c.opts.saveTimeout)
	defer cancel()
	if err := c.backend.Save(sctx, id); err != nil {
		c.logger.Warn("save failed", slog.Int64("session", id), slog.String("error", err.Error()))
		return
	}
	c.logger.Debug("saved session", slog.Int64("session", id))
}

// startKeepAliveLocked replaces the keep-alive loop with one for id. c.mu
// must be held.
func (c *Controller) startKeepAliveLocked(id int64) {
	c.keepAlive.Cancel()
	logger := c.logger.With(slog.Int64("session", id))
	c.keepAlive = StartKeepAlive(c.baseCtx, c.opts.keepAliveInterval, func(ctx context.Context) error {
		return c.backend.Alive(ctx, id)
	}, logger)
}

// LoadHistory replaces the history list with the newest page
func (c *Controller) LoadHistory(ctx context.Context) error {
	entries, err := c.backend.Chats(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load history: %w", err)
		c.events.emit(Event{Kind: EventError, Err: err})
		return err
	}
	c.list.Replace(entries)
	c.pager.Reset()
	c.emit(EventHistory)
	return nil
}

// LoadHistoryPage appends the page below the oldest listed entry. A call made
// while another page load runs returns history.ErrPageInFlight.
func (c *Controller) LoadHistoryPage(ctx context.Context) (int, error) {
	n, err := c.pager.LoadOlder(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.emit(EventHistory)
	}
	return n, nil
}

// LoadNewerHistory prepends conversations newer than the newest listed one
func (c *Controller) LoadNewerHistory(ctx context.Context) (int, error) {
	n, err := c.pager.LoadNewer(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.emit(EventHistory)
	}
	return n, nil
}

// PersistOnExit saves the current conversation in the background and returns
// immediately. The outcome is only logged.
func (c *Controller) PersistOnExit() {
	c.mu.Lock()
	id := c.sessionID
	closed := c.closed
	c.mu.Unlock()
	if id == 0 || closed {
		return
	}

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.saveTimeout)
		defer cancel()
		if err := c.backend.Save(ctx, id); err != nil {
			c.logger.Warn("save on exit failed", slog.Int64("session", id), slog.String("error", err.Error()))
			return
		}
		c.logger.Debug("saved session on exit", slog.Int64("session", id))
	}()
}

// Close aborts any stream, stops the keep-alive loop and waits for
// background saves until ctx is done.
func (c *Controller) Close(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	g := c.gen
	ka := c.keepAlive
	c.keepAlive = nil
	c.mu.Unlock()

	defer c.events.close()
	ka.Cancel()
	c.baseCancel()

	done := make(chan struct{})
	go func() {
		if g != nil {
			g.cancel()
			<-g.done
		}
		ka.Stop()
		c.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) emit(kind EventKind) {
	c.events.emit(Event{Kind: kind, SessionID: c.SessionID()})
}

// runSink applies record effects to the controller. Its Sink methods run
// with c.mu held; flush delivers the resulting events after unlocking.
type runSink struct {
	c       *Controller
	logger  *slog.Logger
	pending []EventKind
}

func (s *runSink) AssignSession(id int64) {
	c := s.c
	if c.sessionID != 0 {
		return
	}
	c.sessionID = id
	c.list.Prepend(history.Entry{ID: id, Title: history.DefaultTitle})
	c.startKeepAliveLocked(id)
	s.logger.Info("session assigned", slog.Int64("session", id))
	s.mark(EventSession)
	s.mark(EventHistory)
}

func (s *runSink) UpdateTitle(title string) {
	if s.c.sessionID == 0 {
		return
	}
	if s.c.list.SetTitle(s.c.sessionID, title) {
		s.mark(EventHistory)
	}
}

func (s *runSink) Changed() {
	s.mark(EventMessages)
}

func (s *runSink) mark(kind EventKind) {
	for _, k := range s.pending {
		if k == kind {
			return
		}
	}
	s.pending = append(s.pending, kind)
}

func (s *runSink) flush() {
	pending := s.pending
	s.pending = s.pending[:0]
	for _, kind := range pending {
		s.c.emit(kind)
	}
}
