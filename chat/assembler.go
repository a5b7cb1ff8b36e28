package chat

import (
	"github.com/nachoal/sse-chat-go/stream"
)

// Phase is the kind of text the current signal routes data to
type Phase int

const (
	PhaseAnswering Phase = iota
	PhaseThinking
	PhaseToolCall
	// PhaseOther covers signals this client does not render. Data sent
	// under them is ignored.
	PhaseOther
)

func (p Phase) String() string {
	switch p {
	case PhaseAnswering:
		return "answering"
	case PhaseThinking:
		return "thinking"
	case PhaseToolCall:
		return "tool_call"
	default:
		return "other"
	}
}

// PhaseOf maps a signal to its phase
func PhaseOf(s stream.Signal) Phase {
	switch s {
	case stream.SignalAnswer:
		return PhaseAnswering
	case stream.SignalThinking:
		return PhaseThinking
	case stream.SignalToolCall:
		return PhaseToolCall
	default:
		return PhaseOther
	}
}

// StreamState is the per-stream assembly state. It lives exactly as long as
// one generation.
type StreamState struct {
	Signal stream.Signal
	Phase  Phase
	// Active is the transcript index of the message receiving data.
	Active int

	Records   int
	Dropped   int
	ToolCalls int
}

// Sink receives the effects of a record that fall outside the transcript
type Sink interface {
	// AssignSession is called with every non-zero id. Implementations
	// ignore it once the conversation has an id.
	AssignSession(id int64)
	// UpdateTitle is called with every non-empty title.
	UpdateTitle(title string)
	// Changed is called after the transcript was mutated.
	Changed()
}

// NopSink ignores every effect
type NopSink struct{}

func (NopSink) AssignSession(int64) {}
func (NopSink) UpdateTitle(string)  {}
func (NopSink) Changed()            {}

// Assembler applies records of one stream to a transcript
type Assembler struct {
	t     *Transcript
	sink  Sink
	state StreamState
	done  bool
}

// Begin appends the streaming assistant placeholder and returns an
// assembler routing records into it.
func Begin(t *Transcript, sink Sink) *Assembler {
	if sink == nil {
		sink = NopSink{}
	}
	t.Append(placeholder())
	a := &Assembler{
		t:    t,
		sink: sink,
		state: StreamState{
			Signal: stream.SignalAnswer,
			Phase:  PhaseAnswering,
			Active: t.Len() - 1,
		},
	}
	sink.Changed()
	return a
}

func placeholder() Message {
	return Message{Role: RoleAssistant, Streaming: true}
}

// State returns a copy of the stream state
func (a *Assembler) State() StreamState {
	return a.state
}

// Done reports whether Finish or Fail was called
func (a *Assembler) Done() bool {
	return a.done
}

// Apply routes one record. Fields are handled in the order id, title,
// signal, data.
func (a *Assembler) Apply(rec stream.Record) {
	if a.done {
		return
	}
	a.state.Records++

	if rec.ID != nil && *rec.ID != 0 {
		a.sink.AssignSession(*rec.ID)
	}
	if rec.Title != nil && *rec.Title != "" {
		a.sink.UpdateTitle(*rec.Title)
	}
	if rec.Signal != nil {
		a.state.Signal = *rec.Signal
		a.state.Phase = PhaseOf(*rec.Signal)
		if a.state.Phase == PhaseToolCall {
			var name string
			if rec.Name != nil {
				name = *rec.Name
			}
			a.toolCall(name)
		}
	}
	if rec.Data != nil && *rec.Data != "" {
		a.appendData(*rec.Data)
	}
}

// toolCall replaces the active placeholder with a tool message and opens a
// new placeholder after it. Whatever the placeholder held is discarded.
func (a *Assembler) toolCall(name string) {
	a.t.RemoveLast()
	a.t.Append(ToolMessage(name))
	a.t.Append(placeholder())
	a.state.Active = a.t.Len() - 1
	a.state.ToolCalls++
	a.sink.Changed()
}

func (a *Assembler) appendData(data string) {
	m := a.t.At(a.state.Active)
	if m == nil || m.Role != RoleAssistant {
		a.state.Dropped++
		return
	}

	switch a.state.Phase {
	case PhaseThinking:
		m.Think += data
	case PhaseAnswering:
		m.Text += data
	default:
		return
	}
	a.sink.Changed()
}

// Finish marks the end of the stream. It is safe to call more than once.
func (a *Assembler) Finish() {
	if a.done {
		return
	}
	a.done = true
	if m := a.t.Last(); m != nil {
		m.Streaming = false
	}
	a.sink.Changed()
}

// Fail ends the stream after a transport failure. The partial content stays
// and the error marker follows it.
func (a *Assembler) Fail() {
	if a.done {
		return
	}
	if m := a.t.At(a.state.Active); m != nil {
		m.Streaming = false
	}
	a.t.Append(ErrorMessage())
	a.Finish()
}
