package main

import (
	"fmt"
	"io"

	"github.com/nachoal/sse-chat-go/chat"
)

// printer writes the growth of a transcript to a terminal. Answer text goes
// to out; reasoning and failures go to errOut.
type printer struct {
	out          io.Writer
	errOut       io.Writer
	showThinking bool

	// skip is the number of messages that predate the turn
	skip int
	seen []seenMessage

	pendingNewline bool
}

type seenMessage struct {
	role  chat.Role
	text  int
	think int
}

func newPrinter(out, errOut io.Writer, showThinking bool, skip int) *printer {
	return &printer{out: out, errOut: errOut, showThinking: showThinking, skip: skip}
}

// update prints whatever msgs hold beyond what was printed before
func (p *printer) update(msgs []chat.Message) {
	for i := p.skip; i < len(msgs); i++ {
		m := msgs[i]
		j := i - p.skip
		if j >= len(p.seen) {
			p.seen = append(p.seen, seenMessage{role: m.Role})
		}
		s := &p.seen[j]

		// A tool call replaces the streaming placeholder in place.
		if s.role != m.Role {
			p.endLine()
			*s = seenMessage{role: m.Role}
		}

		switch m.Role {
		case chat.RoleUser:
			s.text = len(m.Text)
		case chat.RoleTool:
			if s.text == 0 {
				p.endLine()
				fmt.Fprintf(p.out, "[tool] %s\n", m.Content)
				s.text = len(m.Content)
			}
		case chat.RoleAssistant:
			p.assistant(s, m)
		}
	}
}

func (p *printer) assistant(s *seenMessage, m chat.Message) {
	if m.Text == chat.ErrorMarker {
		if s.text == 0 {
			p.endLine()
			fmt.Fprintln(p.errOut, m.Text[1:])
			s.text = len(m.Text)
		}
		return
	}

	if len(m.Think) < s.think {
		s.think = 0
	}
	if p.showThinking && len(m.Think) > s.think {
		fmt.Fprint(p.errOut, m.Think[s.think:])
	}
	s.think = len(m.Think)

	if len(m.Text) < s.text {
		s.text = 0
	}
	if len(m.Text) > s.text {
		chunk := m.Text[s.text:]
		fmt.Fprint(p.out, chunk)
		p.pendingNewline = chunk[len(chunk)-1] != '\n'
	}
	s.text = len(m.Text)
}

func (p *printer) endLine() {
	if p.pendingNewline {
		fmt.Fprintln(p.out)
		p.pendingNewline = false
	}
}

// finish terminates the last line of output
func (p *printer) finish() {
	p.endLine()
}
