package chat

import "testing"

func TestTranscript_AppendStopsPreviousStreaming(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Role: RoleAssistant, Streaming: true})
	tr.Append(Message{Role: RoleAssistant, Streaming: true})

	if tr.StreamingCount() != 1 || !tr.Last().Streaming {
		t.Fatalf("expected only the last message to stream")
	}
}

func TestTranscript_SnapshotIsDeep(t *testing.T) {
	tr := NewTranscript(UserMessage("hi", []string{"a"}))
	snap := tr.Snapshot()
	snap[0].Images[0] = "b"
	snap[0].Text = "changed"

	if m := tr.At(0); m.Images[0] != "a" || m.Text != "hi" {
		t.Fatalf("snapshot aliased transcript: %+v", m)
	}
}

func TestTranscript_RemoveLast(t *testing.T) {
	tr := NewTranscript(UserMessage("a", nil), UserMessage("b", nil))
	m, ok := tr.RemoveLast()
	if !ok || m.Text != "b" || tr.Len() != 1 {
		t.Fatalf("unexpected RemoveLast result %+v %v len=%d", m, ok, tr.Len())
	}
	tr.Reset()
	if _, ok := tr.RemoveLast(); ok {
		t.Fatalf("expected RemoveLast on empty transcript to fail")
	}
}

func TestTranscript_SetThinkCollapsed(t *testing.T) {
	tr := NewTranscript(UserMessage("q", nil), Message{Role: RoleAssistant, Think: "t"})
	tr.SetThinkCollapsed(true)
	if !tr.At(1).ThinkCollapsed || tr.At(0).ThinkCollapsed {
		t.Fatalf("expected only assistant reasoning to collapse")
	}
}
