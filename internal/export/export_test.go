package export

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/nachoal/sse-chat-go/chat"
	"github.com/nachoal/sse-chat-go/history"
)

func sampleTranscript() []chat.Message {
	return []chat.Message{
		chat.UserMessage("what is this?", []string{"data:image/png;base64,iVBORw0KGgo="}),
		chat.ToolMessage("vision"),
		{Role: chat.RoleAssistant, Think: "looks like\na cat", Text: "A **cat**."},
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, history.Entry{ID: 42, Title: "Cats"}, sampleTranscript()); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Cats\n",
		"_chat 42_",
		"## You",
		"![image 1](data:image/png;base64,…)",
		"_tool: vision_",
		"> looks like\n> a cat\n",
		"A **cat**.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "iVBORw0KGgo") {
		t.Fatalf("expected data URL payload to be elided")
	}
}

func TestMarkdown_UntitledUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	_ = Markdown(&buf, history.Entry{}, nil)
	if !strings.HasPrefix(buf.String(), "# "+history.DefaultTitle) {
		t.Fatalf("expected default title, got %q", buf.String())
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "yaml", history.Entry{ID: 7, Title: "Cats"}, sampleTranscript()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid yaml: %v\n%s", err, buf.String())
	}
	if doc.ID != 7 || doc.Title != "Cats" || len(doc.Messages) != 3 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Messages[1].Tool != "vision" || doc.Messages[2].Think != "looks like\na cat" {
		t.Fatalf("unexpected messages %+v", doc.Messages)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "pdf", history.Entry{}, nil); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
