// Package export writes transcripts as markdown or YAML documents.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nachoal/sse-chat-go/chat"
	"github.com/nachoal/sse-chat-go/history"
)

// Formats accepted by Write
const (
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

// Write exports msgs in the named format
func Write(w io.Writer, format string, entry history.Entry, msgs []chat.Message) error {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md", "":
		return Markdown(w, entry, msgs)
	case FormatYAML, "yml":
		return YAML(w, entry, msgs)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// Markdown writes the transcript as a markdown document. Reasoning is
// quoted, tool calls become an italic line and images are listed by
// reference.
func Markdown(w io.Writer, entry history.Entry, msgs []chat.Message) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n", entry.DisplayTitle())
	if entry.ID != 0 {
		fmt.Fprintf(bw, "\n_chat %d_\n", entry.ID)
	}

	for _, m := range msgs {
		switch m.Role {
		case chat.RoleUser:
			bw.WriteString("\n## You\n\n")
			for i := range m.Images {
				fmt.Fprintf(bw, "![image %d](%s)\n\n", i+1, imageRef(m.Images[i]))
			}
			if m.Text != "" {
				bw.WriteString(strings.TrimRight(m.Text, "\n") + "\n")
			}
		case chat.RoleAssistant:
			bw.WriteString("\n## Assistant\n\n")
			if m.Think != "" {
				for _, line := range strings.Split(strings.TrimRight(m.Think, "\n"), "\n") {
					bw.WriteString("> " + line + "\n")
				}
				bw.WriteString("\n")
			}
			bw.WriteString(strings.TrimSpace(m.Text) + "\n")
		case chat.RoleTool:
			fmt.Fprintf(bw, "\n_tool: %s_\n", m.Content)
		}
	}
	return bw.Flush()
}

// imageRef shortens data URLs, which are too large to be useful in a document
func imageRef(url string) string {
	if strings.HasPrefix(url, "data:") {
		if i := strings.IndexByte(url, ','); i > 0 {
			return url[:i] + ",…"
		}
	}
	return url
}

type yamlDocument struct {
	ID       int64         `yaml:"id,omitempty"`
	Title    string        `yaml:"title"`
	Messages []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	Role   string   `yaml:"role"`
	Text   string   `yaml:"text,omitempty"`
	Think  string   `yaml:"think,omitempty"`
	Images []string `yaml:"images,omitempty"`
	Tool   string   `yaml:"tool,omitempty"`
}

// YAML writes the transcript as a YAML document
func YAML(w io.Writer, entry history.Entry, msgs []chat.Message) error {
	doc := yamlDocument{ID: entry.ID, Title: entry.DisplayTitle(), Messages: make([]yamlMessage, 0, len(msgs))}
	for _, m := range msgs {
		ym := yamlMessage{Role: string(m.Role), Text: m.Text, Think: m.Think}
		for _, img := range m.Images {
			ym.Images = append(ym.Images, imageRef(img))
		}
		if m.Role == chat.RoleTool {
			ym.Tool = m.Content
		}
		doc.Messages = append(doc.Messages, ym)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
