package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Part types understood by the backend
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// ContentPart is one element of a multimodal user message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL wraps an image reference, usually a data URL
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImageURLPart builds an image content part
func ImageURLPart(url string) ContentPart {
	return ContentPart{Type: PartImageURL, ImageURL: &ImageURL{URL: url}}
}

// GenerateRequest is the body of POST /generate. ID is omitted for a new
// conversation; the backend then assigns one and announces it in the stream.
type GenerateRequest struct {
	Content []ContentPart `json:"content"`
	ID      *int64        `json:"id,omitempty"`
}

// StoredMessage is a persisted message as returned by GET /get?id=
type StoredMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent holds either a plain string or a list of typed parts.
type MessageContent struct {
	Text  string
	Parts []ContentPart
	// IsParts records which of the two JSON forms was used.
	IsParts bool
}

// StringContent builds plain string content
func StringContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// PartsContent builds typed parts content
func PartsContent(parts ...ContentPart) MessageContent {
	return MessageContent{Parts: parts, IsParts: true}
}

// UnmarshalJSON accepts a JSON string, an array of parts, or null.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*c = MessageContent{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &c.Text)
	case '[':
		c.IsParts = true
		return json.Unmarshal(data, &c.Parts)
	default:
		return fmt.Errorf("unsupported message content: %.32s", data)
	}
}

// MarshalJSON writes the form the content was read in.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsParts {
		if c.Parts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// ModelConfig is the body of POST /configure. Empty fields are left unchanged
// by the backend.
type ModelConfig struct {
	MainModel   string `json:"main_model,omitempty"`
	VisionModel string `json:"vision_model,omitempty"`
	AssistModel string `json:"assist_model,omitempty"`
}

// IsEmpty reports whether no model is set
func (m ModelConfig) IsEmpty() bool {
	return m.MainModel == "" && m.VisionModel == "" && m.AssistModel == ""
}
