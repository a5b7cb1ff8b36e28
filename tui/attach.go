package tui

import (
	"strings"

	"github.com/nachoal/sse-chat-go/backend"
)

// splitAttachments pulls image references out of a prompt. Data URLs and
// paths of readable image files become attachments; anything else stays in
// the text.
func splitAttachments(text string) (string, []string) {
	var images, kept []string
	for _, w := range strings.Fields(text) {
		cand := strings.Trim(w, "\"'")
		if !strings.HasPrefix(strings.ToLower(cand), "data:image/") && !backend.LooksLikeImagePath(cand) {
			kept = append(kept, w)
			continue
		}
		part, err := backend.ImagePart(cand)
		if err != nil || part.ImageURL == nil {
			kept = append(kept, w)
			continue
		}
		images = append(images, part.ImageURL.URL)
	}
	if len(images) == 0 {
		return strings.TrimSpace(text), nil
	}
	return strings.Join(kept, " "), images
}
