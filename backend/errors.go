package backend

import (
	"fmt"
	"strings"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: backend error: status %d", e.Op, e.StatusCode)
	}
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	return fmt.Sprintf("%s: backend error: status %d, body: %s", e.Op, e.StatusCode, body)
}
