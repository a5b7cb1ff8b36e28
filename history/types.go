package history

// DefaultTitle labels a conversation until the backend names it
const DefaultTitle = "new conversation"

// PageSize is the number of entries the backend returns per page
const PageSize = 20

// Entry is one conversation in the history list
type Entry struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// DisplayTitle returns the title, or DefaultTitle when it is empty
func (e Entry) DisplayTitle() string {
	if e.Title == "" {
		return DefaultTitle
	}
	return e.Title
}
