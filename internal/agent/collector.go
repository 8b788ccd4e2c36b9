package agent

import (
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

const sessionFailedUnknown = "session failed with unknown error"

// messageCollector gathers the assistant messages of a single turn. Its On
// method is passed to [copilot.Session.On].
type messageCollector struct {
	mu       sync.Mutex
	messages []string
	errorMsg string
	events   int
}

func (coll *messageCollector) On(event copilot.SessionEvent) {
	coll.mu.Lock()
	defer coll.mu.Unlock()

	coll.events++

	switch event.Type {
	case copilot.AssistantMessage:
		if event.Data.Content != nil && *event.Data.Content != "" {
			coll.messages = append(coll.messages, *event.Data.Content)
		}
	case copilot.SessionError:
		if event.Data.Message == nil || *event.Data.Message == "" {
			coll.errorMsg = sessionFailedUnknown
		} else {
			coll.errorMsg = *event.Data.Message
		}
	}
}

// Content joins the turn's assistant messages, one per paragraph.
func (coll *messageCollector) Content() string {
	coll.mu.Lock()
	defer coll.mu.Unlock()
	return strings.Join(coll.messages, "\n\n")
}

func (coll *messageCollector) ErrorMessage() string {
	coll.mu.Lock()
	defer coll.mu.Unlock()
	return coll.errorMsg
}
