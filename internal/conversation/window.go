package conversation

// defaultWindowSize bounds how many turns are replayed to the model.
const defaultWindowSize = 10

// Window is a fixed-capacity sliding view over a conversation: appending past
// capacity evicts the oldest message.
type Window struct {
	max      int
	messages []ChatMessage
}

func NewWindow(max int) *Window {
	if max <= 0 {
		max = defaultWindowSize
	}
	return &Window{max: max}
}

// WindowFrom seeds a window with existing history, keeping only the newest
// max messages.
func WindowFrom(history []ChatMessage, max int) *Window {
	w := NewWindow(max)
	for _, msg := range history {
		w.Add(msg.Role, msg.Content)
	}
	return w
}

func (w *Window) Add(role, content string) {
	w.messages = append(w.messages, ChatMessage{Role: role, Content: content})
	if len(w.messages) > w.max {
		w.messages = w.messages[1:]
	}
}

func (w *Window) AddUser(content string)      { w.Add(ChatRoleUser, content) }
func (w *Window) AddAssistant(content string) { w.Add(ChatRoleAssistant, content) }

// Messages returns the retained turns, oldest first. The slice is a copy.
func (w *Window) Messages() []ChatMessage {
	out := make([]ChatMessage, len(w.messages))
	copy(out, w.messages)
	return out
}

func (w *Window) Len() int { return len(w.messages) }

func (w *Window) clear() { w.messages = nil }
