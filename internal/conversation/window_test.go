package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowKeepsOrder(t *testing.T) {
	w := NewWindow(10)
	w.AddUser("hello")
	w.AddAssistant("hi, how can I help?")
	w.AddUser("who are your doctors?")

	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "hello"}, msgs[0])
	assert.Equal(t, ChatMessage{Role: ChatRoleAssistant, Content: "hi, how can I help?"}, msgs[1])
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "who are your doctors?"}, msgs[2])
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(10)
	for i := 0; i < 12; i++ {
		w.AddUser(fmt.Sprintf("message %d", i))
	}

	msgs := w.Messages()
	require.Len(t, msgs, 10)
	assert.Equal(t, "message 2", msgs[0].Content)
	assert.Equal(t, "message 11", msgs[9].Content)
}

func TestWindowFromTruncatesHistory(t *testing.T) {
	var history []ChatMessage
	for i := 0; i < 15; i++ {
		history = append(history, ChatMessage{Role: ChatRoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	w := WindowFrom(history, 10)
	msgs := w.Messages()
	require.Len(t, msgs, 10)
	assert.Equal(t, "m5", msgs[0].Content)
}

func TestWindowZeroMaxUsesDefault(t *testing.T) {
	w := NewWindow(0)
	for i := 0; i < 20; i++ {
		w.AddUser("x")
	}
	assert.Equal(t, defaultWindowSize, w.Len())
}

func TestWindowMessagesIsACopy(t *testing.T) {
	w := NewWindow(10)
	w.AddUser("original")

	msgs := w.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "original", w.Messages()[0].Content)
}

func TestWindowClear(t *testing.T) {
	w := NewWindow(10)
	w.AddUser("hello")
	w.clear()
	assert.Zero(t, w.Len())
}
