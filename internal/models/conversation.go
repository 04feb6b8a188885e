package models

// Record is the top-level conversation export consumed by the dataset formatter.
type Record struct {
	Conversations []Conversation `json:"conversations"`
}

// Conversation is an ordered sequence of chat messages.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// Message represents a single chat message within a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles seen in conversation exports.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Example is one formatted training example.
type Example struct {
	Text string `json:"text"`
}
