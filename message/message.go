package message

import "time"

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single message in a conversation
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// New creates a new message with the given role and content
func New(role Role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// System is shorthand for a system-role message.
func System(content string) *Message { return New(RoleSystem, content) }

// User is shorthand for a user-role message.
func User(content string) *Message { return New(RoleUser, content) }

// Assistant is shorthand for an assistant-role message.
func Assistant(content string) *Message { return New(RoleAssistant, content) }

// Clone creates a deep copy of the message.
func Clone(msg *Message) *Message {
	if msg == nil {
		return nil
	}
	cloned := *msg
	if msg.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(msg.Metadata))
		for k, v := range msg.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return &cloned
}

// CloneMessages copies a slice of messages.
func CloneMessages(msgs []*Message) []*Message {
	if len(msgs) == 0 {
		return nil
	}
	clones := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		clones = append(clones, Clone(msg))
	}
	return clones
}
