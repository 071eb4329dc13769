// internal/models/conversation.go
package models

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn in provider-agnostic form.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
