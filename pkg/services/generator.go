package services

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Prompt is a single text-generation request.
type Prompt struct {
	// System sets the assistant's persona; it may be empty.
	System string

	// User carries the task and all data the model needs.
	User string
}

// TextGenerator defines the interface for hosted text generation. The service
// is treated as opaque: it turns a prompt into free text or fails.
type TextGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}
