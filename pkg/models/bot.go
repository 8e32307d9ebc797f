package models

import (
	"context"
	"io"
)

// MessageRef addresses one message in a requester's chat.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

func (r MessageRef) IsZero() bool {
	return r.ChatID == 0 && r.MessageID == 0
}

type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

type CommandEvent struct {
	RequesterID int64
	Message     MessageRef
	Name        string
	Args        []string
}

type TextEvent struct {
	RequesterID int64
	Message     MessageRef
	Text        string
}

type UploadEvent struct {
	RequesterID int64
	Message     MessageRef
	FileName    string
	Size        int64
	// Open returns the uploaded bytes; it is called at most once.
	Open func(ctx context.Context) (io.ReadCloser, error)
}

type ChoiceEvent struct {
	RequesterID int64
	Message     MessageRef
	Token       string
}

// Outbound event methods published on the stream.
const (
	MethodMessage = "bot.message"
	MethodFile    = "bot.file"
	MethodEdit    = "bot.edit"
	MethodDelete  = "bot.delete"
)

type OutboundMessage struct {
	Ref      MessageRef `json:"ref"`
	Text     string     `json:"text"`
	Keyboard Keyboard   `json:"keyboard,omitempty"`
}

type OutboundFile struct {
	Ref           MessageRef `json:"ref"`
	Name          string     `json:"name"`
	Size          int64      `json:"size"`
	ContentBase64 string     `json:"content_base64"`
}

type OutboundDelete struct {
	Ref MessageRef `json:"ref"`
}
