package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"cardsmith/go-backend/internal/domains/contracts"
	"cardsmith/go-backend/pkg/models"
)

var ErrFileTooLarge = errors.New("file exceeds outbound size limit")

// DefaultMaxFileBytes bounds a single inlined file event.
const DefaultMaxFileBytes int64 = 20 << 20

// Outbox is the chat transport of the daemon. Every call becomes a stream
// event; message ids are allocated here and are unique per process.
type Outbox struct {
	hub          *NotificationHub
	nextID       atomic.Int64
	maxFileBytes int64
}

var _ contracts.Transport = (*Outbox)(nil)

func NewOutbox(hub *NotificationHub, maxFileBytes int64) *Outbox {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &Outbox{hub: hub, maxFileBytes: maxFileBytes}
}

func (o *Outbox) Hub() *NotificationHub {
	return o.hub
}

// NextRef allocates a message reference in chatID. Inbound messages relayed
// by the rpc adapter use it too, so every ref on the stream is distinct.
func (o *Outbox) NextRef(chatID int64) models.MessageRef {
	return models.MessageRef{ChatID: chatID, MessageID: o.nextID.Add(1)}
}

func (o *Outbox) SendText(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (models.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageRef{}, err
	}
	ref := o.NextRef(chatID)
	o.hub.Publish(models.MethodMessage, chatID, models.OutboundMessage{Ref: ref, Text: text, Keyboard: keyboard})
	return ref, nil
}

// SendFile reads path now; the caller may delete it as soon as this returns.
func (o *Outbox) SendFile(ctx context.Context, chatID int64, name, path string) (models.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageRef{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return models.MessageRef{}, err
	}
	if info.Size() > o.maxFileBytes {
		return models.MessageRef{}, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, name, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.MessageRef{}, err
	}
	ref := o.NextRef(chatID)
	o.hub.Publish(models.MethodFile, chatID, models.OutboundFile{
		Ref:           ref,
		Name:          name,
		Size:          int64(len(data)),
		ContentBase64: base64.StdEncoding.EncodeToString(data),
	})
	return ref, nil
}

func (o *Outbox) EditText(ctx context.Context, ref models.MessageRef, text string, keyboard models.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ref.IsZero() {
		return errors.New("edit without message ref")
	}
	o.hub.Publish(models.MethodEdit, ref.ChatID, models.OutboundMessage{Ref: ref, Text: text, Keyboard: keyboard})
	return nil
}

func (o *Outbox) Delete(ctx context.Context, ref models.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ref.IsZero() {
		return nil
	}
	o.hub.Publish(models.MethodDelete, ref.ChatID, models.OutboundDelete{Ref: ref})
	return nil
}
