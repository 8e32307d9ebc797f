package app

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cardsmith/go-backend/pkg/models"
)

func TestOutboxPublishesEventsInOrder(t *testing.T) {
	hub := NewNotificationHub(16)
	out := NewOutbox(hub, 0)
	ctx := context.Background()

	ref, err := out.SendText(ctx, 7, "hello", models.Keyboard{{{Label: "Done", Token: "done_batch"}}})
	if err != nil {
		t.Fatalf("send text: %v", err)
	}
	if err := out.EditText(ctx, ref, "edited", nil); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := out.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}

	replay, _, cancel := hub.Subscribe(0)
	defer cancel()
	if len(replay) != 3 {
		t.Fatalf("expected 3 events, got %d", len(replay))
	}
	wantMethods := []string{models.MethodMessage, models.MethodEdit, models.MethodDelete}
	for i, ev := range replay {
		if ev.Method != wantMethods[i] || ev.ChatID != 7 {
			t.Fatalf("event %d: got %s/%d", i, ev.Method, ev.ChatID)
		}
	}
	msg := replay[0].Payload.(models.OutboundMessage)
	if msg.Ref != ref || msg.Text != "hello" || len(msg.Keyboard) != 1 {
		t.Fatalf("unexpected message payload %+v", msg)
	}
}

func TestOutboxInlinesFileContent(t *testing.T) {
	hub := NewNotificationHub(4)
	out := NewOutbox(hub, 0)
	path := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(path, []byte("BEGIN:VCARD\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := out.SendFile(context.Background(), 3, "book.vcf", path); err != nil {
		t.Fatalf("send file: %v", err)
	}
	// The caller deletes the file right after delivery.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	replay, _, cancel := hub.Subscribe(0)
	defer cancel()
	file := replay[0].Payload.(models.OutboundFile)
	raw, err := base64.StdEncoding.DecodeString(file.ContentBase64)
	if err != nil || string(raw) != "BEGIN:VCARD\n" || file.Name != "book.vcf" || file.Size != 12 {
		t.Fatalf("unexpected file payload %+v err=%v", file, err)
	}
}

func TestOutboxRejectsLargeFiles(t *testing.T) {
	out := NewOutbox(NewNotificationHub(4), 4)
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, []byte("123456"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := out.SendFile(context.Background(), 1, "big.txt", path); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if out.Hub().BacklogSize() != 0 {
		t.Fatal("rejected file must not be published")
	}
}

func TestOutboxHonoursCancelledContext(t *testing.T) {
	out := NewOutbox(NewNotificationHub(4), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := out.SendText(ctx, 1, "x", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNextRefIsUnique(t *testing.T) {
	out := NewOutbox(NewNotificationHub(1), 0)
	a := out.NextRef(1)
	b := out.NextRef(1)
	if a == b || a.IsZero() {
		t.Fatalf("refs must be distinct and non-zero: %+v %+v", a, b)
	}
}
