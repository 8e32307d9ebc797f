package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"cardsmith/go-backend/internal/domains/access"
	"cardsmith/go-backend/internal/platform/ratelimiter"
	"cardsmith/go-backend/internal/storage"
	"cardsmith/go-backend/pkg/models"
)

const ownerID int64 = 1

type sentText struct {
	ref      models.MessageRef
	text     string
	keyboard models.Keyboard
}

type sentFile struct {
	name    string
	content string
}

type fakeTransport struct {
	mu      sync.Mutex
	nextID  int64
	texts   []sentText
	files   []sentFile
	edits   []string
	deleted []models.MessageRef

	// failOnFile makes the n-th SendFile call (1-based) fail.
	failOnFile int
	// hold, when set, blocks SendFile until the context ends; entered is
	// closed on the first blocked call.
	hold    bool
	entered chan struct{}
	once    sync.Once
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, keyboard models.Keyboard) (models.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ref := models.MessageRef{ChatID: chatID, MessageID: f.nextID}
	f.texts = append(f.texts, sentText{ref: ref, text: text, keyboard: keyboard})
	return ref, nil
}

func (f *fakeTransport) SendFile(ctx context.Context, chatID int64, name, path string) (models.MessageRef, error) {
	if f.hold {
		f.once.Do(func() { close(f.entered) })
		<-ctx.Done()
		return models.MessageRef{}, ctx.Err()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.MessageRef{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnFile > 0 && len(f.files)+1 == f.failOnFile {
		return models.MessageRef{}, errors.New("upload rejected by chat")
	}
	f.nextID++
	f.files = append(f.files, sentFile{name: name, content: string(data)})
	return models.MessageRef{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeTransport) EditText(_ context.Context, _ models.MessageRef, text string, _ models.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, ref models.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeTransport) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1].text
}

func (f *fakeTransport) sentFiles() []sentFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentFile(nil), f.files...)
}

func (f *fakeTransport) textCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

func (f *fakeTransport) refOf(text string) (models.MessageRef, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.texts {
		if t.text == text {
			return t.ref, true
		}
	}
	return models.MessageRef{}, false
}

func (f *fakeTransport) wasDeleted(ref models.MessageRef) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deleted {
		if d == ref {
			return true
		}
	}
	return false
}

type harness struct {
	svc       *Service
	transport *fakeTransport
	store     *storage.ArtifactStore
	auth      *access.Service
}

func newHarness(t *testing.T, limiter *ratelimiter.RequesterLimiter) *harness {
	t.Helper()
	store, err := storage.NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}
	auth, err := access.NewService(ownerID, nil)
	if err != nil {
		t.Fatalf("access service: %v", err)
	}
	transport := &fakeTransport{entered: make(chan struct{})}
	svc, err := NewService(Deps{
		Artifacts:     store,
		Transport:     transport,
		Authorizer:    auth,
		Limiter:       limiter,
		Registerer:    prometheus.NewRegistry(),
		ArtifactCount: store.Len,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)
	return &harness{svc: svc, transport: transport, store: store, auth: auth}
}

func (h *harness) command(t *testing.T, id int64, name string, args ...string) error {
	t.Helper()
	return h.svc.HandleCommand(context.Background(), models.CommandEvent{
		RequesterID: id,
		Message:     models.MessageRef{ChatID: id, MessageID: 500},
		Name:        name,
		Args:        args,
	})
}

func (h *harness) upload(t *testing.T, id int64, name, content string) {
	t.Helper()
	err := h.svc.HandleUpload(context.Background(), models.UploadEvent{
		RequesterID: id,
		Message:     models.MessageRef{ChatID: id, MessageID: 900},
		FileName:    name,
		Size:        int64(len(content)),
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	})
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
}

func (h *harness) text(id int64, text string) error {
	return h.svc.HandleText(context.Background(), models.TextEvent{
		RequesterID: id,
		Message:     models.MessageRef{ChatID: id, MessageID: 700},
		Text:        text,
	})
}

func (h *harness) choice(id int64, token string) error {
	return h.svc.HandleChoice(context.Background(), models.ChoiceEvent{
		RequesterID: id,
		Message:     models.MessageRef{ChatID: id, MessageID: 1},
		Token:       token,
	})
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
