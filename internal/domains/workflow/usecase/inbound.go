package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cardsmith/go-backend/internal/domains/access"
	"cardsmith/go-backend/internal/domains/cards"
	"cardsmith/go-backend/internal/domains/contracts"
	"cardsmith/go-backend/internal/domains/workflow/model"
	"cardsmith/go-backend/internal/domains/workflow/policy"
	"cardsmith/go-backend/internal/storage"
	"cardsmith/go-backend/pkg/models"
)

const (
	commandStart    = "start"
	commandReset    = "reset"
	commandAddAdmin = "addadmin"
	commandDelAdmin = "deladmin"
)

// NormalizeCommand strips the leading slash and any @bot suffix.
func NormalizeCommand(raw string) string {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name
}

// HandleCommand runs a slash command. Unauthorized start commands return
// ErrAuthorizationDenied and leave no trace in the chat.
func (s *Service) HandleCommand(ctx context.Context, ev models.CommandEvent) error {
	id := ev.RequesterID
	if !s.admit(id, "command") {
		return nil
	}
	unlock := s.sessions.Lock(id)
	defer unlock()

	name := NormalizeCommand(ev.Name)
	switch name {
	case commandReset:
		s.sessions.Destroy(id)
		s.logInfo("reset", "n/a", "workflow reset", "requester_id", id)
		return s.reply(ctx, id, resetText, nil)
	case commandStart:
		if !s.auth.IsAuthorized(id) {
			return s.deny(name, id)
		}
		return s.reply(ctx, id, menuText, nil)
	case commandAddAdmin, commandDelAdmin:
		return s.handleAdmin(ctx, ev, name)
	}

	kind, ok := model.ParseKind(name)
	if !ok {
		return fmt.Errorf("%w: unknown command %q", contracts.ErrInvalidParameter, name)
	}
	if !s.auth.IsAuthorized(id) {
		return s.deny(name, id)
	}
	sess := s.sessions.Start(id, kind)
	s.metrics.workflowsStarted.WithLabelValues(string(kind)).Inc()
	s.logInfo("start", sessionCorrelationID(sess), "workflow started", "requester_id", id, "kind", string(kind))
	text, keyboard := startText(kind)
	return s.reply(ctx, id, text, keyboard)
}

func (s *Service) handleAdmin(ctx context.Context, ev models.CommandEvent, name string) error {
	id := ev.RequesterID
	if !s.auth.IsOwner(id) {
		return s.deny(name, id)
	}
	if len(ev.Args) == 0 {
		_ = s.reply(ctx, id, fmt.Sprintf(adminUsageText, name), nil)
		return fmt.Errorf("%w: %s needs a user id", contracts.ErrInvalidParameter, name)
	}
	target, err := access.ParseRequesterID(ev.Args[0])
	if err != nil {
		_ = s.reply(ctx, id, fmt.Sprintf(adminUsageText, name), nil)
		return fmt.Errorf("%w: %w", contracts.ErrInvalidParameter, err)
	}

	if name == commandAddAdmin {
		if err := s.auth.Grant(target); err != nil {
			s.recordError(contracts.ErrorCategory(err), err, name, "n/a", "target_id", target)
			_ = s.reply(ctx, id, errorText(err), nil)
			return err
		}
		s.logInfo(name, "n/a", "admin granted", "target_id", target)
		return s.reply(ctx, id, fmt.Sprintf("✅ User %d added as Admin.", target), nil)
	}

	if !s.auth.IsAuthorized(target) {
		return s.reply(ctx, id, fmt.Sprintf("ℹ️ User %d is not an Admin.", target), nil)
	}
	if err := s.auth.Revoke(target); err != nil {
		s.recordError(contracts.ErrorCategory(err), err, name, "n/a", "target_id", target)
		_ = s.reply(ctx, id, errorText(err), nil)
		return err
	}
	s.logInfo(name, "n/a", "admin revoked", "target_id", target)
	return s.reply(ctx, id, fmt.Sprintf("🗑️ User %d removed from Admin.", target), nil)
}

// HandleUpload stores an uploaded file and feeds it to the session. Uploads
// with no session, or in a step that takes no file, are ignored.
func (s *Service) HandleUpload(ctx context.Context, ev models.UploadEvent) error {
	id := ev.RequesterID
	if !s.admit(id, "upload") {
		return nil
	}
	unlock := s.sessions.Lock(id)
	defer unlock()

	sess, ok := s.sessions.Get(id)
	if !ok || !policy.Accepts(sess, policy.EventUpload) {
		return nil
	}
	corr := sessionCorrelationID(sess)

	var analyzing models.MessageRef
	if sess.Kind == model.KindSplit {
		ref, err := s.transport.SendText(ctx, id, analyzingText, nil)
		if err != nil {
			s.logWarn("upload", corr, "analyzing notice failed", "error", err.Error())
		}
		analyzing = ref
	}
	defer s.dropMessage(ctx, analyzing)

	art, err := s.saveUpload(ctx, ev)
	if err != nil {
		s.recordError(contracts.ErrorCategory(err), err, "upload", corr)
		_ = s.reply(ctx, id, uploadFailedText, nil)
		return err
	}
	base, ext := SplitFileName(ev.FileName)
	item := model.Item{ArtifactID: art.ID, BaseName: base, Ext: ext}

	count := 0
	if sess.Kind == model.KindSplit {
		data, err := s.artifacts.Read(art.ID)
		if err != nil {
			s.release(art.ID, corr)
			err = contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
			s.recordError(contracts.ErrorCategoryStorage, err, "upload", corr)
			_ = s.reply(ctx, id, uploadFailedText, nil)
			return err
		}
		count = cards.CountItems(cards.DomainForExt(ext), cards.Decode(data))
	}

	out, _, err := policy.Apply(sess, policy.Event{Type: policy.EventUpload, Item: &item, ItemCount: count})
	if err != nil {
		s.release(art.ID, corr)
		return err
	}
	s.metrics.uploadsCollected.WithLabelValues(string(sess.Kind)).Inc()
	// The upload message is removed once its content is held by the session.
	s.dropMessage(ctx, ev.Message)
	return s.advance(ctx, sess, out, models.MessageRef{})
}

func (s *Service) saveUpload(ctx context.Context, ev models.UploadEvent) (storage.Artifact, error) {
	if ev.Open == nil {
		return storage.Artifact{}, contracts.WrapCategorizedError(contracts.ErrorCategoryTransport, errors.New("upload has no content"))
	}
	rc, err := ev.Open(ctx)
	if err != nil {
		return storage.Artifact{}, contracts.WrapCategorizedError(contracts.ErrorCategoryTransport, err)
	}
	defer rc.Close()
	art, err := s.artifacts.Save(ev.RequesterID, ev.FileName, rc)
	if err != nil {
		return storage.Artifact{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	return art, nil
}

// HandleText feeds typed text to the session. Rejected input repeats the
// prompt and leaves the state unchanged.
func (s *Service) HandleText(ctx context.Context, ev models.TextEvent) error {
	id := ev.RequesterID
	if !s.admit(id, "text") {
		return nil
	}
	unlock := s.sessions.Lock(id)
	defer unlock()

	sess, ok := s.sessions.Get(id)
	if !ok {
		return s.expired(ctx, id)
	}
	out, accepted, err := policy.Apply(sess, policy.Event{Type: policy.EventText, Text: ev.Text})
	if !accepted {
		return nil
	}
	if err != nil {
		if errors.Is(err, contracts.ErrInvalidParameter) {
			_ = s.reply(ctx, id, retryText(sess.State), nil)
		}
		return err
	}
	return s.advance(ctx, sess, out, models.MessageRef{})
}

// HandleChoice applies a keyboard button press. Prompts replace the text of
// the message that carried the keyboard.
func (s *Service) HandleChoice(ctx context.Context, ev models.ChoiceEvent) error {
	id := ev.RequesterID
	if !s.admit(id, "choice") {
		return nil
	}
	unlock := s.sessions.Lock(id)
	defer unlock()

	sess, ok := s.sessions.Get(id)
	if !ok {
		return s.expired(ctx, id)
	}
	evType, ok := policy.EventForToken(ev.Token)
	if !ok {
		return fmt.Errorf("%w: unknown choice %q", contracts.ErrInvalidParameter, ev.Token)
	}
	out, accepted, err := policy.Apply(sess, policy.Event{Type: evType})
	if !accepted {
		return nil
	}
	if err != nil {
		if errors.Is(err, contracts.ErrEmptyBatch) {
			_ = s.reply(ctx, id, emptyBatchText, nil)
		}
		return err
	}
	return s.advance(ctx, sess, out, ev.Message)
}

// advance either starts the engine or asks for the next input. When edit is
// set the prompt replaces that message; a failed edit falls back to a new one.
func (s *Service) advance(ctx context.Context, sess *model.Session, out policy.Outcome, edit models.MessageRef) error {
	if out.Run {
		s.launch(sess)
		return nil
	}
	text, keyboard := promptText(sess, out.Prompt)
	if text == "" {
		return nil
	}
	if !edit.IsZero() {
		err := s.transport.EditText(ctx, edit, text, keyboard)
		if err == nil {
			return nil
		}
		s.logWarn("prompt", sessionCorrelationID(sess), "prompt edit failed", "error", err.Error())
	}
	return s.reply(ctx, sess.RequesterID, text, keyboard)
}

func (s *Service) expired(ctx context.Context, id int64) error {
	// Strangers get no hint that a bot is listening.
	if !s.auth.IsAuthorized(id) {
		return nil
	}
	_ = s.reply(ctx, id, sessionExpiredText, nil)
	return contracts.ErrSessionExpired
}

func (s *Service) deny(operation string, id int64) error {
	s.metrics.eventsDropped.WithLabelValues("unauthorized").Inc()
	s.logInfo(operation, "n/a", "command from unauthorized requester ignored", "requester_id", id)
	return contracts.ErrAuthorizationDenied
}

func (s *Service) reply(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) error {
	if _, err := s.transport.SendText(ctx, chatID, text, keyboard); err != nil {
		err = contracts.WrapCategorizedError(contracts.ErrorCategoryTransport, err)
		s.recordError(contracts.ErrorCategoryTransport, err, "reply", "n/a", "chat_id", chatID)
		return err
	}
	return nil
}

// dropMessage deletes ref, ignoring failures.
func (s *Service) dropMessage(ctx context.Context, ref models.MessageRef) {
	if ref.IsZero() {
		return
	}
	_ = s.transport.Delete(ctx, ref)
}

func (s *Service) release(artifactID, correlationID string) {
	if err := s.artifacts.Release(artifactID); err != nil {
		s.logWarn("release", correlationID, "artifact release failed", "artifact_id", artifactID, "error", err.Error())
	}
}

// SplitFileName splits an uploaded file name into base name and extension.
// A leading dot is part of the base name (".profile" has no extension).
func SplitFileName(name string) (string, string) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return "", ""
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		return name, ""
	}
	return base, ext
}
