package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardsmith/go-backend/internal/domains/cards"
	"cardsmith/go-backend/internal/domains/contracts"
	"cardsmith/go-backend/internal/domains/workflow/model"
	"cardsmith/go-backend/internal/domains/workflow/policy"
	"cardsmith/go-backend/pkg/models"
)

// launch starts the engine of a fully configured session on its own
// goroutine. The run context is cancelled by reset, replacement or Close.
func (s *Service) launch(sess *model.Session) {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		s.sessions.DestroyIf(sess.RequesterID, sess)
		return
	}
	ctx, cancel := context.WithCancel(s.runCtx)
	sess.BindCancel(cancel)
	s.runs.Add(1)
	s.closeMu.Unlock()

	go func() {
		defer s.runs.Done()
		defer cancel()
		s.execute(ctx, sess)
	}()
}

// engineRun is the state of one engine execution: the progress notice and
// the outputs delivered so far.
type engineRun struct {
	svc        *Service
	session    *model.Session
	processing models.MessageRef
	delivered  int
}

func (s *Service) execute(ctx context.Context, sess *model.Session) {
	started := s.now()
	id := sess.RequesterID
	kind := sess.Kind
	corr := sessionCorrelationID(sess)
	run := &engineRun{svc: s, session: sess}

	if text := processingText(kind); text != "" {
		ref, err := s.transport.SendText(ctx, id, text, nil)
		if err != nil {
			s.logWarn("engine", corr, "processing notice failed", "error", err.Error())
		}
		run.processing = ref
	}

	err := run.run(ctx)
	run.dropProcessing(ctx)

	outcome := "success"
	switch {
	case err == nil:
		_ = s.reply(ctx, id, doneText(kind), nil)
		s.logInfo("engine", corr, "workflow finished", "kind", string(kind), "outputs", run.delivered)
	case ctx.Err() != nil:
		outcome = "cancelled"
		s.logInfo("engine", corr, "workflow cancelled", "kind", string(kind), "outputs", run.delivered)
	default:
		outcome = "failure"
		category := contracts.ErrorCategoryEngine
		var classified *contracts.CategorizedError
		if errors.As(err, &classified) {
			category = contracts.ErrorCategory(err)
		}
		perr := &contracts.ProcessingError{Kind: string(kind), Err: err}
		s.recordError(category, perr, "engine", corr, "kind", string(kind), "outputs", run.delivered)
		_ = s.reply(ctx, id, errorText(err), nil)
	}
	s.metrics.workflowsFinished.WithLabelValues(string(kind), outcome).Inc()
	s.metrics.engineDuration.WithLabelValues(string(kind)).Observe(s.now().Sub(started).Seconds())

	// Sources are released by id so a session that replaced this one keeps
	// its own uploads.
	for _, artifactID := range sess.Data.ArtifactIDs() {
		s.release(artifactID, corr)
	}
	unlock := s.sessions.Lock(id)
	s.sessions.DestroyIf(id, sess)
	unlock()
}

func (r *engineRun) run(ctx context.Context) error {
	kind := r.session.Kind
	switch d := r.session.Data.(type) {
	case *model.TextToCards:
		return r.perItem(ctx, &d.Batch, d.Naming, func(content string) string {
			return cards.NumbersToCards(content, d.ContactBase)
		})
	case *model.CardsToText:
		return r.perItem(ctx, &d.Batch, d.Naming, cards.CardsToNumbers)
	case *model.RenameContacts:
		return r.perItem(ctx, &d.Batch, d.Naming, func(content string) string {
			return cards.RenameContacts(content, d.ContactBase)
		})
	case *model.RenameFiles:
		return r.renameFiles(ctx, d)
	case *model.Merge:
		return r.merge(ctx, d)
	case *model.Split:
		return r.split(ctx, d)
	case *model.MessageToFile:
		naming := model.Naming{Mode: model.NamingCustom, CustomBase: d.FileName}
		name := policy.ResolveName(kind, naming, 0, "", cards.ExtLines)
		return r.deliverBytes(ctx, name, []byte(d.Text))
	case *model.Freeform:
		naming := model.Naming{Mode: model.NamingCustom, CustomBase: d.FileName}
		name := policy.ResolveName(kind, naming, 0, "", cards.ExtCards)
		return r.deliverBytes(ctx, name, []byte(cards.FreeformToCards(d.Text)))
	default:
		return fmt.Errorf("no engine for workflow %q", kind)
	}
}

// perItem produces one output per collected source, in upload order.
func (r *engineRun) perItem(ctx context.Context, batch *model.Batch, naming model.Naming, transform func(string) string) error {
	kind := r.session.Kind
	for i, item := range batch.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := r.read(item.ArtifactID)
		if err != nil {
			return err
		}
		ext := policy.OutputExt(kind, cards.DomainLines, item)
		name := policy.ResolveName(kind, naming, i, item.BaseName, ext)
		if err := r.deliverBytes(ctx, name, []byte(transform(content))); err != nil {
			return err
		}
		r.svc.release(item.ArtifactID, sessionCorrelationID(r.session))
	}
	return nil
}

// renameFiles re-delivers each source unchanged under its resolved name.
func (r *engineRun) renameFiles(ctx context.Context, d *model.RenameFiles) error {
	kind := r.session.Kind
	for i, item := range d.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		art, err := r.svc.artifacts.Get(item.ArtifactID)
		if err != nil {
			return contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
		}
		name := policy.ResolveName(kind, d.Naming, i, item.BaseName, policy.OutputExt(kind, cards.DomainLines, item))
		if err := r.deliverFile(ctx, name, art.Path); err != nil {
			return err
		}
		r.svc.release(item.ArtifactID, sessionCorrelationID(r.session))
	}
	return nil
}

func (r *engineRun) merge(ctx context.Context, d *model.Merge) error {
	kind := r.session.Kind
	var merged strings.Builder
	sep := d.Domain.MergeSeparator()
	for _, item := range d.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := r.read(item.ArtifactID)
		if err != nil {
			return err
		}
		merged.WriteString(content)
		merged.WriteString(sep)
		r.svc.release(item.ArtifactID, sessionCorrelationID(r.session))
	}
	ext := policy.OutputExt(kind, d.Domain, model.Item{})
	name := policy.ResolveName(kind, d.Naming, 0, "", ext)
	return r.deliverBytes(ctx, name, []byte(merged.String()))
}

func (r *engineRun) split(ctx context.Context, d *model.Split) error {
	if d.Source == nil {
		return fmt.Errorf("%w: no file to split", contracts.ErrInvalidParameter)
	}
	if d.Limit <= 0 {
		return fmt.Errorf("%w: split size must be a positive number", contracts.ErrInvalidParameter)
	}
	content, err := r.read(d.Source.ArtifactID)
	if err != nil {
		return err
	}
	kind := r.session.Kind
	items := cards.SplitItems(d.Domain, content)
	ext := policy.OutputExt(kind, d.Domain, *d.Source)
	total := cards.ChunkCount(len(items), d.Limit)
	for i := 0; i < total; i++ {
		name := policy.ResolveName(kind, d.Naming, i, d.Source.BaseName, ext)
		chunk := strings.Join(cards.Chunk(items, d.Limit, i), "")
		if err := r.deliverBytes(ctx, name, []byte(chunk)); err != nil {
			return err
		}
	}
	r.svc.release(d.Source.ArtifactID, sessionCorrelationID(r.session))
	return nil
}

func (r *engineRun) read(artifactID string) (string, error) {
	data, err := r.svc.artifacts.Read(artifactID)
	if err != nil {
		return "", contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	return cards.Decode(data), nil
}

// deliverBytes writes data to a temporary output, sends it and deletes it.
func (r *engineRun) deliverBytes(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	art, err := r.svc.artifacts.Create(r.session.RequesterID, name, data)
	if err != nil {
		return contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	defer r.svc.release(art.ID, sessionCorrelationID(r.session))
	return r.deliverFile(ctx, name, art.Path)
}

func (r *engineRun) deliverFile(ctx context.Context, name, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.svc.transport.SendFile(ctx, r.session.RequesterID, name, path); err != nil {
		return contracts.WrapCategorizedError(contracts.ErrorCategoryTransport, fmt.Errorf("send %s: %w", name, err))
	}
	r.delivered++
	r.svc.metrics.outputsDelivered.WithLabelValues(string(r.session.Kind)).Inc()
	if r.delivered == 1 {
		r.dropProcessing(ctx)
	}
	return nil
}

func (r *engineRun) dropProcessing(ctx context.Context) {
	if r.processing.IsZero() {
		return
	}
	r.svc.dropMessage(context.WithoutCancel(ctx), r.processing)
	r.processing = models.MessageRef{}
}
