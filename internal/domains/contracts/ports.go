package contracts

import (
	"context"

	"cardsmith/go-backend/pkg/models"
)

// Transport is the outbound side of the chat surface. EditText and Delete are
// best effort; callers swallow their errors.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (models.MessageRef, error)
	SendFile(ctx context.Context, chatID int64, name, path string) (models.MessageRef, error)
	EditText(ctx context.Context, ref models.MessageRef, text string, keyboard models.Keyboard) error
	Delete(ctx context.Context, ref models.MessageRef) error
}

// Authorizer gates start commands and owns the persisted allow-list.
type Authorizer interface {
	IsAuthorized(requesterID int64) bool
	IsOwner(requesterID int64) bool
	Grant(requesterID int64) error
	Revoke(requesterID int64) error
}

// BotService consumes inbound chat events. Handlers for one requester run
// strictly in order.
type BotService interface {
	HandleCommand(ctx context.Context, ev models.CommandEvent) error
	HandleText(ctx context.Context, ev models.TextEvent) error
	HandleUpload(ctx context.Context, ev models.UploadEvent) error
	HandleChoice(ctx context.Context, ev models.ChoiceEvent) error
}
