package handlers

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/profile-switcher/internal/bot/menus"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/state"
	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
	"github.com/vladimiradmaev/profile-switcher/internal/logger"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	api             menus.Sender
	allowedUsers    map[int64]bool
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
	log             *slog.Logger
}

// NewUpdateHandler creates a new update handler. Only allowedUserIDs may use the bot.
func NewUpdateHandler(
	api menus.Sender,
	deps Dependencies,
	stateManager state.StateManager,
	allowedUserIDs []int64,
) *UpdateHandler {
	log := logger.Component("bot")
	flow := &switchFlow{api: api, deps: deps, stateManager: stateManager, log: log}

	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}

	return &UpdateHandler{
		api:             api,
		allowedUsers:    allowed,
		callbackHandler: NewCallbackHandler(api, deps, stateManager, flow, log),
		commandHandler:  NewCommandHandler(api, deps, stateManager, flow, log),
		textHandler:     NewTextHandler(api, stateManager, flow),
		log:             log,
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	var from *tgbotapi.User
	var chatID int64

	switch {
	case update.Message != nil:
		from, chatID = update.Message.From, update.Message.Chat.ID
	case update.CallbackQuery != nil:
		from = update.CallbackQuery.From
		if update.CallbackQuery.Message != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
	default:
		return nil
	}
	if from == nil {
		return nil
	}

	if !h.allowedUsers[from.ID] {
		err := apperrors.ErrUnauthorized
		h.log.WarnContext(ctx, "Ignoring update from unknown user", append(err.LogFields(), "user_id", from.ID)...)
		if chatID != 0 {
			return menus.SendText(h.api, chatID, "⛔ У вас нет доступа к этому боту.", nil)
		}
		return nil
	}

	// Handle different update types
	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery)
	}

	if update.Message.IsCommand() {
		return h.commandHandler.Handle(ctx, update.Message)
	}

	if update.Message.Text != "" {
		return h.textHandler.Handle(ctx, update.Message)
	}

	return nil
}
