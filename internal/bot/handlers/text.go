package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/profile-switcher/internal/bot/menus"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/state"
)

// TextHandler handles text messages
type TextHandler struct {
	api          menus.Sender
	stateManager state.StateManager
	flow         *switchFlow
}

// NewTextHandler creates a new text handler
func NewTextHandler(api menus.Sender, stateManager state.StateManager, flow *switchFlow) *TextHandler {
	return &TextHandler{
		api:          api,
		stateManager: stateManager,
		flow:         flow,
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userState := h.stateManager.GetUserState(message.From.ID)

	switch userState {
	case state.AwaitingConfirmation:
		return h.handleConfirmation(ctx, message)
	default:
		return h.handleDefaultText(message.Chat.ID)
	}
}

// handleConfirmation accepts a typed answer instead of the inline buttons
func (h *TextHandler) handleConfirmation(ctx context.Context, message *tgbotapi.Message) error {
	switch strings.ToLower(strings.TrimSpace(message.Text)) {
	case "да", "yes", "ok", "ок":
		return h.flow.confirm(ctx, message.Chat.ID, message.From.ID)
	case "нет", "no", "отмена":
		return h.flow.cancel(message.Chat.ID, message.From.ID)
	default:
		return menus.SendText(h.api, message.Chat.ID, "Ответьте «да» чтобы применить переключение или «нет» чтобы отменить.", nil)
	}
}

func (h *TextHandler) handleDefaultText(chatID int64) error {
	return menus.SendText(h.api, chatID, "Пожалуйста, используйте меню или команды. Список команд: /help", nil)
}
