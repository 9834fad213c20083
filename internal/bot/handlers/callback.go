package handlers

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/profile-switcher/internal/bot/keyboards"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/menus"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/state"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
	flow         *switchFlow
	log          *slog.Logger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager, flow *switchFlow, log *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		flow:         flow,
		log:          log,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Answer the callback query first
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := h.api.Request(callback); err != nil {
		return err
	}
	if query.Message == nil {
		return nil
	}

	chatID := query.Message.Chat.ID
	userID := query.From.ID

	switch {
	case query.Data == keyboards.MainMenuData:
		return menus.SendMainMenu(h.api, chatID, h.deps.Resolver.CurrentProfileName(ctx, true, true))
	case query.Data == keyboards.CurrentProfileData:
		return showCurrentProfile(ctx, h.api, h.deps, chatID)
	case query.Data == keyboards.ListProfilesData:
		return showProfiles(ctx, h.api, h.deps, chatID)
	case query.Data == keyboards.HistoryData:
		return showHistory(ctx, h.api, h.deps, chatID)
	case query.Data == keyboards.ConfirmSwitchData:
		return h.flow.confirm(ctx, chatID, userID)
	case query.Data == keyboards.CancelSwitchData:
		return h.flow.cancel(chatID, userID)
	case strings.HasPrefix(query.Data, keyboards.SwitchToPrefix):
		return h.handleSwitchTo(ctx, chatID, userID, query.Data)
	default:
		return h.handleUnknownCallback(chatID)
	}
}

func (h *CallbackHandler) handleSwitchTo(ctx context.Context, chatID, userID int64, data string) error {
	names, err := h.deps.Catalogue.Names(ctx)
	if err != nil {
		h.log.Error("Failed to list profiles", "error", err)
		return menus.SendText(h.api, chatID, menus.ErrorText(err), nil)
	}
	name, ok := keyboards.ProfileFromSwitchData(data, names)
	if !ok {
		keyboard := keyboards.BackOnly()
		return menus.SendText(h.api, chatID, "Профиль больше не найден в каталоге. Откройте список профилей заново.", &keyboard)
	}
	return h.flow.preview(ctx, chatID, userID, permanentSwitch(name))
}

func (h *CallbackHandler) handleUnknownCallback(chatID int64) error {
	return menus.SendText(h.api, chatID, "Неизвестное действие. Используйте /start для возврата в меню.", nil)
}
