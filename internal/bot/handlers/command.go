package handlers

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/profile-switcher/internal/bot/keyboards"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/menus"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/state"
	"github.com/vladimiradmaev/profile-switcher/internal/services"
)

const historyWindow = 24 * time.Hour

const switchUsage = `Формат:
/switch <профиль> <минуты> <процент> [сдвиг]
/temp <минуты> <процент> [сдвиг]

Минуты 0 = постоянно. Сдвиг в часах, например +2h или -1h.
Пример: /switch Default 60 150
Пример: /temp 120 80 -1h`

// CommandHandler handles bot commands
type CommandHandler struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
	flow         *switchFlow
	log          *slog.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager, flow *switchFlow, log *slog.Logger) *CommandHandler {
	return &CommandHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		flow:         flow,
		log:          log,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	h.log.InfoContext(ctx, "Handling command", "command", message.Command(), "user_id", userID)

	switch message.Command() {
	case "start":
		h.flow.reset(userID)
		return menus.SendMainMenu(h.api, chatID, h.deps.Resolver.CurrentProfileName(ctx, true, true))
	case "help":
		return h.handleHelp(chatID)
	case "profile":
		return showCurrentProfile(ctx, h.api, h.deps, chatID)
	case "profiles":
		return showProfiles(ctx, h.api, h.deps, chatID)
	case "history":
		return showHistory(ctx, h.api, h.deps, chatID)
	case "switch":
		return h.handleSwitch(ctx, message, true)
	case "temp":
		return h.handleSwitch(ctx, message, false)
	case "cancel":
		return h.flow.cancel(chatID, userID)
	default:
		return h.handleUnknownCommand(chatID)
	}
}

func (h *CommandHandler) handleSwitch(ctx context.Context, message *tgbotapi.Message, withName bool) error {
	req, err := parseSwitchArgs(message.CommandArguments(), withName)
	if err != nil {
		h.log.DebugContext(ctx, "Rejected switch arguments", "args", message.CommandArguments(), "error", err)
		return menus.SendText(h.api, message.Chat.ID, switchUsage, nil)
	}
	return h.flow.preview(ctx, message.Chat.ID, message.From.ID, req)
}

// handleHelp handles the /help command
func (h *CommandHandler) handleHelp(chatID int64) error {
	text := `Доступные команды:
/start - Показать главное меню
/profile - Активный профиль и текущие значения
/profiles - Список профилей
/switch - Переключить профиль
/temp - Изменить активный профиль на время
/history - Переключения за последние сутки
/cancel - Отменить неподтвержденное переключение
/help - Показать это сообщение

` + switchUsage

	return menus.SendText(h.api, chatID, text, nil)
}

// handleUnknownCommand handles unknown commands
func (h *CommandHandler) handleUnknownCommand(chatID int64) error {
	return menus.SendText(h.api, chatID, "Неизвестная команда. Используйте /help для просмотра доступных команд.", nil)
}

func showCurrentProfile(ctx context.Context, api menus.Sender, deps Dependencies, chatID int64) error {
	current, err := deps.Resolver.Profile(ctx)
	if err != nil {
		return menus.SendText(api, chatID, menus.ErrorText(err), nil)
	}
	keyboard := keyboards.BackOnly()
	return menus.SendText(api, chatID, menus.CurrentProfileText(current, deps.now()), &keyboard)
}

func showProfiles(ctx context.Context, api menus.Sender, deps Dependencies, chatID int64) error {
	names, err := deps.Catalogue.Names(ctx)
	if err != nil {
		return menus.SendText(api, chatID, menus.ErrorText(err), nil)
	}
	active := deps.Resolver.CurrentProfileName(ctx, false, false)
	keyboard := keyboards.ProfileList(names)
	return menus.SendText(api, chatID, menus.ProfileListText(names, active), &keyboard)
}

func showHistory(ctx context.Context, api menus.Sender, deps Dependencies, chatID int64) error {
	now := deps.now()
	records, err := deps.History.History(ctx, now.Add(-historyWindow).UnixMilli(), now.UnixMilli())
	if err != nil {
		return menus.SendText(api, chatID, menus.ErrorText(err), nil)
	}
	keyboard := keyboards.BackOnly()
	return menus.SendText(api, chatID, menus.HistoryText(records, deps.location()), &keyboard)
}

// permanentSwitch is the request behind a profile-list button
func permanentSwitch(name string) services.SwitchRequest {
	return services.SwitchRequest{ProfileName: name, Percentage: 100}
}
