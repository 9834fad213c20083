package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Callback data understood by the callback handler
const (
	MainMenuData       = "main_menu"
	CurrentProfileData = "current_profile"
	ListProfilesData   = "list_profiles"
	HistoryData        = "history"
	ConfirmSwitchData  = "confirm_switch"
	CancelSwitchData   = "cancel_switch"
	SwitchToPrefix     = "switch_to:"
)

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Текущий профиль", CurrentProfileData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Профили", ListProfilesData),
			tgbotapi.NewInlineKeyboardButtonData("🕘 История", HistoryData),
		),
	)
}

// ProfileList offers a permanent switch to each profile
func ProfileList(names []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range names {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 "+name, SwitchToData(name)),
		))
	}
	rows = append(rows, BackRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SwitchToData is the callback data of a profile button. Telegram caps callback
// data at 64 bytes, so the name is carried as a name-based UUID of fixed length.
func SwitchToData(name string) string {
	return SwitchToPrefix + uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// ProfileFromSwitchData finds the profile among names whose button produced data
func ProfileFromSwitchData(data string, names []string) (string, bool) {
	for _, name := range names {
		if SwitchToData(name) == data {
			return name, true
		}
	}
	return "", false
}

// ConfirmSwitch asks the user to apply or drop a previewed switch
func ConfirmSwitch() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Применить", ConfirmSwitchData),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", CancelSwitchData),
		),
	)
}

// BackOnly returns a keyboard with a single main-menu button
func BackOnly() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(BackRow())
}

func BackRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", MainMenuData),
	)
}
