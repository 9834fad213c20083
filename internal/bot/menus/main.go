package menus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/profile-switcher/internal/bot/keyboards"
	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
	"github.com/vladimiradmaev/profile-switcher/internal/profile"
)

// Sender is the part of the Telegram API used to talk to chats. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api Sender, chatID int64, currentName string) error {
	text := `🤖 *Переключатель профилей*

Показывает активный профиль помпы и помогает временно изменить его:
• процент базала и чувствительности
• сдвиг расписания по времени
• длительность действия

⚠️ *Важно:* Каждое переключение проходит проверку безопасности, но решение всегда за вами!

Активный профиль: ` + escapeMarkdown(currentName) + `

Выберите действие:`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// SendText sends plain text with an optional inline keyboard
func SendText(api Sender, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := api.Send(msg)
	return err
}

// CurrentProfileText describes the profile in effect at now
func CurrentProfileText(p *profile.Effective, now time.Time) string {
	if p == nil {
		return "❔ Активного профиля нет. Выберите профиль в списке или используйте /switch."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 Текущий профиль: %s\n", p.NameWithRemaining(now))
	writeValues(&b, p, now)
	if p.IsTemporary() {
		fmt.Fprintf(&b, "⏳ Закончится в %s\n", time.UnixMilli(p.End()).In(now.Location()).Format("15:04"))
	}
	return b.String()
}

// PreviewText describes a candidate switch before it is confirmed
func PreviewText(record *domain.SwitchRecord, now time.Time) string {
	p := profile.NewEffective(record)

	var b strings.Builder
	b.WriteString("🔎 Предпросмотр переключения\n\n")
	fmt.Fprintf(&b, "Профиль: %s\n", p.CustomizedName())
	if p.IsTemporary() {
		fmt.Fprintf(&b, "Длительность: %s\n", formatDuration(time.Duration(record.DurationMillis)*time.Millisecond))
	} else {
		b.WriteString("Длительность: постоянно\n")
	}
	writeValues(&b, p, now)
	b.WriteString("\nПрименить?")
	return b.String()
}

func writeValues(b *strings.Builder, p profile.Profile, now time.Time) {
	unit := unitLabel(p.Units())
	fmt.Fprintf(b, "💉 Базал сейчас: %.2f Ед/ч (за сутки %.2f Ед)\n", p.Basal(now), p.TotalBasal())
	fmt.Fprintf(b, "📉 Чувствительность: %.1f %s/Ед\n", p.Sensitivity(now), unit)
	fmt.Fprintf(b, "🍞 Углеводный коэф.: %.1f г/Ед\n", p.CarbRatio(now))
	fmt.Fprintf(b, "🎯 Цель: %s–%s %s\n", formatGlucose(p.TargetLow(now), p.Units()), formatGlucose(p.TargetHigh(now), p.Units()), unit)
}

// ProfileListText lists catalogue profiles, marking the active one
func ProfileListText(names []string, active string) string {
	if len(names) == 0 {
		return "Каталог профилей пуст."
	}
	var b strings.Builder
	b.WriteString("📋 Доступные профили:\n\n")
	for _, name := range names {
		marker := "•"
		if name == active {
			marker = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, name)
	}
	b.WriteString("\nНажмите на профиль, чтобы переключиться на него постоянно, или используйте /switch.")
	return b.String()
}

// HistoryText lists committed switches, newest last
func HistoryText(records []domain.SwitchRecord, loc *time.Location) string {
	if len(records) == 0 {
		return "🕘 За последние сутки переключений не было."
	}
	var b strings.Builder
	b.WriteString("🕘 Переключения за последние сутки:\n\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%s  %s\n",
			time.UnixMilli(r.Timestamp).In(loc).Format("02.01 15:04"),
			profile.CustomizedName(r.ProfileName, r.Percentage, r.TimeShiftHours, r.DurationMillis))
	}
	return b.String()
}

// ErrorText turns a switch failure into a user-facing message
func ErrorText(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrProfileNotFound):
		return "❌ Профиль не найден. Список профилей: /profiles"
	case errors.Is(err, apperrors.ErrNoActiveProfile):
		return "❌ Нет активного постоянного профиля. Сначала переключитесь командой /switch."
	case errors.Is(err, apperrors.ErrValidationFailure):
		var b strings.Builder
		b.WriteString("⛔ Переключение отклонено проверкой безопасности:\n")
		for _, reason := range apperrors.Reasons(err) {
			fmt.Fprintf(&b, "• %s\n", reason)
		}
		return strings.TrimRight(b.String(), "\n")
	case errors.Is(err, apperrors.ErrStoreFailure):
		return "⚠️ Не удалось сохранить переключение. Продолжает действовать предыдущий профиль."
	default:
		return "Произошла ошибка. Пожалуйста, попробуйте еще раз."
	}
}

func unitLabel(unit domain.GlucoseUnit) string {
	if unit == domain.UnitMMOL {
		return "ммоль/л"
	}
	return "mg/dl"
}

func formatGlucose(value float64, unit domain.GlucoseUnit) string {
	if unit == domain.UnitMMOL {
		return fmt.Sprintf("%.1f", value)
	}
	return fmt.Sprintf("%.0f", value)
}

func formatDuration(d time.Duration) string {
	minutes := int64(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%d ч", minutes/60)
	}
	return fmt.Sprintf("%d ч %02d мин", minutes/60, minutes%60)
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "`", "\\`")
	return replacer.Replace(text)
}
