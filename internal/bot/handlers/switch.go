package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vladimiradmaev/profile-switcher/internal/bot/keyboards"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/menus"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/state"
	"github.com/vladimiradmaev/profile-switcher/internal/profile"
	"github.com/vladimiradmaev/profile-switcher/internal/services"
)

var errSwitchUsage = errors.New("invalid switch arguments")

// switchFlow previews, confirms and cancels pending profile switches
type switchFlow struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
	log          *slog.Logger
}

// preview validates the request and parks it until the user confirms
func (f *switchFlow) preview(ctx context.Context, chatID, userID int64, req services.SwitchRequest) error {
	result, err := f.deps.Switcher.Preview(ctx, req)
	if err != nil {
		f.log.WarnContext(ctx, "Switch preview declined", "user_id", userID, "profile", req.ProfileName, "error", err)
		return menus.SendText(f.api, chatID, menus.ErrorText(err), nil)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode pending switch: %w", err)
	}
	f.stateManager.SetTempData(userID, state.PendingSwitchKey, string(data))
	f.stateManager.SetUserState(userID, state.AwaitingConfirmation)

	keyboard := keyboards.ConfirmSwitch()
	return menus.SendText(f.api, chatID, menus.PreviewText(result.Record, f.deps.now()), &keyboard)
}

// confirm applies the pending request. It is validated again since limits
// or history may have changed while the user was deciding.
func (f *switchFlow) confirm(ctx context.Context, chatID, userID int64) error {
	req, ok := f.pending(userID)
	f.reset(userID)
	if !ok {
		return menus.SendText(f.api, chatID, "Нет переключения, ожидающего подтверждения.", nil)
	}

	result, err := f.deps.Switcher.Apply(ctx, req)
	if err != nil {
		f.log.WarnContext(ctx, "Switch not applied", "user_id", userID, "profile", req.ProfileName, "error", err)
		return menus.SendText(f.api, chatID, menus.ErrorText(err), nil)
	}

	r := result.Record
	f.log.InfoContext(ctx, "Switch applied from chat", "user_id", userID, "profile", r.ProfileName, "record_id", r.ID)
	keyboard := keyboards.BackOnly()
	return menus.SendText(f.api, chatID,
		"✅ Профиль переключен: "+profile.CustomizedName(r.ProfileName, r.Percentage, r.TimeShiftHours, r.DurationMillis),
		&keyboard)
}

func (f *switchFlow) cancel(chatID, userID int64) error {
	_, ok := f.pending(userID)
	f.reset(userID)
	if !ok {
		return menus.SendText(f.api, chatID, "Нечего отменять.", nil)
	}
	keyboard := keyboards.BackOnly()
	return menus.SendText(f.api, chatID, "Переключение отменено. Профиль не изменился.", &keyboard)
}

func (f *switchFlow) pending(userID int64) (services.SwitchRequest, bool) {
	var req services.SwitchRequest
	raw, ok := f.stateManager.GetTempData(userID, state.PendingSwitchKey)
	if !ok {
		return req, false
	}
	text, ok := raw.(string)
	if !ok {
		return req, false
	}
	if err := json.Unmarshal([]byte(text), &req); err != nil {
		f.log.Error("Failed to decode pending switch", "user_id", userID, "error", err)
		return req, false
	}
	return req, true
}

func (f *switchFlow) reset(userID int64) {
	f.stateManager.ClearTempData(userID)
	f.stateManager.SetUserState(userID, state.None)
}

// parseSwitchArgs reads "[name] <minutes> <percent> [shift]". Minutes may carry an
// "m" suffix, percent a "%" suffix, and the optional shift must end in "h" ("+2h").
// Profile names may contain spaces.
func parseSwitchArgs(args string, withName bool) (services.SwitchRequest, error) {
	var req services.SwitchRequest
	fields := strings.Fields(args)

	if n := len(fields); n > 0 && strings.HasSuffix(fields[n-1], "h") {
		shift, err := strconv.Atoi(strings.TrimSuffix(fields[n-1], "h"))
		if err != nil {
			return req, fmt.Errorf("%w: shift %q", errSwitchUsage, fields[n-1])
		}
		req.TimeShiftHours = shift
		fields = fields[:n-1]
	}

	n := len(fields)
	if n < 2 {
		return req, fmt.Errorf("%w: duration and percentage are required", errSwitchUsage)
	}
	minutes, err := strconv.Atoi(strings.TrimSuffix(fields[n-2], "m"))
	if err != nil {
		return req, fmt.Errorf("%w: duration %q", errSwitchUsage, fields[n-2])
	}
	percentage, err := strconv.Atoi(strings.TrimSuffix(fields[n-1], "%"))
	if err != nil {
		return req, fmt.Errorf("%w: percentage %q", errSwitchUsage, fields[n-1])
	}
	req.DurationMinutes = minutes
	req.Percentage = percentage

	rest := fields[:n-2]
	switch {
	case withName && len(rest) == 0:
		return req, fmt.Errorf("%w: profile name is required", errSwitchUsage)
	case !withName && len(rest) > 0:
		return req, fmt.Errorf("%w: unexpected %q", errSwitchUsage, strings.Join(rest, " "))
	}
	req.ProfileName = strings.Join(rest, " ")
	return req, nil
}
