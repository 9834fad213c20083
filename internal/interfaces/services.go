package interfaces

import (
	"context"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	"github.com/vladimiradmaev/profile-switcher/internal/profile"
	"github.com/vladimiradmaev/profile-switcher/internal/services"
)

// ProfileResolverInterface defines the contract for reading the profile in effect
type ProfileResolverInterface interface {
	Profile(ctx context.Context) (*profile.Effective, error)
	CurrentProfileName(ctx context.Context, customized, withRemainingTime bool) string
}

// ProfileSwitchServiceInterface defines the contract for requesting overrides
type ProfileSwitchServiceInterface interface {
	Preview(ctx context.Context, req services.SwitchRequest) (*services.ApplyResult, error)
	Apply(ctx context.Context, req services.SwitchRequest) (*services.ApplyResult, error)
}

// ProfileCatalogueInterface defines the contract for listing available profiles
type ProfileCatalogueInterface interface {
	Names(ctx context.Context) ([]string, error)
}

// SwitchHistoryInterface defines the contract for listing committed switches
type SwitchHistoryInterface interface {
	History(ctx context.Context, from, to int64) ([]domain.SwitchRecord, error)
}
