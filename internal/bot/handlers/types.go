package handlers

import (
	"time"

	"github.com/vladimiradmaev/profile-switcher/internal/interfaces"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Resolver  interfaces.ProfileResolverInterface
	Switcher  interfaces.ProfileSwitchServiceInterface
	Catalogue interfaces.ProfileCatalogueInterface
	History   interfaces.SwitchHistoryInterface

	// Location is the zone schedules are evaluated in; nil means time.Local
	Location *time.Location
	// Now replaces time.Now when set
	Now func() time.Time
}

func (d Dependencies) now() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return now().In(d.location())
}

func (d Dependencies) location() *time.Location {
	if d.Location == nil {
		return time.Local
	}
	return d.Location
}
