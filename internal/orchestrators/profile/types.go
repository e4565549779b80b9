package profile

import (
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
)

// RegisterInput contains the parameters for opening an interaction
type RegisterInput struct {
	ProfileType entities.ProfileType
	Identity    string
	Kind        interaction.Kind
	Options     interaction.Options
}

// RegisterOutput contains the opened event and a handle to the owner's profile
type RegisterOutput struct {
	Event   *interaction.Event
	Profile *Handle
}

// GetEventInput contains the parameters for looking up a live event
type GetEventInput struct {
	ProfileType entities.ProfileType
	Identity    string
	Kind        interaction.Kind
}

// GetEventOutput contains the live event, or nil when there is none
type GetEventOutput struct {
	Event *interaction.Event
}

// ProfileDataInput contains the parameters for reading a profile
type ProfileDataInput struct {
	ProfileType entities.ProfileType
	Identity    string
}

// ProfileDataOutput contains a snapshot of the cached profile and a handle
// for mutating it
type ProfileDataOutput struct {
	Profile *entities.Profile
	Handle  *Handle
}

// EditFunc mutates a profile in place
type EditFunc func(p *entities.Profile) error

// EditInput contains the parameters for a one-shot profile edit
type EditInput struct {
	ProfileType entities.ProfileType
	Identity    string
	Apply       EditFunc
}

// EditOutput contains the profile as it looks after the edit
type EditOutput struct {
	Profile *entities.Profile
}
