package roles

import (
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
)

// AddColorRoleInput contains the parameters for offering a colour role
type AddColorRoleInput struct {
	GuildID string
	Name    string
	RoleID  string
	Hex     string
}

// AddColorRoleOutput contains the guild's colour roles after the change
type AddColorRoleOutput struct {
	Roles []entities.ColorRole
}

// RemoveColorRoleInput contains the parameters for withdrawing a colour role
type RemoveColorRoleInput struct {
	GuildID string
	Name    string
}

// RemoveColorRoleOutput contains the removed role
type RemoveColorRoleOutput struct {
	Removed entities.ColorRole
}

// OpenPickerInput contains the parameters for showing a user the picker
type OpenPickerInput struct {
	GuildID string
	UserID  string

	// Resource is the picker message, released when the picker closes
	Resource interaction.Resource
}

// OpenPickerOutput contains the picker event and the roles to offer
type OpenPickerOutput struct {
	Event   *interaction.Event
	Roles   []entities.ColorRole
	Current string
}

// SelectInput contains the parameters for choosing a role in an open picker
type SelectInput struct {
	GuildID string
	UserID  string
	Name    string
}

// SelectOutput reports the role change the chat host should apply
type SelectOutput struct {
	PreviousRoleID string
	RoleID         string
}

// ClosePickerInput contains the parameters for closing a picker
type ClosePickerInput struct {
	UserID string
}

// ClosePickerOutput reports whether a picker was open
type ClosePickerOutput struct {
	Closed bool
}
