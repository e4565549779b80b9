package submission

import (
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
)

// SubmitInput contains the parameters for submitting a character for review
type SubmitInput struct {
	GuildID     string
	UserID      string
	Username    string
	Name        string
	Link        string
	Description string

	// Resource is the review message, released when the review closes
	Resource interaction.Resource
}

// SubmitOutput contains the pending character and the open review
type SubmitOutput struct {
	Character *entities.Character
	Event     *interaction.Event
}

// ApproveInput contains the parameters for approving a pending character
type ApproveInput struct {
	GuildID    string
	Name       string
	ReviewerID string
}

// ApproveOutput contains the registered character
type ApproveOutput struct {
	Character *entities.Character
}

// RejectInput contains the parameters for rejecting a pending character
type RejectInput struct {
	GuildID    string
	Name       string
	ReviewerID string
	Reason     string
}

// RejectOutput contains the dropped character
type RejectOutput struct {
	Character *entities.Character
	Reason    string
}

// ListInput contains the parameters for listing a guild's characters
type ListInput struct {
	GuildID string
}

// ListOutput contains a guild's characters by status
type ListOutput struct {
	Registered []*entities.Character
	Pending    []*entities.Character
}
