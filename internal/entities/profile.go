// Package entities holds the persisted profile data shared by the bot's orchestrators.
package entities

import (
	"time"
)

// ProfileType distinguishes user profiles from guild profiles
type ProfileType string

const (
	ProfileTypeUser  ProfileType = "user"
	ProfileTypeGuild ProfileType = "guild"
)

// Document store collections
const (
	CollectionUsers            = "users"
	CollectionGuilds           = "guilds"
	CollectionCombatCharacters = "combat_characters"
)

// String returns the string representation of the profile type
func (t ProfileType) String() string {
	return string(t)
}

// IsValid checks if the profile type is known
func (t ProfileType) IsValid() bool {
	switch t {
	case ProfileTypeUser, ProfileTypeGuild:
		return true
	default:
		return false
	}
}

// Collection returns the document store collection holding profiles of this type
func (t ProfileType) Collection() string {
	if t == ProfileTypeGuild {
		return CollectionGuilds
	}
	return CollectionUsers
}

// Profile is the cached, persisted state for one identity. Exactly one of
// User or Guild is set, matching Type.
type Profile struct {
	Type  ProfileType `json:"type"`
	User  *UserData   `json:"user,omitempty"`
	Guild *GuildData  `json:"guild,omitempty"`
}

// UserData is the profile of a single chat user
type UserData struct {
	ID               string   `json:"id"`
	Username         string   `json:"username"`
	Characters       []string `json:"characters"`
	CombatCharacters []string `json:"combat_characters"`

	// ColorRoles maps guild ID to the colour role the user picked there
	ColorRoles map[string]string `json:"color_roles,omitempty"`
}

// GuildData is the profile of a single guild
type GuildData struct {
	ID                   string       `json:"id"`
	RegisteredCharacters []*Character `json:"registered_characters"`
	PendingCharacters    []*Character `json:"pending_characters"`
	ColorRoles           []ColorRole  `json:"color_roles"`

	RoleChannelID     string `json:"role_channel_id,omitempty"`
	WelcomeMessage    string `json:"welcome_message,omitempty"`
	WelcomeChannelID  string `json:"welcome_channel_id,omitempty"`
	LeaveMessage      string `json:"leave_message,omitempty"`
	LeaveChannelID    string `json:"leave_channel_id,omitempty"`
	ApprovedChannelID string `json:"approved_channel_id,omitempty"`
	PendingChannelID  string `json:"pending_channel_id,omitempty"`
}

// CharacterStatus tracks a submission through review
type CharacterStatus string

const (
	CharacterStatusPending  CharacterStatus = "pending"
	CharacterStatusApproved CharacterStatus = "approved"
)

// Character is a role-playing character submitted to a guild
type Character struct {
	Name        string          `json:"name"`
	OwnerID     string          `json:"owner_id"`
	Link        string          `json:"link"`
	Description string          `json:"description,omitempty"`
	Status      CharacterStatus `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	ReviewerID  string          `json:"reviewer_id,omitempty"`
}

// ColorRole is a self-assignable colour role offered by a guild
type ColorRole struct {
	Name   string `json:"name"`
	RoleID string `json:"role_id"`
	Hex    string `json:"hex"`
}

// NewProfile builds the default profile used when the store has no document
// for an identity yet.
func NewProfile(t ProfileType, id string) *Profile {
	if t == ProfileTypeGuild {
		return &Profile{
			Type: t,
			Guild: &GuildData{
				ID:                   id,
				RegisteredCharacters: []*Character{},
				PendingCharacters:    []*Character{},
				ColorRoles:           []ColorRole{},
			},
		}
	}

	return &Profile{
		Type: ProfileTypeUser,
		User: &UserData{
			ID:               id,
			Characters:       []string{},
			CombatCharacters: []string{},
		},
	}
}

// ID returns the identity the profile belongs to
func (p *Profile) ID() string {
	switch {
	case p.User != nil:
		return p.User.ID
	case p.Guild != nil:
		return p.Guild.ID
	default:
		return ""
	}
}

// Clone returns a deep copy of the profile
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	out := &Profile{Type: p.Type}
	if p.User != nil {
		u := *p.User
		u.Characters = append([]string(nil), p.User.Characters...)
		u.CombatCharacters = append([]string(nil), p.User.CombatCharacters...)
		if p.User.ColorRoles != nil {
			u.ColorRoles = make(map[string]string, len(p.User.ColorRoles))
			for k, v := range p.User.ColorRoles {
				u.ColorRoles[k] = v
			}
		}
		out.User = &u
	}
	if p.Guild != nil {
		g := *p.Guild
		g.RegisteredCharacters = cloneCharacters(p.Guild.RegisteredCharacters)
		g.PendingCharacters = cloneCharacters(p.Guild.PendingCharacters)
		g.ColorRoles = append([]ColorRole(nil), p.Guild.ColorRoles...)
		out.Guild = &g
	}
	return out
}

func cloneCharacters(in []*Character) []*Character {
	if in == nil {
		return nil
	}
	out := make([]*Character, len(in))
	for i, c := range in {
		cp := *c
		if c.ApprovedAt != nil {
			at := *c.ApprovedAt
			cp.ApprovedAt = &at
		}
		out[i] = &cp
	}
	return out
}

// FindCharacter looks up a registered or pending character by name, case-sensitive
func (g *GuildData) FindCharacter(name string) (*Character, bool) {
	for _, c := range g.RegisteredCharacters {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range g.PendingCharacters {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// TakePending removes and returns a pending character by name
func (g *GuildData) TakePending(name string) (*Character, bool) {
	for i, c := range g.PendingCharacters {
		if c.Name == name {
			g.PendingCharacters = append(g.PendingCharacters[:i], g.PendingCharacters[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// FindColorRole looks up a colour role by name
func (g *GuildData) FindColorRole(name string) (ColorRole, bool) {
	for _, r := range g.ColorRoles {
		if r.Name == name {
			return r, true
		}
	}
	return ColorRole{}, false
}
