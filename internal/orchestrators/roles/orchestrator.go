// Package roles implements colour-role self assignment. Guild staff curate a
// list of colour roles; members pick one through a picker session.
package roles

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile"
)

const MaxRoleNameLength = 32

var hexColorRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// Service defines the interface for colour role operations
type Service interface {
	AddColorRole(ctx context.Context, input *AddColorRoleInput) (*AddColorRoleOutput, error)
	RemoveColorRole(ctx context.Context, input *RemoveColorRoleInput) (*RemoveColorRoleOutput, error)

	// OpenPicker opens a role_select session for the user. Re-opening
	// replaces the previous picker.
	OpenPicker(ctx context.Context, input *OpenPickerInput) (*OpenPickerOutput, error)

	// Select stores the user's choice. Requires an open picker.
	Select(ctx context.Context, input *SelectInput) (*SelectOutput, error)

	ClosePicker(ctx context.Context, input *ClosePickerInput) (*ClosePickerOutput, error)
}

// Config holds the dependencies for the roles orchestrator
type Config struct {
	ProfileService profile.Service
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	if c.ProfileService == nil {
		vb.RequiredField("ProfileService")
	}
	return vb.Build()
}

type orchestrator struct {
	profiles profile.Service
}

// NewOrchestrator creates a new roles orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{profiles: cfg.ProfileService}, nil
}

func (o *orchestrator) AddColorRole(ctx context.Context, input *AddColorRoleInput) (*AddColorRoleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("guild_id", input.GuildID, vb)
	errors.ValidateRequired("name", input.Name, vb)
	errors.ValidateMaxLength("name", input.Name, MaxRoleNameLength, vb)
	errors.ValidateRequired("role_id", input.RoleID, vb)
	if !hexColorRegex.MatchString(input.Hex) {
		vb.Fieldf("hex", "must be a 6 digit hex colour, got %q", input.Hex)
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	role := entities.ColorRole{
		Name:   input.Name,
		RoleID: input.RoleID,
		Hex:    "#" + strings.ToLower(strings.TrimPrefix(input.Hex, "#")),
	}

	out, err := o.profiles.Edit(ctx, &profile.EditInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    input.GuildID,
		Apply: func(p *entities.Profile) error {
			if _, exists := p.Guild.FindColorRole(input.Name); exists {
				return errors.AlreadyExistsf("colour role %s already exists", input.Name)
			}
			p.Guild.ColorRoles = append(p.Guild.ColorRoles, role)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &AddColorRoleOutput{Roles: out.Profile.Guild.ColorRoles}, nil
}

func (o *orchestrator) RemoveColorRole(ctx context.Context, input *RemoveColorRoleInput) (*RemoveColorRoleOutput, error) {
	if input == nil || input.GuildID == "" || input.Name == "" {
		return nil, errors.InvalidArgument("guild_id and name are required")
	}

	var removed entities.ColorRole
	_, err := o.profiles.Edit(ctx, &profile.EditInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    input.GuildID,
		Apply: func(p *entities.Profile) error {
			for i, r := range p.Guild.ColorRoles {
				if r.Name == input.Name {
					removed = r
					p.Guild.ColorRoles = append(p.Guild.ColorRoles[:i], p.Guild.ColorRoles[i+1:]...)
					return nil
				}
			}
			return errors.NotFoundf("colour role %s not found", input.Name)
		},
	})
	if err != nil {
		return nil, err
	}

	return &RemoveColorRoleOutput{Removed: removed}, nil
}

func (o *orchestrator) OpenPicker(ctx context.Context, input *OpenPickerInput) (*OpenPickerOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.InvalidArgument("guild_id and user_id are required")
	}

	guild, err := o.profiles.ProfileData(ctx, &profile.ProfileDataInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    input.GuildID,
	})
	if err != nil {
		return nil, err
	}
	if len(guild.Profile.Guild.ColorRoles) == 0 {
		return nil, errors.FailedPrecondition("this server has no colour roles yet")
	}

	reg, err := o.profiles.Register(ctx, &profile.RegisterInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    input.UserID,
		Kind:        interaction.KindRoleSelect,
		Options:     interaction.Options{Resource: input.Resource},
	})
	if err != nil {
		return nil, err
	}

	user, err := reg.Profile.Snapshot(ctx)
	if err != nil {
		reg.Event.Stop()
		return nil, err
	}

	return &OpenPickerOutput{
		Event:   reg.Event,
		Roles:   guild.Profile.Guild.ColorRoles,
		Current: user.User.ColorRoles[input.GuildID],
	}, nil
}

func (o *orchestrator) Select(ctx context.Context, input *SelectInput) (*SelectOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("guild_id", input.GuildID, vb)
	errors.ValidateRequired("user_id", input.UserID, vb)
	errors.ValidateRequired("name", input.Name, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	picker, err := o.profiles.GetEvent(ctx, &profile.GetEventInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    input.UserID,
		Kind:        interaction.KindRoleSelect,
	})
	if err != nil {
		return nil, err
	}
	if picker.Event == nil || !picker.Event.Touch() {
		return nil, errors.FailedPrecondition("the colour picker has closed, open it again")
	}

	guild, err := o.profiles.ProfileData(ctx, &profile.ProfileDataInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    input.GuildID,
	})
	if err != nil {
		return nil, err
	}
	role, ok := guild.Profile.Guild.FindColorRole(input.Name)
	if !ok {
		return nil, errors.NotFoundf("colour role %s not found", input.Name)
	}

	user, err := o.profiles.ProfileData(ctx, &profile.ProfileDataInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    input.UserID,
	})
	if err != nil {
		return nil, err
	}

	var previous string
	err = user.Handle.Update(ctx, func(p *entities.Profile) error {
		if p.User.ColorRoles == nil {
			p.User.ColorRoles = make(map[string]string)
		}
		previous = p.User.ColorRoles[input.GuildID]
		p.User.ColorRoles[input.GuildID] = role.RoleID
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "colour role selected",
		"guild_id", input.GuildID,
		"user_id", input.UserID,
		"role_id", role.RoleID,
		"previous_role_id", previous)

	return &SelectOutput{PreviousRoleID: previous, RoleID: role.RoleID}, nil
}

func (o *orchestrator) ClosePicker(ctx context.Context, input *ClosePickerInput) (*ClosePickerOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.InvalidArgument("user_id is required")
	}

	picker, err := o.profiles.GetEvent(ctx, &profile.GetEventInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    input.UserID,
		Kind:        interaction.KindRoleSelect,
	})
	if err != nil {
		return nil, err
	}
	if picker.Event == nil {
		return &ClosePickerOutput{}, nil
	}

	return &ClosePickerOutput{Closed: picker.Event.Stop()}, nil
}
