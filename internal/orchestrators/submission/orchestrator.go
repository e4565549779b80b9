// Package submission implements the character submission workflow: users
// submit a character to a guild, it waits as pending behind an approval
// event on the submitter, and a reviewer approves or rejects it.
package submission

import (
	"context"
	"log/slog"
	"slices"

	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
)

const (
	MaxNameLength        = 64
	MaxLinkLength        = 512
	MaxDescriptionLength = 1000
	MaxReasonLength      = 500
)

// Service defines the interface for character submissions
type Service interface {
	// Submit records a pending character and opens an approval event on the
	// submitter. A user has at most one submission under review.
	Submit(ctx context.Context, input *SubmitInput) (*SubmitOutput, error)

	// Approve registers a pending character and closes the review
	Approve(ctx context.Context, input *ApproveInput) (*ApproveOutput, error)

	// Reject drops a pending character and closes the review
	Reject(ctx context.Context, input *RejectInput) (*RejectOutput, error)

	// List returns a guild's registered and pending characters
	List(ctx context.Context, input *ListInput) (*ListOutput, error)
}

// Config holds the dependencies for the submission orchestrator
type Config struct {
	ProfileService profile.Service
	Clock          clock.Clock
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
	clock    clock.Clock
}

// NewOrchestrator creates a new submission orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &orchestrator{
		profiles: cfg.ProfileService,
		clock:    c,
	}, nil
}

func (o *orchestrator) Submit(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("guild_id", input.GuildID, vb)
	errors.ValidateRequired("user_id", input.UserID, vb)
	errors.ValidateRequired("name", input.Name, vb)
	errors.ValidateMaxLength("name", input.Name, MaxNameLength, vb)
	errors.ValidateRequired("link", input.Link, vb)
	errors.ValidateMaxLength("link", input.Link, MaxLinkLength, vb)
	errors.ValidateMaxLength("description", input.Description, MaxDescriptionLength, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	review, err := o.profiles.Register(ctx, &profile.RegisterInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    input.UserID,
		Kind:        interaction.KindApproval,
		Options:     interaction.Options{Resource: input.Resource},
	})
	if err != nil {
		if errors.IsAlreadyExists(err) {
			return nil, errors.Wrap(err, "you already have a character awaiting review")
		}
		return nil, err
	}

	character := &entities.Character{
		Name:        input.Name,
		OwnerID:     input.UserID,
		Link:        input.Link,
		Description: input.Description,
		Status:      entities.CharacterStatusPending,
		SubmittedAt: o.clock.Now(),
	}

	_, err = o.profiles.Edit(ctx, &profile.EditInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    input.GuildID,
		Apply: func(p *entities.Profile) error {
			if _, exists := p.Guild.FindCharacter(input.Name); exists {
				return errors.AlreadyExistsf("a character named %s already exists", input.Name).
					WithMeta("guild_id", input.GuildID)
			}
			cp := *character
			p.Guild.PendingCharacters = append(p.Guild.PendingCharacters, &cp)
			return nil
		},
	})
	if err != nil {
		review.Event.Stop()
		return nil, err
	}

	if input.Username != "" {
		err := review.Profile.Update(ctx, func(p *entities.Profile) error {
			p.User.Username = input.Username
			return nil
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to refresh username",
				"user_id", input.UserID,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "character submitted",
		"guild_id", input.GuildID,
		"user_id", input.UserID,
		"name", input.Name,
		"event_id", review.Event.ID())

	return &SubmitOutput{
		Character: character,
		Event:     review.Event,
	}, nil
}

func validateReview(guildID, name, reviewerID string) error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("guild_id", guildID, vb)
	errors.ValidateRequired("name", name, vb)
	errors.ValidateRequired("reviewer_id", reviewerID, vb)
	return vb.Build()
}

// takePending removes a pending character from the guild, letting mutate
// adjust the guild before the edit is committed.
func (o *orchestrator) takePending(ctx context.Context, guildID, name string, mutate func(*entities.GuildData, *entities.Character)) (*entities.Character, error) {
	var taken entities.Character

	_, err := o.profiles.Edit(ctx, &profile.EditInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    guildID,
		Apply: func(p *entities.Profile) error {
			c, ok := p.Guild.TakePending(name)
			if !ok {
				return errors.NotFoundf("no pending character named %s", name).
					WithMeta("guild_id", guildID)
			}
			mutate(p.Guild, c)
			taken = *c
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &taken, nil
}

// closeReview stops the owner's approval event if one is still open
func (o *orchestrator) closeReview(ctx context.Context, ownerID string) {
	out, err := o.profiles.GetEvent(ctx, &profile.GetEventInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    ownerID,
		Kind:        interaction.KindApproval,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to look up review event",
			"user_id", ownerID,
			"error", err)
		return
	}
	if out.Event != nil {
		out.Event.Stop()
	}
}

func (o *orchestrator) Approve(ctx context.Context, input *ApproveInput) (*ApproveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateReview(input.GuildID, input.Name, input.ReviewerID); err != nil {
		return nil, err
	}

	now := o.clock.Now()
	character, err := o.takePending(ctx, input.GuildID, input.Name, func(g *entities.GuildData, c *entities.Character) {
		c.Status = entities.CharacterStatusApproved
		c.ApprovedAt = &now
		c.ReviewerID = input.ReviewerID
		g.RegisteredCharacters = append(g.RegisteredCharacters, c)
	})
	if err != nil {
		return nil, err
	}

	_, err = o.profiles.Edit(ctx, &profile.EditInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    character.OwnerID,
		Apply: func(p *entities.Profile) error {
			if !slices.Contains(p.User.Characters, character.Name) {
				p.User.Characters = append(p.User.Characters, character.Name)
			}
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "character %s approved but owner profile was not updated", character.Name)
	}

	o.closeReview(ctx, character.OwnerID)

	slog.InfoContext(ctx, "character approved",
		"guild_id", input.GuildID,
		"name", character.Name,
		"owner_id", character.OwnerID,
		"reviewer_id", input.ReviewerID)

	return &ApproveOutput{Character: character}, nil
}

func (o *orchestrator) Reject(ctx context.Context, input *RejectInput) (*RejectOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateReview(input.GuildID, input.Name, input.ReviewerID); err != nil {
		return nil, err
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateMaxLength("reason", input.Reason, MaxReasonLength, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	character, err := o.takePending(ctx, input.GuildID, input.Name, func(*entities.GuildData, *entities.Character) {})
	if err != nil {
		return nil, err
	}

	o.closeReview(ctx, character.OwnerID)

	slog.InfoContext(ctx, "character rejected",
		"guild_id", input.GuildID,
		"name", character.Name,
		"owner_id", character.OwnerID,
		"reviewer_id", input.ReviewerID)

	return &RejectOutput{Character: character, Reason: input.Reason}, nil
}

func (o *orchestrator) List(ctx context.Context, input *ListInput) (*ListOutput, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.InvalidArgument("guild_id is required")
	}

	out, err := o.profiles.ProfileData(ctx, &profile.ProfileDataInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    input.GuildID,
	})
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Registered: out.Profile.Guild.RegisteredCharacters,
		Pending:    out.Profile.Guild.PendingCharacters,
	}, nil
}
