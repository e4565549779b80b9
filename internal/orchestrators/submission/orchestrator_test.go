package submission_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/submission"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-community-bot/internal/repositories/documents"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *clock.Fake
	profiles profile.Service
	svc      submission.Service
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewFake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	var err error
	s.profiles, err = profile.NewOrchestrator(&profile.Config{
		DocumentRepo:  documents.NewInMemory(s.clock),
		Clock:         s.clock,
		IDGenerator:   idgen.NewSequential("evt"),
		RetryInterval: time.Millisecond,
	})
	s.Require().NoError(err)

	s.svc, err = submission.NewOrchestrator(&submission.Config{
		ProfileService: s.profiles,
		Clock:          s.clock,
	})
	s.Require().NoError(err)
}

func (s *OrchestratorTestSuite) submit(user, name string) *submission.SubmitOutput {
	out, err := s.svc.Submit(s.ctx, &submission.SubmitInput{
		GuildID:  "g1",
		UserID:   user,
		Username: user + "-name",
		Name:     name,
		Link:     "https://docs.example/" + name,
	})
	s.Require().NoError(err)
	return out
}

func (s *OrchestratorTestSuite) guild() *entities.GuildData {
	out, err := s.profiles.ProfileData(s.ctx, &profile.ProfileDataInput{
		ProfileType: entities.ProfileTypeGuild,
		Identity:    "g1",
	})
	s.Require().NoError(err)
	return out.Profile.Guild
}

func (s *OrchestratorTestSuite) user(id string) *entities.UserData {
	out, err := s.profiles.ProfileData(s.ctx, &profile.ProfileDataInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    id,
	})
	s.Require().NoError(err)
	return out.Profile.User
}

func (s *OrchestratorTestSuite) TestNewOrchestratorValidation() {
	_, err := submission.NewOrchestrator(&submission.Config{})
	s.True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestSubmit() {
	out := s.submit("u1", "Vex")

	s.Equal(entities.CharacterStatusPending, out.Character.Status)
	s.Equal(s.clock.Now(), out.Character.SubmittedAt)
	s.Equal(interaction.KindApproval, out.Event.Kind())
	s.False(out.Event.Stopped())

	g := s.guild()
	s.Require().Len(g.PendingCharacters, 1)
	s.Equal("Vex", g.PendingCharacters[0].Name)
	s.Equal("u1-name", s.user("u1").Username)
}

func (s *OrchestratorTestSuite) TestSubmitValidation() {
	_, err := s.svc.Submit(s.ctx, &submission.SubmitInput{GuildID: "g1", UserID: "u1"})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	s.Contains(err.Error(), "link: is required")
	s.Contains(err.Error(), "name: is required")
}

func (s *OrchestratorTestSuite) TestOneReviewPerUser() {
	s.submit("u1", "Vex")

	_, err := s.svc.Submit(s.ctx, &submission.SubmitInput{
		GuildID: "g1", UserID: "u1", Name: "Other", Link: "https://docs.example/o",
	})
	s.Require().Error(err)
	s.True(errors.IsAlreadyExists(err))
	s.Len(s.guild().PendingCharacters, 1)
}

func (s *OrchestratorTestSuite) TestDuplicateNameClosesReview() {
	s.submit("u1", "Vex")

	_, err := s.svc.Submit(s.ctx, &submission.SubmitInput{
		GuildID: "g1", UserID: "u2", Name: "Vex", Link: "https://docs.example/v",
	})
	s.Require().Error(err)
	s.True(errors.IsAlreadyExists(err))

	ev, err := s.profiles.GetEvent(s.ctx, &profile.GetEventInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    "u2",
		Kind:        interaction.KindApproval,
	})
	s.Require().NoError(err)
	s.Nil(ev.Event, "the failed submission should not hold a review open")
}

func (s *OrchestratorTestSuite) TestApprove() {
	sub := s.submit("u1", "Vex")
	s.clock.Advance(time.Hour)

	out, err := s.svc.Approve(s.ctx, &submission.ApproveInput{GuildID: "g1", Name: "Vex", ReviewerID: "mod"})
	s.Require().NoError(err)

	s.Equal(entities.CharacterStatusApproved, out.Character.Status)
	s.Require().NotNil(out.Character.ApprovedAt)
	s.Equal(s.clock.Now(), *out.Character.ApprovedAt)
	s.Equal("mod", out.Character.ReviewerID)

	s.True(sub.Event.Stopped())
	s.Equal([]string{"Vex"}, s.user("u1").Characters)

	list, err := s.svc.List(s.ctx, &submission.ListInput{GuildID: "g1"})
	s.Require().NoError(err)
	s.Len(list.Registered, 1)
	s.Empty(list.Pending)

	s.Run("owner can submit again", func() {
		s.submit("u1", "Second")
	})
}

func (s *OrchestratorTestSuite) TestReject() {
	sub := s.submit("u1", "Vex")

	out, err := s.svc.Reject(s.ctx, &submission.RejectInput{
		GuildID: "g1", Name: "Vex", ReviewerID: "mod", Reason: "missing backstory",
	})
	s.Require().NoError(err)
	s.Equal("missing backstory", out.Reason)
	s.True(sub.Event.Stopped())

	g := s.guild()
	s.Empty(g.PendingCharacters)
	s.Empty(g.RegisteredCharacters)
	s.Empty(s.user("u1").Characters)
}

func (s *OrchestratorTestSuite) TestReviewUnknownCharacter() {
	_, err := s.svc.Approve(s.ctx, &submission.ApproveInput{GuildID: "g1", Name: "Ghost", ReviewerID: "mod"})
	s.True(errors.IsNotFound(err))

	_, err = s.svc.Reject(s.ctx, &submission.RejectInput{GuildID: "g1", Name: "Ghost", ReviewerID: "mod"})
	s.True(errors.IsNotFound(err))

	_, err = s.svc.Approve(s.ctx, &submission.ApproveInput{GuildID: "g1", Name: "Ghost"})
	s.True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestReviewTimesOut() {
	sub := s.submit("u1", "Vex")

	s.clock.Advance(15 * time.Minute)
	s.True(sub.Event.Stopped())
	s.Equal(interaction.StopReasonTimeout, sub.Event.Reason())

	s.Len(s.guild().PendingCharacters, 1, "the pending entry outlives the review event")
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
