package roles_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile"
	profilemock "github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile/mock"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/roles"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-community-bot/internal/repositories/documents"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *clock.Fake
	profiles profile.Service
	svc      roles.Service
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

	s.svc, err = roles.NewOrchestrator(&roles.Config{ProfileService: s.profiles})
	s.Require().NoError(err)
}

func (s *OrchestratorTestSuite) seedRoles() {
	for _, r := range []roles.AddColorRoleInput{
		{GuildID: "g1", Name: "Crimson", RoleID: "r-red", Hex: "#B22222"},
		{GuildID: "g1", Name: "Teal", RoleID: "r-teal", Hex: "008080"},
	} {
		_, err := s.svc.AddColorRole(s.ctx, &r)
		s.Require().NoError(err)
	}
}

func (s *OrchestratorTestSuite) TestAddColorRole() {
	s.seedRoles()

	out, err := s.svc.AddColorRole(s.ctx, &roles.AddColorRoleInput{
		GuildID: "g1", Name: "Gold", RoleID: "r-gold", Hex: "#FFD700",
	})
	s.Require().NoError(err)
	s.Require().Len(out.Roles, 3)
	s.Equal("#b22222", out.Roles[0].Hex)
	s.Equal("#008080", out.Roles[1].Hex)

	s.Run("duplicate name", func() {
		_, err := s.svc.AddColorRole(s.ctx, &roles.AddColorRoleInput{
			GuildID: "g1", Name: "Gold", RoleID: "r-2", Hex: "#000000",
		})
		s.True(errors.IsAlreadyExists(err))
	})

	s.Run("bad hex", func() {
		_, err := s.svc.AddColorRole(s.ctx, &roles.AddColorRoleInput{
			GuildID: "g1", Name: "Mud", RoleID: "r-3", Hex: "brown",
		})
		s.Require().Error(err)
		s.Contains(err.Error(), "hex: must be a 6 digit hex colour")
	})
}

func (s *OrchestratorTestSuite) TestRemoveColorRole() {
	s.seedRoles()

	out, err := s.svc.RemoveColorRole(s.ctx, &roles.RemoveColorRoleInput{GuildID: "g1", Name: "Crimson"})
	s.Require().NoError(err)
	s.Equal("r-red", out.Removed.RoleID)

	_, err = s.svc.RemoveColorRole(s.ctx, &roles.RemoveColorRoleInput{GuildID: "g1", Name: "Crimson"})
	s.True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestPickerFlow() {
	s.seedRoles()

	opened, err := s.svc.OpenPicker(s.ctx, &roles.OpenPickerInput{GuildID: "g1", UserID: "u1"})
	s.Require().NoError(err)
	s.Len(opened.Roles, 2)
	s.Empty(opened.Current)
	s.Equal(interaction.KindRoleSelect, opened.Event.Kind())

	first, err := s.svc.Select(s.ctx, &roles.SelectInput{GuildID: "g1", UserID: "u1", Name: "Crimson"})
	s.Require().NoError(err)
	s.Empty(first.PreviousRoleID)
	s.Equal("r-red", first.RoleID)

	second, err := s.svc.Select(s.ctx, &roles.SelectInput{GuildID: "g1", UserID: "u1", Name: "Teal"})
	s.Require().NoError(err)
	s.Equal("r-red", second.PreviousRoleID)
	s.Equal("r-teal", second.RoleID)

	s.Run("unknown role", func() {
		_, err := s.svc.Select(s.ctx, &roles.SelectInput{GuildID: "g1", UserID: "u1", Name: "Plaid"})
		s.True(errors.IsNotFound(err))
	})

	closed, err := s.svc.ClosePicker(s.ctx, &roles.ClosePickerInput{UserID: "u1"})
	s.Require().NoError(err)
	s.True(closed.Closed)
	s.True(opened.Event.Stopped())

	_, err = s.svc.Select(s.ctx, &roles.SelectInput{GuildID: "g1", UserID: "u1", Name: "Crimson"})
	s.True(errors.IsFailedPrecondition(err))

	reopened, err := s.svc.OpenPicker(s.ctx, &roles.OpenPickerInput{GuildID: "g1", UserID: "u1"})
	s.Require().NoError(err)
	s.Equal("r-teal", reopened.Current)
}

func (s *OrchestratorTestSuite) TestSelectKeepsPickerAlive() {
	s.seedRoles()

	opened, err := s.svc.OpenPicker(s.ctx, &roles.OpenPickerInput{GuildID: "g1", UserID: "u1"})
	s.Require().NoError(err)
	timeout := opened.Event.Timeout()

	s.clock.Advance(timeout - time.Second)
	_, err = s.svc.Select(s.ctx, &roles.SelectInput{GuildID: "g1", UserID: "u1", Name: "Teal"})
	s.Require().NoError(err)

	s.clock.Advance(timeout - time.Second)
	s.False(opened.Event.Stopped())

	s.clock.Advance(time.Second)
	s.True(opened.Event.Stopped())
	s.Equal(interaction.StopReasonTimeout, opened.Event.Reason())
}

func (s *OrchestratorTestSuite) TestReopenSupersedesAndReleases() {
	s.seedRoles()

	var released atomic.Int32
	res := interaction.ResourceFunc(func(context.Context) error {
		released.Add(1)
		return nil
	})

	first, err := s.svc.OpenPicker(s.ctx, &roles.OpenPickerInput{GuildID: "g1", UserID: "u1", Resource: res})
	s.Require().NoError(err)
	_, err = s.svc.OpenPicker(s.ctx, &roles.OpenPickerInput{GuildID: "g1", UserID: "u1"})
	s.Require().NoError(err)

	s.Equal(interaction.StopReasonSuperseded, first.Event.Reason())
	s.Eventually(func() bool { return released.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func (s *OrchestratorTestSuite) TestClosePickerWhenNoneOpen() {
	out, err := s.svc.ClosePicker(s.ctx, &roles.ClosePickerInput{UserID: "u1"})
	s.Require().NoError(err)
	s.False(out.Closed)
}

func (s *OrchestratorTestSuite) TestOpenPickerWithoutRoles() {
	ctrl := gomock.NewController(s.T())
	profiles := profilemock.NewMockService(ctrl)
	svc, err := roles.NewOrchestrator(&roles.Config{ProfileService: profiles})
	s.Require().NoError(err)

	profiles.EXPECT().
		ProfileData(gomock.Any(), &profile.ProfileDataInput{ProfileType: entities.ProfileTypeGuild, Identity: "g1"}).
		Return(&profile.ProfileDataOutput{Profile: entities.NewProfile(entities.ProfileTypeGuild, "g1")}, nil)

	_, err = svc.OpenPicker(s.ctx, &roles.OpenPickerInput{GuildID: "g1", UserID: "u1"})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *OrchestratorTestSuite) TestOpenPickerRegistrationFailure() {
	ctrl := gomock.NewController(s.T())
	profiles := profilemock.NewMockService(ctrl)
	svc, err := roles.NewOrchestrator(&roles.Config{ProfileService: profiles})
	s.Require().NoError(err)

	guild := entities.NewProfile(entities.ProfileTypeGuild, "g1")
	guild.Guild.ColorRoles = []entities.ColorRole{{Name: "Teal", RoleID: "r-teal", Hex: "#008080"}}

	profiles.EXPECT().ProfileData(gomock.Any(), gomock.Any()).
		Return(&profile.ProfileDataOutput{Profile: guild}, nil)
	profiles.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(nil, errors.Unavailable("profile registry is shutting down"))

	_, err = svc.OpenPicker(s.ctx, &roles.OpenPickerInput{GuildID: "g1", UserID: "u1"})
	s.True(errors.IsUnavailable(err))
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
