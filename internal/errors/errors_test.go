package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestNewError() {
	testCases := []struct {
		name     string
		code     errors.Code
		message  string
		expected string
	}{
		{
			name:     "already exists",
			code:     errors.CodeAlreadyExists,
			message:  "Duplicate Interaction Event",
			expected: "ALREADY_EXISTS: Duplicate Interaction Event",
		},
		{
			name:     "invalid argument",
			code:     errors.CodeInvalidArgument,
			message:  "Invalid Interaction Event Type",
			expected: "INVALID_ARGUMENT: Invalid Interaction Event Type",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Equal(tc.expected, err.Error())
			s.Equal(tc.code, err.Code)
			s.Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestWithMeta() {
	err := errors.AlreadyExists("Duplicate Interaction Event").
		WithMeta("identity", "user-1").
		WithMeta("kind", "battle")

	s.Equal("user-1", err.Meta["identity"])
	s.Equal("battle", err.Meta["kind"])
}

func (s *ErrorsTestSuite) TestWrap() {
	baseErr := fmt.Errorf("connection refused")
	wrapped := errors.Wrap(baseErr, "failed to save profile")

	s.Equal(errors.CodeInternal, wrapped.Code)
	s.Equal("failed to save profile", wrapped.Message)
	s.Equal(baseErr, wrapped.Unwrap())
}

func (s *ErrorsTestSuite) TestWrapPreservesCodeAndMeta() {
	baseErr := errors.NotFound("document not found").WithMeta("collection", "users")
	wrapped := errors.Wrapf(baseErr, "failed to load %s", "user-1")

	s.Equal(errors.CodeNotFound, wrapped.Code)
	s.Equal("failed to load user-1", wrapped.Message)
	s.Equal("users", wrapped.Meta["collection"])
	s.True(errors.IsNotFound(wrapped))
}

func (s *ErrorsTestSuite) TestWrapWithCode() {
	baseErr := errors.Internal("boom").WithMeta("attempt", 3)
	wrapped := errors.WrapWithCode(baseErr, errors.CodeUnavailable, "store unavailable")

	s.Equal(errors.CodeUnavailable, wrapped.Code)
	s.Equal(3, wrapped.Meta["attempt"])
	s.Equal(baseErr, wrapped.Unwrap())
}

func (s *ErrorsTestSuite) TestWrapNil() {
	s.Nil(errors.Wrap(nil, "should be nil"))
	s.Nil(errors.WrapWithCode(nil, errors.CodeNotFound, "should be nil"))
}

func (s *ErrorsTestSuite) TestErrorIs() {
	s.True(errors.Is(errors.NotFound("a"), errors.NotFound("b")))
	s.False(errors.Is(errors.NotFound("a"), errors.InvalidArgument("a")))
}

func (s *ErrorsTestSuite) TestGetters() {
	err := errors.FailedPrecondition("role picker expired").WithMeta("identity", "user-1")
	wrapped := errors.Wrap(err, "select failed")

	s.Equal(errors.CodeFailedPrecondition, errors.GetCode(wrapped))
	s.Equal(errors.CodeOK, errors.GetCode(nil))
	s.Equal(errors.CodeInternal, errors.GetCode(fmt.Errorf("plain")))
	s.Equal("user-1", errors.GetMeta(wrapped)["identity"])
	s.Nil(errors.GetMeta(fmt.Errorf("plain")))
	s.Equal("select failed", errors.GetMessage(wrapped))
	s.Equal("plain", errors.GetMessage(fmt.Errorf("plain")))
}

func (s *ErrorsTestSuite) TestUserMessage() {
	s.Equal("Duplicate Interaction Event", errors.UserMessage(errors.AlreadyExists("Duplicate Interaction Event")))
	s.Equal("Something went wrong, please try again later.", errors.UserMessage(errors.Internal("redis timeout")))
	s.Equal("Something went wrong, please try again later.", errors.UserMessage(fmt.Errorf("raw")))
	s.Empty(errors.UserMessage(nil))
}

func (s *ErrorsTestSuite) TestValidationBuilder() {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("name", " ", vb)
	errors.ValidateMaxLength("link", "https://docs.example.com/very/long", 10, vb)
	errors.ValidateEnum("type", "planet", []string{"user", "guild"}, vb)
	errors.ValidateRange("rounds", 0, 1, 50, vb)

	err := vb.Build()
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	s.Equal(
		"validation failed: link: must be no more than 10 characters; name: is required; "+
			"rounds: must be between 1 and 50; type: must be one of: user, guild",
		errors.GetMessage(err),
	)
	s.NotNil(errors.GetMeta(err)["validation_errors"])
}

func (s *ErrorsTestSuite) TestValidationBuilderNoErrors() {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("name", "Aria", vb)
	s.NoError(vb.Build())
}
