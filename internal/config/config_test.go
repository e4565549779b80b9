package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-community-bot/internal/config"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigTestSuite) writeFile(body string) string {
	path := filepath.Join(s.dir, "rpgbot.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := config.Load(config.New(), "")
	s.Require().NoError(err)

	s.Equal(config.BackendMemory, cfg.Store.Backend)
	s.Equal("localhost:6379", cfg.Redis.Endpoint)
	s.Equal(10*time.Second, cfg.Session.DefaultTimeout)
	s.Equal(3, cfg.Session.SaveRetries)
	s.Equal(200*time.Millisecond, cfg.Session.RetryInterval)
	s.Equal("data/catalog.yaml", cfg.Data.Catalog)
	s.Equal("info", cfg.Log.Level)
	s.Equal("text", cfg.Log.Format)
	s.Empty(cfg.KindTimeouts())
}

func (s *ConfigTestSuite) TestFileOverridesDefaults() {
	path := s.writeFile(`
store:
  backend: redis
redis:
  endpoint: cache:6380
  pool_size: 4
session:
  default_timeout: 20s
  timeouts:
    battle: 45s
log:
  level: debug
  format: json
`)

	cfg, err := config.Load(config.New(), path)
	s.Require().NoError(err)

	s.Equal(config.BackendRedis, cfg.Store.Backend)
	s.Equal("cache:6380", cfg.Redis.Endpoint)
	s.Equal(4, cfg.Redis.PoolSize)
	s.Equal(20*time.Second, cfg.Session.DefaultTimeout)
	s.Equal("json", cfg.Log.Format)

	timeouts := cfg.KindTimeouts()
	s.Equal(45*time.Second, timeouts[interaction.KindBattle])
	s.Equal(20*time.Second, timeouts[interaction.KindInventory])
	s.Equal(20*time.Second, timeouts[interaction.KindEdit])
	s.NotContains(timeouts, interaction.KindApproval)
}

func (s *ConfigTestSuite) TestEnvironmentOverridesFile() {
	path := s.writeFile(`
session:
  save_retries: 2
`)
	s.T().Setenv("RPGBOT_SESSION_SAVE_RETRIES", "7")
	s.T().Setenv("RPGBOT_LOG_LEVEL", "warn")

	cfg, err := config.Load(config.New(), path)
	s.Require().NoError(err)

	s.Equal(7, cfg.Session.SaveRetries)
	s.Equal("warn", cfg.Log.Level)
}

func (s *ConfigTestSuite) TestMissingExplicitFile() {
	_, err := config.Load(config.New(), filepath.Join(s.dir, "absent.yaml"))
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *ConfigTestSuite) TestValidation() {
	testCases := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name:   "unknown backend",
			body:   "store:\n  backend: postgres\n",
			fields: []string{"store.backend"},
		},
		{
			name:   "redis without endpoint",
			body:   "store:\n  backend: redis\nredis:\n  endpoint: \"\"\n",
			fields: []string{"redis.endpoint"},
		},
		{
			name:   "bad session values",
			body:   "session:\n  default_timeout: 0s\n  save_retries: 0\n",
			fields: []string{"session.default_timeout", "session.save_retries"},
		},
		{
			name:   "unknown kind timeout",
			body:   "session:\n  timeouts:\n    duel: 5s\n",
			fields: []string{"session.timeouts"},
		},
		{
			name:   "bad log level",
			body:   "log:\n  level: loud\n",
			fields: []string{"log.level"},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := config.Load(config.New(), s.writeFile(tc.body))
			s.Require().Error(err)
			s.True(errors.IsInvalidArgument(err))

			meta := errors.GetMeta(err)
			fields, ok := meta["validation_errors"].(map[string][]string)
			s.Require().True(ok)
			for _, f := range tc.fields {
				s.Contains(fields, f)
			}
		})
	}
}

func (s *ConfigTestSuite) TestSlogLevel() {
	cfg := &config.Config{Log: config.LogConfig{Level: "DEBUG"}}
	s.Equal("DEBUG", cfg.SlogLevel().String())

	cfg.Log.Level = "error"
	s.Equal("ERROR", cfg.SlogLevel().String())

	cfg.Log.Level = ""
	s.Equal("INFO", cfg.SlogLevel().String())
}
