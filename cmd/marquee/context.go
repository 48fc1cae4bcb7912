package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"marquee/internal/config"
	"marquee/internal/daemonrun"
	"marquee/internal/logging"
	"marquee/internal/session"
)

type commandContext struct {
	configFlag *string
	userFlag   *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, userFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.rawConfigFlag())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withServices builds the store and service graph, runs fn and closes
// everything again. Logs go to stderr at warn level so they never mix with
// command output.
func (c *commandContext) withServices(fn func(*daemonrun.Components) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	services, err := daemonrun.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()
	return fn(services)
}

// session returns the local user the CLI acts as.
func (c *commandContext) session() (session.Session, error) {
	user := ""
	if c.userFlag != nil {
		user = strings.TrimSpace(*c.userFlag)
	}
	if user == "" {
		user = strings.TrimSpace(os.Getenv("MARQUEE_USER"))
	}
	if user == "" {
		user = "local"
	}
	return session.Local(user)
}

// userContext returns the command context tagged with the local session.
func (c *commandContext) userContext(cmd *cobra.Command) (context.Context, session.Session, error) {
	sess, err := c.session()
	if err != nil {
		return nil, session.Session{}, err
	}
	return session.WithSession(cmd.Context(), sess), sess, nil
}

// configPath returns the --config value handed to child processes, made
// absolute so it survives a different working directory.
func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	path := strings.TrimSpace(*c.configFlag)
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// rawConfigFlag returns the --config value as typed.
func (c *commandContext) rawConfigFlag() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
