package service

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/certkeep/certkeep/pkg/log"
)

// Runner executes an external command and returns its combined output.
// Swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Controller manages the web service that shares ports 80/443 with the
// issuance client. An empty service name means there is no service to
// manage and every operation is a no-op.
type Controller struct {
	name   string
	run    Runner
	logger zerolog.Logger
}

// NewController creates a controller for the named systemd service.
func NewController(name string) *Controller {
	return &Controller{
		name:   name,
		run:    execRunner,
		logger: log.WithComponent("service"),
	}
}

// NewControllerWithRunner creates a controller with a custom command
// runner, for tests.
func NewControllerWithRunner(name string, run Runner) *Controller {
	return &Controller{
		name:   name,
		run:    run,
		logger: log.WithComponent("service"),
	}
}

// IsRunning reports whether the service is currently active.
func (c *Controller) IsRunning(ctx context.Context) bool {
	if c.name == "" {
		return false
	}
	// is-active exits non-zero for anything but "active".
	_, err := c.run(ctx, "systemctl", "is-active", "--quiet", c.name)
	return err == nil
}

// Start starts the service.
func (c *Controller) Start(ctx context.Context) error {
	if c.name == "" {
		return nil
	}
	c.logger.Info().Str("service", c.name).Msg("starting service")
	output, err := c.run(ctx, "systemctl", "start", c.name)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w (output: %s)", c.name, err, string(output))
	}
	return nil
}

// Stop stops the service.
func (c *Controller) Stop(ctx context.Context) error {
	if c.name == "" {
		return nil
	}
	c.logger.Info().Str("service", c.name).Msg("stopping running service")
	output, err := c.run(ctx, "systemctl", "stop", c.name)
	if err != nil {
		return fmt.Errorf("failed to stop %s: %w (output: %s)", c.name, err, string(output))
	}
	return nil
}

// WithYielded runs fn with the listening ports yielded to it: if the
// service is running it is stopped first, and it is restarted on every
// exit path (fn success, fn failure, panic) if and only if it was
// running beforehand. The run state is captured before stopping.
func (c *Controller) WithYielded(ctx context.Context, fn func() error) error {
	wasRunning := c.IsRunning(ctx)
	if wasRunning {
		if err := c.Stop(ctx); err != nil {
			return err
		}
		defer func() {
			if err := c.Start(ctx); err != nil {
				c.logger.Error().Err(err).Str("service", c.name).Msg("failed to restart service")
			}
		}()
	}
	return fn()
}
