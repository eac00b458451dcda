package cron

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/certkeep/certkeep/pkg/log"
)

// JobComment tags the renewal job in the root crontab. It is owned
// exclusively by certkeep: at most one job carries it at a time.
const JobComment = "Renew Let's Encrypt [managed by certkeep]"

// renewalHours follows the issuance backend's guidance: twice a day, at
// a minute randomized per install to spread load across instances.
const renewalHours = "6,18"

// Crontab reads and replaces the root crontab. Swapped out in tests.
type Crontab interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, content string) error
}

type execCrontab struct{}

func (execCrontab) Read(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, "crontab", "-l").CombinedOutput()
	if err != nil {
		// No crontab yet is not an error.
		if strings.Contains(string(output), "no crontab") {
			return "", nil
		}
		return "", fmt.Errorf("failed to read crontab: %w (output: %s)", err, string(output))
	}
	return string(output), nil
}

func (execCrontab) Write(ctx context.Context, content string) error {
	cmd := exec.CommandContext(ctx, "crontab", "-")
	cmd.Stdin = bytes.NewBufferString(content)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to write crontab: %w (output: %s)", err, string(output))
	}
	return nil
}

// Scheduler installs and removes the periodic renewal trigger. The
// job's action only requests a renewal; the actual renewal runs on the
// next event cycle so a single code path owns the
// stop/renew/start sequence.
type Scheduler struct {
	tab     Crontab
	command string
	randInt func(n int) int
	logger  zerolog.Logger
}

// NewScheduler creates a scheduler whose cron job runs the given
// command.
func NewScheduler(command string) *Scheduler {
	return &Scheduler{
		tab:     execCrontab{},
		command: command,
		randInt: rand.Intn,
		logger:  log.WithComponent("cron"),
	}
}

// NewSchedulerWithCrontab creates a scheduler with a custom crontab
// backend and random source, for tests.
func NewSchedulerWithCrontab(command string, tab Crontab, randInt func(n int) int) *Scheduler {
	return &Scheduler{
		tab:     tab,
		command: command,
		randInt: randInt,
		logger:  log.WithComponent("cron"),
	}
}

// Arm installs the renewal job, firing twice daily at a random minute
// (1-59). Any job already carrying the tag is removed first, so
// re-arming never leaves duplicates or orphans.
func (s *Scheduler) Arm(ctx context.Context) error {
	content, err := s.tab.Read(ctx)
	if err != nil {
		return err
	}

	lines := dropTagged(content)
	minute := s.randInt(59) + 1
	job := fmt.Sprintf("%d %s * * * %s # %s", minute, renewalHours, s.command, JobComment)
	lines = append(lines, job)

	if err := s.tab.Write(ctx, strings.Join(lines, "\n")+"\n"); err != nil {
		return err
	}

	s.logger.Info().Int("minute", minute).Msg("renewal job armed")
	return nil
}

// Disarm removes every job carrying the tag.
func (s *Scheduler) Disarm(ctx context.Context) error {
	content, err := s.tab.Read(ctx)
	if err != nil {
		return err
	}

	lines := dropTagged(content)
	joined := ""
	if len(lines) > 0 {
		joined = strings.Join(lines, "\n") + "\n"
	}
	if err := s.tab.Write(ctx, joined); err != nil {
		return err
	}

	s.logger.Info().Msg("renewal job disarmed")
	return nil
}

// dropTagged returns the crontab lines without tagged jobs or trailing
// empties.
func dropTagged(content string) []string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, JobComment) {
			continue
		}
		kept = append(kept, line)
	}
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}
	return kept
}
