package ports

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/certkeep/certkeep/pkg/log"
)

// RuleComment tags every iptables rule owned by certkeep so rules can
// be found again and never confused with rules from other tooling.
const RuleComment = "certkeep"

// Issuance in standalone mode needs one of these bound by the client.
var issuancePorts = []int{80, 443}

// Runner executes an external command and returns its combined output.
// Swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Coordinator manages the firewall-level availability of ports 80/443.
// Ports are opened once during installation; before each issuance
// attempt the live rule state is read fresh, never cached.
type Coordinator struct {
	run    Runner
	logger zerolog.Logger
}

// NewCoordinator creates a new port coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{
		run:    execRunner,
		logger: log.WithComponent("ports"),
	}
}

// NewCoordinatorWithRunner creates a coordinator with a custom command
// runner, for tests.
func NewCoordinatorWithRunner(run Runner) *Coordinator {
	return &Coordinator{
		run:    run,
		logger: log.WithComponent("ports"),
	}
}

// OpenIssuancePorts installs tagged ACCEPT rules for ports 80 and 443.
// Called once during installation as a standing precondition for all
// future issuance attempts.
func (c *Coordinator) OpenIssuancePorts(ctx context.Context) error {
	for _, port := range issuancePorts {
		if err := c.open(ctx, port); err != nil {
			return err
		}
	}
	return nil
}

// open adds the ACCEPT rule for a port unless it is already present.
func (c *Coordinator) open(ctx context.Context, port int) error {
	rule := acceptRule(port)

	// -C exits non-zero when the rule is absent.
	if _, err := c.run(ctx, "iptables", append([]string{"-C"}, rule...)...); err == nil {
		c.logger.Debug().Int("port", port).Msg("port already open")
		return nil
	}

	output, err := c.run(ctx, "iptables", append([]string{"-A"}, rule...)...)
	if err != nil {
		return fmt.Errorf("failed to open port %d: %w (output: %s)", port, err, string(output))
	}

	c.logger.Info().Int("port", port).Msg("opened port")
	return nil
}

// acceptRule builds the rule spec shared by -C and -A.
func acceptRule(port int) []string {
	return []string{
		"INPUT",
		"-p", "tcp",
		"--dport", fmt.Sprintf("%d", port),
		"-m", "comment",
		"--comment", RuleComment,
		"-j", "ACCEPT",
	}
}

// OpenPorts returns the set of ports currently opened by certkeep, as
// "80/tcp"-style entries parsed from the live iptables INPUT chain.
func (c *Coordinator) OpenPorts(ctx context.Context) ([]string, error) {
	output, err := c.run(ctx, "iptables", "-S", "INPUT")
	if err != nil {
		return nil, fmt.Errorf("failed to list INPUT rules: %w (output: %s)", err, string(output))
	}

	var open []string
	for _, line := range strings.Split(string(output), "\n") {
		port, proto, ok := parseRule(line)
		if ok {
			open = append(open, fmt.Sprintf("%s/%s", port, proto))
		}
	}
	return open, nil
}

// parseRule extracts the port and protocol from one iptables -S line,
// returning ok only for rules carrying our comment tag.
func parseRule(line string) (port, proto string, ok bool) {
	fields := strings.Fields(line)
	proto = "tcp"
	tagged := false
	for i := 0; i < len(fields)-1; i++ {
		switch fields[i] {
		case "-p":
			proto = fields[i+1]
		case "--dport":
			port = fields[i+1]
		case "--comment":
			if strings.Trim(fields[i+1], `"`) == RuleComment {
				tagged = true
			}
		}
	}
	return port, proto, tagged && port != ""
}

// EnsureAvailable reports whether an issuance attempt can proceed: true
// only if port 80 or 443 is already open for certkeep's own use. It has
// no side effects; when neither port is open the caller defers the
// attempt to a later cycle.
func (c *Coordinator) EnsureAvailable(ctx context.Context) (bool, error) {
	open, err := c.OpenPorts(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range open {
		if p == "80/tcp" || p == "443/tcp" {
			return true, nil
		}
	}
	return false, nil
}
