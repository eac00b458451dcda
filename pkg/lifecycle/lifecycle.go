package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/certkeep/certkeep/pkg/config"
	"github.com/certkeep/certkeep/pkg/cron"
	"github.com/certkeep/certkeep/pkg/issuer"
	"github.com/certkeep/certkeep/pkg/log"
	"github.com/certkeep/certkeep/pkg/metrics"
	"github.com/certkeep/certkeep/pkg/ports"
	"github.com/certkeep/certkeep/pkg/store"
	"github.com/certkeep/certkeep/pkg/types"
)

// clientPackage is the distribution package providing the issuance
// client.
const clientPackage = "letsencrypt"

// Runner executes an external command and returns its combined output.
// Swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Coordinator sequences the other components in response to lifecycle
// events. Events are handled to completion, one at a time; the daemon's
// single consumer goroutine is the only caller of Dispatch, so no
// transition ever interleaves with another.
type Coordinator struct {
	cfg        *config.Config
	configPath string
	store      store.Store
	ports      *ports.Coordinator
	issuer     *issuer.Issuer
	sched      *cron.Scheduler
	reporter   issuer.Reporter
	run        Runner
	osRelease  string
	logger     zerolog.Logger
}

// Config holds coordinator construction parameters.
type Config struct {
	// Cfg is the loaded configuration.
	Cfg *config.Config
	// ConfigPath, when set, is re-read on config-changed events.
	ConfigPath string
	// Store is the durable state.
	Store store.Store
	// Ports coordinates firewall availability of 80/443.
	Ports *ports.Coordinator
	// Issuer drives the external client.
	Issuer *issuer.Issuer
	// Scheduler manages the periodic renewal job.
	Scheduler *cron.Scheduler
	// Reporter receives status updates.
	Reporter issuer.Reporter
	// Run overrides command execution, for tests.
	Run Runner
	// OSRelease overrides the os-release path, for tests.
	OSRelease string
}

// New creates a new coordinator
func New(cfg Config) *Coordinator {
	run := cfg.Run
	if run == nil {
		run = execRunner
	}
	osRelease := cfg.OSRelease
	if osRelease == "" {
		osRelease = "/etc/os-release"
	}
	return &Coordinator{
		cfg:        cfg.Cfg,
		configPath: cfg.ConfigPath,
		store:      cfg.Store,
		ports:      cfg.Ports,
		issuer:     cfg.Issuer,
		sched:      cfg.Scheduler,
		reporter:   cfg.Reporter,
		run:        run,
		osRelease:  osRelease,
		logger:     log.WithComponent("lifecycle"),
	}
}

// Dispatch handles one lifecycle event to completion.
func (c *Coordinator) Dispatch(ctx context.Context, ev *types.Event) error {
	metrics.EventsHandled.WithLabelValues(string(ev.Type)).Inc()
	eventLogger := log.WithEvent(string(ev.Type))
	eventLogger.Debug().Msg("handling event")

	switch ev.Type {
	case types.EventInstall:
		return c.handleInstall(ctx)
	case types.EventConfigChanged:
		if err := c.handleConfigChanged(); err != nil {
			return err
		}
		return c.cycle(ctx)
	case types.EventCertificateRequested:
		if ev.Request != nil {
			if err := c.store.AppendRequest(ev.Request); err != nil {
				return fmt.Errorf("failed to queue request: %w", err)
			}
		}
		return c.cycle(ctx)
	case types.EventUpdateStatus:
		return c.cycle(ctx)
	default:
		c.logger.Warn().Str("event", string(ev.Type)).Msg("ignoring unknown event")
		return nil
	}
}

// cycle runs the registration pass and then the renewal pass. Client
// failures never propagate; they are translated into status at the
// point of invocation.
func (c *Coordinator) cycle(ctx context.Context) error {
	if err := c.registerServer(ctx); err != nil {
		return err
	}
	return c.renewCert(ctx)
}

// handleInstall performs one-time activation: platform check, client
// installation, port opening. Idempotent; an unsupported platform halts
// in a blocked state with no further transitions possible.
func (c *Coordinator) handleInstall(ctx context.Context) error {
	installed, err := c.store.Installed()
	if err != nil {
		return err
	}
	if installed {
		return nil
	}

	if err := CheckPlatform(c.osRelease); err != nil {
		c.logger.Error().Err(err).Msg("platform check failed")
		c.reporter.Report(types.StatusBlocked, fmt.Sprintf("Unsupported platform: %v", err))
		return nil
	}

	output, err := c.run(ctx, "apt-get", "install", "-y", clientPackage)
	if err != nil {
		c.reporter.Report(types.StatusBlocked,
			fmt.Sprintf("failed to install %s: \n%s", clientPackage, string(output)))
		return nil
	}

	// Open ports during installation so the first registration attempt
	// does not have to wait for a later cycle to find them open.
	if err := c.ports.OpenIssuancePorts(ctx); err != nil {
		c.reporter.Report(types.StatusBlocked, fmt.Sprintf("failed to open ports: %v", err))
		return nil
	}

	if err := c.store.SetInstalled(true); err != nil {
		return err
	}
	c.logger.Info().Msg("installation complete")
	return nil
}

// handleConfigChanged reloads the config file and resets the
// registration status when the fqdn value changed from a
// previously-set value or was newly set, forcing the request pipeline
// to re-run for the new target set.
func (c *Coordinator) handleConfigChanged() error {
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}

	prev, err := c.store.LastFQDN()
	if err != nil {
		return err
	}
	if c.cfg.FQDN == prev {
		return nil
	}

	c.logger.Info().Str("previous", prev).Str("fqdn", c.cfg.FQDN).Msg("fqdn changed, clearing registration")
	if err := c.store.SetRegistered(false); err != nil {
		return err
	}
	metrics.Registered.Set(0)
	return c.store.SetLastFQDN(c.cfg.FQDN)
}

// registerServer runs one issuance pass over the pending requests plus
// the configured fqdn. Gated on installation, the disable flag, the
// registered flag, and port availability.
func (c *Coordinator) registerServer(ctx context.Context) error {
	installed, err := c.store.Installed()
	if err != nil {
		return err
	}
	registered, err := c.store.Registered()
	if err != nil {
		return err
	}
	if !installed || registered || c.cfg.Disable {
		return nil
	}

	requests, err := c.store.PendingRequests()
	if err != nil {
		return err
	}
	if len(requests) == 0 && c.cfg.FQDN == "" {
		return nil
	}
	if c.cfg.FQDN != "" {
		requests = append(requests, &types.CertificateRequest{
			FQDNs:        []string{c.cfg.FQDN},
			ContactEmail: c.cfg.ContactEmail,
		})
	}
	metrics.PendingRequests.Set(float64(len(requests)))

	// Ports may not have been opened yet if installation ran in an
	// earlier process lifetime before the firewall was ready.
	available, err := c.ports.EnsureAvailable(ctx)
	if err != nil {
		return err
	}
	if !available {
		c.reporter.Report(types.StatusWaiting,
			"Waiting for ports to open (will happen in next cycle)")
		return nil
	}

	ok := c.issuer.CreateCertificates(ctx, requests)

	// The batch is consumed by the attempt, success or not. A failed
	// request is re-attempted only when resubmitted.
	if err := c.store.DrainRequests(); err != nil {
		return err
	}
	metrics.PendingRequests.Set(0)

	if !ok {
		return nil
	}

	if err := c.sched.Arm(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to arm renewal job")
	}
	if err := c.installDHParam(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to install dhparam file")
	}
	if err := c.store.SetRegistered(true); err != nil {
		return err
	}
	// Record the fqdn we registered with so a config reload with an
	// unchanged value does not replay the pipeline.
	if err := c.store.SetLastFQDN(c.cfg.FQDN); err != nil {
		return err
	}
	metrics.Registered.Set(1)
	return nil
}

// renewCert handles a pending renewal request. The requested signal is
// consumed before the outcome is known, so a crash mid-renewal cannot
// retry before the next scheduled trigger.
func (c *Coordinator) renewCert(ctx context.Context) error {
	// The cron trigger signals through a sentinel file because the
	// daemon holds the database lock. Transfer it to the durable flag
	// before the gates so a gated cycle still remembers the request.
	signaled, err := store.ConsumeRenewalSignal(c.cfg.DataDir)
	if err != nil {
		return err
	}
	if signaled {
		if err := c.store.SetRenewRequested(true); err != nil {
			return err
		}
	}

	installed, err := c.store.Installed()
	if err != nil {
		return err
	}
	registered, err := c.store.Registered()
	if err != nil {
		return err
	}
	requested, err := c.store.RenewRequested()
	if err != nil {
		return err
	}
	if !installed || !registered || !requested || c.cfg.Disable || c.cfg.DisableRenew {
		return nil
	}

	if err := c.store.SetRenewRequested(false); err != nil {
		return err
	}

	// Don't stop the web service if no renewal is needed.
	metrics.RenewalChecks.Inc()
	if !c.issuer.RenewalDue(ctx) {
		c.logger.Debug().Msg("no renewal due")
		return nil
	}

	c.logger.Info().Msg("renewing certificate")
	// Failure is already reported as blocked by the issuer.
	_ = c.issuer.Renew(ctx, c.cfg.FQDN)
	return nil
}

// installDHParam copies the packaged Diffie-Hellman parameter file to
// its system path. Done once per successful registration.
func (c *Coordinator) installDHParam() error {
	data, err := os.ReadFile(c.cfg.DHParamSource)
	if err != nil {
		return fmt.Errorf("failed to read dhparam source: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.cfg.DHParamTarget), 0755); err != nil {
		return fmt.Errorf("failed to create dhparam dir: %w", err)
	}
	if err := os.WriteFile(c.cfg.DHParamTarget, data, 0644); err != nil {
		return fmt.Errorf("failed to write dhparam target: %w", err)
	}
	return nil
}
