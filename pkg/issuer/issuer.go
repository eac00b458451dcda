package issuer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/certkeep/certkeep/pkg/log"
	"github.com/certkeep/certkeep/pkg/metrics"
	"github.com/certkeep/certkeep/pkg/service"
	"github.com/certkeep/certkeep/pkg/types"
)

// nothingDueMarker in the renewal client's output signals that no
// certificate was close enough to expiry to renew.
const nothingDueMarker = "No renewals were attempted."

// Reporter is the outward status channel.
type Reporter interface {
	Report(state types.StatusState, message string)
}

// Runner executes an external command and returns its combined output.
// Swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Issuer drives the external issuance client. It creates certificates
// for pending requests and performs renewals, yielding the web
// service's listening ports around every disruptive invocation.
type Issuer struct {
	clientBin string
	liveDir   string
	svc       *service.Controller
	reporter  Reporter
	run       Runner
	logger    zerolog.Logger
}

// Config holds issuer construction parameters.
type Config struct {
	// ClientBin is the issuance client binary.
	ClientBin string
	// LiveDir is where the client keeps per-FQDN certificate
	// directories.
	LiveDir string
	// Service is the web service to yield ports from.
	Service *service.Controller
	// Reporter receives status updates.
	Reporter Reporter
	// Run overrides command execution, for tests.
	Run Runner
}

// New creates a new issuer
func New(cfg Config) *Issuer {
	run := cfg.Run
	if run == nil {
		run = execRunner
	}
	return &Issuer{
		clientBin: cfg.ClientBin,
		liveDir:   cfg.LiveDir,
		svc:       cfg.Service,
		reporter:  cfg.Reporter,
		run:       run,
		logger:    log.WithComponent("issuer"),
	}
}

// CreateCertificates processes requests in sequence order. It returns
// true iff every request was either already satisfied or newly issued.
// The first hard failure reports blocked status and aborts the
// remaining requests; earlier successes keep their certificates. An
// empty batch is a no-op, not an error.
func (i *Issuer) CreateCertificates(ctx context.Context, requests []*types.CertificateRequest) bool {
	for _, req := range requests {
		if i.certificateExists(req) {
			// An existing certificate for any of the names is
			// never overwritten by this path.
			i.logger.Info().Strs("fqdns", req.FQDNs).Msg("certificate already exists, skipping request")
			continue
		}

		if !i.issue(ctx, req) {
			return false
		}
	}
	return true
}

// certificateExists reports whether any FQDN of the request already has
// a certificate directory.
func (i *Issuer) certificateExists(req *types.CertificateRequest) bool {
	for _, fqdn := range req.FQDNs {
		info, err := os.Stat(filepath.Join(i.liveDir, fqdn))
		if err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// issue runs one standalone issuance with the ports yielded. Returns
// true on success.
func (i *Issuer) issue(ctx context.Context, req *types.CertificateRequest) bool {
	args := []string{"certonly", "--standalone", "--agree-tos", "--non-interactive"}
	for _, fqdn := range req.FQDNs {
		args = append(args, "-d", fqdn)
	}
	if req.ContactEmail != "" {
		args = append(args, "--email", req.ContactEmail)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}

	var output []byte
	invoked := false
	err := i.svc.WithYielded(ctx, func() error {
		invoked = true
		var runErr error
		output, runErr = i.run(ctx, i.clientBin, args...)
		return runErr
	})

	if err != nil {
		metrics.IssuanceAttempts.WithLabelValues("failure").Inc()
		if !invoked {
			// Stopping the service failed; the client never ran, so
			// the failure is a service-control one, not the client's.
			i.logger.Error().Err(err).Strs("fqdns", req.FQDNs).Msg("could not yield service ports")
			i.reporter.Report(types.StatusBlocked,
				fmt.Sprintf("failed to yield service ports: %v", err))
			return false
		}
		i.logger.Error().Err(err).Strs("fqdns", req.FQDNs).Str("output", string(output)).Msg("issuance failed")
		i.reporter.Report(types.StatusBlocked,
			fmt.Sprintf("letsencrypt registration failed: \n%s", string(output)))
		return false
	}

	metrics.IssuanceAttempts.WithLabelValues("success").Inc()
	fqdnLogger := log.WithFQDN(req.FQDNs[0])
	fqdnLogger.Info().Str("output", string(output)).Msg("certificate issued")
	i.reporter.Report(types.StatusActive, fmt.Sprintf("registered %s", req.FQDNs[0]))
	return true
}

// RenewalDue checks whether a real renewal run is needed. The check
// invocation runs without yielding the ports: it may fail because the
// ports are in use, which still tells us whether a renewal was
// attempted, which is all we need.
func (i *Issuer) RenewalDue(ctx context.Context) bool {
	output, err := i.run(ctx, i.clientBin, "renew", "--agree-tos")
	if err != nil {
		i.logger.Debug().Err(err).Msg("renewal check exited non-zero")
	}
	return !strings.Contains(string(output), nothingDueMarker)
}

// Renew performs the real renewal with the ports yielded and reports
// the outcome. fqdn is the configured name used in the active status
// message.
func (i *Issuer) Renew(ctx context.Context, fqdn string) error {
	var output []byte
	invoked := false
	err := i.svc.WithYielded(ctx, func() error {
		invoked = true
		var runErr error
		output, runErr = i.run(ctx, i.clientBin, "renew", "--agree-tos")
		return runErr
	})

	if err != nil {
		metrics.Renewals.WithLabelValues("failure").Inc()
		if !invoked {
			i.logger.Error().Err(err).Msg("could not yield service ports")
			i.reporter.Report(types.StatusBlocked,
				fmt.Sprintf("failed to yield service ports: %v", err))
			return fmt.Errorf("renewal failed: %w", err)
		}
		i.logger.Error().Err(err).Str("output", string(output)).Msg("renewal failed")
		i.reporter.Report(types.StatusBlocked,
			fmt.Sprintf("letsencrypt renewal failed: \n%s", string(output)))
		return fmt.Errorf("renewal failed: %w", err)
	}

	metrics.Renewals.WithLabelValues("success").Inc()
	fqdnLogger := log.WithFQDN(fqdn)
	fqdnLogger.Info().Str("output", string(output)).Msg("certificate renewed")
	i.reporter.Report(types.StatusActive, fmt.Sprintf("registered %s", fqdn))
	return nil
}
