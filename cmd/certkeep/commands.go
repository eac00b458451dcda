package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/certkeep/certkeep/pkg/store"
	"github.com/certkeep/certkeep/pkg/types"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install the issuance client and open ports 80/443",
	Long: `Perform one-time activation: verify the host platform, install the
issuance client, and open ports 80/443 as a standing precondition for
all future issuance attempts. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchOneShot(cmd, &types.Event{Type: types.EventInstall})
	},
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a certificate for one or more domains",
	Long: `Queue a certificate request and process it immediately.

All domains named with -d end up on a single certificate. A request
that fails is consumed, not retried; run request again to re-attempt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domains, _ := cmd.Flags().GetStringArray("domain")
		email, _ := cmd.Flags().GetString("email")
		if len(domains) == 0 {
			return fmt.Errorf("at least one --domain is required")
		}

		return dispatchOneShot(cmd, &types.Event{
			Type: types.EventCertificateRequested,
			Request: &types.CertificateRequest{
				ID:           uuid.New().String(),
				FQDNs:        domains,
				ContactEmail: email,
				CreatedAt:    time.Now(),
			},
		})
	},
}

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Request a certificate renewal",
	Long: `Set the renewal-requested signal.

The signal is a sentinel file in the data directory, not a database
write, so the cron-installed form (--request) works while the daemon
holds the database lock; the renewal itself runs on the daemon's next
event cycle, which owns the stop/renew/restart sequence. Without
--request an event cycle is run immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		requestOnly, _ := cmd.Flags().GetBool("request")

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := store.SignalRenewal(cfg.DataDir); err != nil {
			return err
		}
		if requestOnly {
			return nil
		}
		return dispatchOneShot(cmd, &types.Event{Type: types.EventUpdateStatus})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last reported status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := store.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		registered, err := st.Registered()
		if err != nil {
			return err
		}
		last, err := st.LastStatus()
		if err != nil {
			return err
		}

		fmt.Printf("Registered: %v\n", registered)
		if last == nil {
			fmt.Println("Status: (none reported yet)")
			return nil
		}
		fmt.Printf("Status: %s\n", last.State)
		fmt.Printf("Message: %s\n", last.Message)
		fmt.Printf("Reported: %s\n", last.ReportedAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	requestCmd.Flags().StringArrayP("domain", "d", nil, "Domain to include on the certificate (repeatable)")
	requestCmd.Flags().String("email", "", "Contact email for the issuance account")

	renewCmd.Flags().Bool("request", false, "Only set the renewal signal, do not run a cycle")
}

// dispatchOneShot opens the store, wires a coordinator, and handles a
// single event to completion the way the daemon's consumer would.
func dispatchOneShot(cmd *cobra.Command, ev *types.Event) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	coord := buildCoordinator(cfg, configPath, st)
	return coord.Dispatch(context.Background(), ev)
}
