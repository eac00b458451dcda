package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certkeep/certkeep/pkg/config"
	"github.com/certkeep/certkeep/pkg/cron"
	"github.com/certkeep/certkeep/pkg/issuer"
	"github.com/certkeep/certkeep/pkg/lifecycle"
	"github.com/certkeep/certkeep/pkg/log"
	"github.com/certkeep/certkeep/pkg/ports"
	"github.com/certkeep/certkeep/pkg/service"
	"github.com/certkeep/certkeep/pkg/store"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const defaultConfigPath = "/etc/certkeep/certkeep.yaml"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "certkeep",
	Short: "Certkeep - Unattended TLS certificate issuance and renewal",
	Long: `Certkeep automates issuance and renewal of Let's Encrypt TLS
certificates on hosts that also run a web service on ports 80/443,
yielding the listening ports to the issuance client only for as long
as an issuance or renewal actually needs them.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Certkeep version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Path to the config file")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(renewCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadConfig reads the config file named by --config and initializes
// logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	return cfg, path, nil
}

// buildCoordinator wires the coordinator and its collaborators over an
// open store.
func buildCoordinator(cfg *config.Config, configPath string, st store.Store) *lifecycle.Coordinator {
	svc := service.NewController(cfg.ServiceName)
	reporter := lifecycle.NewStatusReporter(st)

	is := issuer.New(issuer.Config{
		ClientBin: cfg.ClientBin,
		LiveDir:   cfg.LiveDir,
		Service:   svc,
		Reporter:  reporter,
	})

	exe, err := os.Executable()
	if err != nil {
		exe = "certkeep"
	}
	sched := cron.NewScheduler(fmt.Sprintf("%s --config %s renew --request", exe, configPath))

	return lifecycle.New(lifecycle.Config{
		Cfg:        cfg,
		ConfigPath: configPath,
		Store:      st,
		Ports:      ports.NewCoordinator(),
		Issuer:     is,
		Scheduler:  sched,
		Reporter:   reporter,
	})
}
