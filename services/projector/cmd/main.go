package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/config"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
)

var (
	configFile  string
	metricsAddr string
	logLevel    string

	// Build information
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"

	cfg *config.Config
	log *logger.Logger
)

func printVersionInfo() {
	fmt.Printf("projector %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "projector",
	Short: "Project poker records into analytical stores",
	Long: "Projects users, tables, hands, transactions and tournaments from PostgreSQL into MongoDB, " +
		"Neo4j and Cassandra on demand, and serves cached balances from Redis.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("metrics-addr") {
			loaded.Metrics.Address = metricsAddr
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = logLevel
		}
		if err := loaded.ResolveSecrets(); err != nil {
			return err
		}
		cfg = loaded

		log = logger.New("projector", Version)
		log.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		if cfg.Metrics.Address != "" {
			serveMetrics(cfg.Metrics.Address)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// serveMetrics exposes Prometheus metrics for the lifetime of the command.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %v", err)
		}
	}()
	log.Infof("Serving metrics on %s/metrics", addr)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (optional)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on, e.g. :9102")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	setupCommands()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
