package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"roombook/api"
	"roombook/config"
	"roombook/logging"
	"roombook/storage"

	"github.com/spf13/cobra"
)

var (
	outputJSON    bool
	outputCompact bool
	verbose       bool
	logFormat     string
	baseURL       string
	cfg           = config.Default()
	client        = api.NewClient()
	logger        = slog.Default()
	credentials   *storage.Credentials
)

var rootCmd = &cobra.Command{
	Use:   "roombook",
	Short: "Room booking CLI for students, security staff and admins",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON && outputCompact {
			return fmt.Errorf("choose either --json or --compact")
		}
		return setup(cmd)
	},
	SilenceUsage: true,
}

func Execute() {
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(roomsCmd())
	rootCmd.AddCommand(bookingsCmd())
	rootCmd.AddCommand(guardCmd())
	rootCmd.AddCommand(adminCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVar(&outputCompact, "compact", false, "Output compact text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and fallbacks to stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend API base URL (overrides config)")
}

// setup loads settings, builds the logger and prepares the shared client.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	format := cfg.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	logger, err = logging.New(os.Stderr, level, format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	client.BaseURL = cfg.BaseURL
	client.Timeout = cfg.Timeout
	client.Logger = logger

	credentials, err = storage.LoadCredentials()
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	if credentials != nil {
		client.AccessToken = credentials.AccessToken
	}

	cmd.SetContext(logging.ContextWithLogger(cmd.Context(), logger))
	return nil
}

// currentRole is the role from the saved session, or "" when logged out.
func currentRole() string {
	if credentials == nil {
		return ""
	}
	return credentials.Role
}
