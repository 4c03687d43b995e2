package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fiscaltools/painel-nfse/internal/common"
	"github.com/fiscaltools/painel-nfse/internal/dialect"
	"github.com/fiscaltools/painel-nfse/internal/mask"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "painel",
		Short: "NFS-e XML normalization and analysis panel",
		Long: `painel ingests municipal NFS-e XML documents (ABRASF and its many local
variants), normalizes them into a single canonical shape and lets you filter,
browse and export the result, all in memory, one session at a time.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/painel/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add commands
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(dialectsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/painel", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("PAINEL")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	switch format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}

	return common.SetupLogger(slogLevel, format, maskerFromConfig())
}

// maskerFromConfig builds the log masker, honoring overrides from the
// masking section of the config file.
func maskerFromConfig() mask.Masker {
	m := mask.New()
	if viper.IsSet("masking.keep_leading") {
		m.KeepLeading = viper.GetInt("masking.keep_leading")
	}
	if viper.IsSet("masking.keep_trailing") {
		m.KeepTrailing = viper.GetInt("masking.keep_trailing")
	}
	return m
}

// fieldMapFromConfig layers dialect overrides from the config file over the
// built-in field map.
func fieldMapFromConfig() (dialect.Map, error) {
	fm := dialect.Default()
	if !viper.IsSet("dialects") {
		return fm, nil
	}
	var overrides map[string]dialect.Entry
	if err := viper.UnmarshalKey("dialects", &overrides); err != nil {
		return nil, fmt.Errorf("%w: dialects section: %v", common.ErrInvalidConfig, err)
	}
	return fm.Merge(overrides)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("painel version", "version", version)
		},
	}
}
