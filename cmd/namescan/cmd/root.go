package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/namescan/internal/batch"
	"github.com/MeKo-Tech/namescan/internal/config"
	"github.com/MeKo-Tech/namescan/internal/ocr"
	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string

	// newEngine creates the OCR engine for commands that recognize.
	newEngine = func(opts ocr.Options) (ocr.Engine, error) {
		return ocr.NewTesseract(opts)
	}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "namescan",
	Short: "Read character names from game nameplate captures",
	Long: `namescan reads the names shown on in-game nameplates from small screen captures
("viewports") and maps each one onto a known vocabulary of names.

Each viewport is cleaned before OCR: every pixel that is not near-white counts as
ink, ink clusters that cross the middle row are kept as letters, clusters that are
too large or touch the border are dropped as clutter, and everything else is
painted white. The cleaned black-on-white image goes to Tesseract and the
transcript is resolved to the nearest vocabulary entry by edit distance.

Examples:
  namescan recognize captures/ --vocabulary names.txt
  namescan segment plate.png --out cleaned/
  namescan watch --dir captures/ --vocabulary names.txt
  namescan serve --port 8080`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetBool("version")
		if v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/namescan, /etc/namescan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("vocabulary", "", "file with one known name per line")
	rootCmd.PersistentFlags().StringSlice("names", nil, "known names, in addition to the vocabulary file")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("vocabulary.path", rootCmd.PersistentFlags().Lookup("vocabulary"))
	_ = viper.BindPFlag("vocabulary.names", rootCmd.PersistentFlags().Lookup("names"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}
		cfg := GetConfig()

		logLevel := parseLogLevel(cfg.LogLevel)
		if cfg.Verbose {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initConfig reads in config file and ENV variables if set. Validation is
// left to the commands, which need different parts of the configuration.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFileWithoutValidation(cfgFile)
	} else {
		globalConfig, err = configLoader.LoadWithoutValidation()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the configuration with bound CLI flags applied.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// buildRecognizer validates cfg and assembles a recognizer around a new
// OCR engine.
func buildRecognizer(cfg *config.Config, progress pipeline.ProgressCallback) (*pipeline.Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	engine, err := newEngine(cfg.ToOCROptions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
	}
	rec, err := batch.BuildRecognizer(cfg, engine, progress)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	return rec, nil
}
