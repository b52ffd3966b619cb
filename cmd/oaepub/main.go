// Package main provides the oaepub CLI entry point.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/simp-lee/oaepub"
	"github.com/simp-lee/oaepub/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags shared by every command.
var (
	configPath string
	outputDir  string
	imageDirs  []string
	workers    int
	logLevel   string
	jsonOutput bool
	noValidate bool
	noClobber  bool
	reportJSON string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oaepub",
	Short: "Convert open access journal articles to ePub",
	Long: `oaepub converts Journal Publishing Tag Set (JPTS) article XML into
ePub 2 packages.

Articles from PLoS (10.1371) and Frontiers (10.3389) are supported. A
package can hold a single article or a collection of articles.

Settings are read from oaepub.yml, then OAEPUB_* environment variables
(a .env file is honored), then command-line flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultFile, "Configuration file")
	pf.StringVarP(&outputDir, "output", "o", "", "Directory receiving the packages")
	pf.StringSliceVar(&imageDirs, "images", nil, "Image directory patterns; * is replaced with the DOI suffix")
	pf.IntVar(&workers, "workers", 0, "Number of articles converted at once")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&jsonOutput, "json", false, "Write results as JSON")
	pf.BoolVar(&noValidate, "no-validate", false, "Skip validation of written packages")
	pf.BoolVar(&noClobber, "no-clobber", false, "Fail instead of overwriting existing packages")
	pf.StringVar(&reportJSON, "report-json", "", "Write the conversion warnings as JSON to this file")
	rootCmd.Version = Version
}

// mustLoadConfig builds the configuration from the file, the environment
// and the flags that were set, exits on error.
func mustLoadConfig(cmd *cobra.Command) config.Config {
	if err := config.LoadDotEnv(); err != nil {
		exitWithError(ExitConfigError, "loading .env: %v", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if cfg, err = config.FromEnv(cfg, os.LookupEnv); err != nil {
		exitWithError(ExitConfigError, "reading environment: %v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("images") {
		cfg.ImagePatterns = imageDirs
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if noValidate {
		cfg.Validate = false
	}
	if noClobber {
		cfg.Overwrite = false
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// newLogger returns a logger writing to stderr at the configured level.
// JSON output switches the log encoding to JSON as well.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	zc.Sampling = nil
	if !jsonOutput {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zc.Build()
}

// mustConverter loads the configuration and creates a converter with its
// logger. The caller syncs the logger.
func mustConverter(cmd *cobra.Command) (*oaepub.Converter, *zap.Logger) {
	cfg := mustLoadConfig(cmd)
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		exitWithError(ExitConfigError, "creating logger: %v", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		exitWithError(ExitConfigError, "creating output directory: %v", err)
	}
	return oaepub.New(cfg, oaepub.WithLogger(log)), log
}
