// Package cli implements the jamstack-cms command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
)

// options are flag overrides applied on top of the environment
type options struct {
	cacheDir      string
	outputDir     string
	publicPrefix  string
	logLevel      string
	concurrency   int
	reuseExisting bool
	noIndex       bool
	metricsFile   string
}

// NewRootCmd returns the root command for the jamstack-cms CLI
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "jamstack-cms",
		Short:         "Build static blog pages from the AppSync content API",
		Long:          "jamstack-cms fetches posts from the GraphQL content API, mirrors their bucket images locally and writes page descriptors for the site generator.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "directory downloaded assets are written to (BUILD_CACHE_DIR)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "directory page and node descriptors are written to (BUILD_OUTPUT_DIR)")
	flags.StringVar(&opts.publicPrefix, "public-prefix", "", "prefix rewritten content uses for cached assets (BUILD_PUBLIC_PREFIX)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error (LOG_LEVEL)")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "posts assembled in parallel (BUILD_MAX_CONCURRENCY)")
	flags.BoolVar(&opts.reuseExisting, "reuse-existing", false, "skip assets already present in the cache dir (DOWNLOAD_REUSE_EXISTING)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile on exit (METRICS_TEXTFILE)")

	rootCmd.AddCommand(newBuildCmd(opts))
	rootCmd.AddCommand(newIndexCmd(opts))
	rootCmd.AddCommand(newPreviewCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig loads the environment configuration and applies flags that
// were set explicitly
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("cache-dir") {
		cfg.Build.CacheDir = opts.cacheDir
	}
	if flags.Changed("output-dir") {
		cfg.Build.OutputDir = opts.outputDir
	}
	if flags.Changed("public-prefix") {
		cfg.Build.PublicPrefix = opts.publicPrefix
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("concurrency") {
		cfg.Build.MaxConcurrency = opts.concurrency
	}
	if flags.Changed("reuse-existing") {
		cfg.Download.ReuseExisting = opts.reuseExisting
	}
	if flags.Changed("no-index") && opts.noIndex {
		cfg.Build.IndexOnBuild = false
	}
	if flags.Changed("metrics-file") {
		cfg.Observability.MetricsTextfile = opts.metricsFile
		if opts.metricsFile != "" {
			cfg.Adapters.Metrics = "prometheus"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
