package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/pacparse/internal/config"
	"github.com/ossyrian/pacparse/internal/extract"
	"github.com/ossyrian/pacparse/internal/logging"
)

var (
	cfgFile   string
	cfg       *config.Config
	closeLogs func() error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pacparse",
	Short: "Unpack PSP PAC0/PAC1 archives, LZS bundles and TIM2 images",
	Long: `pacparse reads the PAC0.BIN metadata tree and writes every file stored in
PAC1.BIN to disk, decompressing .lzs entries and TIM2 images on the way.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnFinalize(func() {
		if closeLogs != nil {
			closeLogs()
		}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to config file")

	// i/o
	flags.StringP("input", "i", ".", "directory holding the archive files")
	flags.StringP("output", "o", "", "directory to extract to (defaults to input)")
	flags.String("metadata-file", config.DefaultMetadataFile, "metadata file name, relative to input")
	flags.String("payload-file", config.DefaultPayloadFile, "payload file name, relative to input")
	flags.String("root-name", config.DefaultRootName, "label for the root of the metadata tree")

	// decoding
	flags.BoolP("recursive", "r", false, "expand nested archives inside .lzs entries")
	flags.Int("max-depth", config.DefaultMaxDepth, "how many nested .lzs layers to expand")
	flags.Bool("png", false, "render a PNG next to every .tm2 written")
	flags.Int("png-scale", 1, "PNG upscale factor")
	flags.String("color-key", config.DefaultColorKey, "hex RGB made transparent in PNGs, or \"none\"")

	// other opts
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	flags.String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")
	flags.Bool("dry-run", false, "decode without writing output (validation)")

	bindFlags(flags.Lookup, map[string]string{
		"input":          "input",
		"output":         "output",
		"metadata_file":  "metadata-file",
		"payload_file":   "payload-file",
		"root_name":      "root-name",
		"recursive":      "recursive",
		"max_depth":      "max-depth",
		"png":            "png",
		"png_scale":      "png-scale",
		"color_key":      "color-key",
		"log_level":      "log-level",
		"log_output_dir": "log-output-dir",
		"dry_run":        "dry-run",
	})

	rootCmd.AddCommand(extractCmd, lzsCmd, pngCmd, isoCmd, treeCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pacparse"))
		}
		viper.AddConfigPath("/etc/pacparse")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("PACPARSE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup unmarshals the config and installs the logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	closer, err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	closeLogs = closer

	return nil
}

// newExtractor builds an extractor from the loaded config
func newExtractor(opts ...extract.Option) (*extract.Extractor, error) {
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}

	base := []extract.Option{
		extract.WithRecursive(cfg.Recursive),
		extract.WithMaxDepth(cfg.MaxDepth),
		extract.WithPNG(cfg.PNG, cfg.PNGScale),
		extract.WithColorKey(key),
		extract.WithVerify(cfg.Verify),
		extract.WithJobs(cfg.Jobs),
		extract.WithDryRun(cfg.DryRun),
		extract.WithLogger(slog.Default()),
	}

	return extract.New(append(base, opts...)...), nil
}

func logStats(s extract.Stats) {
	slog.Info("done",
		"directories", s.Directories,
		"files", s.Files,
		"written", s.Written,
		"skipped", s.Skipped,
		"warnings", s.Warnings,
		"pngs", s.PNGs,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
