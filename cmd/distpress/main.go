package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distpress/internal/config"
	"distpress/internal/freshness"
	"distpress/internal/logger"
	"distpress/internal/pipeline"
	"distpress/internal/report"
	"distpress/internal/web"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile        string
	distDir        string
	algorithm      string
	deleteOriginal bool
	verbose        bool
	quiet          bool
	version        string
	buildTime      string
	port           int
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "distpress [directory]",
	Short: "Compress build artifacts for precompressed serving",
	Long: `distpress compresses the static artifacts produced by a front-end
build so a web server can serve them precompressed.

Features:
- Walks the dist directory and picks compressible artifacts by extension
- gzip, brotli, zstd and deflate codecs with tunable options
- Writes compressed siblings next to the originals (app.js -> app.js.gz)
- Skips files already compressed by a previous run
- Size threshold keeps tiny files uncompressed
- Aggregate size reduction report after every run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompress(args)
	},
}

// scanCmd lists candidate files without compressing anything.
var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "List candidate files without compressing them",
	Long: `Scan the dist directory (or the given directory) and list the files
a compression run would process, without writing anything. This is
useful for checking the filter configuration before a real run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(args)
	},
}

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web interface server",
	Long: `Starts a web server with a graphical interface for distpress.
The web interface allows you to:
- Browse and select directories
- Trigger compression runs and watch per-file progress
- Stop a running operation
- View the latest compression report

Access the interface at http://localhost:<port> (default: 8080)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		v := version
		if v == "" {
			v = "dev"
		}
		fmt.Printf("distpress %s", v)
		if buildTime != "" {
			fmt.Printf(" (built %s)", buildTime)
		}
		fmt.Println()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	rootCmd.Flags().StringVar(&distDir, "dir", "", "dist directory containing build artifacts")
	rootCmd.Flags().StringVar(&algorithm, "algorithm", "", "compression algorithm (gzip, brotli, deflate, deflateRaw, zstd)")
	rootCmd.Flags().BoolVar(&deleteOriginal, "delete-original", false, "remove originals after compressing them")

	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run web server on")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig loads configuration file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.distpress")
		viper.AddConfigPath("/etc/distpress")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// runCompress executes a compression run over the dist directory.
func runCompress(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := freshness.NewCache()
	pipe := pipeline.New(cfg, log, cache, nil)

	rep, err := pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}

	// Per-file failures are reported in the summary but do not fail
	// the command, matching build-tool conventions.
	if len(rep.Errors) > 0 {
		log.Warnf("%d file(s) failed to compress", len(rep.Errors))
	}

	return nil
}

// runScan lists the files a run would compress.
func runScan(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Scanning directory: %s\n", cfg.OutputDirectory)

	log := setupLogger(cfg)
	cache := freshness.NewCache()
	pipe := pipeline.New(cfg, log, cache, nil)

	candidates, err := pipe.Scan(context.Background())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if !quiet {
		fmt.Println("\n==================================================")
		fmt.Println("SCAN RESULTS")
		fmt.Println("==================================================")

		var total int64
		for _, c := range candidates {
			marker := ""
			if c.UpToDate {
				marker = " (up to date)"
			}
			fmt.Printf("  %10s  %s%s\n", report.FormatBytes(c.File.Size), c.File.RelPath, marker)
			total += c.File.Size
		}
		fmt.Printf("\n%d candidate file(s), %s total\n", len(candidates), report.FormatBytes(total))
	}

	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CONFIG LOAD ERROR: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if !cmd.Flags().Changed("port") && cfg.Web.Port > 0 {
		port = cfg.Web.Port
	}

	log := setupLogger(cfg)
	cache := freshness.NewCache()
	server := web.NewServer(cfg, log, cache)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	fmt.Printf("🚀 distpress web interface started!\n")
	fmt.Printf("📱 Open your browser and go to: http://localhost:%d\n", port)
	fmt.Printf("🛑 Press Ctrl+C to stop the server\n\n")

	<-sigChan
	fmt.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("✅ Server stopped gracefully")
	return nil
}

// loadConfig loads configuration and applies CLI overrides.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.OutputDirectory = args[0]
	}
	if distDir != "" {
		cfg.OutputDirectory = distDir
	}
	if algorithm != "" {
		cfg.Algorithm = algorithm
		cfg.OutputExtension = ""
	}
	if deleteOriginal {
		cfg.DeleteOriginal = true
	}
	if verbose {
		cfg.Verbose = true
	}
	if quiet {
		cfg.Verbose = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !dirExists(cfg.OutputDirectory) {
		return nil, fmt.Errorf("directory does not exist: %s", cfg.OutputDirectory)
	}

	return cfg, nil
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// dirExists returns true if the given path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
