package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathstalk/pathstalk/internal/config"
	"github.com/pathstalk/pathstalk/internal/engine"
	"github.com/pathstalk/pathstalk/internal/logger"
	"github.com/pathstalk/pathstalk/internal/observability"
	"github.com/pathstalk/pathstalk/internal/types"
)

var (
	cfgFile     string
	verbose     bool
	threads     int
	recursion   int
	timeoutSecs int
	wordlist    string
	target      string
	proxyURL    string
	outputPath  string
	metricsPort int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pathstalk",
		Short: "PathStalk — Directory Brute-Forcer",
		Long: `PathStalk probes a target URL for directory-style paths using a
wordlist, reporting every response whose status is not 404.

Features:
  • Concurrent probing with a bounded worker pool
  • Recursive scanning of discovered directories up to a depth limit
  • HTTP/SOCKS5 proxy support
  • Scan log file output
  • Prometheus metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scanCmd creates the "scan" subcommand.
func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a target URL with a wordlist",
		Long:  "Probe directory-style paths under the target URL, recursing into discoveries up to the configured depth.",
		RunE:  runScan,
	}

	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "worker pool size (0 = config default)")
	cmd.Flags().IntVarP(&recursion, "recursive", "r", -1, "max recursion depth beyond base (-1 = config default)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "per-request timeout in seconds (0 = config default)")
	cmd.Flags().StringVarP(&wordlist, "wordlist", "w", "", "path to wordlist file")
	cmd.Flags().StringVarP(&target, "uri", "u", "", "target URL")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "outbound proxy URL (http, https or socks5)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "scan log file")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port")

	return cmd
}

// runScan executes the scan command.
func runScan(cmd *cobra.Command, args []string) error {
	log := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	printBanner()
	fmt.Printf("Threads:   %d\n", cfg.Scan.Threads)
	fmt.Printf("Recursion: %d\n", cfg.Scan.Recursion)
	fmt.Printf("Wordlist:  %s\n", cfg.Scan.Wordlist)
	fmt.Printf("Target:    %s\n", cfg.Scan.Target)
	if cfg.Logging.Output != "" {
		fmt.Printf("Output:    %s\n", cfg.Logging.Output)
	}
	fmt.Println()

	scanLog := logger.Null()
	if cfg.Logging.Output != "" {
		scanLog, err = logger.File(cfg.Logging.Output)
		if err != nil {
			return fmt.Errorf("open scan log: %w", err)
		}
		defer scanLog.Close()
	}

	sender := types.NewChannelSender(1024)

	builder := engine.NewBuilder().
		Threads(cfg.Scan.Threads).
		Recursive(cfg.Scan.Recursion).
		Timeout(cfg.Scan.Timeout).
		ProxyURL(cfg.Scan.ProxyURL).
		MessageSender(sender)
	if cfg.Scan.Wordlist != "" {
		builder = builder.Wordlist(cfg.Scan.Wordlist)
	}
	if cfg.Scan.Target != "" {
		builder = builder.URI(cfg.Scan.Target)
	}

	eng, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build scan: %w", err)
	}

	metrics := observability.NewMetrics(log)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			log.Warn("failed to start metrics server", "error", err)
		}
	}

	log.Info("starting scan",
		"target", cfg.Scan.Target,
		"threads", cfg.Scan.Threads,
		"recursion", cfg.Scan.Recursion,
		"timeout", cfg.Scan.Timeout,
	)

	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run()
	}()

	start := time.Now()
	consume(sender.Messages(), scanLog, metrics)

	if err := <-runErr; err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	elapsed := time.Since(start)
	snap := metrics.Snapshot()

	log.Info("scan complete",
		"elapsed", elapsed,
		"probes", snap["probes_total"],
		"discoveries", snap["discoveries"],
		"transport_errors", snap["transport_errors"],
	)

	fmt.Printf("\nScan complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Probes:      %d\n", snap["probes_total"])
	fmt.Printf("   Discovered:  %d\n", snap["discoveries"])
	fmt.Printf("   Errors:      %d\n", snap["transport_errors"])

	return nil
}

// consume drains the message stream, rendering progress in place and
// routing log records to the scan logger.
func consume(messages <-chan types.Message, scanLog *logger.ScanLogger, metrics *observability.Metrics) {
	var pos, size int
	lineDirty := false

	clearLine := func() {
		if lineDirty {
			fmt.Print("\r\033[2K")
			lineDirty = false
		}
	}

	for msg := range messages {
		metrics.Observe(msg)

		switch msg := msg.(type) {
		case types.ProgressMessage:
			if msg.Stream != types.StreamTotal && msg.Change.Kind != types.ChangePrint {
				continue
			}
			switch msg.Change.Kind {
			case types.ChangeSetSize, types.ChangeStart:
				size = msg.Change.Size
			case types.ChangeAdvance:
				pos++
				fmt.Printf("\r%d/%d", pos, size)
				lineDirty = true
			case types.ChangeFinish:
				clearLine()
			case types.ChangePrint:
				clearLine()
				fmt.Println(msg.Change.Text)
			}
		case types.LogMessage:
			scanLog.Log(msg.Level, msg.Text)
		}
	}
	clearLine()
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PathStalk %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Scan:\n")
			fmt.Printf("  Threads:    %d\n", cfg.Scan.Threads)
			fmt.Printf("  Recursion:  %d\n", cfg.Scan.Recursion)
			fmt.Printf("  Timeout:    %s\n", cfg.Scan.Timeout)
			fmt.Printf("  Wordlist:   %s\n", cfg.Scan.Wordlist)
			fmt.Printf("  Target:     %s\n", cfg.Scan.Target)
			fmt.Printf("  Proxy:      %s\n", cfg.Scan.ProxyURL)
			fmt.Printf("\nLogging:\n")
			fmt.Printf("  Level:      %s\n", cfg.Logging.Level)
			fmt.Printf("  Output:     %s\n", cfg.Logging.Output)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:    %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:       %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if threads > 0 {
		cfg.Scan.Threads = threads
	}
	if recursion >= 0 {
		cfg.Scan.Recursion = recursion
	}
	if timeoutSecs > 0 {
		cfg.Scan.Timeout = time.Duration(timeoutSecs) * time.Second
	}
	if wordlist != "" {
		cfg.Scan.Wordlist = wordlist
	}
	if target != "" {
		cfg.Scan.Target = target
	}
	if proxyURL != "" {
		cfg.Scan.ProxyURL = proxyURL
	}
	if outputPath != "" {
		cfg.Logging.Output = outputPath
	}
	if metricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = metricsPort
	}
}

func printBanner() {
	fmt.Println()
	fmt.Println("              _   _          _        _ _")
	fmt.Println("  _ __   __ _| |_| |__   ___| |_ __ _| | | __")
	fmt.Println(" | '_ \\ / _` | __| '_ \\ / __| __/ _` | | |/ /")
	fmt.Println(" | |_) | (_| | |_| | | |\\__ \\ || (_| | |   <")
	fmt.Println(" | .__/ \\__,_|\\__|_| |_||___/\\__\\__,_|_|_|\\_\\")
	fmt.Println(" |_|")
	fmt.Println()
}
