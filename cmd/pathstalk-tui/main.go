package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pathstalk/pathstalk/internal/config"
	"github.com/pathstalk/pathstalk/internal/engine"
	"github.com/pathstalk/pathstalk/internal/tui"
	"github.com/pathstalk/pathstalk/internal/types"
)

var (
	cfgFile     string
	threads     int
	recursion   int
	timeoutSecs int
	wordlist    string
	target      string
	proxyURL    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pathstalk-tui",
		Short: "PathStalk interactive terminal UI",
		RunE:  runTUI,
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.Flags().IntVarP(&threads, "threads", "t", 0, "worker pool size (0 = config default)")
	rootCmd.Flags().IntVarP(&recursion, "recursive", "r", -1, "max recursion depth beyond base (-1 = config default)")
	rootCmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "per-request timeout in seconds (0 = config default)")
	rootCmd.Flags().StringVarP(&wordlist, "wordlist", "w", "", "path to wordlist file")
	rootCmd.Flags().StringVarP(&target, "uri", "u", "", "target URL")
	rootCmd.Flags().StringVar(&proxyURL, "proxy", "", "outbound proxy URL (http, https or socks5)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

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

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
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

	model := tui.NewModel(cfg.Scan.Target, sender.Messages(), eng.Run)
	p := tea.NewProgram(model)

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	// The observer is gone once the program exits; unblock any
	// still-draining workers.
	sender.Stop()

	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
