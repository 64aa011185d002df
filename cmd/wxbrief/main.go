// wxbrief is the terminal client: it builds briefings against the
// upstream APIs directly, without needing the HTTP server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/eclewis/wxbrief/internal/briefing"
	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/internal/observability"
	"github.com/eclewis/wxbrief/internal/tui"
	"github.com/eclewis/wxbrief/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// The terminal client works out of the box; a config file only
	// overrides the defaults.
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs would fight the TUI for the terminal
	log := logger.NewNop()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	client := briefing.NewClient(cfg.Sources, metrics, log)
	cache := briefing.NewCache(
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		cfg.Cache.MaxEntries,
		clock,
		log,
	)
	service := briefing.NewService(client, cache, cfg.Sources, metrics, clock, log)

	program := tea.NewProgram(tui.NewApp(service), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
