package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/tui"
	"github.com/mishrapravin114/pharmadoc/pkg/progress"
)

var (
	serverURL    = flag.String("server", "http://localhost:8085", "Pharmadoc server URL")
	collectionID = flag.String("collection", "", "Collection the job belongs to")
	jobID        = flag.String("job", "", "Job to monitor (required)")
	usePush      = flag.Bool("push", true, "Use the websocket push transport (polling when false)")
	pollInterval = flag.Duration("interval", 2*time.Second, "Poll interval when using the polling transport")
)

func main() {
	flag.Parse()

	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "usage: pharmadoc-monitor -job <job-id> [-collection <collection-id>] [-server <url>]")
		os.Exit(2)
	}

	// The TUI owns the terminal; keep the logger quiet on stderr
	logger := arbor.NewLogger().WithLevelFromString("warn")

	client := progress.NewClient(*serverURL)
	engine := progress.NewEngine(logger)
	controller := progress.NewController(client, engine, *jobID, logger)

	var channel progress.Channel
	if *usePush {
		wsURL := strings.Replace(*serverURL, "http", "ws", 1) + "/ws"
		channel = progress.NewSocket(wsURL, *collectionID, *jobID, logger)
	} else {
		channel = progress.NewPoller(client, *collectionID, *jobID, *pollInterval, logger)
	}
	defer channel.Close()

	model := tui.NewModel(channel, engine, controller, *jobID)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "monitor failed: %v\n", err)
		os.Exit(1)
	}
}
