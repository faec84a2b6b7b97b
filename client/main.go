package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ahadchat/client/api"
	"ahadchat/client/metrics"
	"ahadchat/client/ui"
)

func main() {
	if err := mainInner(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mainInner() error {
	server := flag.String("server", "http://localhost:8080", "chat server base URL")
	user := flag.String("user", "", "user id to prefill on the login screen")
	metricsPath := flag.String("metrics", "", "write live-feed records to this CSV file")
	flag.Parse()

	client, err := api.New(*server)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if *metricsPath != "" {
		f, err := os.Create(*metricsPath)
		if err != nil {
			return fmt.Errorf("create metrics file: %w", err)
		}
		defer f.Close()
		collector = metrics.NewCollector(f)
	} else {
		collector = metrics.NewCollector(nil)
	}

	p := tea.NewProgram(ui.NewForClient(client, collector, *user), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	median, p95, p99 := collector.CalculatePercentiles()
	s := collector.Snapshot()
	fmt.Printf("Live feed: %d frames, %d connections, %d reconnects, latency p50 %dms p95 %dms p99 %dms\n",
		s.Frames, s.Connections, s.Retries, median, p95, p99)
	return nil
}
