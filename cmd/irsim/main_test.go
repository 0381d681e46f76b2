package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
	"github.com/RotemSwisa/incident-response-simulator/internal/scoringtest"
)

func TestRunWatchPrintsEventsAndSummary(t *testing.T) {
	srv := scoringtest.NewServer()
	defer srv.Close()

	tr := scenario.NewTrainer(client.NewHTTPClient(srv.URL), "advanced_phishing",
		scenario.WithLogger(log.New(io.Discard, "", 0)))

	opts := []scenario.PollerOption{
		scenario.WithInterval(5 * time.Millisecond),
		scenario.WithInitialDelay(time.Millisecond),
		scenario.WithMaxBackoff(20 * time.Millisecond),
		scenario.WithPollerLogger(log.New(io.Discard, "", 0)),
	}

	// Publish as soon as the session exists.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for srv.Latest() == "" {
			time.Sleep(time.Millisecond)
		}
		srv.Publish(srv.Latest(),
			client.Event{ID: "e1", Message: "Suspicious login from 203.0.113.9", Source: "auth", Level: client.LevelWarning},
			client.Event{ID: "e2", Message: "Nightly backup finished", Source: "backup", Level: client.LevelInfo},
		)
	}()

	var out bytes.Buffer
	if err := runWatch(ctx, tr, opts, 150*time.Millisecond, &out); err != nil {
		t.Fatalf("runWatch: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"session ",
		"Suspicious login from 203.0.113.9",
		"Nightly backup finished",
		"Performance Summary",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if tr.Session().Status != scenario.Completed {
		t.Errorf("status = %s, want completed", tr.Session().Status)
	}
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irsim.yaml")
	if err := os.WriteFile(path, []byte("api:\n  base_url: http://file.example\n  scenario: from_file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(&rootOptions{configPath: path, url: "http://flag.example"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.API.BaseURL != "http://flag.example" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Scenario != "from_file" {
		t.Errorf("scenario = %q", cfg.API.Scenario)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irsim.yaml")
	if err := os.WriteFile(path, []byte("sync:\n  interval: 10s\n  max_backoff: 1s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(&rootOptions{configPath: path}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRootCommandHasWatch(t *testing.T) {
	cmd := newRootCmd()
	watch, _, err := cmd.Find([]string{"watch"})
	if err != nil || watch.Name() != "watch" {
		t.Fatalf("watch subcommand not registered: %v", err)
	}
	if watch.Flags().Lookup("duration") == nil {
		t.Error("watch has no --duration flag")
	}
	if cmd.PersistentFlags().Lookup("scenario") == nil {
		t.Error("root has no --scenario flag")
	}
}
