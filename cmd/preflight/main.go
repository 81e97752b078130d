// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mayvqt/StatusBot/internal/config"
	"github.com/mayvqt/StatusBot/internal/domain"
)

func main() {
	configPath := flag.String("config", "statusbot.yaml", "path to the YAML config file")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		fail("config unreadable: " + err.Error())
	}
	ok("config loaded from " + *configPath)

	entities := cfg.Targets()
	if len(entities) == 0 {
		warn("no entities configured — the poller will idle.")
	} else {
		ok(fmt.Sprintf("%d entities configured", len(entities)))
	}

	seen := map[string]bool{}
	for _, e := range entities {
		switch {
		case e.Name == "":
			warn("entity with empty name will be skipped each cycle")
		case seen[e.Name]:
			warn("duplicate entity name: " + e.Name)
		default:
			seen[e.Name] = true
		}
		if e.Target == "" {
			warn("entity " + e.Name + " has no target")
		}
		switch e.Kind {
		case domain.KindHTTP, domain.KindTCP, domain.KindICMP:
		default:
			warn(fmt.Sprintf("entity %s has unknown kind %q and will be skipped", e.Name, e.Kind))
		}
	}

	stateDir := filepath.Dir(cfg.StatePath)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		fail("cannot create state directory " + stateDir + ": " + err.Error())
	}
	ok("state directory writable: " + stateDir)

	if cfg.WebhookURL == "" {
		warn("webhook_url empty — the chat message will not be maintained.")
	} else if u, err := url.Parse(cfg.WebhookURL); err != nil || u.Scheme != "https" {
		warn("webhook_url does not look like an https URL")
	} else {
		ok("webhook_url present")
	}

	ok("preflight passed")
}
