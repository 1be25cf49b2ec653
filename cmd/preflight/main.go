// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/routerwatch/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		fail("configuration is invalid")
	}

	for _, name := range []string{"HA_HOST", "HA_WEBHOOK_ID"} {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			warn(name + " not set; using the built-in default.")
		}
	}
	ok("webhook " + cfg.Webhook.URL())
	if cfg.Webhook.UseHTTPS && !cfg.Webhook.VerifyTLS {
		warn("HA_VERIFY_TLS=false; the webhook certificate is not verified.")
	}
	if !cfg.Webhook.UseHTTPS {
		warn("HA_USE_HTTPS=false; the webhook id travels in clear text.")
	}

	ok(fmt.Sprintf("probe %s %s", cfg.Probe.Mode, cfg.Probe.Target))

	if cfg.Monitor.MaxResets == 0 {
		warn("MAX_NUMBER_OF_RESETS=0; the watchdog will never reset the router.")
	}

	if cfg.Status.Addr == "" {
		warn("STATUS_ADDR empty; status API and /metrics are disabled.")
	} else {
		ok("STATUS_ADDR=" + cfg.Status.Addr)
		if len(cfg.Status.APIKeys) == 0 {
			warn("STATUS_API_KEYS empty; /api is open to anyone who can reach STATUS_ADDR.")
		}
	}

	if cfg.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty; recovery notifications are disabled.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	ok("preflight passed")
}
