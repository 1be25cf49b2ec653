package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/routerwatch/internal/domain"
)

const usage = "usage: cli [status|outages [limit]]"

func main() {
	api := strings.TrimRight(os.Getenv("API_BASE"), "/")
	if api == "" {
		api = "http://localhost:9100"
	}
	key := strings.TrimSpace(os.Getenv("STATUS_API_KEY"))
	client := &http.Client{Timeout: 5 * time.Second}

	cmd := "status"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "status":
		err = printStatus(client, api, key)
	case "outages":
		limit := "10"
		if len(os.Args) > 2 {
			limit = os.Args[2]
		}
		err = printOutages(client, api, key, limit)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting watchdog:", err)
		os.Exit(1)
	}
}

func fetch(client *http.Client, url, key string, v any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API returned status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func printStatus(client *http.Client, api, key string) error {
	var st domain.Status
	if err := fetch(client, api+"/api/status", key, &st); err != nil {
		return err
	}
	fmt.Printf("State:          %s (since %s)\n", st.State, st.Since.Format(time.DateTime))
	if st.LastProbeAt != nil {
		fmt.Printf("Last probe:     %s up=%t\n", st.LastProbeAt.Format(time.DateTime), st.LastProbeUp)
	}
	fmt.Printf("Probes:         %d\n", st.Probes)
	fmt.Printf("Outages:        %d\n", st.Outages)
	fmt.Printf("Resets:         %d issued / %d attempted\n", st.ResetsIssued, st.ResetAttempts)
	if st.LastResetError != "" {
		fmt.Printf("Last reset err: %s\n", st.LastResetError)
	}
	return nil
}

func printOutages(client *http.Client, api, key, limit string) error {
	var list []domain.Outage
	if err := fetch(client, api+"/api/outages?limit="+limit, key, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No outages recorded.")
		return nil
	}
	for _, o := range list {
		fmt.Printf("%s  down for %s  failures=%d resets=%d/%d\n",
			o.StartedAt.Format(time.DateTime), o.Downtime, o.Failures, o.ResetsIssued, o.ResetAttempts)
	}
	return nil
}
