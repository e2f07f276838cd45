package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sandboxd/internal/process"
	"sandboxd/internal/proxy"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a one-shot JSON snapshot of a running sandboxd instance",
	RunE:  runStatus,
}

type statusReport struct {
	Ping         map[string]interface{} `json:"ping"`
	Processes    []process.Snapshot     `json:"processes"`
	ExposedPorts []proxy.ExposedPort    `json:"exposedPorts"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	if cliLogger != nil {
		cliLogger.Debug("querying sandboxd status", zap.String("addr", addr))
	}

	var report statusReport
	if err := getJSON(client, addr+"/api/ping", &report.Ping); err != nil {
		if cliLogger != nil {
			cliLogger.Error("ping failed", zap.String("addr", addr), zap.Error(err))
		}
		return fmt.Errorf("ping %s: %w", addr, err)
	}
	if err := getJSON(client, addr+"/api/process/list", &report.Processes); err != nil {
		return fmt.Errorf("list processes: %w", err)
	}
	if err := getJSON(client, addr+"/api/exposed-ports", &report.ExposedPorts); err != nil {
		return fmt.Errorf("list exposed ports: %w", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func getJSON(client *http.Client, url string, dst interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
