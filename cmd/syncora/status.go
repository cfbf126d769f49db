// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// ServerStatus holds the probed state of a running server.
type ServerStatus struct {
	Addr  string `json:"addr"`
	Live  bool   `json:"live"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	metricsAddr string
	jsonOutput  bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running Syncora server",
		Long:  `Probe the liveness and readiness endpoints of a running Syncora server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", "127.0.0.1:9100", "metrics/health address of the server")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	status := probeServer(cfg.metricsAddr)

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(formatStatusTable(status))
	return nil
}

// probeServer queries the health endpoints at addr.
func probeServer(addr string) ServerStatus {
	status := ServerStatus{Addr: addr}
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get("http://" + addr + "/healthz/liveness")
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	_ = resp.Body.Close()
	status.Live = resp.StatusCode == http.StatusOK

	resp, err = client.Get("http://" + addr + "/healthz/readiness")
	if err != nil {
		status.Error = fmt.Sprintf("readiness probe failed: %v", err)
		return status
	}
	_ = resp.Body.Close()
	status.Ready = resp.StatusCode == http.StatusOK

	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ServerStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ADDR\tLIVE\tREADY")
	_, _ = fmt.Fprintln(w, "----\t----\t-----")

	if status.Error != "" {
		_, _ = fmt.Fprintf(w, "%s\tdown\t-\t(%s)\n", status.Addr, status.Error)
	} else {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", status.Addr, yesNo(status.Live), yesNo(status.Ready))
	}

	_ = w.Flush()
	return string(buf)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
