// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthServer(t *testing.T, ready bool) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if ready {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func TestStatusCmd_Ready(t *testing.T) {
	addr := newHealthServer(t, true)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "yes")
}

func TestStatusCmd_NotReady(t *testing.T) {
	addr := newHealthServer(t, false)

	status := probeServer(addr)
	assert.True(t, status.Live)
	assert.False(t, status.Ready)
	assert.Empty(t, status.Error)
}

func TestStatusCmd_JSON(t *testing.T) {
	addr := newHealthServer(t, true)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr, "--json"})

	require.NoError(t, cmd.Execute())

	var status ServerStatus
	require.NoError(t, json.Unmarshal(out.Bytes(), &status))
	assert.True(t, status.Live)
	assert.True(t, status.Ready)
}

func TestStatusCmd_Down(t *testing.T) {
	status := probeServer("127.0.0.1:1")
	assert.False(t, status.Live)
	assert.NotEmpty(t, status.Error)
}

func TestProbeServer_TableOutput(t *testing.T) {
	table := formatStatusTable(ServerStatus{Addr: "127.0.0.1:9100", Live: true, Ready: false})
	assert.Contains(t, table, "ADDR")
	assert.Contains(t, table, "yes")
	assert.Contains(t, table, "no")
}
