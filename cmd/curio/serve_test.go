// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioweb/curio/internal/config"
	"github.com/curioweb/curio/pkg/errutil"
)

var testSecret = strings.Repeat("s", config.MinSessionSecretBytes)

func memoryServeDeps(vars map[string]string, listening func(net.Addr)) *serveDeps {
	return &serveDeps{
		ConfigFile: func() (string, error) { return "", nil },
		Env:        func() (config.Env, error) { return config.ParseEnvFrom(vars) },
		Listening:  listening,
	}
}

func newServeCmdWithArgs(t *testing.T, args ...string) (*bytes.Buffer, func(context.Context, *serveDeps) error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	configFile = ""
	cmd := NewServeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.ParseFlags(args))
	return &out, func(ctx context.Context, deps *serveDeps) error {
		return runServe(ctx, cmd, deps)
	}
}

func TestServe_MemoryBackendServesAndShutsDown(t *testing.T) {
	seed := writeFile(t, "items.yaml", seedYAML)
	out, run := newServeCmdWithArgs(t,
		"--store-backend=memory",
		"--http-addr=127.0.0.1:0",
		"--metrics-addr=",
		"--log-format=text",
		"--seed="+seed,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, memoryServeDeps(map[string]string{"CURIO_SESSION_SECRET": testSecret},
			func(a net.Addr) { addrCh <- a }))
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get("http://" + addr.String() + "/items")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	resp.Body.Close()
	assert.Len(t, items, 2)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Contains(t, out.String(), "Curio listening on")
	assert.Contains(t, out.String(), "shutdown complete")
}

func TestServe_RequiresSessionSecret(t *testing.T) {
	_, run := newServeCmdWithArgs(t, "--store-backend=memory", "--metrics-addr=")
	err := run(context.Background(), memoryServeDeps(map[string]string{}, nil))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_SESSION_SECRET_MISSING")
}

func TestServe_PostgresRequiresDatabaseURL(t *testing.T) {
	_, run := newServeCmdWithArgs(t, "--store-backend=postgres", "--metrics-addr=")
	err := run(context.Background(), memoryServeDeps(map[string]string{"CURIO_SESSION_SECRET": testSecret}, nil))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_DATABASE_URL_MISSING")
}

func TestServe_InvalidConfig(t *testing.T) {
	_, run := newServeCmdWithArgs(t, "--store-backend=sqlite")
	err := run(context.Background(), memoryServeDeps(map[string]string{"CURIO_SESSION_SECRET": testSecret}, nil))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestServe_UsesDiscoveredConfigFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "store:\n  backend: nosuch\n")
	_, run := newServeCmdWithArgs(t, "--metrics-addr=")
	deps := memoryServeDeps(map[string]string{"CURIO_SESSION_SECRET": testSecret}, nil)
	deps.ConfigFile = func() (string, error) { return path, nil }

	err := run(context.Background(), deps)
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "key", "store.backend")
}
