// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "items")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRootCmd_Version(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "1.2.3 (commit: abc, built: today)"

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "1.2.3")
}

func TestServeCmd_RegistersConfigFlags(t *testing.T) {
	cmd := NewServeCmd()
	for _, name := range []string{"http-addr", "metrics-addr", "log-format", "log-level", "store-backend", "migrate", "seed", "session-ttl"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
