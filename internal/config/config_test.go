// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	// An explicit path that doesn't exist is an error; no path means defaults.
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "property-approvals", cfg.Temporal.TaskQueue)
	assert.Equal(t, time.Duration(0), cfg.Temporal.Workflow.WorkflowRunTimeout)
	assert.Equal(t, 3, cfg.EventBus.MaxDeliveries)
	assert.Equal(t, "propertyflow.events", cfg.EventBus.StreamPrefix)
	assert.Equal(t, "approval-sync", cfg.Stream.ConsumerName)
	assert.Equal(t, 3, cfg.Stream.MaxAttempts)
	assert.Empty(t, cfg.Tracing.Endpoint)
}

func TestNewConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
database:
  driver: sqlite
  database: ":memory:"
temporal:
  task_queue: test-queue
stream:
  max_attempts: 5
  poll_interval: 50ms
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "test-queue", cfg.Temporal.TaskQueue)
	assert.Equal(t, 5, cfg.Stream.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Stream.PollInterval)
	// Untouched values keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.EventBus.Addr)
}

func TestNewConfig_InvalidValues(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "log:\n  level: LOUD\n"},
		{"bad port", "server:\n  port: 0\n"},
		{"bad max deliveries", "event_bus:\n  max_deliveries: 0\n"},
		{"bad batch size", "stream:\n  batch_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := NewConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestGetDSN(t *testing.T) {
	pg := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432,
		Username: "u", Password: "p", Database: "propertyflow", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=propertyflow sslmode=disable",
		pg.GetDSN())

	mem := DatabaseConfig{Driver: "sqlite", Database: ":memory:"}
	assert.Equal(t, "file::memory:?cache=shared", mem.GetDSN())
}
