// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyflow/propertyflow/internal/config"
)

func testLogConfig(t *testing.T) *config.LogConfig {
	return &config.LogConfig{
		Level:  "INFO",
		Format: "json",
		Output: []config.LogOutputConfig{
			{
				Type:    "file",
				Enabled: true,
				Path:    filepath.Join(t.TempDir(), "test.log"),
			},
		},
		Levels: map[string]string{
			"stream": "DEBUG",
			"api":    "ERROR",
		},
		Context: config.LogContextConfig{
			IncludeTimestamp: true,
		},
	}
}

func TestManager_PackageLevels(t *testing.T) {
	m, err := NewManager(testLogConfig(t))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, zerolog.DebugLevel, m.GetLogger("stream").GetLevel())
	assert.Equal(t, zerolog.ErrorLevel, m.GetLogger("api").GetLevel())
	// Packages without an explicit level inherit the global one.
	assert.Equal(t, zerolog.InfoLevel, m.GetLogger("eventbus").GetLevel())
}

func TestManager_CachesPackageLoggers(t *testing.T) {
	m, err := NewManager(testLogConfig(t))
	require.NoError(t, err)
	defer m.Close()

	first := m.GetLogger("stream")
	second := m.GetLogger("stream")
	assert.Equal(t, first.GetLevel(), second.GetLevel())
}

func TestManager_UnsupportedOutput(t *testing.T) {
	cfg := testLogConfig(t)
	cfg.Output = []config.LogOutputConfig{{Type: "syslog", Enabled: true}}

	_, err := NewManager(cfg)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.TraceLevel, parseLevel("TRACE"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("garbage"))
}
