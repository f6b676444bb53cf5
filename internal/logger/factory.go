// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to config.yaml log.levels
// These ensure consistent logger names across the codebase

// GetContractsLogger returns a logger for the contracts service
func GetContractsLogger() zerolog.Logger {
	return GetLogger("contracts")
}

// GetPropertiesLogger returns a logger for the properties service
func GetPropertiesLogger() zerolog.Logger {
	return GetLogger("properties")
}

// GetWebLogger returns a logger for the web service
func GetWebLogger() zerolog.Logger {
	return GetLogger("web")
}

// GetEventBusLogger returns a logger for event fabric operations
func GetEventBusLogger() zerolog.Logger {
	return GetLogger("eventbus")
}

// GetStreamLogger returns a logger for change-stream processing
func GetStreamLogger() zerolog.Logger {
	return GetLogger("stream")
}

// GetTemporalLogger returns a logger for Temporal components
func GetTemporalLogger() zerolog.Logger {
	return GetLogger("temporal")
}

// GetDatabaseLogger returns a logger for database operations
func GetDatabaseLogger() zerolog.Logger {
	return GetLogger("database")
}

// GetAPILogger returns a logger for API operations
func GetAPILogger() zerolog.Logger {
	return GetLogger("api")
}
