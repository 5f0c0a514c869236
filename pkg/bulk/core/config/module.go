// Package config provides core configuration structures for CallScope.
// This file defines the fx providers for configuration components.
package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig from *Config so
// components can depend on just the logging settings.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Callscope.System.Logging
}

// Module provides configuration-related components to fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)
