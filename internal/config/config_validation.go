// SPDX-License-Identifier: Apache-2.0

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// A failure here is a fatal configuration error: the process must abort
// rather than partially serve traffic.
//
// Returns nil if the configuration is valid, or a descriptive error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.MasterSecret == "" || cfg.App.KeyringContext == "" {
		return ErrInvalidAppConfigs
	}

	db := cfg.Storage.DB
	if db.Host == "" || db.User == "" || db.Database == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout == 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.Workers.TokenCleanupInterval == 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
