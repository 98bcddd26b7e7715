package config

import (
	"fmt"
	"strings"

	"stakeledger/crypto"
	"stakeledger/observability/logging"
)

// Validate checks that the configuration can start a ledger.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageLevelDB:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("DataDir is required for %s storage", StorageLevelDB)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown Storage %q", c.Storage)
	}
	if _, err := c.Program(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Program decodes ProgramID. A nil result selects the built-in program.
func (c *Config) Program() (*crypto.Address, error) {
	id := strings.TrimSpace(c.ProgramID)
	if id == "" {
		return nil, nil
	}
	addr, err := crypto.DecodeAddress(id)
	if err != nil {
		return nil, fmt.Errorf("ProgramID: %w", err)
	}
	if addr.IsZero() {
		return nil, fmt.Errorf("ProgramID must not be the zero address")
	}
	return &addr, nil
}
