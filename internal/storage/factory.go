// Package storage wires run-history persistence to its backing store.
package storage

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/storage/badger"
)

// NewStorageManager creates the run-history storage manager.
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	return badger.NewManager(logger, &config.Storage.Badger)
}
