// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package state persists the chain's headers, fork weights and epoch
// checkpoints in a badger-backed key-value store, and implements the
// collaborator interfaces the consensus engine consumes.
package state

import (
	"github.com/ChainSafe/loom/internal/log"

	"github.com/ChainSafe/chaindb"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "state"))

// NewDatabase opens a badger database at basePath. An in-memory database
// is used when inMemory is set, for tests and simulation.
func NewDatabase(basePath string, inMemory bool) (chaindb.Database, error) {
	return chaindb.NewBadgerDB(&chaindb.Config{
		DataDir:  basePath,
		InMemory: inMemory,
	})
}
