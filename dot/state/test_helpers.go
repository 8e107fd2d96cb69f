// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"testing"

	"github.com/ChainSafe/chaindb"
	"github.com/stretchr/testify/require"
)

// NewInMemoryDB creates a new in-memory database for tests
func NewInMemoryDB(t *testing.T) chaindb.Database {
	t.Helper()

	db, err := NewDatabase(t.TempDir(), true)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
