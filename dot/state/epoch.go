// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/epochtree"

	"github.com/ChainSafe/chaindb"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// ErrCheckpointNotFound is returned when no epoch checkpoint is stored
// for the requested block
var ErrCheckpointNotFound = errors.New("epoch checkpoint not found")

var (
	epochPrefix      = "epoch"
	checkpointPrefix = []byte("chk") // checkpointPrefix + blockHash -> checkpoint

	currentEpochKey = []byte("current")
	firstSlotKey    = []byte("firstslot")
	configKey       = []byte("config")
)

func checkpointKey(hash common.Hash) []byte {
	return append(checkpointPrefix, hash.ToBytes()...)
}

// checkpoint is the persisted form of one epoch tree node
type checkpoint struct {
	Number     uint64
	ParentHash common.Hash
	Epoch      types.Epoch
}

// EpochState persists epoch checkpoints and authoring progress, so the
// epoch tracker can be rebuilt from the last finalised point after a
// restart or a tracker error.
type EpochState struct {
	db chaindb.Database
}

// NewEpochState returns a new EpochState backed by the given database
func NewEpochState(db chaindb.Database) *EpochState {
	return &EpochState{
		db: chaindb.NewTable(db, epochPrefix),
	}
}

// StoreBabeConfiguration persists the genesis BABE configuration
func (es *EpochState) StoreBabeConfiguration(config *types.BabeConfiguration) error {
	buf := new(bytes.Buffer)
	if err := scale.NewEncoder(buf).Encode(config); err != nil {
		return err
	}
	return es.db.Put(configKey, buf.Bytes())
}

// LoadBabeConfiguration returns the stored genesis BABE configuration
func (es *EpochState) LoadBabeConfiguration() (*types.BabeConfiguration, error) {
	data, err := es.db.Get(configKey)
	if err != nil {
		return nil, err
	}

	config := new(types.BabeConfiguration)
	if err := scale.NewDecoder(bytes.NewReader(data)).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SetCurrentEpoch persists the index of the epoch being authored in
func (es *EpochState) SetCurrentEpoch(epoch uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, epoch)
	return es.db.Put(currentEpochKey, buf)
}

// GetCurrentEpoch returns the index of the epoch being authored in
func (es *EpochState) GetCurrentEpoch() (uint64, error) {
	data, err := es.db.Get(currentEpochKey)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// SetFirstSlot persists the slot number of the chain's first block
func (es *EpochState) SetFirstSlot(slot uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, slot)
	return es.db.Put(firstSlotKey, buf)
}

// GetFirstSlot returns the slot number of the chain's first block
func (es *EpochState) GetFirstSlot() (uint64, error) {
	data, err := es.db.Get(firstSlotKey)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// StoreCheckpoint persists an epoch checkpoint imported into the tracker
func (es *EpochState) StoreCheckpoint(hash common.Hash, number uint64,
	parentHash common.Hash, epoch *types.Epoch) error {
	buf := new(bytes.Buffer)
	err := scale.NewEncoder(buf).Encode(&checkpoint{
		Number:     number,
		ParentHash: parentHash,
		Epoch:      *epoch,
	})
	if err != nil {
		return err
	}
	return es.db.Put(checkpointKey(hash), buf.Bytes())
}

// GetCheckpoint returns the stored checkpoint for the given block
func (es *EpochState) GetCheckpoint(hash common.Hash) (*types.Epoch, error) {
	cp, err := es.getCheckpoint(hash)
	if err != nil {
		return nil, err
	}
	return &cp.Epoch, nil
}

// DeleteCheckpoint removes the checkpoint for the given block, eg. after
// its fork was pruned
func (es *EpochState) DeleteCheckpoint(hash common.Hash) error {
	return es.db.Del(checkpointKey(hash))
}

// RebuildTracker reconstructs an epoch tree rooted at the given
// checkpoint from the persisted checkpoints. Checkpoints that no longer
// attach under the root are dropped from the database.
func (es *EpochState) RebuildTracker(rootHash common.Hash,
	headers epochtree.HeaderGetter) (*epochtree.EpochTree, error) {
	root, err := es.getCheckpoint(rootHash)
	if err != nil {
		return nil, err
	}

	tree := epochtree.NewEpochTree(rootHash, root.Number, &root.Epoch, headers)

	type stored struct {
		hash common.Hash
		cp   *checkpoint
	}

	itr := es.db.NewIterator()
	defer itr.Release()

	var checkpoints []stored
	for itr.Next() {
		key := itr.Key()
		if len(key) != len(checkpointPrefix)+common.HashLength ||
			!bytes.HasPrefix(key, checkpointPrefix) {
			continue
		}

		hash := common.NewHash(key[len(checkpointPrefix):])
		if hash == rootHash {
			continue
		}

		cp := new(checkpoint)
		if err := scale.NewDecoder(bytes.NewReader(itr.Value())).Decode(cp); err != nil {
			return nil, fmt.Errorf("decoding stored checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, stored{hash: hash, cp: cp})
	}

	// import in block number order so parents precede children
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].cp.Number < checkpoints[j].cp.Number
	})

	for _, s := range checkpoints {
		err := tree.ImportEpochChange(s.hash, s.cp.Number, s.cp.ParentHash, &s.cp.Epoch)
		if err != nil {
			logger.Debugf("dropping stored checkpoint %s: %s", s.hash.Short(), err)
			if err := es.db.Del(checkpointKey(s.hash)); err != nil {
				return nil, err
			}
		}
	}

	return tree, nil
}

func (es *EpochState) getCheckpoint(hash common.Hash) (*checkpoint, error) {
	data, err := es.db.Get(checkpointKey(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, hash)
	}

	cp := new(checkpoint)
	if err := scale.NewDecoder(bytes.NewReader(data)).Decode(cp); err != nil {
		return nil, err
	}
	return cp, nil
}
