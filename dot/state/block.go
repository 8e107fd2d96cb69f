// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/babe"
	"github.com/ChainSafe/loom/lib/common"

	"github.com/ChainSafe/chaindb"
)

var (
	// ErrHeaderNotFound is returned when the requested header is not in
	// the database, eg. because its fork was pruned
	ErrHeaderNotFound = errors.New("header not found")

	// ErrParentNotFound is returned when adding a block whose parent is
	// not in the database
	ErrParentNotFound = errors.New("parent header not found")
)

var (
	blockPrefix = "block"

	headerPrefix = []byte("hdr") // headerPrefix + hash -> header
	bodyPrefix   = []byte("blb") // bodyPrefix + hash -> body
	weightPrefix = []byte("wgt") // weightPrefix + hash -> cumulative weight

	bestBlockKey = []byte("best")
	finalisedKey = []byte("finalised")
	genesisKey   = []byte("genesis")
)

func headerKey(hash common.Hash) []byte {
	return append(headerPrefix, hash.ToBytes()...)
}

func bodyKey(hash common.Hash) []byte {
	return append(bodyPrefix, hash.ToBytes()...)
}

func weightKey(hash common.Hash) []byte {
	return append(weightPrefix, hash.ToBytes()...)
}

// BlockState stores the headers and bodies of all live forks and tracks
// the heaviest chain. The best block is the tip with the highest
// cumulative fork weight; ties break on the higher block number, then
// first-imported.
type BlockState struct {
	db chaindb.Database

	sync.RWMutex
	genesisHash   common.Hash
	bestHash      common.Hash
	bestWeight    uint32
	lastFinalised common.Hash
}

// NewBlockStateFromGenesis initialises a BlockState from a genesis
// header, saving it to the database
func NewBlockStateFromGenesis(db chaindb.Database, genesisHeader *types.Header) (*BlockState, error) {
	bs := &BlockState{
		db:            chaindb.NewTable(db, blockPrefix),
		genesisHash:   genesisHeader.Hash(),
		bestHash:      genesisHeader.Hash(),
		lastFinalised: genesisHeader.Hash(),
	}

	if err := bs.setHeader(genesisHeader); err != nil {
		return nil, err
	}
	if err := bs.setWeight(bs.genesisHash, 0); err != nil {
		return nil, err
	}
	if err := bs.db.Put(genesisKey, bs.genesisHash.ToBytes()); err != nil {
		return nil, err
	}
	if err := bs.db.Put(bestBlockKey, bs.bestHash.ToBytes()); err != nil {
		return nil, err
	}
	if err := bs.db.Put(finalisedKey, bs.lastFinalised.ToBytes()); err != nil {
		return nil, err
	}

	return bs, nil
}

// NewBlockState reloads a BlockState from an existing database
func NewBlockState(db chaindb.Database) (*BlockState, error) {
	bs := &BlockState{
		db: chaindb.NewTable(db, blockPrefix),
	}

	genesis, err := bs.db.Get(genesisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get genesis hash: %w", err)
	}
	bs.genesisHash = common.NewHash(genesis)

	best, err := bs.db.Get(bestBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get best block hash: %w", err)
	}
	bs.bestHash = common.NewHash(best)

	bs.bestWeight, err = bs.weight(bs.bestHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get best block weight: %w", err)
	}

	finalised, err := bs.db.Get(finalisedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get finalised hash: %w", err)
	}
	bs.lastFinalised = common.NewHash(finalised)

	return bs, nil
}

// GenesisHash returns the hash of the genesis block
func (bs *BlockState) GenesisHash() common.Hash {
	return bs.genesisHash
}

// BestBlockHash returns the hash of the heaviest tip
func (bs *BlockState) BestBlockHash() common.Hash {
	bs.RLock()
	defer bs.RUnlock()
	return bs.bestHash
}

// BestBlockHeader returns the header of the heaviest tip
func (bs *BlockState) BestBlockHeader() (*types.Header, error) {
	return bs.GetHeader(bs.BestBlockHash())
}

// GetHeader returns the header with the given hash
func (bs *BlockState) GetHeader(hash common.Hash) (*types.Header, error) {
	data, err := bs.db.Get(headerKey(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrHeaderNotFound, hash)
	}

	return types.DecodeHeader(data)
}

// Header implements the epoch tree's HeaderGetter
func (bs *BlockState) Header(hash common.Hash) (*types.Header, error) {
	return bs.GetHeader(hash)
}

// HasHeader returns whether a header with the given hash is stored
func (bs *BlockState) HasHeader(hash common.Hash) bool {
	has, _ := bs.db.Has(headerKey(hash))
	return has
}

// GetBlockBody returns the body of the block with the given hash
func (bs *BlockState) GetBlockBody(hash common.Hash) (types.Body, error) {
	data, err := bs.db.Get(bodyKey(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrHeaderNotFound, hash)
	}

	return types.DecodeBody(data)
}

// BlockWeight returns the cumulative fork weight of the chain ending at
// the given block
func (bs *BlockState) BlockWeight(hash common.Hash) (uint32, error) {
	return bs.weight(hash)
}

// AddBlock stores a verified block and re-evaluates the best chain. The
// weight increment is the one of the block's verified claim kind.
func (bs *BlockState) AddBlock(block *types.Block, weightIncrement uint32) error {
	bs.Lock()
	defer bs.Unlock()

	header := &block.Header
	parentWeight, err := bs.weight(header.ParentHash)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrParentNotFound, header.ParentHash)
	}

	cumulative := babe.CumulativeWeight(parentWeight, weightIncrement)

	if err := bs.setHeader(header); err != nil {
		return err
	}
	encodedBody, err := block.Body.Encode()
	if err != nil {
		return err
	}
	if err := bs.db.Put(bodyKey(header.Hash()), encodedBody); err != nil {
		return err
	}
	if err := bs.setWeight(header.Hash(), cumulative); err != nil {
		return err
	}

	if !bs.isBetterThanBest(header, cumulative) {
		return nil
	}

	bs.bestHash = header.Hash()
	bs.bestWeight = cumulative
	logger.Tracef("new best block %s (#%d), weight %d", bs.bestHash.Short(), header.Number, cumulative)
	return bs.db.Put(bestBlockKey, bs.bestHash.ToBytes())
}

// isBetterThanBest reports whether the given tip should replace the
// current best. The caller must hold the mutex.
func (bs *BlockState) isBetterThanBest(header *types.Header, weight uint32) bool {
	if weight != bs.bestWeight {
		return weight > bs.bestWeight
	}

	best, err := bs.GetHeader(bs.bestHash)
	if err != nil {
		return true
	}
	return header.Number > best.Number
}

// FinalisedHash returns the hash of the last finalised block
func (bs *BlockState) FinalisedHash() common.Hash {
	bs.RLock()
	defer bs.RUnlock()
	return bs.lastFinalised
}

// SetFinalisedHash marks the given block as finalised and prunes the
// headers and bodies of forks that do not descend from it. Queries about
// pruned blocks subsequently fail with ErrHeaderNotFound.
func (bs *BlockState) SetFinalisedHash(hash common.Hash) error {
	bs.Lock()
	defer bs.Unlock()

	finalised, err := bs.GetHeader(hash)
	if err != nil {
		return err
	}

	bs.lastFinalised = hash
	if err := bs.db.Put(finalisedKey, hash.ToBytes()); err != nil {
		return err
	}

	return bs.pruneForks(finalised)
}

// pruneForks deletes every stored block that is neither an ancestor of
// the finalised block nor a descendant of it. The caller must hold the
// mutex.
func (bs *BlockState) pruneForks(finalised *types.Header) error {
	retained := make(map[common.Hash]struct{})

	// the finalised chain back to genesis is retained
	cur := finalised
	for {
		retained[cur.Hash()] = struct{}{}
		if cur.Number == 0 {
			break
		}
		parent, err := bs.GetHeader(cur.ParentHash)
		if err != nil {
			return err
		}
		cur = parent
	}

	type storedHeader struct {
		hash   common.Hash
		header *types.Header
	}

	itr := bs.db.NewIterator()
	defer itr.Release()

	var candidates []storedHeader
	for itr.Next() {
		key := itr.Key()
		if len(key) != len(headerPrefix)+common.HashLength ||
			!bytes.HasPrefix(key, headerPrefix) {
			continue
		}

		header, err := types.DecodeHeader(itr.Value())
		if err != nil {
			return fmt.Errorf("decoding stored header: %w", err)
		}
		candidates = append(candidates, storedHeader{
			hash:   common.NewHash(key[len(headerPrefix):]),
			header: header,
		})
	}

	// chains above the finalised block are kept when they descend from it
	byHash := make(map[common.Hash]*types.Header, len(candidates))
	for _, c := range candidates {
		byHash[c.hash] = c.header
	}

	var descends func(hash common.Hash) bool
	descends = func(hash common.Hash) bool {
		if _, ok := retained[hash]; ok {
			return true
		}
		header, has := byHash[hash]
		if !has || header.Number <= finalised.Number {
			return false
		}
		if !descends(header.ParentHash) {
			return false
		}
		retained[hash] = struct{}{}
		return true
	}

	pruned := 0
	for _, c := range candidates {
		if descends(c.hash) {
			continue
		}

		if err := bs.db.Del(headerKey(c.hash)); err != nil {
			return err
		}
		if err := bs.db.Del(bodyKey(c.hash)); err != nil {
			return err
		}
		if err := bs.db.Del(weightKey(c.hash)); err != nil {
			return err
		}
		pruned++
	}

	if pruned > 0 {
		logger.Debugf("pruned %d blocks not descending from finalised block %s",
			pruned, finalised.Hash().Short())
	}
	return nil
}

func (bs *BlockState) setHeader(header *types.Header) error {
	encoded, err := header.Encode()
	if err != nil {
		return err
	}
	return bs.db.Put(headerKey(header.Hash()), encoded)
}

func (bs *BlockState) setWeight(hash common.Hash, weight uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, weight)
	return bs.db.Put(weightKey(hash), buf)
}

func (bs *BlockState) weight(hash common.Hash) (uint32, error) {
	data, err := bs.db.Get(weightKey(hash))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrHeaderNotFound, hash)
	}
	return binary.LittleEndian.Uint32(data), nil
}
