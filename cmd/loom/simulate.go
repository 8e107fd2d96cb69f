// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ChainSafe/loom/dot/state"
	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/internal/log"
	"github.com/ChainSafe/loom/lib/babe"
	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
	"github.com/ChainSafe/loom/lib/epochtree"
	"github.com/ChainSafe/loom/lib/keystore"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "simulation"))

// finalityLag is how many blocks below the best tip a node finalises
const finalityLag = 8

var nodeNames = []string{"alice", "bob", "charlie", "dave", "eve", "ferdie"}

type simulationConfig struct {
	authorities  int
	slotDuration time.Duration
	epochLength  uint64
	runTime      time.Duration
}

// simulation runs several in-process authority nodes against in-memory
// databases, connected by a broadcast hub instead of a network
type simulation struct {
	cfg   *simulationConfig
	nodes []*node
	hub   *hub
}

func newSimulation(cfg *simulationConfig) (*simulation, error) {
	if cfg.authorities < 1 || cfg.authorities > len(nodeNames) {
		return nil, fmt.Errorf("authorities must be between 1 and %d, got %d",
			len(nodeNames), cfg.authorities)
	}
	if cfg.epochLength < 2 {
		return nil, fmt.Errorf("epoch length must be at least 2, got %d", cfg.epochLength)
	}

	keyring, err := keystore.NewSr25519Keyring()
	if err != nil {
		return nil, fmt.Errorf("creating keyring: %w", err)
	}

	authorities := make([]types.AuthorityRaw, cfg.authorities)
	for i := 0; i < cfg.authorities; i++ {
		authorities[i] = types.AuthorityRaw{
			Key:    keyring.Keys[i].Public().(*sr25519.PublicKey).AsBytes(),
			Weight: 1,
		}
	}

	babeConfig := &types.BabeConfiguration{
		SlotDuration:       uint64(cfg.slotDuration.Milliseconds()),
		EpochLength:        cfg.epochLength,
		C1:                 1,
		C2:                 4,
		GenesisAuthorities: authorities,
		Randomness:         types.Randomness{},
		AllowedSlots:       types.PrimaryAndSecondaryPlainSlots,
	}

	genesis := types.NewEmptyHeader()

	// all nodes must agree on the slot epoch 0 starts at
	firstSlot := uint64(time.Now().UnixNano())/uint64(cfg.slotDuration.Nanoseconds()) + 1

	sim := &simulation{
		cfg: cfg,
		hub: newHub(),
	}
	for i := 0; i < cfg.authorities; i++ {
		n, err := newNode(nodeNames[i], keyring.Keys[i], genesis, babeConfig,
			firstSlot, cfg.slotDuration, sim.hub)
		if err != nil {
			return nil, fmt.Errorf("creating node %s: %w", nodeNames[i], err)
		}
		sim.nodes = append(sim.nodes, n)
	}

	return sim, nil
}

func (s *simulation) run() error {
	s.hub.start(s.nodes)

	for _, n := range s.nodes {
		if err := n.start(); err != nil {
			return fmt.Errorf("starting node %s: %w", n.name, err)
		}
	}

	logger.Infof("running %d authorities, slot duration %s, epoch length %d slots",
		len(s.nodes), s.cfg.slotDuration, s.cfg.epochLength)
	time.Sleep(s.cfg.runTime)

	for _, n := range s.nodes {
		n.stop()
	}
	s.hub.stop()

	for _, n := range s.nodes {
		n.printSummary()
	}
	return nil
}

// hub fans authored blocks out to every node but the author, standing in
// for block announcement gossip
type hub struct {
	in     chan broadcast
	done   chan struct{}
	closed chan struct{}
}

type broadcast struct {
	from  *node
	block *types.Block
}

func newHub() *hub {
	return &hub{
		in:     make(chan broadcast, 256),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (h *hub) start(nodes []*node) {
	go func() {
		defer close(h.closed)
		for {
			select {
			case b := <-h.in:
				for _, n := range nodes {
					if n == b.from {
						continue
					}
					n.deliver(b.block)
				}
			case <-h.done:
				return
			}
		}
	}()
}

func (h *hub) submit(from *node, block *types.Block) {
	select {
	case h.in <- broadcast{from: from, block: block}:
	case <-h.done:
	}
}

func (h *hub) stop() {
	close(h.done)
	<-h.closed
}

// node is one in-process authority: its own database, epoch tracker,
// verifier and authoring service
type node struct {
	name    string
	hub     *hub
	counter uint64

	blockState *state.BlockState
	epochState *state.EpochState
	tracker    *epochtree.EpochTree
	verifier   *babe.VerificationManager
	babe       *babe.Service

	in   chan *types.Block
	done chan struct{}
	quit chan struct{}
}

func newNode(name string, keypair *sr25519.Keypair, genesis *types.Header,
	babeConfig *types.BabeConfiguration, firstSlot uint64,
	slotDuration time.Duration, h *hub) (*node, error) {
	db, err := state.NewDatabase("", true)
	if err != nil {
		return nil, err
	}

	blockState, err := state.NewBlockStateFromGenesis(db, genesis)
	if err != nil {
		return nil, err
	}

	epochState := state.NewEpochState(db)
	if err := epochState.StoreBabeConfiguration(babeConfig); err != nil {
		return nil, err
	}
	if err := epochState.SetFirstSlot(firstSlot); err != nil {
		return nil, err
	}
	if err := epochState.SetCurrentEpoch(0); err != nil {
		return nil, err
	}

	genesisEpoch := babeConfig.GenesisEpoch(firstSlot)
	err = epochState.StoreCheckpoint(genesis.Hash(), 0, common.Hash{}, genesisEpoch)
	if err != nil {
		return nil, err
	}

	tracker := epochtree.NewEpochTree(genesis.Hash(), 0, genesisEpoch, blockState)

	n := &node{
		name:       name,
		hub:        h,
		blockState: blockState,
		epochState: epochState,
		tracker:    tracker,
		in:         make(chan *types.Block, 256),
		done:       make(chan struct{}),
		quit:       make(chan struct{}),
	}

	n.verifier, err = babe.NewVerificationManager(blockState, tracker,
		babe.NewEquivocationDetector(0), n)
	if err != nil {
		return nil, err
	}

	ks := keystore.NewBasicKeystore(keystore.BabeName)
	ks.Insert(keypair)

	n.babe, err = babe.NewService(&babe.ServiceConfig{
		BlockState:         blockState,
		EpochTracker:       tracker,
		BlockBuilder:       n,
		BlockImportHandler: n,
		Keystore:           ks,
		SlotDuration:       slotDuration,
		Authority:          true,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (n *node) start() error {
	if err := n.babe.Start(); err != nil {
		return err
	}

	go n.importLoop()
	return nil
}

func (n *node) stop() {
	if err := n.babe.Stop(); err != nil {
		logger.Warnf("stopping node %s: %s", n.name, err)
	}
	close(n.quit)
	<-n.done
}

// BuildBlock assembles a block whose body carries a single counter
// extrinsic, standing in for the runtime state transition
func (n *node) BuildBlock(_ context.Context, parent *types.Header, _ babe.Slot,
	digest types.Digest) (*types.Block, error) {
	n.counter++
	extrinsic := make([]byte, 8)
	binary.LittleEndian.PutUint64(extrinsic, n.counter)

	header := types.Header{
		ParentHash: parent.Hash(),
		Number:     parent.Number + 1,
		Digest:     digest,
	}
	return &types.Block{
		Header: header,
		Body:   types.Body{extrinsic},
	}, nil
}

// HandleBlockProduced imports our own sealed block and announces it
func (n *node) HandleBlockProduced(block *types.Block) error {
	if err := n.importBlock(block); err != nil {
		return err
	}
	n.hub.submit(n, block)
	return nil
}

// ReportEquivocation logs a detected double-authorship
func (n *node) ReportEquivocation(proof *types.BabeEquivocationProof) error {
	logger.Warnf("%s detected equivocation: %s", n.name, proof)
	return nil
}

func (n *node) deliver(block *types.Block) {
	select {
	case n.in <- block:
	default:
		logger.Warnf("%s dropped block %s: import queue full", n.name, block.Header.Hash().Short())
	}
}

func (n *node) importLoop() {
	defer close(n.done)

	finalise := time.NewTicker(n.babe.SlotDuration() * 10)
	defer finalise.Stop()

	for {
		select {
		case block := <-n.in:
			if err := n.importBlock(block); err != nil {
				logger.Warnf("%s failed to import block %s (#%d): %s",
					n.name, block.Header.Hash().Short(), block.Header.Number, err)
			}
		case <-finalise.C:
			if err := n.finalise(); err != nil {
				logger.Warnf("%s failed to finalise: %s", n.name, err)
			}
		case <-n.quit:
			return
		}
	}
}

// importBlock verifies a block, stores it with its claim's fork weight
// and persists any epoch change it carries
func (n *node) importBlock(block *types.Block) error {
	header := &block.Header

	parentEpoch, err := n.tracker.EpochFor(header.ParentHash)
	if err != nil {
		return err
	}

	seal, err := n.verifier.VerifyBlock(header)
	if err != nil {
		return err
	}

	err = n.blockState.AddBlock(block, babe.WeightIncrement(seal.Kind))
	if err != nil {
		return err
	}

	epoch, err := n.tracker.EpochFor(header.Hash())
	if err != nil {
		return err
	}
	if epoch.Index != parentEpoch.Index {
		err = n.epochState.StoreCheckpoint(header.Hash(), header.Number, header.ParentHash, epoch)
		if err != nil {
			return err
		}
		if err := n.epochState.SetCurrentEpoch(epoch.Index); err != nil {
			return err
		}
		logger.Infof("%s entered epoch %d at block #%d", n.name, epoch.Index, header.Number)
	}

	logger.Debugf("%s imported block %s (#%d), %s claim by authority %d",
		n.name, header.Hash().Short(), header.Number, seal.Kind, seal.AuthorityIndex)
	return nil
}

// finalise marks the block finalityLag below the best tip as final and
// prunes the forks and epoch checkpoints that died with it
func (n *node) finalise() error {
	best, err := n.blockState.BestBlockHeader()
	if err != nil {
		return err
	}
	if best.Number <= finalityLag {
		return nil
	}

	target := best
	for i := 0; i < finalityLag; i++ {
		target, err = n.blockState.GetHeader(target.ParentHash)
		if err != nil {
			return err
		}
	}

	if current, err := n.blockState.GetHeader(n.blockState.FinalisedHash()); err == nil &&
		target.Number <= current.Number {
		return nil
	}

	// prune the tracker before the headers it may need to walk are gone
	if err := n.tracker.Prune(target.Hash()); err != nil {
		return err
	}
	if err := n.blockState.SetFinalisedHash(target.Hash()); err != nil {
		return err
	}

	logger.Infof("%s finalised block %s (#%d)", n.name, target.Hash().Short(), target.Number)
	return nil
}

func (n *node) printSummary() {
	best, err := n.blockState.BestBlockHeader()
	if err != nil {
		logger.Errorf("%s: no best block: %s", n.name, err)
		return
	}
	weight, _ := n.blockState.BlockWeight(best.Hash())
	finalised, _ := n.blockState.GetHeader(n.blockState.FinalisedHash())

	finalisedNumber := uint64(0)
	if finalised != nil {
		finalisedNumber = finalised.Number
	}

	epoch, err := n.tracker.EpochFor(best.Hash())
	epochIndex := uint64(0)
	if err == nil {
		epochIndex = epoch.Index
	}

	fmt.Printf("%s: best #%d %s (weight %d, epoch %d), finalised #%d\n",
		n.name, best.Number, best.Hash().Short(), weight, epochIndex, finalisedNumber)
}

var _ babe.BlockBuilder = (*node)(nil)
var _ babe.BlockImportHandler = (*node)(nil)
var _ babe.EquivocationReporter = (*node)(nil)
