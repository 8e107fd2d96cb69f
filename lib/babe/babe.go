// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
	"github.com/ChainSafe/loom/lib/keystore"
)

// Service drives the slot lottery and block authoring: one logical task
// awaits the slot timer, evaluates the lottery for every locally owned
// key on each tick and hands winning claims to the block builder.
type Service struct {
	ctx    context.Context
	cancel context.CancelFunc

	blockState         BlockState
	tracker            EpochTracker
	blockBuilder       BlockBuilder
	blockImportHandler BlockImportHandler
	keystore           *keystore.Keystore

	authority    bool
	slotDuration time.Duration

	// set to 1 while a block build is in flight; the service skips
	// authoring a slot if the previous slot's build has not finished
	building int32

	sync.RWMutex
	pause chan struct{}
	wg    sync.WaitGroup
}

// ServiceConfig represents the configuration of the authoring service
type ServiceConfig struct {
	BlockState         BlockState
	EpochTracker       EpochTracker
	BlockBuilder       BlockBuilder
	BlockImportHandler BlockImportHandler
	Keystore           *keystore.Keystore
	SlotDuration       time.Duration
	Authority          bool
}

// NewService returns a new BABE authoring service
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg.BlockState == nil {
		return nil, errNilBlockState
	}
	if cfg.EpochTracker == nil {
		return nil, errNilEpochTracker
	}
	if cfg.BlockBuilder == nil {
		return nil, errNilBlockBuilder
	}
	if cfg.BlockImportHandler == nil {
		return nil, errNilBlockImportHandler
	}
	if cfg.Authority && (cfg.Keystore == nil || cfg.Keystore.Size() == 0) {
		return nil, errNoAuthorityKeyProvided
	}
	if cfg.SlotDuration <= 0 {
		return nil, fmt.Errorf("invalid slot duration: %s", cfg.SlotDuration)
	}

	ctx, cancel := context.WithCancel(context.Background())

	service := &Service{
		ctx:                ctx,
		cancel:             cancel,
		blockState:         cfg.BlockState,
		tracker:            cfg.EpochTracker,
		blockBuilder:       cfg.BlockBuilder,
		blockImportHandler: cfg.BlockImportHandler,
		keystore:           cfg.Keystore,
		authority:          cfg.Authority,
		slotDuration:       cfg.SlotDuration,
		pause:              make(chan struct{}),
	}

	logger.Debugf("created service: authority=%t, slot duration=%s",
		cfg.Authority, cfg.SlotDuration)
	return service, nil
}

// Start starts slot evaluation
func (b *Service) Start() error {
	if b.ctx.Err() != nil {
		return ErrServiceStopped
	}
	if !b.authority {
		return ErrNotAuthority
	}

	b.wg.Add(1)
	go b.run()
	return nil
}

// Stop stops the service. Once stopped it cannot be resumed.
func (b *Service) Stop() error {
	if b.ctx.Err() != nil {
		return ErrServiceStopped
	}

	b.cancel()
	b.wg.Wait()
	return nil
}

// Pause pauses the service ie. halts block production
func (b *Service) Pause() error {
	b.Lock()
	defer b.Unlock()

	if b.IsPaused() {
		return nil
	}

	close(b.pause)
	return nil
}

// Resume resumes the service ie. resumes block production
func (b *Service) Resume() error {
	b.Lock()
	defer b.Unlock()

	if !b.IsPaused() {
		return nil
	}

	b.pause = make(chan struct{})
	logger.Info("service resumed")
	return nil
}

// IsPaused returns if the service is paused or not (ie. producing blocks)
func (b *Service) IsPaused() bool {
	select {
	case <-b.pause:
		return true
	default:
		return false
	}
}

// IsStopped returns true if the service is stopped (ie not producing blocks)
func (b *Service) IsStopped() bool {
	return b.ctx.Err() != nil
}

// SlotDuration returns the service slot duration
func (b *Service) SlotDuration() time.Duration {
	return b.slotDuration
}

func (b *Service) run() {
	defer b.wg.Done()

	handler := newSlotHandler(b.slotDuration)
	for {
		slot, err := handler.waitForNextSlot(b.ctx)
		if err != nil {
			// context cancelled
			return
		}

		b.RLock()
		paused := b.IsPaused()
		b.RUnlock()
		if paused {
			continue
		}

		err = b.handleSlot(slot)
		switch {
		case err == nil:
		case errors.Is(err, errMultipleSlotClaimants):
			// ambiguous key setup under a single-claimant config,
			// refuse to author rather than equivocate with ourselves
			logger.Criticalf("stopping block production: %s", err)
			return
		case errors.Is(err, errLaggingSlot):
			logger.Tracef("skipping slot %d: %s", slot.number, err)
		default:
			logger.Warnf("failed to handle slot %d: %s", slot.number, err)
		}
	}
}

// handleSlot evaluates the lottery for one slot on top of the current
// best block
func (b *Service) handleSlot(slot Slot) error {
	bestHeader, err := b.blockState.BestBlockHeader()
	if err != nil {
		return fmt.Errorf("getting best block header: %w", err)
	}

	bestSlot := uint64(0)
	if bestHeader.Number > 0 {
		bestSlot, err = headerSlot(bestHeader)
		if err != nil {
			return fmt.Errorf("getting best block slot: %w", err)
		}
	}
	if slot.number <= bestSlot {
		return errLaggingSlot
	}

	epoch, err := b.tracker.EpochFor(bestHeader.Hash())
	if err != nil {
		return fmt.Errorf("getting epoch for best block: %w", err)
	}

	// a block authored past the epoch's last slot starts the next
	// epoch; each boundary block advances the epoch index by exactly one
	boundary := slot.number >= epoch.EndSlot()
	if boundary {
		epoch, err = nextEpoch(b.blockState, bestHeader, epoch)
		if err != nil {
			return fmt.Errorf("transitioning to next epoch: %w", err)
		}
		logger.Infof("initiating epoch %d at slot %d", epoch.Index, slot.number)
	}

	ed, err := resolveEpochData(epoch)
	if err != nil {
		return err
	}

	claim, err := b.runLottery(ed, slot.number)
	if err != nil {
		return err
	}
	if claim == nil {
		logger.Tracef("not authoring slot %d", slot.number)
		return nil
	}

	if !atomic.CompareAndSwapInt32(&b.building, 0, 1) {
		logger.Debugf("skipping authorship of slot %d: previous build still in flight", slot.number)
		return nil
	}

	logger.Debugf("claimed slot %d with %s claim, authority index %d",
		slot.number, claim.kind, claim.authorityIndex)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer atomic.StoreInt32(&b.building, 0)

		if err := b.buildAndImport(bestHeader, slot, claim, epoch, boundary); err != nil {
			logger.Warnf("failed to author block for slot %d: %s", slot.number, err)
		}
	}()

	return nil
}

// runLottery evaluates primary then secondary eligibility for every
// locally owned key present in the epoch's authority set. A nil claim
// means the slot is skipped. More than one eligible key is a hard error:
// the config permits a single claimant per slot.
func (b *Service) runLottery(ed *epochData, slot uint64) (*SlotClaim, error) {
	var claims []*SlotClaim

	for _, keypair := range b.keystore.Keypairs() {
		authorityIndex, has := authorityIndexForKey(ed.authorities, keypair)
		if !has {
			// not an authority key for this epoch
			continue
		}

		claim, err := b.claimSlot(ed, slot, keypair, authorityIndex)
		if err != nil {
			return nil, err
		}
		if claim != nil {
			claims = append(claims, claim)
		}
	}

	switch len(claims) {
	case 0:
		return nil, nil
	case 1:
		return claims[0], nil
	default:
		return nil, fmt.Errorf("%w: slot %d, %d claimants",
			errMultipleSlotClaimants, slot, len(claims))
	}
}

// claimSlot runs the lottery for one key: primary first, then the
// secondary fallback when the config allows it
func (b *Service) claimSlot(ed *epochData, slot uint64,
	keypair *sr25519.Keypair, authorityIndex uint32) (*SlotClaim, error) {
	vrfOutput, err := claimPrimarySlot(ed.randomness, slot, ed.index, ed.threshold, keypair)
	if err == nil {
		preDigest, err := types.NewBabePrimaryPreDigest(
			authorityIndex, slot, vrfOutput.output, vrfOutput.proof).ToPreRuntimeDigest()
		if err != nil {
			return nil, err
		}

		return &SlotClaim{
			slot:           slot,
			kind:           Primary,
			authorityIndex: authorityIndex,
			keypair:        keypair,
			preDigest:      preDigest,
			vrfOutput:      vrfOutput,
		}, nil
	}
	if !errors.Is(err, errOverPrimarySlotThreshold) {
		return nil, fmt.Errorf("running slot lottery at slot %d: %w", slot, err)
	}

	if !ed.allowedSlots.AllowsSecondary() {
		return nil, nil
	}

	if ed.allowedSlots.IsSecondaryVRF() {
		vrfOutput, err := claimSecondarySlotVRF(ed.randomness, slot, ed.index,
			ed.authorities, keypair, authorityIndex)
		if err != nil {
			if errors.Is(err, errNotOurTurnToPropose) {
				return nil, nil
			}
			return nil, err
		}

		preDigest, err := types.NewBabeSecondaryVRFPreDigest(
			authorityIndex, slot, vrfOutput.output, vrfOutput.proof).ToPreRuntimeDigest()
		if err != nil {
			return nil, err
		}

		return &SlotClaim{
			slot:           slot,
			kind:           SecondaryVRF,
			authorityIndex: authorityIndex,
			keypair:        keypair,
			preDigest:      preDigest,
			vrfOutput:      vrfOutput,
		}, nil
	}

	err = claimSecondarySlotPlain(ed.randomness, slot, ed.authorities, authorityIndex)
	if err != nil {
		if errors.Is(err, errNotOurTurnToPropose) {
			return nil, nil
		}
		return nil, err
	}

	preDigest, err := types.NewBabeSecondaryPlainPreDigest(authorityIndex, slot).ToPreRuntimeDigest()
	if err != nil {
		return nil, err
	}

	return &SlotClaim{
		slot:           slot,
		kind:           SecondaryPlain,
		authorityIndex: authorityIndex,
		keypair:        keypair,
		preDigest:      preDigest,
	}, nil
}

// buildAndImport asks the block builder to assemble a block for the
// claim, seals it and dispatches it to the import pipeline
func (b *Service) buildAndImport(parent *types.Header, slot Slot,
	claim *SlotClaim, epoch *types.Epoch, boundary bool) error {
	digest := types.Digest{claim.preDigest}
	if boundary {
		// the first block of an epoch announces the epoch's descriptor
		// so verifiers can check it against their own derivation
		consensusDigest, err := nextEpochDescriptorDigest(epoch)
		if err != nil {
			return fmt.Errorf("encoding next epoch descriptor: %w", err)
		}
		digest = append(digest, consensusDigest)
	}

	block, err := b.blockBuilder.BuildBlock(b.ctx, parent, slot, digest)
	if err != nil {
		return fmt.Errorf("building block: %w", err)
	}

	if err := sealBlock(&block.Header, claim.keypair); err != nil {
		return fmt.Errorf("sealing block: %w", err)
	}

	logger.Infof("built block %s (#%d) for slot %d",
		block.Header.Hash().Short(), block.Header.Number, slot.number)

	if err := b.blockImportHandler.HandleBlockProduced(block); err != nil {
		return fmt.Errorf("handling produced block: %w", err)
	}

	return nil
}

// sealBlock signs the encoded header and appends the signature as the
// header's seal digest item
func sealBlock(header *types.Header, keypair *sr25519.Keypair) error {
	encoded, err := header.Encode()
	if err != nil {
		return err
	}

	signature, err := keypair.Sign(encoded)
	if err != nil {
		return err
	}

	header.Digest = append(header.Digest, types.NewBABESealDigest(signature))
	header.ClearHash()
	return nil
}

// authorityIndexForKey returns the index of the keypair's public key in
// the authority set
func authorityIndexForKey(authorities []types.AuthorityRaw, keypair *sr25519.Keypair) (uint32, bool) {
	pub := keypair.Public().(*sr25519.PublicKey).AsBytes()
	for i, authority := range authorities {
		if types.AuthorityID(pub) == authority.Key {
			return uint32(i), true
		}
	}
	return 0, false
}
