// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package sr25519 wraps the schnorrkel library with the key interfaces
// used across the node, including the VRF operations used by the
// block production lottery.
package sr25519

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/loom/lib/crypto"

	"github.com/ChainSafe/go-schnorrkel"
	bip39 "github.com/cosmos/go-bip39"
	"github.com/gtank/merlin"
)

const (
	// PublicKeyLength is the fixed length of a sr25519 public key
	PublicKeyLength = 32
	// SeedLength is the fixed length of a sr25519 seed
	SeedLength = 32
	// PrivateKeyLength is the fixed length of a sr25519 private key
	PrivateKeyLength = 32
	// SignatureLength is the fixed length of a sr25519 signature
	SignatureLength = 64
	// VRFOutputLength is the fixed length of a VRF pre-output
	VRFOutputLength = 32
	// VRFProofLength is the fixed length of a VRF proof
	VRFProofLength = 64
)

// SigningContext is the context for signatures used or created with this package
var SigningContext = []byte("substrate")

// Keypair is a sr25519 public-private keypair
type Keypair struct {
	public  *PublicKey
	private *PrivateKey
}

// PublicKey holds a sr25519 public key
type PublicKey struct {
	key *schnorrkel.PublicKey
}

// PrivateKey holds a sr25519 private key
type PrivateKey struct {
	key *schnorrkel.SecretKey
}

// NewKeypair returns a sr25519 Keypair given a schnorrkel secret key
func NewKeypair(priv *schnorrkel.SecretKey) (*Keypair, error) {
	pub, err := priv.Public()
	if err != nil {
		return nil, err
	}

	return &Keypair{
		public:  &PublicKey{key: pub},
		private: &PrivateKey{key: priv},
	}, nil
}

// NewKeypairFromSeed returns a new sr25519 Keypair given a 32 byte seed
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != SeedLength {
		return nil, fmt.Errorf("cannot generate key from seed: seed is not %d bytes long", SeedLength)
	}

	buf := [SeedLength]byte{}
	copy(buf[:], seed)

	msc, err := schnorrkel.NewMiniSecretKeyFromRaw(buf)
	if err != nil {
		return nil, err
	}

	return &Keypair{
		public:  &PublicKey{key: msc.Public()},
		private: &PrivateKey{key: msc.ExpandEd25519()},
	}, nil
}

// NewKeypairFromMnemonic returns a new Keypair using the given mnemonic and password
func NewKeypairFromMnemonic(mnemonic, password string) (*Keypair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("mnemonic is invalid")
	}

	seed := bip39.NewSeed(mnemonic, password)
	return NewKeypairFromSeed(seed[:SeedLength])
}

// GenerateKeypair returns a new sr25519 keypair
func GenerateKeypair() (*Keypair, error) {
	priv, pub, err := schnorrkel.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	return &Keypair{
		public:  &PublicKey{key: pub},
		private: &PrivateKey{key: priv},
	}, nil
}

// NewPublicKey returns a sr25519 PublicKey given raw public key bytes
func NewPublicKey(in []byte) (*PublicKey, error) {
	if len(in) != PublicKeyLength {
		return nil, fmt.Errorf("cannot create public key: input is not %d bytes", PublicKeyLength)
	}

	buf := [PublicKeyLength]byte{}
	copy(buf[:], in)

	key := new(schnorrkel.PublicKey)
	if err := key.Decode(buf); err != nil {
		return nil, err
	}

	return &PublicKey{key: key}, nil
}

// Sign uses the keypair to sign the message using the sr25519 signature algorithm
func (kp *Keypair) Sign(msg []byte) ([]byte, error) {
	return kp.private.Sign(msg)
}

// Public returns the public key corresponding to this keypair
func (kp *Keypair) Public() crypto.PublicKey {
	return kp.public
}

// Private returns the private key corresponding to this keypair
func (kp *Keypair) Private() crypto.PrivateKey {
	return kp.private
}

// VrfSign creates a VRF output and proof from a transcript, using the private key
func (kp *Keypair) VrfSign(t *merlin.Transcript) (
	[VRFOutputLength]byte, [VRFProofLength]byte, error) {
	return kp.private.VrfSign(t)
}

// Sign uses the private key to sign the message using the sr25519 signature algorithm
func (k *PrivateKey) Sign(msg []byte) ([]byte, error) {
	if k.key == nil {
		return nil, errors.New("key is nil")
	}

	t := schnorrkel.NewSigningContext(SigningContext, msg)
	sig, err := k.key.Sign(t)
	if err != nil {
		return nil, err
	}

	enc := sig.Encode()
	return enc[:], nil
}

// VrfSign creates a VRF output and proof from a transcript, using the private key
func (k *PrivateKey) VrfSign(t *merlin.Transcript) (
	out [VRFOutputLength]byte, proof [VRFProofLength]byte, err error) {
	if k.key == nil {
		return out, proof, errors.New("key is nil")
	}

	inout, vrfProof, err := k.key.VrfSign(t)
	if err != nil {
		return out, proof, err
	}

	out = inout.Output().Encode()
	proof = vrfProof.Encode()
	return out, proof, nil
}

// Public returns the public key corresponding to this private key
func (k *PrivateKey) Public() (crypto.PublicKey, error) {
	if k.key == nil {
		return nil, errors.New("key is nil")
	}

	pub, err := k.key.Public()
	if err != nil {
		return nil, err
	}

	return &PublicKey{key: pub}, nil
}

// Encode returns the 32-byte encoding of the private key
func (k *PrivateKey) Encode() []byte {
	if k.key == nil {
		return nil
	}

	enc := k.key.Encode()
	return enc[:]
}

// Decode decodes the input bytes into a private key and sets the receiver the decoded key
func (k *PrivateKey) Decode(in []byte) error {
	if len(in) != PrivateKeyLength {
		return fmt.Errorf("cannot decode private key: input is not %d bytes", PrivateKeyLength)
	}

	b := [PrivateKeyLength]byte{}
	copy(b[:], in)
	k.key = &schnorrkel.SecretKey{}
	return k.key.Decode(b)
}

// Verify uses the sr25519 signature algorithm to verify that the message
// was signed by this public key
func (k *PublicKey) Verify(msg, sig []byte) (bool, error) {
	if k.key == nil {
		return false, errors.New("key is nil")
	}

	if len(sig) != SignatureLength {
		return false, errors.New("invalid signature length")
	}

	b := [SignatureLength]byte{}
	copy(b[:], sig)

	s := &schnorrkel.Signature{}
	if err := s.Decode(b); err != nil {
		return false, err
	}

	t := schnorrkel.NewSigningContext(SigningContext, msg)
	return k.key.Verify(s, t)
}

// VrfVerify confirms that the output and proof are valid given a transcript and public key
func (k *PublicKey) VrfVerify(t *merlin.Transcript,
	out [VRFOutputLength]byte, proof [VRFProofLength]byte) (bool, error) {
	if k.key == nil {
		return false, errors.New("key is nil")
	}

	o, err := schnorrkel.NewOutput(out)
	if err != nil {
		return false, err
	}

	p := new(schnorrkel.VrfProof)
	if err := p.Decode(proof); err != nil {
		return false, err
	}

	return k.key.VrfVerify(t, o, p)
}

// AttachInput wraps schnorrkel *VrfOutput.AttachInput:
// it returns a VrfInOut given a public key and transcript
func AttachInput(output [VRFOutputLength]byte, pub *PublicKey,
	t *merlin.Transcript) (*schnorrkel.VrfInOut, error) {
	o, err := schnorrkel.NewOutput(output)
	if err != nil {
		return nil, err
	}
	return o.AttachInput(pub.key, t)
}

// Encode returns the 32-byte encoding of the public key
func (k *PublicKey) Encode() []byte {
	if k.key == nil {
		return nil
	}

	enc := k.key.Encode()
	return enc[:]
}

// Decode decodes the input bytes into a public key and sets the receiver the decoded key
func (k *PublicKey) Decode(in []byte) error {
	if len(in) != PublicKeyLength {
		return fmt.Errorf("cannot decode public key: input is not %d bytes", PublicKeyLength)
	}

	b := [PublicKeyLength]byte{}
	copy(b[:], in)
	k.key = &schnorrkel.PublicKey{}
	return k.key.Decode(b)
}

// Address returns the ss58 address for the public key
func (k *PublicKey) Address() crypto.Address {
	return crypto.PublicKeyToAddress(k)
}

// Hex returns the public key as a '0x' prefixed hex string
func (k *PublicKey) Hex() string {
	return fmt.Sprintf("0x%x", k.Encode())
}

// AsBytes returns the public key as a fixed 32 byte array
func (k *PublicKey) AsBytes() (b [PublicKeyLength]byte) {
	copy(b[:], k.Encode())
	return b
}
