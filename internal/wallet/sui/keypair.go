// Package sui derives Sui Ed25519 wallet keys from BIP-39 mnemonics and
// signs personal messages the way Sui wallets do.
package sui

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

// DerivationPath is the default Sui Ed25519 account path.
const DerivationPath = "m/44'/784'/0'/0'/0'"

const (
	ed25519Flag byte = 0x00

	// intent scope PersonalMessage, version V0, app id Sui
	intentPersonalMessage = 3
	intentVersion         = 0
	intentAppID           = 0

	hardenedOffset uint32 = 0x80000000
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Keypair is an Ed25519 Sui account key.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// FromMnemonic derives the keypair at DerivationPath.
func FromMnemonic(mnemonic string) (*Keypair, error) {
	return DeriveKeypair(mnemonic, DerivationPath)
}

// DeriveKeypair derives the keypair for mnemonic along a fully hardened SLIP-0010 path.
func DeriveKeypair(mnemonic, path string) (*Keypair, error) {
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return FromSeed(deriveSLIP10(seed, segments))
}

// FromSeed builds a keypair from a 32-byte Ed25519 seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// NormalizeMnemonic lowercases and collapses whitespace.
func NormalizeMnemonic(mnemonic string) string {
	return strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
}

func (k *Keypair) PublicKey() ed25519.PublicKey { return k.pub }

// Address is 0x-prefixed hex of blake2b-256(flag || pubkey).
func (k *Keypair) Address() string {
	buf := make([]byte, 0, 1+ed25519.PublicKeySize)
	buf = append(buf, ed25519Flag)
	buf = append(buf, k.pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

// String never exposes key material.
func (k *Keypair) String() string { return "sui.Keypair(" + k.Address() + ")" }

// PersonalMessageDigest is blake2b-256 over the intent prefix and the BCS encoded message.
func PersonalMessageDigest(msg []byte) [32]byte {
	buf := make([]byte, 0, 3+binary.MaxVarintLen64+len(msg))
	buf = append(buf, intentPersonalMessage, intentVersion, intentAppID)
	buf = binary.AppendUvarint(buf, uint64(len(msg))) // BCS vector length is ULEB128
	buf = append(buf, msg...)
	return blake2b.Sum256(buf)
}

// SignPersonalMessage returns the serialized signature base64(flag || sig || pubkey).
func (k *Keypair) SignPersonalMessage(msg []byte) (string, error) {
	digest := PersonalMessageDigest(msg)
	sig := ed25519.Sign(k.priv, digest[:])

	out := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	out = append(out, ed25519Flag)
	out = append(out, sig...)
	out = append(out, k.pub...)
	return base64.StdEncoding.EncodeToString(out), nil
}

func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("invalid derivation path %q", path)
	}
	out := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if !strings.HasSuffix(p, "'") {
			return nil, fmt.Errorf("ed25519 derivation path %q must be fully hardened", path)
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(p, "'"), 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", p, err)
		}
		out = append(out, uint32(n)+hardenedOffset)
	}
	return out, nil
}

// deriveSLIP10 walks hardened ed25519 children from the master key of seed.
func deriveSLIP10(seed []byte, segments []uint32) []byte {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	key, chain := sum[:32], sum[32:]

	for _, idx := range segments {
		data := make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, key...)
		data = binary.BigEndian.AppendUint32(data, idx)

		mac := hmac.New(sha512.New, chain)
		mac.Write(data)
		sum := mac.Sum(nil)
		key, chain = sum[:32], sum[32:]
	}
	return key
}
