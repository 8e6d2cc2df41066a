// Package keyschedule derives the symmetric AEAD key and the gear-hash
// table from a repository's 32-byte root key, and implements the
// nonce-misuse-resistant AEAD construction used to encrypt every stored
// object.
package keyschedule

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"

	"lukechampine.com/blake3"
)

// Domain-separation labels. These are opaque constants fixed at
// deployment time; changing them re-keys every existing repository.
const (
	encryptionKeyLabel = "Forgevault Encryption Key"
	gearTableLabel     = "Forgevault gearhash table"
	cipherSubkeyLabel  = "Forgevault AEAD cipher subkey"
	nonceSubkeyLabel   = "Forgevault AEAD nonce subkey"
)

// RepoKey is the 32-byte secret held for the lifetime of a store handle.
type RepoKey [32]byte

// ZeroKey is the well-known all-zero key reserved for "public" stores.
var ZeroKey RepoKey

// GearTable is the 256-entry table driving the chunker's rolling hash.
type GearTable [256]uint64

// DeriveGearTable derives the 256x64-bit gear-hash table from the root
// key via a keyed BLAKE3 extendable output stream, parsed as big-endian
// u64 table entries.
func (k RepoKey) DeriveGearTable() GearTable {
	var raw [2048]byte
	blake3.DeriveKey(raw[:], gearTableLabel, k[:])

	var table GearTable
	for i := 0; i < 256; i++ {
		off := i * 8
		var v uint64
		for b := 0; b < 8; b++ {
			v = v<<8 | uint64(raw[off+b])
		}
		table[i] = v
	}
	return table
}

// AEADKey is the derived, ready-to-use encryption key for a repository.
// It is never constructed directly by callers outside this package: use
// DeriveAEADKey.
type AEADKey struct {
	cipherKey [32]byte
	nonceKey  [32]byte
}

// DeriveAEADKey derives the 256-bit AEAD key from the root key, then
// splits it (internally, deterministically) into a cipher subkey and a
// nonce-derivation subkey used by the SIV-style construction below.
func (k RepoKey) DeriveAEADKey() AEADKey {
	var base [32]byte
	blake3.DeriveKey(base[:], encryptionKeyLabel, k[:])

	var aead AEADKey
	blake3.DeriveKey(aead.cipherKey[:], cipherSubkeyLabel, base[:])
	blake3.DeriveKey(aead.nonceKey[:], nonceSubkeyLabel, base[:])
	return aead
}

// ErrDecryptionFailure reports an AEAD authentication failure: the
// ciphertext was corrupted, truncated, or encrypted under a different
// key. It is always fatal and is never silently masked.
var ErrDecryptionFailure = errors.New("keyschedule: decryption failure")

// syntheticNonce derives the per-message GCM nonce deterministically
// from the plaintext: a keyed BLAKE3 hash of the plaintext, truncated to
// the AEAD's nonce size. This is the synthetic-IV step of the
// SIV-style construction: nonce-misuse resistance follows because two
// distinct plaintexts collide to the same nonce only with the
// negligible probability of a 96-bit PRF collision, while identical
// plaintexts always reproduce the same nonce and therefore the same
// ciphertext, which is exactly the deduplication property the store
// requires.
func syntheticNonce(nonceKey [32]byte, plaintext []byte, size int) []byte {
	h := blake3.New(32, nonceKey[:])
	h.Write(plaintext)
	sum := h.Sum(nil)
	return sum[:size]
}

// Seal encrypts plaintext deterministically: the same plaintext under
// the same key always produces the same ciphertext, satisfying the
// "constant zero nonce is safe" contract of a nonce-misuse-resistant
// AEAD without ever reusing a literal nonce across distinct messages.
// The synthetic nonce is stored as a prefix of the returned ciphertext.
func (k AEADKey) Seal(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.cipherKey[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := syntheticNonce(k.nonceKey, plaintext, gcm.NonceSize())
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open decrypts a value produced by Seal. Any authentication or
// formatting failure is reported as ErrDecryptionFailure: per the
// store's error model, corruption is surfaced, never retried or masked.
func (k AEADKey) Open(sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.cipherKey[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, ErrDecryptionFailure
	}
	nonce := sealed[:gcm.NonceSize()]
	ciphertext := sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailure
	}

	// Defense against a tampered nonce prefix: recompute the expected
	// synthetic nonce from the recovered plaintext and compare in
	// constant time. The GCM tag alone already authenticates
	// (nonce, ciphertext); this additionally binds the nonce to the
	// plaintext the construction is supposed to have produced it from.
	expected := syntheticNonce(k.nonceKey, plaintext, gcm.NonceSize())
	if subtle.ConstantTimeCompare(expected, nonce) != 1 {
		return nil, ErrDecryptionFailure
	}
	return plaintext, nil
}
