package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
)

// Keypair is an ed25519 signing key in the 64-byte layout solana-keygen
// writes (seed followed by public key).
type Keypair struct {
	private ed25519.PrivateKey
}

func NewRandomKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Keypair{private: priv}, nil
}

func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d", len(seed))
	}
	return &Keypair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// KeypairFromBytes accepts the 64-byte secret key format. The embedded
// public key must match the one derived from the seed.
func KeypairFromBytes(b []byte) (*Keypair, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair length %d", len(b))
	}
	kp, err := KeypairFromSeed(b[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	pub := kp.PublicKey()
	if string(pub[:]) != string(b[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("keypair public key does not match secret")
	}
	return kp, nil
}

// LoadKeypairFile reads a solana-keygen JSON file (an array of 64 byte values).
func LoadKeypairFile(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read keypair file: %w", err)
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("could not parse keypair file %s: %w", path, err)
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair file %s: byte %d out of range", path, i)
		}
		raw[i] = byte(v)
	}
	return KeypairFromBytes(raw)
}

// WriteKeypairFile stores the keypair in solana-keygen format with 0600 permissions.
func WriteKeypairFile(kp *Keypair, path string) error {
	ints := make([]int, len(kp.private))
	for i, b := range kp.private {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (kp *Keypair) PublicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], kp.private.Public().(ed25519.PublicKey))
	return pk
}

func (kp *Keypair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(kp.private, message))
	return sig
}

// Verify checks an ed25519 signature made by pk over message.
func Verify(pk PublicKey, message []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, sig[:])
}
