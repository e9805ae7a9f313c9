package solana

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	PublicKeyLength = 32
	SignatureLength = 64
)

var (
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidSignature = errors.New("invalid signature")
)

// PublicKey is an ed25519 public key or a program derived address.
type PublicKey [PublicKeyLength]byte

// SystemProgramID is the address of the native system program.
var SystemProgramID = PublicKey{}

func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) != PublicKeyLength {
		return PublicKey{}, fmt.Errorf("%w: length %d", ErrInvalidPublicKey, len(b))
	}
	var pk PublicKey
	copy(pk[:], b)
	return pk, nil
}

func PublicKeyFromBase58(s string) (PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return PublicKeyFromBytes(raw)
}

// MustPublicKeyFromBase58 panics on malformed input. Only meant for constants.
func MustPublicKeyFromBase58(s string) PublicKey {
	pk, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

func (pk PublicKey) Equals(other PublicKey) bool {
	return bytes.Equal(pk[:], other[:])
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := PublicKeyFromBase58(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// Signature is an ed25519 transaction signature. The first signature of a
// transaction doubles as its id.
type Signature [SignatureLength]byte

func SignatureFromBase58(s string) (Signature, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) != SignatureLength {
		return Signature{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(raw))
	}
	var sig Signature
	copy(sig[:], raw)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := SignatureFromBase58(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Hash is a recent blockhash referenced by a transaction message.
type Hash [32]byte

func HashFromBase58(s string) (Hash, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash: %w", err)
	}
	if len(raw) != 32 {
		return Hash{}, fmt.Errorf("invalid hash length %d", len(raw))
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}
