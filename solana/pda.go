package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

const pdaMarker = "ProgramDerivedAddress"

var (
	// ErrInvalidSeeds is returned when the seeds hash to a point on the
	// ed25519 curve or break the seed count/length limits.
	ErrInvalidSeeds = errors.New("invalid seeds, address must fall off the curve")
	// ErrNoViableBump is returned when none of the 256 bump values yields
	// an off-curve address.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
)

// IsOnCurve reports whether b decodes to a valid ed25519 point.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress derives a program address from the exact seeds
// given, without searching for a bump.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return PublicKey{}, fmt.Errorf("%w: %d seeds exceeds max of %d", ErrInvalidSeeds, len(seeds), MaxSeeds)
	}

	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return PublicKey{}, fmt.Errorf("%w: seed %d is %d bytes", ErrInvalidSeeds, i, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var addr PublicKey
	copy(addr[:], h.Sum(nil))

	if IsOnCurve(addr[:]) {
		return PublicKey{}, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the
// first off-curve address together with its bump.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return PublicKey{}, 0, fmt.Errorf("%w: no room for bump seed", ErrInvalidSeeds)
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return PublicKey{}, 0, fmt.Errorf("%w: seed %d is %d bytes", ErrInvalidSeeds, i, len(seed))
		}
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, ErrNoViableBump
}
