package inventory

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

var ErrAccountTooSmall = errors.New("account data too small")

// EncodeRegistryAccount serializes the registry with its discriminator and
// zero-pads it to RegistrySpace.
func EncodeRegistryAccount(reg *InventoryRegistry) ([]byte, error) {
	body, err := bin.MarshalBorsh(*reg)
	if err != nil {
		return nil, fmt.Errorf("could not serialize registry: %w", err)
	}
	if len(RegistryDiscriminator)+len(body) > RegistrySpace {
		return nil, ErrAccountDidNotSerialize
	}
	out := make([]byte, RegistrySpace)
	copy(out, RegistryDiscriminator[:])
	copy(out[len(RegistryDiscriminator):], body)
	return out, nil
}

// DecodeRegistryAccount parses registry account data. Trailing padding is ignored.
func DecodeRegistryAccount(data []byte) (*InventoryRegistry, error) {
	if len(data) < len(RegistryDiscriminator) {
		return nil, fmt.Errorf("%w: %d bytes", ErrAccountTooSmall, len(data))
	}
	if !bytes.Equal(data[:len(RegistryDiscriminator)], RegistryDiscriminator[:]) {
		return nil, ErrAccountDiscriminatorMismatch
	}
	reg := new(InventoryRegistry)
	if err := bin.NewBorshDecoder(data[len(RegistryDiscriminator):]).Decode(reg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountDidNotDeserialize, err)
	}
	return reg, nil
}
