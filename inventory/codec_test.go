package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

func TestRegistryAccount_EncodeDecode(t *testing.T) {
	kp, err := solana.NewRandomKeypair()
	require.NoError(t, err)

	reg := NewInventoryRegistry(kp.PublicKey(), 254)
	_, err = createItem(reg, &ItemInput{OwnerCode: 1, Rarity: 3, Name: "Sword", Icon: "S", Description: "Sharp"})
	require.NoError(t, err)
	_, err = createItem(reg, &ItemInput{OwnerCode: 2, Rarity: 1, Name: "Shield"})
	require.NoError(t, err)
	id := uint16(2)
	require.NoError(t, setSlot(reg, 1, 3, &id))

	data, err := EncodeRegistryAccount(reg)
	require.NoError(t, err)
	assert.Len(t, data, RegistrySpace)
	assert.Equal(t, RegistryDiscriminator[:], data[:8])
	assert.Equal(t, kp.PublicKey().Bytes(), data[8:40])
	assert.Equal(t, byte(254), data[40])

	decoded, err := DecodeRegistryAccount(data)
	require.NoError(t, err)
	assert.Equal(t, reg.Authority, decoded.Authority)
	assert.Equal(t, uint8(254), decoded.Bump)
	assert.Equal(t, uint16(2), decoded.TotalItems)
	assert.Equal(t, uint16(MaxItems), decoded.MaxItems)
	assert.Equal(t, reg.Items, decoded.Items)
	assert.Equal(t, reg.Slots, decoded.Slots)
	assert.Equal(t, SlotAssignment{ItemID: 2, Occupied: true}, decoded.Slots[23])
}

func TestRegistryAccount_FullCapacityFits(t *testing.T) {
	kp, _ := solana.NewRandomKeypair()
	reg := NewInventoryRegistry(kp.PublicKey(), 255)
	input := ItemInput{
		OwnerCode:   ClassCount,
		Name:        string(make([]byte, MaxNameLen)),
		Icon:        string(make([]byte, MaxIconLen)),
		Description: string(make([]byte, MaxDescriptionLen)),
	}
	for i := 0; i < MaxItems; i++ {
		_, err := createItem(reg, &input)
		require.NoError(t, err)
	}

	data, err := EncodeRegistryAccount(reg)
	require.NoError(t, err)
	assert.Len(t, data, RegistrySpace)

	decoded, err := DecodeRegistryAccount(data)
	require.NoError(t, err)
	assert.Len(t, decoded.Items, MaxItems)
}

func TestDecodeRegistryAccount_Invalid(t *testing.T) {
	_, err := DecodeRegistryAccount([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrAccountTooSmall)

	_, err = DecodeRegistryAccount(make([]byte, RegistrySpace))
	assert.ErrorIs(t, err, ErrAccountDiscriminatorMismatch)

	truncated := append(RegistryDiscriminator[:], 1, 2, 3)
	_, err = DecodeRegistryAccount(truncated)
	assert.ErrorIs(t, err, ErrAccountDidNotDeserialize)
}
