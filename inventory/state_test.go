package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, 217, ItemSize)
	assert.Equal(t, 3, SlotAssignmentSize)
	assert.Equal(t, 80, TotalSlots)
	assert.Equal(t, 14181, RegistrySpace)
}

func TestDefaultProgramID(t *testing.T) {
	decoded, err := solana.PublicKeyFromBase58(DefaultProgramIDBase58)
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, decoded)
	assert.Equal(t, DefaultProgramIDBase58, DefaultProgramID.String())
}

func TestSlotPosition(t *testing.T) {
	pos, err := SlotPosition(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), pos)

	pos, err = SlotPosition(3, 19)
	require.NoError(t, err)
	assert.Equal(t, uint16(79), pos)

	pos, err = SlotPosition(2, 5)
	require.NoError(t, err)
	assert.Equal(t, uint16(45), pos)

	_, err = SlotPosition(4, 0)
	assert.ErrorIs(t, err, ErrInvalidClass)
	_, err = SlotPosition(0, 20)
	assert.ErrorIs(t, err, ErrInvalidSlot)
	// Class is checked before slot
	_, err = SlotPosition(9, 99)
	assert.ErrorIs(t, err, ErrInvalidClass)
}

func TestItemInput_Validate(t *testing.T) {
	valid := ItemInput{OwnerCode: ClassCount, Rarity: 255, Name: strings.Repeat("n", MaxNameLen), Icon: strings.Repeat("i", MaxIconLen), Description: strings.Repeat("d", MaxDescriptionLen)}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(*ItemInput)
		err    error
	}{
		{"owner code", func(in *ItemInput) { in.OwnerCode = ClassCount + 1 }, ErrOwnerCodeOutOfRange},
		{"name", func(in *ItemInput) { in.Name += "x" }, ErrNameTooLong},
		{"icon", func(in *ItemInput) { in.Icon += "x" }, ErrIconTooLong},
		{"description", func(in *ItemInput) { in.Description += "x" }, ErrDescriptionTooLong},
		// Limits are in bytes, not runes
		{"multibyte name", func(in *ItemInput) { in.Name = strings.Repeat("é", 17) }, ErrNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			assert.ErrorIs(t, in.Validate(), tt.err)
		})
	}
}

func TestDiscriminators(t *testing.T) {
	all := []Discriminator{
		RegistryDiscriminator,
		InitializeRegistryDiscriminator,
		CreateItemDiscriminator,
		UpdateItemDiscriminator,
		SetSlotDiscriminator,
		ClearSlotDiscriminator,
	}
	seen := map[Discriminator]bool{}
	for _, d := range all {
		assert.False(t, seen[d])
		seen[d] = true
	}
	assert.Equal(t, sighash("global", "create_item"), CreateItemDiscriminator)
}

func TestProgramErrors(t *testing.T) {
	pe, ok := ProgramErrorFromCode(6003)
	require.True(t, ok)
	assert.ErrorIs(t, pe, ErrInactiveItem)
	assert.NotErrorIs(t, pe, ErrUnknownItem)
	assert.Equal(t, "InactiveItem (6003): Inactive item cannot be equipped", pe.Error())

	_, ok = ProgramErrorFromCode(7000)
	assert.False(t, ok)
}
