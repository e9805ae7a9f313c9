package inventory

import (
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

type memStore map[solana.PublicKey]*solana.Account

func (m memStore) GetAccount(pk solana.PublicKey) (*solana.Account, bool) {
	acc, ok := m[pk]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

func (m memStore) SetAccount(pk solana.PublicKey, acc *solana.Account) {
	m[pk] = acc.Clone()
}

type programFixture struct {
	program   *Program
	store     memStore
	authority *solana.Keypair
	ix        *Instructions
}

func newProgramFixture(t *testing.T) *programFixture {
	t.Helper()
	authority, err := solana.NewRandomKeypair()
	require.NoError(t, err)
	ix, err := NewInstructions(DefaultProgramID, authority.PublicKey())
	require.NoError(t, err)

	store := memStore{}
	store.SetAccount(authority.PublicKey(), &solana.Account{Lamports: 10_000_000_000})

	return &programFixture{
		program:   NewProgram(DefaultProgramID, slog.New(slog.NewTextHandler(io.Discard, nil))),
		store:     store,
		authority: authority,
		ix:        ix,
	}
}

func (f *programFixture) run(t *testing.T, ix solana.Instruction, err error) ([]byte, error) {
	t.Helper()
	require.NoError(t, err)
	return f.program.Process(f.store, ix)
}

func (f *programFixture) registry(t *testing.T) *InventoryRegistry {
	t.Helper()
	acc, ok := f.store.GetAccount(f.ix.Registry)
	require.True(t, ok)
	reg, err := DecodeRegistryAccount(acc.Data)
	require.NoError(t, err)
	return reg
}

func (f *programFixture) initialize(t *testing.T) {
	t.Helper()
	ix, err := f.ix.InitializeRegistry()
	_, err = f.run(t, ix, err)
	require.NoError(t, err)
}

func (f *programFixture) createItem(t *testing.T, in ItemInput) uint16 {
	t.Helper()
	ix, err := f.ix.CreateItem(in)
	ret, err := f.run(t, ix, err)
	require.NoError(t, err)
	require.Len(t, ret, 2)
	return binary.LittleEndian.Uint16(ret)
}

func TestProgram_InitializeRegistry(t *testing.T) {
	f := newProgramFixture(t)
	f.initialize(t)

	acc, ok := f.store.GetAccount(f.ix.Registry)
	require.True(t, ok)
	assert.Equal(t, DefaultProgramID, acc.Owner)
	assert.Len(t, acc.Data, RegistrySpace)
	assert.Equal(t, solana.RentExemptMinimum(RegistrySpace), acc.Lamports)

	reg := f.registry(t)
	assert.Equal(t, f.authority.PublicKey(), reg.Authority)
	assert.Equal(t, f.ix.Bump, reg.Bump)
	assert.Equal(t, uint16(0), reg.TotalItems)
	assert.Equal(t, uint16(MaxItems), reg.MaxItems)
	assert.Empty(t, reg.Items)
	require.Len(t, reg.Slots, TotalSlots)
	for _, slot := range reg.Slots {
		assert.Equal(t, SlotAssignment{}, slot)
	}

	payer, _ := f.store.GetAccount(f.authority.PublicKey())
	assert.Equal(t, 10_000_000_000-solana.RentExemptMinimum(RegistrySpace), payer.Lamports)
}

func TestProgram_InitializeTwiceFails(t *testing.T) {
	f := newProgramFixture(t)
	f.initialize(t)

	ix, err := f.ix.InitializeRegistry()
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrAccountAlreadyInUse)
}

func TestProgram_InitializePrefundedRegistry(t *testing.T) {
	rent := solana.RentExemptMinimum(RegistrySpace)
	tests := []struct {
		name      string
		prefunded uint64
		lamports  uint64
		charged   uint64
	}{
		{"partial", 890_880, rent, rent - 890_880},
		{"exact", rent, rent, 0},
		{"surplus", rent + 5, rent + 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProgramFixture(t)
			f.store.SetAccount(f.ix.Registry, &solana.Account{Lamports: tt.prefunded, Owner: solana.SystemProgramID})
			f.initialize(t)

			acc, ok := f.store.GetAccount(f.ix.Registry)
			require.True(t, ok)
			assert.Equal(t, DefaultProgramID, acc.Owner)
			assert.Equal(t, tt.lamports, acc.Lamports)
			assert.Equal(t, f.authority.PublicKey(), f.registry(t).Authority)

			payer, _ := f.store.GetAccount(f.authority.PublicKey())
			assert.Equal(t, 10_000_000_000-tt.charged, payer.Lamports)
		})
	}
}

func TestProgram_InitializeOccupiedRegistryFails(t *testing.T) {
	other, err := solana.NewRandomKeypair()
	require.NoError(t, err)

	tests := []struct {
		name string
		acc  *solana.Account
	}{
		{"system owned with data", &solana.Account{Lamports: 1, Owner: solana.SystemProgramID, Data: []byte{1}}},
		{"foreign owner", &solana.Account{Lamports: 1, Owner: other.PublicKey()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProgramFixture(t)
			f.store.SetAccount(f.ix.Registry, tt.acc)

			ix, err := f.ix.InitializeRegistry()
			_, err = f.run(t, ix, err)
			assert.ErrorIs(t, err, ErrAccountAlreadyInUse)

			payer, _ := f.store.GetAccount(f.authority.PublicKey())
			assert.Equal(t, uint64(10_000_000_000), payer.Lamports)
		})
	}
}

func TestProgram_InitializeConstraints(t *testing.T) {
	f := newProgramFixture(t)
	good, err := f.ix.InitializeRegistry()
	require.NoError(t, err)

	clone := func() solana.Instruction {
		ix := good
		ix.Accounts = append([]solana.AccountMeta(nil), good.Accounts...)
		return ix
	}

	notSigner := clone()
	notSigner.Accounts[1].IsSigner = false
	_, err = f.program.Process(f.store, notSigner)
	assert.ErrorIs(t, err, ErrAccountNotSigner)

	wrongPDA := clone()
	other, _ := solana.NewRandomKeypair()
	wrongPDA.Accounts[0].PublicKey = other.PublicKey()
	_, err = f.program.Process(f.store, wrongPDA)
	assert.ErrorIs(t, err, ErrConstraintSeeds)

	wrongSystem := clone()
	wrongSystem.Accounts[2].PublicKey = other.PublicKey()
	_, err = f.program.Process(f.store, wrongSystem)
	assert.ErrorIs(t, err, ErrInvalidProgramID)

	missing := clone()
	missing.Accounts = missing.Accounts[:2]
	_, err = f.program.Process(f.store, missing)
	assert.ErrorIs(t, err, ErrAccountNotEnoughKeys)

	poor := newProgramFixture(t)
	poor.store.SetAccount(poor.authority.PublicKey(), &solana.Account{Lamports: 1})
	ix, err := poor.ix.InitializeRegistry()
	_, err = poor.run(t, ix, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestProgram_UnknownInstruction(t *testing.T) {
	f := newProgramFixture(t)

	_, err := f.program.Process(f.store, solana.Instruction{ProgramID: DefaultProgramID, Data: []byte{1, 2}})
	assert.ErrorIs(t, err, ErrInstructionMissing)

	_, err = f.program.Process(f.store, solana.Instruction{ProgramID: DefaultProgramID, Data: make([]byte, 8)})
	assert.ErrorIs(t, err, ErrInstructionFallbackNotFound)

	_, err = f.program.Process(f.store, solana.Instruction{ProgramID: DefaultProgramID, Data: UpdateItemDiscriminator[:]})
	assert.ErrorIs(t, err, ErrInstructionDidNotDeserialize)
}

func TestProgram_ModifyBeforeInitialize(t *testing.T) {
	f := newProgramFixture(t)
	ix, err := f.ix.CreateItem(ItemInput{Name: "x"})
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrAccountNotInitialized)
}

func TestProgram_CreateItem(t *testing.T) {
	f := newProgramFixture(t)
	f.initialize(t)

	id := f.createItem(t, ItemInput{OwnerCode: 2, Rarity: 4, Name: "Blade", Icon: "B", Description: "A blade"})
	assert.Equal(t, uint16(1), id)
	id = f.createItem(t, ItemInput{Name: "Helm"})
	assert.Equal(t, uint16(2), id)

	reg := f.registry(t)
	assert.Equal(t, uint16(2), reg.TotalItems)
	require.Len(t, reg.Items, 2)
	assert.Equal(t, Item{ID: 1, OwnerCode: 2, Rarity: 4, Active: true, Name: "Blade", Icon: "B", Description: "A blade"}, reg.Items[0])

	ix, err := f.ix.CreateItem(ItemInput{OwnerCode: ClassCount + 1})
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrOwnerCodeOutOfRange)
}

func TestProgram_ItemCapacity(t *testing.T) {
	f := newProgramFixture(t)
	f.initialize(t)

	for i := 1; i <= MaxItems; i++ {
		assert.Equal(t, uint16(i), f.createItem(t, ItemInput{Name: "item"}))
	}
	ix, err := f.ix.CreateItem(ItemInput{Name: "overflow"})
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrItemCapacityReached)
	assert.Len(t, f.registry(t).Items, MaxItems)
}

func TestProgram_UpdateItem(t *testing.T) {
	f := newProgramFixture(t)
	f.initialize(t)
	id := f.createItem(t, ItemInput{Name: "Old"})

	ix, err := f.ix.UpdateItem(id, ItemInput{OwnerCode: 1, Rarity: 9, Name: "New", Icon: "N", Description: "updated"}, false)
	_, err = f.run(t, ix, err)
	require.NoError(t, err)

	item, ok := f.registry(t).Item(id)
	require.True(t, ok)
	assert.Equal(t, Item{ID: id, OwnerCode: 1, Rarity: 9, Active: false, Name: "New", Icon: "N", Description: "updated"}, *item)

	ix, err = f.ix.UpdateItem(99, ItemInput{}, true)
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrUnknownItem)

	ix, err = f.ix.UpdateItem(id, ItemInput{Icon: "too-long-icon"}, true)
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrIconTooLong)
}

func TestProgram_Slots(t *testing.T) {
	f := newProgramFixture(t)
	f.initialize(t)
	active := f.createItem(t, ItemInput{Name: "Active"})
	inactive := f.createItem(t, ItemInput{Name: "Inactive"})

	ix, err := f.ix.UpdateItem(inactive, ItemInput{Name: "Inactive"}, false)
	_, err = f.run(t, ix, err)
	require.NoError(t, err)

	ix, err = f.ix.SetSlot(3, 19, &active)
	_, err = f.run(t, ix, err)
	require.NoError(t, err)
	assert.Equal(t, SlotAssignment{ItemID: active, Occupied: true}, f.registry(t).Slots[79])

	ix, err = f.ix.SetSlot(0, 0, &inactive)
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrInactiveItem)

	unknown := uint16(42)
	ix, err = f.ix.SetSlot(0, 0, &unknown)
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrUnknownItem)

	ix, err = f.ix.SetSlot(ClassCount, 0, &active)
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrInvalidClass)

	ix, err = f.ix.SetSlot(0, SlotsPerClass, nil)
	_, err = f.run(t, ix, err)
	assert.ErrorIs(t, err, ErrInvalidSlot)

	ix, err = f.ix.ClearSlot(3, 19)
	_, err = f.run(t, ix, err)
	require.NoError(t, err)
	assert.Equal(t, SlotAssignment{}, f.registry(t).Slots[79])

	// set_slot with None behaves like clear_slot
	ix, err = f.ix.SetSlot(1, 1, &active)
	_, err = f.run(t, ix, err)
	require.NoError(t, err)
	ix, err = f.ix.SetSlot(1, 1, nil)
	_, err = f.run(t, ix, err)
	require.NoError(t, err)
	assert.Equal(t, SlotAssignment{}, f.registry(t).Slots[21])
}

func TestProgram_OtherAuthorityRejected(t *testing.T) {
	f := newProgramFixture(t)
	f.initialize(t)

	intruder, _ := solana.NewRandomKeypair()
	ix, err := f.ix.CreateItem(ItemInput{Name: "stolen"})
	require.NoError(t, err)
	ix.Accounts[1].PublicKey = intruder.PublicKey()

	_, err = f.program.Process(f.store, ix)
	assert.ErrorIs(t, err, ErrConstraintSeeds)

	ix.Accounts[1] = solana.Meta(f.authority.PublicKey(), false, false)
	_, err = f.program.Process(f.store, ix)
	assert.ErrorIs(t, err, ErrAccountNotSigner)
}
