package inventory

import (
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

var (
	InitializeRegistryDiscriminator = sighash("global", "initialize_registry")
	CreateItemDiscriminator         = sighash("global", "create_item")
	UpdateItemDiscriminator         = sighash("global", "update_item")
	SetSlotDiscriminator            = sighash("global", "set_slot")
	ClearSlotDiscriminator          = sighash("global", "clear_slot")
)

type InitializeRegistryArgs struct {
	RegistryBump uint8
}

type CreateItemArgs struct {
	Input ItemInput
}

type UpdateItemArgs struct {
	ItemID uint16
	Input  ItemInput
	Active bool
}

type SetSlotArgs struct {
	ClassIndex uint8
	SlotIndex  uint8
	ItemID     *uint16 `bin:"optional"`
}

type ClearSlotArgs struct {
	ClassIndex uint8
	SlotIndex  uint8
}

func encodeInstructionData(d Discriminator, args any) ([]byte, error) {
	body, err := bin.MarshalBorsh(args)
	if err != nil {
		return nil, fmt.Errorf("could not serialize instruction args: %w", err)
	}
	return append(d[:], body...), nil
}

// Instructions builds program instructions for one authority.
type Instructions struct {
	ProgramID solana.PublicKey
	Authority solana.PublicKey
	Registry  solana.PublicKey
	Bump      uint8
}

func NewInstructions(programID, authority solana.PublicKey) (*Instructions, error) {
	registry, bump, err := RegistryAddress(programID, authority)
	if err != nil {
		return nil, fmt.Errorf("could not derive registry address: %w", err)
	}
	return &Instructions{
		ProgramID: programID,
		Authority: authority,
		Registry:  registry,
		Bump:      bump,
	}, nil
}

func (b *Instructions) modify(d Discriminator, args any) (solana.Instruction, error) {
	data, err := encodeInstructionData(d, args)
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: b.ProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(b.Registry, false, true),
			solana.Meta(b.Authority, true, false),
		},
		Data: data,
	}, nil
}

func (b *Instructions) InitializeRegistry() (solana.Instruction, error) {
	data, err := encodeInstructionData(InitializeRegistryDiscriminator, InitializeRegistryArgs{RegistryBump: b.Bump})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: b.ProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(b.Registry, false, true),
			solana.Meta(b.Authority, true, true),
			solana.Meta(solana.SystemProgramID, false, false),
		},
		Data: data,
	}, nil
}

func (b *Instructions) CreateItem(input ItemInput) (solana.Instruction, error) {
	return b.modify(CreateItemDiscriminator, CreateItemArgs{Input: input})
}

func (b *Instructions) UpdateItem(itemID uint16, input ItemInput, active bool) (solana.Instruction, error) {
	return b.modify(UpdateItemDiscriminator, UpdateItemArgs{ItemID: itemID, Input: input, Active: active})
}

// SetSlot assigns itemID to a slot; a nil itemID empties it.
func (b *Instructions) SetSlot(classIndex, slotIndex uint8, itemID *uint16) (solana.Instruction, error) {
	return b.modify(SetSlotDiscriminator, SetSlotArgs{ClassIndex: classIndex, SlotIndex: slotIndex, ItemID: itemID})
}

func (b *Instructions) ClearSlot(classIndex, slotIndex uint8) (solana.Instruction, error) {
	return b.modify(ClearSlotDiscriminator, ClearSlotArgs{ClassIndex: classIndex, SlotIndex: slotIndex})
}
