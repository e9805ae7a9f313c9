package inventory

import (
	"bytes"
	"encoding/binary"
	"log/slog"

	bin "github.com/gagliardetto/binary"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

// Program executes inventory instructions against an account store with
// the same account constraints and state transitions as the deployed
// program. It backs the local validator.
type Program struct {
	ID  solana.PublicKey
	log *slog.Logger
}

func NewProgram(id solana.PublicKey, log *slog.Logger) *Program {
	if log == nil {
		log = slog.Default()
	}
	return &Program{ID: id, log: log}
}

// Process runs one instruction. It returns the instruction's return data
// (create_item returns the new id as a little-endian u16).
func (p *Program) Process(store solana.AccountStore, ix solana.Instruction) ([]byte, error) {
	if len(ix.Data) < len(Discriminator{}) {
		return nil, ErrInstructionMissing
	}
	var d Discriminator
	copy(d[:], ix.Data[:8])
	args := ix.Data[8:]

	switch d {
	case InitializeRegistryDiscriminator:
		var a InitializeRegistryArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		p.log.Debug("Instruction: InitializeRegistry")
		return nil, p.initializeRegistry(store, ix.Accounts, a)

	case CreateItemDiscriminator:
		var a CreateItemArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		p.log.Debug("Instruction: CreateItem")
		var id uint16
		err := p.modify(store, ix.Accounts, func(reg *InventoryRegistry) error {
			var err error
			id, err = createItem(reg, &a.Input)
			return err
		})
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint16(nil, id), nil

	case UpdateItemDiscriminator:
		var a UpdateItemArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		p.log.Debug("Instruction: UpdateItem")
		return nil, p.modify(store, ix.Accounts, func(reg *InventoryRegistry) error {
			return updateItem(reg, a.ItemID, &a.Input, a.Active)
		})

	case SetSlotDiscriminator:
		var a SetSlotArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		p.log.Debug("Instruction: SetSlot")
		return nil, p.modify(store, ix.Accounts, func(reg *InventoryRegistry) error {
			return setSlot(reg, a.ClassIndex, a.SlotIndex, a.ItemID)
		})

	case ClearSlotDiscriminator:
		var a ClearSlotArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		p.log.Debug("Instruction: ClearSlot")
		return nil, p.modify(store, ix.Accounts, func(reg *InventoryRegistry) error {
			return setSlot(reg, a.ClassIndex, a.SlotIndex, nil)
		})
	}
	return nil, ErrInstructionFallbackNotFound
}

func decodeArgs(data []byte, v any) error {
	if err := bin.NewBorshDecoder(data).Decode(v); err != nil {
		return ErrInstructionDidNotDeserialize
	}
	return nil
}

func (p *Program) initializeRegistry(store solana.AccountStore, accounts []solana.AccountMeta, args InitializeRegistryArgs) error {
	if len(accounts) < 3 {
		return ErrAccountNotEnoughKeys
	}
	registryMeta, authorityMeta, systemMeta := accounts[0], accounts[1], accounts[2]

	if !authorityMeta.IsSigner {
		return ErrAccountNotSigner
	}
	if systemMeta.PublicKey != solana.SystemProgramID {
		return ErrInvalidProgramID
	}
	if !registryMeta.IsWritable || !authorityMeta.IsWritable {
		return ErrConstraintMut
	}
	expected, _, err := RegistryAddress(p.ID, authorityMeta.PublicKey)
	if err != nil || expected != registryMeta.PublicKey {
		return ErrConstraintSeeds
	}

	// A pre-funded PDA is still initializable as long as the system
	// program owns it and it holds no data; only the rent shortfall is paid.
	var prefunded uint64
	if existing, ok := store.GetAccount(registryMeta.PublicKey); ok {
		if len(existing.Data) > 0 || existing.Owner != solana.SystemProgramID {
			return ErrAccountAlreadyInUse
		}
		prefunded = existing.Lamports
	}

	rent := solana.RentExemptMinimum(RegistrySpace)
	var shortfall uint64
	if prefunded < rent {
		shortfall = rent - prefunded
	}
	payer, ok := store.GetAccount(authorityMeta.PublicKey)
	if !ok || payer.Lamports < shortfall {
		return ErrInsufficientFunds
	}

	reg := NewInventoryRegistry(authorityMeta.PublicKey, args.RegistryBump)
	data, err := EncodeRegistryAccount(reg)
	if err != nil {
		return err
	}

	payer.Lamports -= shortfall
	store.SetAccount(authorityMeta.PublicKey, payer)
	store.SetAccount(registryMeta.PublicKey, &solana.Account{
		Lamports: prefunded + shortfall,
		Owner:    p.ID,
		Data:     data,
	})
	return nil
}

// modify loads and validates the registry for a ModifyRegistry instruction,
// applies fn and writes the account back.
func (p *Program) modify(store solana.AccountStore, accounts []solana.AccountMeta, fn func(*InventoryRegistry) error) error {
	if len(accounts) < 2 {
		return ErrAccountNotEnoughKeys
	}
	registryMeta, authorityMeta := accounts[0], accounts[1]

	acc, ok := store.GetAccount(registryMeta.PublicKey)
	if !ok || len(acc.Data) == 0 {
		return ErrAccountNotInitialized
	}
	if acc.Owner != p.ID {
		return ErrAccountOwnedByWrongProgram
	}
	if !bytes.HasPrefix(acc.Data, RegistryDiscriminator[:]) {
		return ErrAccountDiscriminatorMismatch
	}
	reg, err := DecodeRegistryAccount(acc.Data)
	if err != nil {
		return ErrAccountDidNotDeserialize
	}

	if !authorityMeta.IsSigner {
		return ErrAccountNotSigner
	}
	if !registryMeta.IsWritable {
		return ErrConstraintMut
	}
	seeds := append(registrySeeds(authorityMeta.PublicKey), []byte{reg.Bump})
	derived, err := solana.CreateProgramAddress(seeds, p.ID)
	if err != nil || derived != registryMeta.PublicKey {
		return ErrConstraintSeeds
	}

	if reg.Authority != authorityMeta.PublicKey {
		return ErrUnauthorized
	}
	if err := fn(reg); err != nil {
		return err
	}

	data, err := EncodeRegistryAccount(reg)
	if err != nil {
		return err
	}
	acc.Data = data
	store.SetAccount(registryMeta.PublicKey, acc)
	return nil
}

func createItem(reg *InventoryRegistry, input *ItemInput) (uint16, error) {
	if len(reg.Items) >= MaxItems {
		return 0, ErrItemCapacityReached
	}
	if err := input.Validate(); err != nil {
		return 0, err
	}
	if reg.TotalItems == ^uint16(0) {
		return 0, ErrArithmeticOverflow
	}
	nextID := reg.TotalItems + 1
	reg.Items = append(reg.Items, itemFromInput(nextID, input))
	reg.TotalItems = nextID
	return nextID, nil
}

func updateItem(reg *InventoryRegistry, itemID uint16, input *ItemInput, active bool) error {
	if err := input.Validate(); err != nil {
		return err
	}
	item, ok := reg.Item(itemID)
	if !ok {
		return ErrUnknownItem
	}
	item.update(input, active)
	return nil
}

func setSlot(reg *InventoryRegistry, classIndex, slotIndex uint8, itemID *uint16) error {
	pos, err := SlotPosition(classIndex, slotIndex)
	if err != nil {
		return err
	}
	if itemID != nil {
		item, ok := reg.Item(*itemID)
		if !ok {
			return ErrUnknownItem
		}
		if !item.Active {
			return ErrInactiveItem
		}
	}
	if int(pos) >= len(reg.Slots) {
		return ErrInvalidSlot
	}
	if itemID != nil {
		reg.Slots[pos] = SlotAssignment{ItemID: *itemID, Occupied: true}
	} else {
		reg.Slots[pos] = SlotAssignment{}
	}
	return nil
}
