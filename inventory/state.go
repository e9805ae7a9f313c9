package inventory

import (
	"crypto/sha256"
	"fmt"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

const (
	ClassCount    = 4
	SlotsPerClass = 20

	MaxItems          = 64
	MaxNameLen        = 32
	MaxIconLen        = 8
	MaxDescriptionLen = 160
)

// RegistrySeed is the static seed of the registry PDA; the authority key
// is the second seed.
const RegistrySeed = "nitro-registry"

// DefaultProgramIDBase58 is the address the inventory program is deployed
// at unless --program-id overrides it.
const DefaultProgramIDBase58 = "EksA8EJMGvGQmbEWzQi9eXtviJZtPoEZk6VVVLsMC8UD"

// DefaultProgramID is DefaultProgramIDBase58 decoded. Kept as raw bytes so
// the package has no fallible initialization.
var DefaultProgramID = solana.PublicKey{
	0xcc, 0x64, 0x9e, 0x2e, 0x7e, 0xab, 0x5d, 0x08, 0xe9, 0xf0, 0xc3, 0x1c, 0xe0, 0x57, 0xb4, 0x5e,
	0xae, 0xc8, 0xde, 0x69, 0x7f, 0xf2, 0x4c, 0xee, 0xc0, 0xb1, 0x41, 0x76, 0xf5, 0xa0, 0x1d, 0x1e,
}

// ItemSize is the maximum borsh size of one Item.
const ItemSize = 2 + 1 + 1 + 1 +
	4 + MaxNameLen +
	4 + MaxIconLen +
	4 + MaxDescriptionLen

const SlotAssignmentSize = 2 + 1

const TotalSlots = ClassCount * SlotsPerClass

// RegistrySpace is the allocated size of the registry account, discriminator included.
const RegistrySpace = 8 + // discriminator
	32 + // authority
	1 + // bump
	2 + // total_items
	2 + // max_items
	4 + MaxItems*ItemSize +
	4 + TotalSlots*SlotAssignmentSize

// Discriminator is the 8-byte prefix Anchor uses to tag accounts and instructions.
type Discriminator [8]byte

func sighash(namespace, name string) Discriminator {
	h := sha256.Sum256([]byte(namespace + ":" + name))
	var d Discriminator
	copy(d[:], h[:8])
	return d
}

var RegistryDiscriminator = sighash("account", "InventoryRegistry")

type Item struct {
	ID          uint16 `json:"id"`
	OwnerCode   uint8  `json:"owner_code"`
	Rarity      uint8  `json:"rarity"`
	Active      bool   `json:"active"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func itemFromInput(id uint16, in *ItemInput) Item {
	return Item{
		ID:          id,
		OwnerCode:   in.OwnerCode,
		Rarity:      in.Rarity,
		Active:      true,
		Name:        in.Name,
		Icon:        in.Icon,
		Description: in.Description,
	}
}

func (it *Item) update(in *ItemInput, active bool) {
	it.OwnerCode = in.OwnerCode
	it.Rarity = in.Rarity
	it.Name = in.Name
	it.Icon = in.Icon
	it.Description = in.Description
	it.Active = active
}

type ItemInput struct {
	OwnerCode   uint8  `json:"owner_code"`
	Rarity      uint8  `json:"rarity"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Validate enforces the owner code range and byte-length limits.
func (in *ItemInput) Validate() error {
	switch {
	case in.OwnerCode > ClassCount:
		return ErrOwnerCodeOutOfRange
	case len(in.Name) > MaxNameLen:
		return ErrNameTooLong
	case len(in.Icon) > MaxIconLen:
		return ErrIconTooLong
	case len(in.Description) > MaxDescriptionLen:
		return ErrDescriptionTooLong
	}
	return nil
}

type SlotAssignment struct {
	ItemID   uint16 `json:"item_id"`
	Occupied bool   `json:"occupied"`
}

// InventoryRegistry is the account owned by the program at the registry PDA.
type InventoryRegistry struct {
	Authority  solana.PublicKey `json:"authority"`
	Bump       uint8            `json:"bump"`
	TotalItems uint16           `json:"total_items"`
	MaxItems   uint16           `json:"max_items"`
	Items      []Item           `json:"items"`
	Slots      []SlotAssignment `json:"slots"`
}

// NewInventoryRegistry returns the state initialize_registry writes.
func NewInventoryRegistry(authority solana.PublicKey, bump uint8) *InventoryRegistry {
	return &InventoryRegistry{
		Authority:  authority,
		Bump:       bump,
		TotalItems: 0,
		MaxItems:   MaxItems,
		Items:      []Item{},
		Slots:      make([]SlotAssignment, TotalSlots),
	}
}

// SlotPosition maps a (class, slot) pair to its index in Slots.
func SlotPosition(classIndex, slotIndex uint8) (uint16, error) {
	if int(classIndex) >= ClassCount {
		return 0, ErrInvalidClass
	}
	if int(slotIndex) >= SlotsPerClass {
		return 0, ErrInvalidSlot
	}
	return uint16(classIndex)*SlotsPerClass + uint16(slotIndex), nil
}

func (r *InventoryRegistry) Item(id uint16) (*Item, bool) {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return &r.Items[i], true
		}
	}
	return nil, false
}

// ClassSlots returns the slots belonging to one class.
func (r *InventoryRegistry) ClassSlots(classIndex uint8) ([]SlotAssignment, error) {
	start, err := SlotPosition(classIndex, 0)
	if err != nil {
		return nil, err
	}
	end := int(start) + SlotsPerClass
	if end > len(r.Slots) {
		return nil, fmt.Errorf("registry has %d slots, expected %d", len(r.Slots), TotalSlots)
	}
	return r.Slots[start:end], nil
}

// RegistryAddress derives the registry PDA for an authority.
func RegistryAddress(programID, authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(registrySeeds(authority), programID)
}

func registrySeeds(authority solana.PublicKey) [][]byte {
	return [][]byte{[]byte(RegistrySeed), authority.Bytes()}
}
