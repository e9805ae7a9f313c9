package api

import (
	"github.com/nitro-legacy/inventory-tooling/inventory"
	"github.com/nitro-legacy/inventory-tooling/solana"
)

// RegistryAddressResponse is returned by GET /api/v1/registry/{authority}/address.
type RegistryAddressResponse struct {
	// Authority is the wallet the registry belongs to.
	Authority solana.PublicKey `json:"authority"`

	// ProgramID is the inventory program the address was derived under.
	ProgramID solana.PublicKey `json:"program_id"`

	// Address is the registry PDA.
	Address solana.PublicKey `json:"address"`

	// Bump is the canonical bump seed of Address.
	Bump uint8 `json:"bump"`
}

// RegistryResponse is returned by GET /api/v1/registry/{authority}.
type RegistryResponse struct {
	Address  solana.PublicKey             `json:"address"`
	Registry *inventory.InventoryRegistry `json:"registry"`
}

// ClassSlotsResponse is returned by GET /api/v1/registry/{authority}/slots/{class}.
type ClassSlotsResponse struct {
	Address solana.PublicKey           `json:"address"`
	Class   uint8                      `json:"class"`
	Slots   []inventory.SlotAssignment `json:"slots"`
}

// ErrorResponse is the body of every non-200 API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
