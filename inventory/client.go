package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

var ErrRegistryNotFound = errors.New("registry not initialized")

// Reader fetches registries for any authority without signing anything.
type Reader struct {
	rpc       *solana.Client
	programID solana.PublicKey
}

func NewReader(rpc *solana.Client, programID solana.PublicKey) *Reader {
	return &Reader{rpc: rpc, programID: programID}
}

func (r *Reader) ProgramID() solana.PublicKey {
	return r.programID
}

// RegistryAddress derives the registry PDA of authority.
func (r *Reader) RegistryAddress(authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return RegistryAddress(r.programID, authority)
}

// FetchRegistry loads and decodes the registry of authority.
func (r *Reader) FetchRegistry(ctx context.Context, authority solana.PublicKey) (*InventoryRegistry, error) {
	addr, _, err := r.RegistryAddress(authority)
	if err != nil {
		return nil, err
	}
	return r.FetchRegistryAt(ctx, addr)
}

func (r *Reader) FetchRegistryAt(ctx context.Context, addr solana.PublicKey) (*InventoryRegistry, error) {
	acc, err := r.rpc.GetAccountInfo(ctx, addr)
	if errors.Is(err, solana.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, addr)
	}
	if err != nil {
		return nil, err
	}
	if acc.Owner != r.programID {
		return nil, fmt.Errorf("%w: owner is %s", ErrAccountOwnedByWrongProgram, acc.Owner)
	}
	return DecodeRegistryAccount(acc.Data)
}

// Client sends registry instructions signed by the authority keypair,
// which also pays fees and rent.
type Client struct {
	*Reader
	authority *solana.Keypair
	ix        *Instructions
	log       *slog.Logger
}

func NewClient(rpc *solana.Client, programID solana.PublicKey, authority *solana.Keypair, log *slog.Logger) (*Client, error) {
	ix, err := NewInstructions(programID, authority.PublicKey())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		Reader:    NewReader(rpc, programID),
		authority: authority,
		ix:        ix,
		log:       log.With("authority", authority.PublicKey().String(), "registry", ix.Registry.String()),
	}, nil
}

func (c *Client) Authority() solana.PublicKey {
	return c.authority.PublicKey()
}

// Registry returns the registry PDA and bump of the client's authority.
func (c *Client) Registry() (solana.PublicKey, uint8) {
	return c.ix.Registry, c.ix.Bump
}

func (c *Client) send(ctx context.Context, name string, ix solana.Instruction, err error) (solana.Signature, error) {
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.rpc.SendAndConfirm(ctx, []solana.Instruction{ix}, c.authority)
	if err != nil {
		c.log.Debug("Instruction failed", "instruction", name, "err", err)
		return sig, fmt.Errorf("%s: %w", name, decodeError(err))
	}
	c.log.Info("Instruction confirmed", "instruction", name, "signature", sig.String())
	return sig, nil
}

func (c *Client) InitializeRegistry(ctx context.Context) (solana.Signature, error) {
	ix, err := c.ix.InitializeRegistry()
	return c.send(ctx, "initialize_registry", ix, err)
}

// CreateItem adds an item and returns its id.
func (c *Client) CreateItem(ctx context.Context, input ItemInput) (uint16, solana.Signature, error) {
	if err := input.Validate(); err != nil {
		return 0, solana.Signature{}, err
	}
	ix, err := c.ix.CreateItem(input)
	sig, err := c.send(ctx, "create_item", ix, err)
	if err != nil {
		return 0, sig, err
	}
	reg, err := c.FetchRegistryAt(ctx, c.ix.Registry)
	if err != nil {
		return 0, sig, err
	}
	return reg.TotalItems, sig, nil
}

func (c *Client) UpdateItem(ctx context.Context, itemID uint16, input ItemInput, active bool) (solana.Signature, error) {
	if err := input.Validate(); err != nil {
		return solana.Signature{}, err
	}
	ix, err := c.ix.UpdateItem(itemID, input, active)
	return c.send(ctx, "update_item", ix, err)
}

func (c *Client) SetSlot(ctx context.Context, classIndex, slotIndex uint8, itemID *uint16) (solana.Signature, error) {
	if _, err := SlotPosition(classIndex, slotIndex); err != nil {
		return solana.Signature{}, err
	}
	ix, err := c.ix.SetSlot(classIndex, slotIndex, itemID)
	return c.send(ctx, "set_slot", ix, err)
}

func (c *Client) ClearSlot(ctx context.Context, classIndex, slotIndex uint8) (solana.Signature, error) {
	if _, err := SlotPosition(classIndex, slotIndex); err != nil {
		return solana.Signature{}, err
	}
	ix, err := c.ix.ClearSlot(classIndex, slotIndex)
	return c.send(ctx, "clear_slot", ix, err)
}

// Fetch loads the client's own registry.
func (c *Client) Fetch(ctx context.Context) (*InventoryRegistry, error) {
	return c.FetchRegistryAt(ctx, c.ix.Registry)
}
