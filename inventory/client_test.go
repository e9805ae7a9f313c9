package inventory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro-legacy/inventory-tooling/solana"
	"github.com/nitro-legacy/inventory-tooling/solana/localnet"
)

const testFunding = 10_000_000_000

func setupLocalnet(t *testing.T) (*localnet.Localnet, *solana.Client) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	net := localnet.New(log)
	net.RegisterProgram(DefaultProgramID, NewProgram(DefaultProgramID, log))
	srv := httptest.NewServer(net)
	t.Cleanup(srv.Close)

	rpc, err := solana.Dial(context.Background(), srv.URL, solana.WithPollInterval(10*time.Millisecond), solana.WithLogger(log))
	require.NoError(t, err)
	t.Cleanup(rpc.Close)
	return net, rpc
}

func newTestClient(t *testing.T, net *localnet.Localnet, rpc *solana.Client) *Client {
	t.Helper()
	authority, err := solana.NewRandomKeypair()
	require.NoError(t, err)
	net.Fund(authority.PublicKey(), testFunding)

	client, err := NewClient(rpc, DefaultProgramID, authority, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestClient_InitializeRegistry(t *testing.T) {
	net, rpc := setupLocalnet(t)
	client := newTestClient(t, net, rpc)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	addr, bump, err := client.RegistryAddress(client.Authority())
	require.NoError(t, err)
	registry, registryBump := client.Registry()
	assert.Equal(t, addr, registry)
	assert.Equal(t, bump, registryBump)
	assert.False(t, solana.IsOnCurve(addr[:]))

	_, err = client.Fetch(ctx)
	require.ErrorIs(t, err, ErrRegistryNotFound)

	_, err = client.InitializeRegistry(ctx)
	require.NoError(t, err)

	reg, err := client.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.Authority(), reg.Authority)
	assert.Equal(t, bump, reg.Bump)
	assert.Equal(t, uint16(MaxItems), reg.MaxItems)
	assert.Len(t, reg.Slots, TotalSlots)

	acc, ok := net.Account(addr)
	require.True(t, ok)
	assert.Equal(t, DefaultProgramID, acc.Owner)

	// The registry lives at a fixed address per authority.
	_, err = client.InitializeRegistry(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountAlreadyInUse)
	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.NotEmpty(t, txErr.Logs)
}

func TestClient_NilLoggerAndPrefundedRegistry(t *testing.T) {
	net, rpc := setupLocalnet(t)
	authority, err := solana.NewRandomKeypair()
	require.NoError(t, err)
	net.Fund(authority.PublicKey(), testFunding)

	var client *Client
	require.NotPanics(t, func() {
		client, err = NewClient(rpc, DefaultProgramID, authority, nil)
	})
	require.NoError(t, err)

	// Someone sent lamports to the registry address before it was created.
	registry, _ := client.Registry()
	net.Fund(registry, 1_000_000)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = client.InitializeRegistry(ctx)
	require.NoError(t, err)

	acc, ok := net.Account(registry)
	require.True(t, ok)
	assert.Equal(t, DefaultProgramID, acc.Owner)
	assert.Equal(t, solana.RentExemptMinimum(RegistrySpace), acc.Lamports)
}

func TestClient_IndependentAuthorities(t *testing.T) {
	net, rpc := setupLocalnet(t)
	alice := newTestClient(t, net, rpc)
	bob := newTestClient(t, net, rpc)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := alice.InitializeRegistry(ctx)
	require.NoError(t, err)
	_, err = bob.InitializeRegistry(ctx)
	require.NoError(t, err)

	aliceReg, _ := alice.Registry()
	bobReg, _ := bob.Registry()
	assert.NotEqual(t, aliceReg, bobReg)

	reg, err := bob.FetchRegistry(ctx, alice.Authority())
	require.NoError(t, err)
	assert.Equal(t, alice.Authority(), reg.Authority)
}

func TestClient_ItemsAndSlots(t *testing.T) {
	net, rpc := setupLocalnet(t)
	client := newTestClient(t, net, rpc)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.InitializeRegistry(ctx)
	require.NoError(t, err)

	id, _, err := client.CreateItem(ctx, ItemInput{OwnerCode: 1, Rarity: 3, Name: "Longsword", Icon: "⚔", Description: "Sharp"})
	require.NoError(t, err)
	assert.Equal(t, uint16(1), id)

	_, _, err = client.CreateItem(ctx, ItemInput{Name: string(make([]byte, MaxNameLen+1))})
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = client.SetSlot(ctx, 1, 0, &id)
	require.NoError(t, err)

	reg, err := client.Fetch(ctx)
	require.NoError(t, err)
	slots, err := reg.ClassSlots(1)
	require.NoError(t, err)
	assert.Equal(t, SlotAssignment{ItemID: id, Occupied: true}, slots[0])

	_, err = client.UpdateItem(ctx, id, ItemInput{OwnerCode: 1, Rarity: 3, Name: "Longsword"}, false)
	require.NoError(t, err)

	// Deactivated items can no longer be equipped.
	_, err = client.SetSlot(ctx, 1, 1, &id)
	assert.ErrorIs(t, err, ErrInactiveItem)

	_, err = client.UpdateItem(ctx, 7, ItemInput{}, true)
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = client.ClearSlot(ctx, 1, 0)
	require.NoError(t, err)

	_, err = client.SetSlot(ctx, ClassCount, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidClass)

	reg, err = client.Fetch(ctx)
	require.NoError(t, err)
	item, ok := reg.Item(id)
	require.True(t, ok)
	assert.False(t, item.Active)
	assert.Equal(t, SlotAssignment{}, reg.Slots[20])
}
