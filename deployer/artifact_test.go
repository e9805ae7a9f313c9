package deployer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
	"github.com/nitro-legacy/inventory-tooling/storage"
)

// returnOneByte is creation code that deploys a single STOP opcode.
const returnOneByte = "0x600060005360016000f3"

// revertingConstructor is creation code that always reverts.
const revertingConstructor = "0x60006000fd"

func testArtifact(t *testing.T, name, abiJSON, bytecode string) []byte {
	t.Helper()
	data, err := json.Marshal(Artifact{
		Format:           "hh-sol-artifact-1",
		ContractName:     name,
		SourceName:       "contracts/" + name + ".sol",
		ABI:              json.RawMessage(abiJSON),
		Bytecode:         bytecode,
		DeployedBytecode: "0x00",
	})
	require.NoError(t, err)
	return data
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewContractFactory(t *testing.T) {
	factory, err := NewContractFactory(testArtifact(t, "NitroLegacyInventory", `[]`, returnOneByte))
	require.NoError(t, err)
	assert.Equal(t, "NitroLegacyInventory", factory.Name)
	assert.Equal(t, "contracts/NitroLegacyInventory.sol", factory.SourceName)
	assert.Equal(t, []byte{0x60, 0x00, 0x60, 0x00, 0x53, 0x60, 0x01, 0x60, 0x00, 0xf3}, factory.Bytecode)
	assert.Equal(t, []byte{0x00}, factory.DeployedBytecode)

	withCtor, err := NewContractFactory(testArtifact(t, "Inv",
		`[{"type":"constructor","inputs":[{"name":"maxItems","type":"uint16"}],"stateMutability":"nonpayable"}]`, returnOneByte))
	require.NoError(t, err)
	assert.Len(t, withCtor.ABI.Constructor.Inputs, 1)

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"not json", []byte("nope"), ErrInvalidArtifact},
		{"no name", testArtifact(t, "", `[]`, returnOneByte), ErrInvalidArtifact},
		{"bad abi type", testArtifact(t, "X", `[{"type":"function","name":"f","inputs":[{"name":"a","type":"notatype"}]}]`, returnOneByte), ErrInvalidArtifact},
		{"abi not a list", testArtifact(t, "X", `"abi"`, returnOneByte), ErrInvalidArtifact},
		{"interface", testArtifact(t, "IInventory", `[]`, "0x"), ErrEmptyBytecode},
		{"bad hex", testArtifact(t, "X", `[]`, "0xzz"), ErrInvalidArtifact},
		{"unlinked", testArtifact(t, "X", `[]`, "0x73__$aabbccdd$__"), ErrUnlinkedBytecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContractFactory(tt.data)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestArtifactKeys(t *testing.T) {
	assert.Equal(t, []string{
		"NitroLegacyInventory.json",
		"artifacts/contracts/NitroLegacyInventory.sol/NitroLegacyInventory.json",
	}, ArtifactKeys("NitroLegacyInventory"))
	assert.Equal(t, []string{
		"artifacts/contracts/game/Inventory.sol/NitroLegacyInventory.json",
	}, ArtifactKeys("contracts/game/Inventory.sol:NitroLegacyInventory"))
}

func TestArtifactResolver(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)
	resolver := NewArtifactResolver(backend, discardLogger())

	// Hardhat project layout
	require.NoError(t, backend.Store(ctx,
		"artifacts/contracts/NitroLegacyInventory.sol/NitroLegacyInventory.json",
		testArtifact(t, "NitroLegacyInventory", `[]`, returnOneByte)))

	factory, err := resolver.Factory(ctx, "NitroLegacyInventory")
	require.NoError(t, err)
	assert.Equal(t, "NitroLegacyInventory", factory.Name)

	// Flat layout takes precedence
	require.NoError(t, backend.Store(ctx, "NitroLegacyInventory.json",
		testArtifact(t, "NitroLegacyInventory", `[]`, "0x6001")))
	factory, err = resolver.Factory(ctx, "NitroLegacyInventory")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x01}, factory.Bytecode)

	_, err = resolver.Factory(ctx, "Missing")
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	require.NoError(t, backend.Store(ctx, "Mismatch.json", testArtifact(t, "Other", `[]`, returnOneByte)))
	_, err = resolver.Factory(ctx, "Mismatch")
	assert.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = resolver.Factory(ctx, "../escape")
	assert.ErrorIs(t, err, interfaces.ErrInvalidKey)
}
