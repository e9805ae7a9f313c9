package solana

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionError(t *testing.T) {
	txErr, err := ParseTransactionError(json.RawMessage(`"AccountNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, "AccountNotFound", txErr.Kind)
	assert.Equal(t, -1, txErr.InstructionIndex)
	_, ok := txErr.CustomCode()
	assert.False(t, ok)

	txErr, err = ParseTransactionError(json.RawMessage(`{"InstructionError":[1,"MissingRequiredSignature"]}`))
	require.NoError(t, err)
	assert.Equal(t, "MissingRequiredSignature", txErr.Kind)
	assert.Equal(t, 1, txErr.InstructionIndex)

	txErr, err = ParseTransactionError(json.RawMessage(`{"InstructionError":[0,{"Custom":6002}]}`))
	require.NoError(t, err)
	code, ok := txErr.CustomCode()
	require.True(t, ok)
	assert.Equal(t, uint32(6002), code)
	assert.Contains(t, txErr.Error(), "0x1772")

	txErr, err = ParseTransactionError(json.RawMessage(`{"InsufficientFundsForRent":{"account_index":0}}`))
	require.NoError(t, err)
	assert.Equal(t, "InsufficientFundsForRent", txErr.Kind)

	_, err = ParseTransactionError(json.RawMessage(`{"InstructionError":[0]}`))
	assert.Error(t, err)
	_, err = ParseTransactionError(json.RawMessage(`12`))
	assert.Error(t, err)
}

func TestInstructionErrorJSON(t *testing.T) {
	code := uint32(6000)
	txErr, err := ParseTransactionError(InstructionErrorJSON(2, &code, ""))
	require.NoError(t, err)
	got, ok := txErr.CustomCode()
	require.True(t, ok)
	assert.Equal(t, code, got)
	assert.Equal(t, 2, txErr.InstructionIndex)

	txErr, err = ParseTransactionError(InstructionErrorJSON(0, nil, "UnsupportedProgramId"))
	require.NoError(t, err)
	assert.Equal(t, "UnsupportedProgramId", txErr.Kind)
}
