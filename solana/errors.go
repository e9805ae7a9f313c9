package solana

import (
	"encoding/json"
	"fmt"
)

// TransactionError is a transaction failure reported by the cluster,
// either from preflight simulation or from a signature status.
type TransactionError struct {
	// Kind is the TransactionError variant, e.g. "InstructionError" or
	// "AccountNotFound". For instruction errors it is the inner variant
	// ("Custom", "MissingRequiredSignature", ...).
	Kind string
	// InstructionIndex is -1 unless the failure came from an instruction.
	InstructionIndex int
	// Custom holds the program error number of a Custom instruction error.
	Custom *uint32
	Logs   []string
	Raw    json.RawMessage
}

func (e *TransactionError) Error() string {
	switch {
	case e.Custom != nil:
		return fmt.Sprintf("transaction failed: instruction %d: custom program error: 0x%x", e.InstructionIndex, *e.Custom)
	case e.InstructionIndex >= 0:
		return fmt.Sprintf("transaction failed: instruction %d: %s", e.InstructionIndex, e.Kind)
	default:
		return fmt.Sprintf("transaction failed: %s", e.Kind)
	}
}

// CustomCode returns the program-defined error number, if any.
func (e *TransactionError) CustomCode() (uint32, bool) {
	if e.Custom == nil {
		return 0, false
	}
	return *e.Custom, true
}

// ParseTransactionError decodes the JSON shape of a TransactionError, e.g.
//
//	"AccountNotFound"
//	{"InstructionError":[0,"MissingRequiredSignature"]}
//	{"InstructionError":[0,{"Custom":6000}]}
func ParseTransactionError(raw json.RawMessage) (*TransactionError, error) {
	txErr := &TransactionError{InstructionIndex: -1, Raw: raw}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		txErr.Kind = name
		return txErr, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("unrecognized transaction error %s: %w", string(raw), err)
	}

	inner, ok := obj["InstructionError"]
	if !ok {
		for k := range obj {
			txErr.Kind = k
		}
		return txErr, nil
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(inner, &pair); err != nil || len(pair) != 2 {
		return nil, fmt.Errorf("malformed InstructionError %s", string(inner))
	}
	if err := json.Unmarshal(pair[0], &txErr.InstructionIndex); err != nil {
		return nil, fmt.Errorf("malformed InstructionError index: %w", err)
	}

	if err := json.Unmarshal(pair[1], &name); err == nil {
		txErr.Kind = name
		return txErr, nil
	}
	var custom struct {
		Custom *uint32 `json:"Custom"`
	}
	if err := json.Unmarshal(pair[1], &custom); err != nil {
		return nil, fmt.Errorf("malformed InstructionError detail: %w", err)
	}
	if custom.Custom != nil {
		txErr.Kind = "Custom"
		txErr.Custom = custom.Custom
		return txErr, nil
	}
	var detail map[string]json.RawMessage
	if err := json.Unmarshal(pair[1], &detail); err == nil {
		for k := range detail {
			txErr.Kind = k
		}
	}
	return txErr, nil
}

// InstructionErrorJSON builds the wire form of an instruction error, the
// inverse of ParseTransactionError.
func InstructionErrorJSON(index int, custom *uint32, kind string) json.RawMessage {
	var detail any = kind
	if custom != nil {
		detail = map[string]uint32{"Custom": *custom}
	}
	out, _ := json.Marshal(map[string][]any{"InstructionError": {index, detail}})
	return out
}
