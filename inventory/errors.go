package inventory

import (
	"errors"
	"fmt"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

// ProgramError is an error raised by the inventory program, identified by
// the number it reports to the runtime as a custom instruction error.
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

// CustomCode lets the local validator report the error as Custom(code).
func (e *ProgramError) CustomCode() (uint32, bool) {
	return e.Code, true
}

// Is matches program errors by code so decoded errors compare equal to the sentinels.
func (e *ProgramError) Is(target error) bool {
	var pe *ProgramError
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Code == e.Code
}

func newProgramError(code uint32, name, msg string) *ProgramError {
	pe := &ProgramError{Code: code, Name: name, Msg: msg}
	programErrors[code] = pe
	return pe
}

var programErrors = map[uint32]*ProgramError{}

// Errors declared by the inventory program. Numbering starts at 6000.
var (
	ErrUnauthorized        = newProgramError(6000, "Unauthorized", "Unauthorized signer")
	ErrItemCapacityReached = newProgramError(6001, "ItemCapacityReached", "Item capacity reached")
	ErrUnknownItem         = newProgramError(6002, "UnknownItem", "Item not found")
	ErrInactiveItem        = newProgramError(6003, "InactiveItem", "Inactive item cannot be equipped")
	ErrOwnerCodeOutOfRange = newProgramError(6004, "OwnerCodeOutOfRange", "Owner code exceeds allowed range")
	ErrInvalidClass        = newProgramError(6005, "InvalidClass", "Class index is invalid")
	ErrInvalidSlot         = newProgramError(6006, "InvalidSlot", "Slot index is invalid")
	ErrNameTooLong         = newProgramError(6007, "NameTooLong", "Item name too long")
	ErrIconTooLong         = newProgramError(6008, "IconTooLong", "Item icon too long")
	ErrDescriptionTooLong  = newProgramError(6009, "DescriptionTooLong", "Item description too long")
	ErrArithmeticOverflow  = newProgramError(6010, "ArithmeticOverflow", "Arithmetic overflow")
)

// Framework and system errors the program can surface.
var (
	ErrAccountAlreadyInUse          = newProgramError(0, "AccountAlreadyInUse", "an account with the same address already exists")
	ErrInsufficientFunds            = newProgramError(1, "ResultWithNegativeLamports", "account does not have enough lamports")
	ErrInstructionMissing           = newProgramError(100, "InstructionMissing", "8 byte instruction identifier not provided")
	ErrInstructionFallbackNotFound  = newProgramError(101, "InstructionFallbackNotFound", "Fallback functions are not supported")
	ErrInstructionDidNotDeserialize = newProgramError(102, "InstructionDidNotDeserialize", "The program could not deserialize the given instruction")
	ErrConstraintMut                = newProgramError(2000, "ConstraintMut", "A mut constraint was violated")
	ErrConstraintSeeds              = newProgramError(2006, "ConstraintSeeds", "A seeds constraint was violated")
	ErrAccountDiscriminatorMismatch = newProgramError(3002, "AccountDiscriminatorMismatch", "Account discriminator did not match what was expected")
	ErrAccountDidNotDeserialize     = newProgramError(3003, "AccountDidNotDeserialize", "Failed to deserialize the account")
	ErrAccountDidNotSerialize       = newProgramError(3004, "AccountDidNotSerialize", "Failed to serialize the account")
	ErrAccountNotEnoughKeys         = newProgramError(3005, "AccountNotEnoughKeys", "Not enough account keys given to the instruction")
	ErrAccountOwnedByWrongProgram   = newProgramError(3007, "AccountOwnedByWrongProgram", "The given account is owned by a different program than expected")
	ErrInvalidProgramID             = newProgramError(3008, "InvalidProgramId", "Program ID was not as expected")
	ErrAccountNotSigner             = newProgramError(3010, "AccountNotSigner", "The given account did not sign")
	ErrAccountNotInitialized        = newProgramError(3012, "AccountNotInitialized", "The program expected this account to be already initialized")
)

// ProgramErrorFromCode looks up a known error number.
func ProgramErrorFromCode(code uint32) (*ProgramError, bool) {
	pe, ok := programErrors[code]
	return pe, ok
}

// decodeError attaches the program error behind a failed transaction, if
// the failure carries a known custom code.
func decodeError(err error) error {
	var txErr *solana.TransactionError
	if !errors.As(err, &txErr) {
		return err
	}
	code, ok := txErr.CustomCode()
	if !ok {
		return err
	}
	pe, ok := ProgramErrorFromCode(code)
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %w", pe, err)
}
