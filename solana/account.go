package solana

// AccountStore is the account state an on-chain program executes against.
// Implementations return copies; writes go through SetAccount.
type AccountStore interface {
	GetAccount(pk PublicKey) (*Account, bool)
	SetAccount(pk PublicKey, acc *Account)
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// RentExemptMinimum returns the lamports needed to keep an account of
// dataLen bytes rent exempt under the default rent parameters.
func RentExemptMinimum(dataLen int) uint64 {
	const (
		accountStorageOverhead = 128
		lamportsPerByteYear    = 3480
		exemptionYears         = 2
	)
	return uint64(accountStorageOverhead+dataLen) * lamportsPerByteYear * exemptionYears
}
