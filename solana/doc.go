// Package solana implements the small slice of the Solana runtime the
// inventory tooling needs: base58 keys, program-derived addresses, legacy
// transaction encoding and a JSON-RPC client.
//
// # Program Derived Addresses
//
// A PDA is sha256(seeds || programID || "ProgramDerivedAddress") with the
// extra requirement that the result is not a valid ed25519 point, so no
// private key can ever sign for it. FindProgramAddress appends a single
// bump byte to the seeds, starting at 255 and counting down, and returns
// the first off-curve result:
//
//	authority := keypair.PublicKey()
//	addr, bump, err := solana.FindProgramAddress(
//	    [][]byte{[]byte("nitro-registry"), authority.Bytes()},
//	    programID,
//	)
//
// # Transactions
//
// Transactions use the legacy (pre-v0) message format. NewTransaction
// compiles instructions into a message with the fee payer first and the
// remaining accounts ordered writable signers, readonly signers, writable
// non-signers, readonly non-signers.
//
// # RPC
//
// Client speaks Solana JSON-RPC over HTTP using go-ethereum's generic
// JSON-RPC 2.0 client. ConfirmTransaction polls signature statuses until
// the requested commitment is reached or the context expires.
package solana
