// Package inventory models the nitro-legacy inventory program: a per-authority
// registry account holding up to 64 items and 4 classes of 20 equipment slots.
//
// The registry lives at the program derived address of
// ["nitro-registry", authority] and is created by initialize_registry.
// Only the authority that created it can add or update items and assign
// slots. A slot may only hold an active item.
//
// Accounts and instruction arguments use Anchor's layout: an 8-byte
// discriminator (sha256("account:<Name>") or sha256("global:<ix_name>")
// truncated) followed by the borsh-encoded body.
//
// Program reproduces the on-chain state machine in Go and is what the
// localnet validator runs; Client drives a real or local cluster over
// JSON-RPC:
//
//	rpc, _ := solana.Dial(ctx, "http://127.0.0.1:8899")
//	client, _ := inventory.NewClient(rpc, inventory.DefaultProgramID, wallet, logger)
//	if _, err := client.InitializeRegistry(ctx); err != nil {
//	    return err
//	}
//	reg, _ := client.Fetch(ctx)
//	fmt.Println("Authority:", reg.Authority)
//
// Errors raised by the program come back as *ProgramError values that
// match the package sentinels with errors.Is.
package inventory
