// Package main (cmd/deploy) deploys a compiled contract to an EVM chain.
//
// The contract artifact is looked up by name in the --artifacts storage
// locations, the deployer key comes from --private-key, --keystore or a
// secret under --key-location, and the command blocks until the creation
// transaction is mined. The new address is printed on success; any failure
// exits non-zero.
//
//	PRIVATE_KEY=... RPC_URL=http://127.0.0.1:8545 deploy --contract NitroLegacyInventory
package main
