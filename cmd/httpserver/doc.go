// Package main (cmd/httpserver) serves the read-only registry API.
//
// The server derives registry addresses locally and loads registry accounts
// from the Solana cluster named by --rpc-url (or ANCHOR_PROVIDER_URL). It
// never holds a wallet. Prometheus metrics are served on --metrics-addr and
// SIGINT/SIGTERM trigger a graceful shutdown.
//
// Example usage:
//
//	registry-api --rpc-url=https://api.devnet.solana.com \
//	    --listen-addr=0.0.0.0:8080 \
//	    --metrics-addr=0.0.0.0:8090
package main
