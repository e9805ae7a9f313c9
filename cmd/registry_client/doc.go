// Package main (cmd/registry_client) queries the registry API.
//
//	registry-client --authority=<base58> show
//	registry-client --authority=<base58> slots --class=2
package main
