// Package main (cmd/inventory) manages an inventory registry on a Solana
// cluster. The wallet and cluster default to ANCHOR_WALLET and
// ANCHOR_PROVIDER_URL.
//
//	inventory init
//	inventory create-item --name "Nitro Blade" --owner-code 1 --rarity 3
//	inventory set-slot --class 1 --slot 4 --item 1
//	inventory show
package main
