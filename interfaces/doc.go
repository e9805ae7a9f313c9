// Package interfaces defines the contracts shared between the inventory
// tooling components, separating interface definitions from implementations.
//
// # Storage Interfaces
//
// StorageBackend: keyed blob storage used for contract artifacts and
// deployer key material, with file, S3, MinIO, IPFS, Vault and
// GitHub implementations.
//
// StorageBackendFactory: creates storage backends from URI strings and
// aggregates them into a multi-backend with fallback.
package interfaces
