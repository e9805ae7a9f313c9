package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// ErrArtifactNotFound is returned when no candidate key holds the artifact.
var ErrArtifactNotFound = errors.New("contract artifact not found")

// ArtifactResolver looks contracts up by name in a storage backend, the
// way a Hardhat runtime resolves getContractFactory(name).
type ArtifactResolver struct {
	backend interfaces.StorageBackend
	log     *slog.Logger
}

func NewArtifactResolver(backend interfaces.StorageBackend, log *slog.Logger) *ArtifactResolver {
	if log == nil {
		log = slog.Default()
	}
	return &ArtifactResolver{backend: backend, log: log}
}

// ArtifactKeys lists the storage keys tried for a contract name. A fully
// qualified name ("contracts/Inventory.sol:NitroLegacyInventory") maps to
// its exact artifact path.
func ArtifactKeys(name string) []string {
	if source, contract, ok := strings.Cut(name, ":"); ok {
		return []string{fmt.Sprintf("artifacts/%s/%s.json", source, contract)}
	}
	return []string{
		name + ".json",
		fmt.Sprintf("artifacts/contracts/%s.sol/%s.json", name, name),
	}
}

// Factory fetches and parses the artifact of the named contract.
func (r *ArtifactResolver) Factory(ctx context.Context, name string) (*ContractFactory, error) {
	contractName := name
	if _, contract, ok := strings.Cut(name, ":"); ok {
		contractName = contract
	}

	for _, key := range ArtifactKeys(name) {
		data, err := r.backend.Fetch(ctx, key)
		if errors.Is(err, interfaces.ErrContentNotFound) {
			r.log.Debug("Artifact not at key", "key", key)
			continue
		} else if err != nil {
			return nil, fmt.Errorf("fetching artifact %s: %w", key, err)
		}

		factory, err := NewContractFactory(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if factory.Name != contractName {
			return nil, fmt.Errorf("%w: %s holds %s, expected %s", ErrInvalidArtifact, key, factory.Name, contractName)
		}

		r.log.Debug("Resolved contract artifact", "contract", name, "key", key, "backend", r.backend.Name())
		return factory, nil
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, r.backend.LocationURI())
}
