package deployer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// ErrNoSigner is returned when no signing source is configured.
var ErrNoSigner = errors.New("no deployer account configured")

// SignerConfig lists the sources a deployer key can come from. The first
// configured source wins, in field order.
type SignerConfig struct {
	// PrivateKey is a hex-encoded secp256k1 key, with or without 0x.
	PrivateKey string

	// KeystorePath and KeystorePassword select an encrypted JSON keystore file.
	KeystorePath     string
	KeystorePassword string

	// KeyBackend holds the hex key under KeyName (typically Vault).
	KeyBackend interfaces.StorageBackend
	KeyName    string
}

// ResolveSigner loads the deployer key.
func ResolveSigner(ctx context.Context, cfg SignerConfig) (*ecdsa.PrivateKey, error) {
	switch {
	case cfg.PrivateKey != "":
		return parseHexKey(cfg.PrivateKey)

	case cfg.KeystorePath != "":
		data, err := os.ReadFile(cfg.KeystorePath)
		if err != nil {
			return nil, fmt.Errorf("reading keystore: %w", err)
		}
		key, err := keystore.DecryptKey(data, cfg.KeystorePassword)
		if err != nil {
			return nil, fmt.Errorf("decrypting keystore %s: %w", cfg.KeystorePath, err)
		}
		return key.PrivateKey, nil

	case cfg.KeyBackend != nil && cfg.KeyName != "":
		data, err := cfg.KeyBackend.Fetch(ctx, cfg.KeyName)
		if err != nil {
			return nil, fmt.Errorf("fetching deployer key %s from %s: %w", cfg.KeyName, cfg.KeyBackend.Name(), err)
		}
		return parseHexKey(string(data))
	}

	return nil, ErrNoSigner
}

func parseHexKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		// the key itself never goes into the error
		return nil, errors.New("invalid deployer private key")
	}
	return key, nil
}
