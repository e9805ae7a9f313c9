package deployer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

// ErrDeploymentFailed is returned when the creation transaction cannot be
// submitted or does not leave code at the new address.
var ErrDeploymentFailed = errors.New("deployment failed")

// Backend is the chain access a Deployer needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Deployment describes a confirmed contract creation.
type Deployment struct {
	Contract    string         `json:"contract"`
	Address     common.Address `json:"address"`
	Deployer    common.Address `json:"deployer"`
	TxHash      common.Hash    `json:"txHash"`
	BlockNumber uint64         `json:"blockNumber"`
	GasUsed     uint64         `json:"gasUsed"`
}

// Deployer submits contract creations from a single account.
type Deployer struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	log     *slog.Logger
}

func NewDeployer(backend Backend, key *ecdsa.PrivateKey, log *slog.Logger) *Deployer {
	if log == nil {
		log = slog.Default()
	}
	return &Deployer{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		log:     log,
	}
}

// Address returns the deploying account.
func (d *Deployer) Address() common.Address {
	return d.from
}

// Deploy sends the creation transaction of factory with constructor args
// and blocks until it is mined and code is present at the new address.
func (d *Deployer) Deploy(ctx context.Context, factory *ContractFactory, args ...interface{}) (*Deployment, error) {
	chainID, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching chain id: %w", err)
	}

	balance, err := d.backend.BalanceAt(ctx, d.from, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching deployer balance: %w", err)
	}
	d.log.Info("Deploying with", "account", d.from.Hex(), "balance", formatEther(balance), "chainID", chainID)

	auth, err := bind.NewKeyedTransactorWithChainID(d.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("creating transactor: %w", err)
	}
	auth.Context = ctx

	_, tx, _, err := bind.DeployContract(auth, factory.ABI, factory.Bytecode, d.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: submitting %s: %w", ErrDeploymentFailed, factory.Name, err)
	}
	d.log.Debug("Deployment submitted", "contract", factory.Name, "tx", tx.Hash().Hex())

	addr, err := bind.WaitDeployed(ctx, d.backend, tx)
	if errors.Is(err, bind.ErrNoCodeAfterDeploy) {
		return nil, fmt.Errorf("%w: %s (tx %s): %w", ErrDeploymentFailed, factory.Name, tx.Hash().Hex(), err)
	} else if err != nil {
		return nil, fmt.Errorf("waiting for %s deployment: %w", factory.Name, err)
	}

	receipt, err := d.backend.TransactionReceipt(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("fetching deployment receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s reverted (tx %s)", ErrDeploymentFailed, factory.Name, tx.Hash().Hex())
	}

	deployment := &Deployment{
		Contract:    factory.Name,
		Address:     addr,
		Deployer:    d.from,
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}
	d.log.Info(factory.Name+" deployed to", "address", addr.Hex(), "tx", tx.Hash().Hex(), "block", deployment.BlockNumber, "gasUsed", deployment.GasUsed)
	return deployment, nil
}

func formatEther(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', 6)
}
