package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	_ "github.com/joho/godotenv/autoload"
	"github.com/nitro-legacy/inventory-tooling/cmd/flags"
	"github.com/nitro-legacy/inventory-tooling/deployer"
	"github.com/nitro-legacy/inventory-tooling/interfaces"
	"github.com/nitro-legacy/inventory-tooling/storage"
	"github.com/urfave/cli/v2"
)

var deployFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "rpc-url",
		Value:   "http://127.0.0.1:8545",
		EnvVars: []string{"RPC_URL", "ETH_RPC_URL"},
		Usage:   "EVM JSON-RPC endpoint",
	},
	&cli.StringFlag{
		Name:  "contract",
		Value: "NitroLegacyInventory",
		Usage: "contract name to deploy, optionally fully qualified as <source>:<name>",
	},
	&cli.StringSliceFlag{
		Name:    "artifacts",
		Value:   cli.NewStringSlice("file://."),
		EnvVars: []string{"ARTIFACTS_LOCATIONS"},
		Usage:   "storage locations holding compiled artifacts (file://, s3://, ipfs://, vault://, github://), tried in order",
	},
	&cli.StringFlag{
		Name:    "private-key",
		EnvVars: []string{"PRIVATE_KEY"},
		Usage:   "hex-encoded deployer private key",
	},
	&cli.StringFlag{
		Name:    "keystore",
		EnvVars: []string{"KEYSTORE_PATH"},
		Usage:   "encrypted JSON keystore file of the deployer",
	},
	&cli.StringFlag{
		Name:    "keystore-password",
		EnvVars: []string{"KEYSTORE_PASSWORD"},
		Usage:   "password of --keystore",
	},
	&cli.StringFlag{
		Name:    "key-location",
		EnvVars: []string{"DEPLOYER_KEY_LOCATION"},
		Usage:   "storage location holding the hex deployer key, e.g. vault://vault.internal:8200/secret/deployers",
	},
	&cli.StringFlag{
		Name:    "key-name",
		Value:   "deployer",
		EnvVars: []string{"DEPLOYER_KEY_NAME"},
		Usage:   "key of the deployer secret within --key-location",
	},
	&cli.BoolFlag{
		Name:  "json",
		Usage: "print the deployment as JSON instead of the bare address",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Value: 5 * time.Minute,
		Usage: "deadline for the deployment to be mined",
	},
	flags.LogServiceFlagFn("deploy"),
}

func main() {
	app := &cli.App{
		Name:  "deploy",
		Usage: "Deploy a compiled contract and wait for it to be mined",
		Flags: append(deployFlags, flags.LogFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			ctx, cancel := flags.WithTimeout(cCtx)
			defer cancel()

			storageFactory := storage.NewStorageBackendFactory(logger)

			var locations []interfaces.StorageBackendLocation
			for _, l := range cCtx.StringSlice("artifacts") {
				locations = append(locations, interfaces.StorageBackendLocation(l))
			}
			artifacts, err := storageFactory.CreateMultiBackend(locations)
			if err != nil {
				return fmt.Errorf("configuring artifact storage: %w", err)
			}

			signerCfg := deployer.SignerConfig{
				PrivateKey:       cCtx.String("private-key"),
				KeystorePath:     cCtx.String("keystore"),
				KeystorePassword: cCtx.String("keystore-password"),
				KeyName:          cCtx.String("key-name"),
			}
			if loc := cCtx.String("key-location"); loc != "" {
				signerCfg.KeyBackend, err = storageFactory.BackendFor(interfaces.StorageBackendLocation(loc))
				if err != nil {
					return fmt.Errorf("configuring key storage: %w", err)
				}
			}
			key, err := deployer.ResolveSigner(ctx, signerCfg)
			if err != nil {
				return err
			}

			factory, err := deployer.NewArtifactResolver(artifacts, logger).Factory(ctx, cCtx.String("contract"))
			if err != nil {
				return err
			}

			rpcURL := cCtx.String("rpc-url")
			logger.Debug("Connecting to Ethereum RPC", "address", rpcURL)
			client, err := ethclient.DialContext(ctx, rpcURL)
			if err != nil {
				return fmt.Errorf("could not dial %s: %w", rpcURL, err)
			}
			defer client.Close()

			deployment, err := deployer.NewDeployer(client, key, logger).Deploy(ctx, factory)
			if err != nil {
				return err
			}

			if cCtx.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(deployment)
			}
			fmt.Println(deployment.Address.Hex())
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
