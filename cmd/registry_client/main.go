package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/nitro-legacy/inventory-tooling/api/clients"
	"github.com/nitro-legacy/inventory-tooling/solana"
	"github.com/urfave/cli/v2"
)

var flagServerAddr *cli.StringFlag = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8080",
	EnvVars: []string{"REGISTRY_API_URL"},
	Usage:   "registry API server address to request",
}
var flagAuthority *cli.StringFlag = &cli.StringFlag{
	Name:     "authority",
	Required: true,
	Usage:    "registry authority, base58",
}
var flagClass *cli.UintFlag = &cli.UintFlag{
	Name:     "class",
	Required: true,
	Usage:    "class index",
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Query the registry API",
		Flags: []cli.Flag{
			flagServerAddr,
			flagAuthority,
		},
		Commands: []*cli.Command{
			{
				Name:  "address",
				Usage: "Print the registry address and bump",
				Action: func(cCtx *cli.Context) error {
					client, authority, err := newClient(cCtx)
					if err != nil {
						return err
					}
					resp, err := client.RegistryAddress(cCtx.Context, authority)
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "show",
				Usage: "Print the registry",
				Action: func(cCtx *cli.Context) error {
					client, authority, err := newClient(cCtx)
					if err != nil {
						return err
					}
					resp, err := client.Registry(cCtx.Context, authority)
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "slots",
				Usage: "Print the slots of one class",
				Flags: []cli.Flag{flagClass},
				Action: func(cCtx *cli.Context) error {
					client, authority, err := newClient(cCtx)
					if err != nil {
						return err
					}
					class := cCtx.Uint(flagClass.Name)
					if class > 255 {
						return fmt.Errorf("invalid class %d", class)
					}
					resp, err := client.ClassSlots(cCtx.Context, authority, uint8(class))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) (*clients.RegistryClient, solana.PublicKey, error) {
	authority, err := solana.PublicKeyFromBase58(cCtx.String(flagAuthority.Name))
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return clients.NewRegistryClient(cCtx.String(flagServerAddr.Name)), authority, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
