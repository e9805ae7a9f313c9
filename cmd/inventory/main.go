package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/nitro-legacy/inventory-tooling/cmd/flags"
	"github.com/nitro-legacy/inventory-tooling/inventory"
	"github.com/nitro-legacy/inventory-tooling/solana"
	"github.com/urfave/cli/v2"
)

var (
	authorityFlag = &cli.StringFlag{
		Name:  "authority",
		Usage: "registry authority (base58); defaults to the --wallet public key",
	}
	ownerCodeFlag   = &cli.UintFlag{Name: "owner-code", Usage: fmt.Sprintf("owning class, 0..%d", inventory.ClassCount)}
	rarityFlag      = &cli.UintFlag{Name: "rarity", Usage: "rarity tier"}
	nameFlag        = &cli.StringFlag{Name: "name", Required: true, Usage: fmt.Sprintf("item name, at most %d bytes", inventory.MaxNameLen)}
	iconFlag        = &cli.StringFlag{Name: "icon", Usage: fmt.Sprintf("item icon, at most %d bytes", inventory.MaxIconLen)}
	descriptionFlag = &cli.StringFlag{Name: "description", Usage: fmt.Sprintf("item description, at most %d bytes", inventory.MaxDescriptionLen)}
	itemIDFlag      = &cli.UintFlag{Name: "id", Required: true, Usage: "item id"}
	inactiveFlag    = &cli.BoolFlag{Name: "inactive", Usage: "deactivate the item"}
	classFlag       = &cli.UintFlag{Name: "class", Required: true, Usage: fmt.Sprintf("class index, 0..%d", inventory.ClassCount-1)}
	slotFlag        = &cli.UintFlag{Name: "slot", Required: true, Usage: fmt.Sprintf("slot index, 0..%d", inventory.SlotsPerClass-1)}
	slotItemFlag    = &cli.UintFlag{Name: "item", Required: true, Usage: "item id to assign"}
)

var itemFlags = []cli.Flag{ownerCodeFlag, rarityFlag, nameFlag, iconFlag, descriptionFlag}

func main() {
	appFlags := []cli.Flag{flags.WalletFlag, flags.TimeoutFlag, flags.LogServiceFlagFn("inventory")}
	appFlags = append(appFlags, flags.SolanaFlags...)
	appFlags = append(appFlags, flags.LogFlags...)

	app := &cli.App{
		Name:  "inventory",
		Usage: "Manage an inventory registry on a Solana cluster",
		Flags: appFlags,
		Commands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "Print the registry address and bump of an authority",
				Flags:  []cli.Flag{authorityFlag},
				Action: addressCmd,
			},
			{
				Name:   "init",
				Usage:  "Initialize the registry of the wallet",
				Action: initCmd,
			},
			{
				Name:   "show",
				Usage:  "Print a registry as JSON",
				Flags:  []cli.Flag{authorityFlag},
				Action: showCmd,
			},
			{
				Name:   "create-item",
				Usage:  "Add an item to the registry",
				Flags:  itemFlags,
				Action: createItemCmd,
			},
			{
				Name:   "update-item",
				Usage:  "Overwrite an existing item",
				Flags:  append([]cli.Flag{itemIDFlag, inactiveFlag}, itemFlags...),
				Action: updateItemCmd,
			},
			{
				Name:   "set-slot",
				Usage:  "Assign an active item to a class slot",
				Flags:  []cli.Flag{classFlag, slotFlag, slotItemFlag},
				Action: setSlotCmd,
			},
			{
				Name:   "clear-slot",
				Usage:  "Empty a class slot",
				Flags:  []cli.Flag{classFlag, slotFlag},
				Action: clearSlotCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) (*inventory.Client, func(), error) {
	logger := flags.SetupLogger(cCtx)

	programID, err := flags.ProgramID(cCtx)
	if err != nil {
		return nil, nil, err
	}
	wallet, err := flags.LoadWallet(cCtx)
	if err != nil {
		return nil, nil, err
	}
	rpc, err := flags.DialSolana(cCtx, logger)
	if err != nil {
		return nil, nil, err
	}
	client, err := inventory.NewClient(rpc, programID, wallet, logger)
	if err != nil {
		rpc.Close()
		return nil, nil, err
	}
	return client, rpc.Close, nil
}

// authority resolves --authority, falling back to the wallet.
func authority(cCtx *cli.Context) (solana.PublicKey, error) {
	if s := cCtx.String(authorityFlag.Name); s != "" {
		return solana.PublicKeyFromBase58(s)
	}
	wallet, err := flags.LoadWallet(cCtx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return wallet.PublicKey(), nil
}

func itemInput(cCtx *cli.Context) (inventory.ItemInput, error) {
	input := inventory.ItemInput{
		OwnerCode:   uint8(cCtx.Uint(ownerCodeFlag.Name)),
		Rarity:      uint8(cCtx.Uint(rarityFlag.Name)),
		Name:        cCtx.String(nameFlag.Name),
		Icon:        cCtx.String(iconFlag.Name),
		Description: cCtx.String(descriptionFlag.Name),
	}
	if cCtx.Uint(ownerCodeFlag.Name) > 255 || cCtx.Uint(rarityFlag.Name) > 255 {
		return input, fmt.Errorf("owner code and rarity must fit in a byte")
	}
	return input, input.Validate()
}

func slotPosition(cCtx *cli.Context) (uint8, uint8, error) {
	class, slot := cCtx.Uint(classFlag.Name), cCtx.Uint(slotFlag.Name)
	if class >= inventory.ClassCount {
		return 0, 0, inventory.ErrInvalidClass
	}
	if slot >= inventory.SlotsPerClass {
		return 0, 0, inventory.ErrInvalidSlot
	}
	return uint8(class), uint8(slot), nil
}

func addressCmd(cCtx *cli.Context) error {
	programID, err := flags.ProgramID(cCtx)
	if err != nil {
		return err
	}
	auth, err := authority(cCtx)
	if err != nil {
		return err
	}
	addr, bump, err := inventory.RegistryAddress(programID, auth)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d\n", addr, bump)
	return nil
}

func initCmd(cCtx *cli.Context) error {
	client, closeFn, err := newClient(cCtx)
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := flags.WithTimeout(cCtx)
	defer cancel()

	sig, err := client.InitializeRegistry(ctx)
	if err != nil {
		return err
	}
	registry, err := client.Fetch(ctx)
	if err != nil {
		return err
	}
	addr, _ := client.Registry()
	fmt.Println("Registry:", addr)
	fmt.Println("Signature:", sig)
	fmt.Println("Authority:", registry.Authority)
	return nil
}

func showCmd(cCtx *cli.Context) error {
	auth, err := authority(cCtx)
	if err != nil {
		return err
	}
	logger := flags.SetupLogger(cCtx)
	programID, err := flags.ProgramID(cCtx)
	if err != nil {
		return err
	}
	rpc, err := flags.DialSolana(cCtx, logger)
	if err != nil {
		return err
	}
	defer rpc.Close()
	ctx, cancel := flags.WithTimeout(cCtx)
	defer cancel()

	registry, err := inventory.NewReader(rpc, programID).FetchRegistry(ctx, auth)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(registry)
}

func createItemCmd(cCtx *cli.Context) error {
	input, err := itemInput(cCtx)
	if err != nil {
		return err
	}
	client, closeFn, err := newClient(cCtx)
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := flags.WithTimeout(cCtx)
	defer cancel()

	id, sig, err := client.CreateItem(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("Item %d created in %s\n", id, sig)
	return nil
}

func updateItemCmd(cCtx *cli.Context) error {
	input, err := itemInput(cCtx)
	if err != nil {
		return err
	}
	id := cCtx.Uint(itemIDFlag.Name)
	if id > 0xffff {
		return inventory.ErrUnknownItem
	}
	client, closeFn, err := newClient(cCtx)
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := flags.WithTimeout(cCtx)
	defer cancel()

	sig, err := client.UpdateItem(ctx, uint16(id), input, !cCtx.Bool(inactiveFlag.Name))
	if err != nil {
		return err
	}
	fmt.Printf("Item %d updated in %s\n", id, sig)
	return nil
}

func setSlotCmd(cCtx *cli.Context) error {
	class, slot, err := slotPosition(cCtx)
	if err != nil {
		return err
	}
	raw := cCtx.Uint(slotItemFlag.Name)
	if raw > 0xffff {
		return inventory.ErrUnknownItem
	}
	itemID := uint16(raw)

	client, closeFn, err := newClient(cCtx)
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := flags.WithTimeout(cCtx)
	defer cancel()

	sig, err := client.SetSlot(ctx, class, slot, &itemID)
	if err != nil {
		return err
	}
	fmt.Printf("Slot %d/%d set to item %d in %s\n", class, slot, itemID, sig)
	return nil
}

func clearSlotCmd(cCtx *cli.Context) error {
	class, slot, err := slotPosition(cCtx)
	if err != nil {
		return err
	}
	client, closeFn, err := newClient(cCtx)
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := flags.WithTimeout(cCtx)
	defer cancel()

	sig, err := client.ClearSlot(ctx, class, slot)
	if err != nil {
		return err
	}
	fmt.Printf("Slot %d/%d cleared in %s\n", class, slot, sig)
	return nil
}
