package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/nitro-legacy/inventory-tooling/cmd/flags"
	"github.com/nitro-legacy/inventory-tooling/httpserver"
	"github.com/nitro-legacy/inventory-tooling/inventory"
	"github.com/urfave/cli/v2"
)

var listenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	EnvVars: []string{"LISTEN_ADDR"},
	Usage:   "address to listen on for API",
}

func main() {
	appFlags := []cli.Flag{listenAddrFlag, flags.LogServiceFlagFn("registry-api")}
	appFlags = append(appFlags, flags.SolanaFlags...)
	appFlags = append(appFlags, flags.ServerFlags...)
	appFlags = append(appFlags, flags.LogFlags...)

	app := &cli.App{
		Name:  "registry-api",
		Usage: "Serve inventory registries read from a Solana cluster",
		Flags: appFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			programID, err := flags.ProgramID(cCtx)
			if err != nil {
				return err
			}

			rpc, err := flags.DialSolana(cCtx, logger)
			if err != nil {
				logger.Error("Failed to dial RPC", "err", err)
				return err
			}
			defer rpc.Close()

			reader := inventory.NewReader(rpc, programID)
			handler := httpserver.NewHandler(reader, logger)

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(listenAddrFlag.Name))
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "programId", programID)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
