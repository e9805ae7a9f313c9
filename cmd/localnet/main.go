// Command localnet serves an in-memory Solana JSON-RPC endpoint running the
// inventory program, for local development and CI:
//
//	localnet --listen-addr=127.0.0.1:8899 --fund=~/.config/solana/id.json
//	ANCHOR_PROVIDER_URL=http://127.0.0.1:8899 inventory init
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/nitro-legacy/inventory-tooling/cmd/flags"
	"github.com/nitro-legacy/inventory-tooling/inventory"
	"github.com/nitro-legacy/inventory-tooling/solana"
	"github.com/nitro-legacy/inventory-tooling/solana/localnet"
	"github.com/urfave/cli/v2"
)

const lamportsPerSol = 1_000_000_000

func main() {
	app := &cli.App{
		Name:  "localnet",
		Usage: "Serve an in-memory Solana cluster running the inventory program",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "listen-addr",
				Value: "127.0.0.1:8899",
				Usage: "address to serve JSON-RPC on",
			},
			flags.ProgramIDFlag,
			&cli.StringSliceFlag{
				Name:  "fund",
				Usage: "keypair files or base58 public keys to credit at startup",
			},
			&cli.Uint64Flag{
				Name:  "fund-sol",
				Value: 100,
				Usage: "SOL credited to each --fund account",
			},
			flags.LogServiceFlagFn("localnet"),
		}, flags.LogFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			programID, err := flags.ProgramID(cCtx)
			if err != nil {
				return err
			}

			net := localnet.New(logger)
			net.RegisterProgram(programID, inventory.NewProgram(programID, logger))

			lamports := cCtx.Uint64("fund-sol") * lamportsPerSol
			for _, f := range cCtx.StringSlice("fund") {
				pk, err := solana.PublicKeyFromBase58(f)
				if err != nil {
					kp, kerr := solana.LoadKeypairFile(f)
					if kerr != nil {
						return errors.Join(err, kerr)
					}
					pk = kp.PublicKey()
				}
				net.Fund(pk, lamports)
				logger.Info("Funded account", "account", pk, "lamports", lamports)
			}

			srv := &http.Server{
				Addr:              cCtx.String("listen-addr"),
				Handler:           httplogger.LoggingMiddlewareSlog(logger, net),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				logger.Info("Starting localnet", "listenAddress", srv.Addr, "programId", programID)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Localnet server failed", "err", err)
				}
			}()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
