package flags

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nitro-legacy/inventory-tooling/api"
	"github.com/nitro-legacy/inventory-tooling/common"
	"github.com/nitro-legacy/inventory-tooling/inventory"
	"github.com/nitro-legacy/inventory-tooling/solana"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
		RequestTimeout:           cCtx.Duration(RequestTimeoutFlag.Name),
	}
}

// DialSolana connects to the cluster named by --rpc-url.
func DialSolana(cCtx *cli.Context, logger *slog.Logger) (*solana.Client, error) {
	rpcURL := cCtx.String(SolanaRpcFlag.Name)
	logger.Debug("Connecting to Solana RPC", "address", rpcURL)
	return solana.Dial(cCtx.Context, rpcURL,
		solana.WithCommitment(solana.Commitment(cCtx.String(CommitmentFlag.Name))),
		solana.WithLogger(logger),
	)
}

// ProgramID parses --program-id.
func ProgramID(cCtx *cli.Context) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(cCtx.String(ProgramIDFlag.Name))
}

// LoadWallet reads the solana-keygen keypair named by --wallet.
func LoadWallet(cCtx *cli.Context) (*solana.Keypair, error) {
	return solana.LoadKeypairFile(expandHome(cCtx.String(WalletFlag.Name)))
}

// WithTimeout derives a context bounded by --timeout.
func WithTimeout(cCtx *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cCtx.Context, cCtx.Duration(TimeoutFlag.Name))
}

func expandHome(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

var SolanaRpcFlag = &cli.StringFlag{
	Name:    "rpc-url",
	Value:   "http://127.0.0.1:8899",
	EnvVars: []string{"ANCHOR_PROVIDER_URL", "SOLANA_RPC_URL"},
	Usage:   "Solana JSON-RPC endpoint",
}

var WalletFlag = &cli.StringFlag{
	Name:    "wallet",
	Value:   "~/.config/solana/id.json",
	EnvVars: []string{"ANCHOR_WALLET"},
	Usage:   "solana-keygen keypair file of the registry authority",
}

var ProgramIDFlag = &cli.StringFlag{
	Name:    "program-id",
	Value:   inventory.DefaultProgramID.String(),
	EnvVars: []string{"INVENTORY_PROGRAM_ID"},
	Usage:   "inventory program id",
}

var CommitmentFlag = &cli.StringFlag{
	Name:  "commitment",
	Value: string(solana.CommitmentConfirmed),
	Usage: "commitment level to read and confirm at: processed, confirmed or finalized",
}

var TimeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Value: 2 * time.Minute,
	Usage: "overall deadline for the command",
}

var RequestTimeoutFlag = &cli.DurationFlag{
	Name:  "request-timeout",
	Value: 10 * time.Second,
	Usage: "deadline of each RPC lookup made while serving a request",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}

var ServerFlags = []cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
	RequestTimeoutFlag,
}

var SolanaFlags = []cli.Flag{
	SolanaRpcFlag,
	ProgramIDFlag,
	CommitmentFlag,
}
