// Package common holds process-wide settings shared by every command:
// the build version and the structured logger setup.
package common

import (
	"log/slog"
	"os"
)

// PackageName is used as the metrics namespace.
const PackageName = "nitro_inventory"

// Version is overridden at build time with -ldflags "-X .../common.Version=..."
var Version = "dev"

type LoggingOpts struct {
	Debug   bool
	JSON    bool
	Service string
	Version string
}

func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	if opts.JSON {
		log = slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts))
	} else {
		log = slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))
	}

	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
