package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// IPFSBackend implements a storage backend on an IPFS node's HTTP API.
//
// Keys resolve below an optional root path (e.g. /ipfs/<dir-cid> of a
// published artifacts directory). Stored blobs are added to the node and
// the resulting CID is remembered for the key, so content written by this
// process can be read back before it is pinned into a directory.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	log         *slog.Logger
	locationURI string

	mu    sync.RWMutex
	added map[string]string
}

// NewIPFSBackend creates a new IPFS storage backend connected to the specified host and port.
func NewIPFSBackend(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)
	root = strings.TrimSuffix(root, "/")

	sh := shell.NewShell(apiURL)
	sh.SetTimeout(timeout)

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		root:        root,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?timeout=%s", apiURL, root, timeout),
		added:       make(map[string]string),
	}, nil
}

// Fetch retrieves data from IPFS.
// Returns ErrContentNotFound if the content doesn't exist or ErrBackendUnavailable
// if the IPFS node is not accessible.
func (b *IPFSBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	ipfsPath, err := b.ipfsPath(key)
	if err != nil {
		return nil, err
	}

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.Cat(ipfsPath)
	if err != nil {
		if isIPFSNotFound(err) {
			b.log.Debug("Content not found in IPFS",
				slog.String("path", ipfsPath),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to fetch data from IPFS",
			slog.String("path", ipfsPath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched content from IPFS",
		slog.String("path", ipfsPath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store adds data to IPFS and records the returned CID for key.
// Returns ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Store(ctx context.Context, key string, data []byte) error {
	cleaned, err := interfaces.CleanKey(key)
	if err != nil {
		return err
	}

	if !b.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to add data to IPFS: %w", err)
	}

	b.mu.Lock()
	b.added[cleaned] = cid
	b.mu.Unlock()

	b.log.Info("Stored content in IPFS",
		slog.String("key", cleaned),
		slog.String("cid", cid))

	return nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) ipfsPath(key string) (string, error) {
	cleaned, err := interfaces.CleanKey(key)
	if err != nil {
		return "", err
	}

	b.mu.RLock()
	cid, ok := b.added[cleaned]
	b.mu.RUnlock()
	if ok {
		return "/ipfs/" + cid, nil
	}

	if b.root == "" {
		return "", fmt.Errorf("%w: %s (no root path configured)", interfaces.ErrContentNotFound, cleaned)
	}
	return path.Join(b.root, cleaned), nil
}

func isIPFSNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no link named") || strings.Contains(msg, "not found")
}
