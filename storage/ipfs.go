package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// IPFSBackend stores documents through an IPFS node's HTTP API.
//
// IPFS addresses content by its own CID, so the backend pins a mapping from
// our Keccak id to the IPFS CID via MFS paths.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a backend connected to the node at host:port.
func NewIPFSBackend(host, port, timeout string, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	return &IPFSBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/?timeout=%s", apiURL, timeout),
	}, nil
}

// Fetch retrieves a document by content id and kind. Returns
// ErrBackendUnavailable when the node is down and ErrContentNotFound when
// the mapping path does not exist.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.ContentID, kind interfaces.ContentKind) ([]byte, error) {
	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable", "host", b.host, "port", b.port)
		return nil, interfaces.ErrBackendUnavailable
	}

	path := b.mfsPath(id, kind)
	reader, err := b.shell.FilesRead(ctx, path)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "no link named") {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("fetched content from IPFS", "path", path, "size", len(data))
	return data, nil
}

// Store adds a document to the node and pins it under the content id's MFS
// path.
func (b *IPFSBackend) Store(ctx context.Context, data []byte, kind interfaces.ContentKind) (interfaces.ContentID, error) {
	id := interfaces.ComputeContentID(data)

	if !b.shell.IsUp() {
		return id, interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(data))
	if err != nil {
		return id, fmt.Errorf("failed to add data to IPFS: %w", err)
	}

	path := b.mfsPath(id, kind)
	if err := b.shell.FilesCp(ctx, "/ipfs/"+cid, path); err != nil {
		// The mapping may already exist from an earlier store of the same
		// content.
		if !strings.Contains(err.Error(), "already has entry") {
			return id, fmt.Errorf("failed to map content id in IPFS: %w", err)
		}
	}

	b.log.Debug("stored content in IPFS", "ipfsCID", cid, "contentID", id)
	return id, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) mfsPath(id interfaces.ContentID, kind interfaces.ContentKind) string {
	return fmt.Sprintf("/registry/%s/%s", kind, id)
}
