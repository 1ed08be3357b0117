package interfaces

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ContentID is the 32-byte Keccak-256 hash addressing a stored document.
type ContentID [32]byte

// ComputeContentID calculates the content id of a document.
func ComputeContentID(data []byte) ContentID {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var id ContentID
	copy(id[:], h.Sum(nil))
	return id
}

// NewContentIDFromHex parses a content id from a hex string, with or
// without the 0x prefix.
func NewContentIDFromHex(source string) (ContentID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return ContentID{}, errors.New("invalid content ID length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var id ContentID
	copy(id[:], raw)
	return id, nil
}

// String returns the hex representation.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte hash.
func (id ContentID) Bytes() []byte {
	return id[:]
}

// Equal compares two content ids.
func (id ContentID) Equal(other ContentID) bool {
	return bytes.Equal(id[:], other[:])
}

// ContentKind indicates the storage namespace of a document.
type ContentKind int

const (
	// MetadataKind for token metadata documents.
	MetadataKind ContentKind = iota
	// AuditKind for exported relay audit records.
	AuditKind
)

// String returns the namespace name.
func (ck ContentKind) String() string {
	switch ck {
	case MetadataKind:
		return "metadata"
	case AuditKind:
		return "audit"
	default:
		return "unknown"
	}
}

var (
	// ErrContentNotFound is returned when a document is absent from the
	// storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not
	// accessible.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned for malformed or unsupported
	// backend location URIs.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// MetadataBackend provides content-addressed storage for token metadata and
// audit exports.
type MetadataBackend interface {
	// Fetch retrieves a document by content id and kind.
	Fetch(ctx context.Context, id ContentID, kind ContentKind) ([]byte, error)

	// Store saves a document and returns its content id.
	Store(ctx context.Context, data []byte, kind ContentKind) (ContentID, error)

	// Available checks whether the backend is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}

// MetadataBackendFactory creates metadata backends from location URIs.
type MetadataBackendFactory interface {
	// BackendFor creates a backend from a URI.
	// Supports file://, s3://, ipfs://, vault://
	BackendFor(locationURI string) (MetadataBackend, error)

	// CreateMultiBackend aggregates several backends for redundancy.
	CreateMultiBackend(locationURIs []string) (MetadataBackend, error)
}
