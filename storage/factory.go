package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// BackendFactory creates metadata backends from URI strings and aggregates
// them into multi-backend configurations.
type BackendFactory struct {
	log *slog.Logger
}

func NewBackendFactory(log *slog.Logger) *BackendFactory {
	return &BackendFactory{log: log}
}

// BackendFor creates a backend from a location URI of the form
// [scheme]://[auth@]host[:port][/path][?params].
//
// Supported schemes: file, s3, ipfs, vault.
func (f *BackendFactory) BackendFor(locationURI string) (interfaces.MetadataBackend, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileBackend(u)
	case "s3":
		return f.createS3Backend(u)
	case "ipfs":
		return f.createIPFSBackend(u)
	case "vault":
		return f.createVaultBackend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiBackend aggregates the backends for the given URIs. URIs that
// fail to produce a backend are skipped with a warning; at least one must
// succeed.
func (f *BackendFactory) CreateMultiBackend(locationURIs []string) (interfaces.MetadataBackend, error) {
	backends := make([]interfaces.MetadataBackend, 0, len(locationURIs))

	for _, uri := range locationURIs {
		backend, err := f.BackendFor(uri)
		if err != nil {
			f.log.Warn("skipping storage backend", "locationURI", uri, "err", err)
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}
	return NewMultiBackend(backends, f.log), nil
}

func (f *BackendFactory) createFileBackend(u *url.URL) (interfaces.MetadataBackend, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %q", interfaces.ErrInvalidLocationURI, u.String())
	}
	return NewFileBackend(path, f.log)
}

// createS3Backend parses
// s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=...&endpoint=...
// Without credentials the bucket is assumed publicly readable.
func (f *BackendFactory) createS3Backend(u *url.URL) (interfaces.MetadataBackend, error) {
	bucket := u.Host
	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Backend(bucket, prefix, region, endpoint, accessKey, secretKey, f.log)
}

// createIPFSBackend parses ipfs://host:port/?timeout=30s.
func (f *BackendFactory) createIPFSBackend(u *url.URL) (interfaces.MetadataBackend, error) {
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5001"
	}

	timeout := u.Query().Get("timeout")
	if timeout == "" {
		timeout = "30s"
	}
	return NewIPFSBackend(host, port, timeout, f.log)
}

// createVaultBackend parses vault://TOKEN@host:port/mount/path.
func (f *BackendFactory) createVaultBackend(u *url.URL) (interfaces.MetadataBackend, error) {
	if u.User == nil {
		return nil, fmt.Errorf("%w: vault URI requires a token", interfaces.ErrInvalidLocationURI)
	}
	token := u.User.Username()

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: vault URI requires /mount/path", interfaces.ErrInvalidLocationURI)
	}

	address := "https://" + u.Host
	return NewVaultBackend(address, parts[0], parts[1], token, f.log)
}
