package crop

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"media-picker/internal/logging"
	"media-picker/internal/mediaref"
	"media-picker/internal/thumbnail"
)

// AssetResolver turns media references into editable local files. The
// editor mutates whatever file it is handed, so remote references are
// always copied into the work directory first and local files are
// passed through as-is.
type AssetResolver struct {
	dir      string
	resolver thumbnail.ContentResolver
	client   *http.Client
}

// ResolverOption configures an AssetResolver.
type ResolverOption func(*AssetResolver)

// WithContentResolver sets the resolver for content:// references.
func WithContentResolver(r thumbnail.ContentResolver) ResolverOption {
	return func(a *AssetResolver) { a.resolver = r }
}

// WithHTTPClient sets the client used to fetch remote references.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(a *AssetResolver) { a.client = c }
}

// NewAssetResolver creates a resolver that downloads remote assets
// into dir.
func NewAssetResolver(dir string, opts ...ResolverOption) *AssetResolver {
	a := &AssetResolver{
		dir:    dir,
		client: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ResolveAsset resolves a raw media reference to a readable local
// file path.
func (a *AssetResolver) ResolveAsset(raw string) (string, error) {
	ref := mediaref.Parse(raw)

	switch ref.Kind {
	case mediaref.KindLocalFile:
		if _, err := os.Stat(ref.Path); err != nil {
			return "", fmt.Errorf("resolving asset %q: %w", raw, err)
		}
		return ref.Path, nil

	case mediaref.KindContentURI:
		if a.resolver == nil {
			return "", fmt.Errorf("resolving asset %q: no content resolver configured", raw)
		}
		local, err := a.resolver.Resolve(ref.Raw)
		if err != nil {
			return "", fmt.Errorf("resolving asset %q: %w", raw, err)
		}
		if _, err := os.Stat(local); err != nil {
			return "", fmt.Errorf("resolving asset %q: %w", raw, err)
		}
		return local, nil

	case mediaref.KindRemoteURL:
		return a.fetch(ref)

	default:
		return "", fmt.Errorf("resolving asset %q: unsupported reference", raw)
	}
}

func (a *AssetResolver) fetch(ref mediaref.Ref) (string, error) {
	resp, err := a.client.Get(ref.Raw)
	if err != nil {
		return "", fmt.Errorf("fetching asset %q: %w", ref.Raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching asset %q: status %d", ref.Raw, resp.StatusCode)
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating asset directory: %w", err)
	}

	ext := ref.Ext()
	if ext == "" {
		ext = ".bin"
	}
	tmp, err := os.CreateTemp(a.dir, "asset-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating asset file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading asset %q: %w", ref.Raw, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing asset file: %w", err)
	}

	logging.Debug("Downloaded editor asset %s to %s", ref.Raw, filepath.Base(tmp.Name()))
	return tmp.Name(), nil
}
