package crop

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"media-picker/internal/thumbnail"
)

func TestEditorOptions(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want EditorOptions
	}{
		{
			name: "empty config",
			cfg:  Config{},
			want: EditorOptions{Locale: "en"},
		},
		{
			name: "preset list",
			cfg: Config{
				AspectRatios: []AspectRatio{{W: 1, H: 1}, {W: 16, H: 9}, {Label: "Portrait", W: 3, H: 4}},
				Locale:       "de",
			},
			want: EditorOptions{
				Presets:        []string{"1:1", "16:9", "Portrait"},
				ShowAspectGrid: true,
				Locale:         "de",
			},
		},
		{
			name: "circular overrides presets and free style",
			cfg: Config{
				AspectRatios: []AspectRatio{{W: 16, H: 9}},
				Circular:     true,
				FreeStyle:    true,
			},
			want: EditorOptions{
				Presets:      []string{"1:1"},
				CircularMask: true,
				Locale:       "en",
			},
		},
		{
			name: "free style passes through",
			cfg:  Config{FreeStyle: true},
			want: EditorOptions{FreeStyleCrop: true, Locale: "en"},
		},
		{
			name: "invalid ratios dropped",
			cfg: Config{
				AspectRatios: []AspectRatio{{W: 0, H: 9}, {W: 4, H: 3}, {W: -1, H: 1}},
			},
			want: EditorOptions{Presets: []string{"4:3"}, Locale: "en"},
		},
		{
			name: "underscore locale normalized",
			cfg:  Config{Locale: "pt_BR"},
			want: EditorOptions{Locale: "pt-BR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.EditorOptions()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EditorOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAspectRatioString(t *testing.T) {
	if got := (AspectRatio{W: 16, H: 9}).String(); got != "16:9" {
		t.Errorf("String() = %q, want 16:9", got)
	}
	if got := (AspectRatio{Label: "Square", W: 1, H: 1}).String(); got != "Square" {
		t.Errorf("String() = %q, want Square", got)
	}
}

func TestResolveAssetLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := NewAssetResolver(t.TempDir())

	got, err := a.ResolveAsset(path)
	if err != nil {
		t.Fatalf("ResolveAsset(%q): %v", path, err)
	}
	if got != path {
		t.Errorf("ResolveAsset returned %q, want %q", got, path)
	}

	// file:// form resolves to the same path.
	got, err = a.ResolveAsset("file://" + path)
	if err != nil {
		t.Fatalf("ResolveAsset(file://): %v", err)
	}
	if got != path {
		t.Errorf("ResolveAsset(file://) returned %q, want %q", got, path)
	}
}

func TestResolveAssetMissingLocalFile(t *testing.T) {
	a := NewAssetResolver(t.TempDir())
	if _, err := a.ResolveAsset("/no/such/photo.jpg"); err == nil {
		t.Error("ResolveAsset succeeded for a missing file")
	}
}

func TestResolveAssetContentURI(t *testing.T) {
	root := t.TempDir()
	rel := filepath.Join("media", "external", "images", "7.jpg")
	if err := os.MkdirAll(filepath.Dir(filepath.Join(root, rel)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, rel), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := NewAssetResolver(t.TempDir(), WithContentResolver(thumbnail.DirResolver{Root: root}))

	got, err := a.ResolveAsset("content://media/external/images/7.jpg")
	if err != nil {
		t.Fatalf("ResolveAsset: %v", err)
	}
	if got != filepath.Join(root, rel) {
		t.Errorf("ResolveAsset returned %q, want %q", got, filepath.Join(root, rel))
	}
}

func TestResolveAssetContentURIWithoutResolver(t *testing.T) {
	a := NewAssetResolver(t.TempDir())
	if _, err := a.ResolveAsset("content://media/external/images/7.jpg"); err == nil {
		t.Error("ResolveAsset succeeded without a content resolver")
	}
}

func TestResolveAssetRemote(t *testing.T) {
	payload := []byte("remote image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	a := NewAssetResolver(dir, WithHTTPClient(srv.Client()))

	got, err := a.ResolveAsset(srv.URL + "/photos/42.png")
	if err != nil {
		t.Fatalf("ResolveAsset: %v", err)
	}
	if filepath.Dir(got) != dir {
		t.Errorf("asset written to %q, want inside %q", got, dir)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("asset file %q does not keep the source extension", got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Error("downloaded asset does not match the served payload")
	}
}

func TestResolveAssetRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a := NewAssetResolver(t.TempDir(), WithHTTPClient(srv.Client()))
	if _, err := a.ResolveAsset(srv.URL + "/gone.jpg"); err == nil {
		t.Error("ResolveAsset succeeded for a 404 response")
	}
}
