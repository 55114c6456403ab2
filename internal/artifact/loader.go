package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/fwi-service/internal/domain"
	"github.com/couchcryptid/fwi-service/internal/model"
)

// Bundle is the immutable result of loading a store.
type Bundle struct {
	Scaler   *model.StandardScaler
	Registry *model.Registry
	Manifest *Manifest
	// Digest identifies the exact bytes of the manifest and every file it
	// lists. Two stores with the same digest produce the same predictions.
	Digest string
}

// Loader reads a store exactly once. Later calls to Load return the first
// result, including its error.
type Loader struct {
	dir    string
	logger *slog.Logger

	once   sync.Once
	bundle *Bundle
	err    error
}

// NewLoader creates a loader for the store at dir.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Dir returns the store directory.
func (l *Loader) Dir() string { return l.dir }

// Load reads the manifest, then decodes the scaler and every model
// concurrently. Any failure is returned as *domain.ArtifactLoadError.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	l.once.Do(func() {
		l.bundle, l.err = l.load(ctx)
	})
	return l.bundle, l.err
}

func (l *Loader) load(ctx context.Context) (*Bundle, error) {
	manifest, err := ReadManifest(l.dir)
	if err != nil {
		return nil, &domain.ArtifactLoadError{Artifact: "manifest", Path: filepath.Join(l.dir, ManifestFile), Err: err}
	}

	var (
		scaler  *model.StandardScaler
		entries = make([]model.Entry, len(manifest.Models))
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		path := filepath.Join(l.dir, manifest.Scaler)
		var p model.StandardScalerParams
		if err := readJSON(gctx, path, &p); err != nil {
			return &domain.ArtifactLoadError{Artifact: "scaler", Path: path, Err: err}
		}
		s, err := model.NewStandardScaler(p)
		if err != nil {
			return &domain.ArtifactLoadError{Artifact: "scaler", Path: path, Err: err}
		}
		scaler = s
		return nil
	})

	for i, ref := range manifest.Models {
		g.Go(func() error {
			path := filepath.Join(l.dir, ref.File)
			pred, err := decodeModel(gctx, model.Kind(ref.Kind), path)
			if err != nil {
				return &domain.ArtifactLoadError{Artifact: ref.Name, Path: path, Err: err}
			}
			entries[i] = model.Entry{Name: ref.Name, Kind: model.Kind(ref.Kind), Predictor: pred}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	digest, err := digestStore(l.dir, manifest)
	if err != nil {
		return nil, &domain.ArtifactLoadError{Artifact: "digest", Path: l.dir, Err: err}
	}

	registry, err := model.NewRegistry(entries...)
	if err != nil {
		return nil, &domain.ArtifactLoadError{Artifact: "registry", Path: l.dir, Err: err}
	}

	for _, e := range entries {
		l.logger.Info("model loaded", "model", e.Name, "kind", e.Kind, "detail", model.Describe(e.Predictor))
	}
	l.logger.Info("artifact store loaded", "dir", l.dir, "models", len(entries), "digest", digest)

	return &Bundle{Scaler: scaler, Registry: registry, Manifest: manifest, Digest: digest}, nil
}

// digestStore hashes the manifest followed by the scaler and model files in
// manifest order. Each file is framed by its name and length.
func digestStore(dir string, m *Manifest) (string, error) {
	files := []string{ManifestFile, m.Scaler}
	for _, ref := range m.Models {
		files = append(files, ref.File)
	}

	h := sha256.New()
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00", name, len(data))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)[:12]), nil
}

func decodeModel(ctx context.Context, kind model.Kind, path string) (model.Predictor, error) {
	switch kind {
	case model.KindRidge:
		var p model.LinearParams
		if err := readJSON(ctx, path, &p); err != nil {
			return nil, err
		}
		return model.NewLinear(p)
	case model.KindDecisionTree:
		var p model.TreeParams
		if err := readJSON(ctx, path, &p); err != nil {
			return nil, err
		}
		if p.FeatureNames == nil {
			return nil, errors.New("feature_names is required")
		}
		return model.NewTree(p)
	case model.KindRandomForest:
		var p model.ForestParams
		if err := readJSON(ctx, path, &p); err != nil {
			return nil, err
		}
		return model.NewForest(p)
	case model.KindSVR:
		var p model.SVRParams
		if err := readJSON(ctx, path, &p); err != nil {
			return nil, err
		}
		return model.NewSVR(p)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", kind)
	}
}

func readJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}
