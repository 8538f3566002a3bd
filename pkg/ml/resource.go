package ml

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Fetcher retrieves raw artifact bytes from a bucket-keyed object store.
// Implemented by pkg/storage; callers only need this one method.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Loader produces the process's model artifact. Invoked at most once.
type Loader func(ctx context.Context) (*Artifact, error)

// Resource owns the once-loaded, immutable model artifact shared by all
// concurrent detection requests. sync.Once guarantees that racing first
// requests converge on a single artifact instance.
type Resource struct {
	load Loader
	once sync.Once
	art  *Artifact
	err  error
}

// NewResource wraps a loader into a lazily-initialized shared handle.
func NewResource(load Loader) *Resource {
	return &Resource{load: load}
}

// Artifact returns the shared artifact, loading it on first use. Every call
// after a failed load returns the same error: the process cannot serve
// detection requests without artifacts.
func (r *Resource) Artifact(ctx context.Context) (*Artifact, error) {
	r.once.Do(func() {
		r.art, r.err = r.load(ctx)
	})
	return r.art, r.err
}

// DirLoader reads both artifact files from a local directory.
func DirLoader(dir string) Loader {
	return func(context.Context) (*Artifact, error) {
		vecBytes, err := os.ReadFile(filepath.Join(dir, VectorizerFile))
		if err != nil {
			return nil, fmt.Errorf("read local vectorizer artifact: %w", err)
		}
		modelBytes, err := os.ReadFile(filepath.Join(dir, ModelFile))
		if err != nil {
			return nil, fmt.Errorf("read local classifier artifact: %w", err)
		}
		return ParseArtifact(vecBytes, modelBytes)
	}
}

// StoreLoader fetches both artifact objects from the remote store under the
// model_<version>/ prefix.
func StoreLoader(fetcher Fetcher, bucket, version string) Loader {
	return func(ctx context.Context) (*Artifact, error) {
		vecKey, modelKey := ArtifactKeys(version)
		vecBytes, err := fetcher.Fetch(ctx, bucket, vecKey)
		if err != nil {
			return nil, fmt.Errorf("fetch %s/%s: %w", bucket, vecKey, err)
		}
		modelBytes, err := fetcher.Fetch(ctx, bucket, modelKey)
		if err != nil {
			return nil, fmt.Errorf("fetch %s/%s: %w", bucket, modelKey, err)
		}
		return ParseArtifact(vecBytes, modelBytes)
	}
}

// PreferredLoader uses the local artifact directory when it exists (dev
// speed), otherwise falls back to the remote store. A nil fetcher with no
// local directory fails at load time, which the gateway treats as fatal.
func PreferredLoader(dir string, fetcher Fetcher, bucket, version string) Loader {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		log.Printf("[STARTUP] Using local model artifacts from %s", dir)
		return DirLoader(dir)
	}
	if fetcher == nil {
		return func(context.Context) (*Artifact, error) {
			return nil, fmt.Errorf("no artifact source: local dir %q missing and no artifact store configured", dir)
		}
	}
	log.Printf("[STARTUP] Using remote model artifacts (bucket=%s version=%s)", bucket, version)
	return StoreLoader(fetcher, bucket, version)
}
