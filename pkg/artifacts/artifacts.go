package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/dataprep"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/model"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// ManifestFile is the name of the bundle descriptor.
const ManifestFile = "manifest.yaml"

// Manifest describes a fitted transformer/model pair.
type Manifest struct {
	Name        string    `yaml:"name" json:"name"`
	Version     string    `yaml:"version" json:"version"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Transformer string    `yaml:"transformer" json:"transformer"`
	Model       string    `yaml:"model" json:"model"`
	TrainedAt   time.Time `yaml:"trained_at,omitempty" json:"trained_at,omitempty"`
}

func (m *Manifest) validate() error {
	switch {
	case m.Name == "":
		return errors.New("manifest: name is required")
	case m.Version == "":
		return errors.New("manifest: version is required")
	case m.Transformer == "":
		return errors.New("manifest: transformer is required")
	case m.Model == "":
		return errors.New("manifest: model is required")
	}
	return nil
}

// Source opens named files of one bundle.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// DirSource reads a bundle from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, filepath.Clean("/"+name)))
}

func (s DirSource) String() string { return s.Dir }

// S3Source reads a bundle from objects under Prefix in Bucket.
type S3Source struct {
	Store  awspkg.ObjectStore
	Bucket string
	Prefix string
}

func (s S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b, err := s.Store.Get(ctx, s.Bucket, path.Join(s.Prefix, name))
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s S3Source) String() string { return "s3://" + path.Join(s.Bucket, s.Prefix) }

// Bundle holds the loaded, read-only collaborators.
type Bundle struct {
	Manifest    Manifest
	Transformer *dataprep.ColumnTransformer
	Model       model.Regressor
}

// Load reads the manifest, then the transformer and model it names, and
// checks that their widths agree.
func Load(ctx context.Context, src Source) (*Bundle, error) {
	var b Bundle

	if err := decodeFile(ctx, src, ManifestFile, func(r io.Reader) error {
		if err := yaml.NewDecoder(r).Decode(&b.Manifest); err != nil {
			return err
		}
		return b.Manifest.validate()
	}); err != nil {
		return nil, err
	}

	if err := decodeFile(ctx, src, b.Manifest.Transformer, func(r io.Reader) (err error) {
		b.Transformer, err = dataprep.Decode(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := decodeFile(ctx, src, b.Manifest.Model, func(r io.Reader) (err error) {
		b.Model, err = model.Decode(r)
		return err
	}); err != nil {
		return nil, err
	}

	if w, n := b.Transformer.Width(), b.Model.NumFeatures(); w != n {
		return nil, fmt.Errorf("load artifacts from %s: transformer emits %d features, model expects %d", src, w, n)
	}
	return &b, nil
}

func decodeFile(ctx context.Context, src Source, name string, decode func(io.Reader) error) error {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("load artifacts from %s: open %s: %w", src, name, err)
	}
	defer rc.Close()
	if err := decode(rc); err != nil {
		return fmt.Errorf("load artifacts from %s: %s: %w", src, name, err)
	}
	return nil
}

// NewOrchestrator wires the bundle into a scoring pipeline.
func (b *Bundle) NewOrchestrator(opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	return pipeline.NewOrchestrator(b.Transformer, b.Model, opts...)
}
