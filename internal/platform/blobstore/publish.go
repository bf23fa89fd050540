package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/pharmassist/synthdata/internal/platform/sink"
)

// Metadata keys set on published artifacts.
const (
	MetaDatasetID = "dataset-id"
	MetaSHA256    = "sha256"
	MetaRecords   = "records"
)

// Published reports one uploaded (or already present) artifact.
type Published struct {
	Info    Info `json:"info"`
	Skipped bool `json:"skipped"`
}

// DatasetPrefix is the key prefix of a dataset under root.
func DatasetPrefix(root, datasetID string) string {
	if root == "" {
		return datasetID
	}
	return path.Join(root, datasetID)
}

// Publish uploads the stream files of a finished dataset directory and then
// its manifest under <root>/<dataset id>/. Artifacts already present with
// the same checksum are skipped, so publishing a regenerated dataset is
// idempotent; a present artifact with a different checksum fails with
// ErrBlobExists.
func Publish(ctx context.Context, store Store, dir, root string) ([]Published, error) {
	m, err := sink.ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	prefix := DatasetPrefix(root, m.DatasetID)

	out := make([]Published, 0, len(m.Streams)+1)
	for _, s := range m.Streams {
		meta := map[string]string{
			MetaDatasetID: m.DatasetID,
			MetaSHA256:    s.SHA256,
			MetaRecords:   strconv.FormatInt(s.Records, 10),
		}
		p, err := upload(ctx, store, filepath.Join(dir, s.File), path.Join(prefix, s.File), "application/gzip", meta)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}

	manifestPath := filepath.Join(dir, sink.ManifestFile)
	sum, err := fileSHA256(manifestPath)
	if err != nil {
		return out, err
	}
	p, err := upload(ctx, store, manifestPath, path.Join(prefix, sink.ManifestFile), "application/json",
		map[string]string{MetaDatasetID: m.DatasetID, MetaSHA256: sum})
	if err != nil {
		return out, err
	}
	return append(out, p), nil
}

func upload(ctx context.Context, store Store, file, key, contentType string, meta map[string]string) (Published, error) {
	if existing, err := store.Head(ctx, key); err == nil {
		if existing.Metadata[MetaSHA256] == meta[MetaSHA256] {
			return Published{Info: existing, Skipped: true}, nil
		}
		return Published{}, fmt.Errorf("%w: %s has a different checksum", ErrBlobExists, key)
	} else if !errors.Is(err, ErrBlobNotFound) {
		return Published{}, err
	}

	f, err := os.Open(file)
	if err != nil {
		return Published{}, err
	}
	defer f.Close()

	info, err := store.Put(ctx, key, f, PutOptions{ContentType: contentType, Metadata: meta})
	if err != nil {
		return Published{}, fmt.Errorf("publish %s: %w", key, err)
	}
	return Published{Info: info}, nil
}

func fileSHA256(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return sink.HashReader(f)
}
