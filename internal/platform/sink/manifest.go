package sink

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ManifestFile is written next to the streams.
const ManifestFile = "manifest.json"

// datasetNamespace scopes dataset ids to this generator.
var datasetNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://pharmassist.dev/synthdata/datasets"))

// StreamInfo summarizes one finished stream file.
type StreamInfo struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Records int64  `json:"records"`
	SHA256  string `json:"sha256"`
}

// Manifest describes a finished dataset. It carries no timestamps so that
// identical runs produce identical manifests.
type Manifest struct {
	DatasetID string       `json:"dataset_id"`
	Seed      int64        `json:"seed"`
	Pharmacy  string       `json:"pharmacy"`
	Year      int          `json:"year"`
	Mode      string       `json:"mode"`
	Streams   []StreamInfo `json:"streams"`
}

// DatasetID derives the stable id of a run.
func DatasetID(seed int64, pharmacy string, year int, mode string) string {
	name := fmt.Sprintf("%d|%s|%d|%s", seed, pharmacy, year, mode)
	return uuid.NewSHA1(datasetNamespace, []byte(name)).String()
}

// Stream returns the info of the named stream.
func (m Manifest) Stream(name string) (StreamInfo, bool) {
	for _, s := range m.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return StreamInfo{}, false
}

// WriteManifest writes m to dir/manifest.json.
func WriteManifest(dir string, m Manifest) error {
	b, err := CanonicalIndent(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), append(b, '\n'), 0o644)
}

// ReadManifest loads dir/manifest.json.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// HashReader returns the hex SHA-256 of everything read from r.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
