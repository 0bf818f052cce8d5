package bootstrap

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is the name of the manifest written next to the artifacts.
const ManifestFile = "manifest.json"

// manifestDoc is the on-disk manifest.
type manifestDoc struct {
	Organization  string     `json:"organization"`
	CorrelationID string     `json:"correlation_id"`
	Artifacts     []Artifact `json:"artifacts"`
}

// WriteArtifacts writes every artifact under dir plus manifest.json, and
// returns the manifest path and its SHA-256.
func WriteArtifacts(dir, orgID, correlationID string, artifacts []Artifact) (string, string, error) {
	for _, a := range artifacts {
		path, err := artifactPath(dir, a.Name)
		if err != nil {
			return "", "", err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", "", fmt.Errorf("create directory for %s: %w", a.Name, err)
		}
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return "", "", fmt.Errorf("write %s: %w", a.Name, err)
		}
	}

	data, err := json.MarshalIndent(manifestDoc{
		Organization:  orgID,
		CorrelationID: correlationID,
		Artifacts:     artifacts,
	}, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return path, hex.EncodeToString(sum[:]), nil
}

// VerifyArtifacts re-reads each artifact and compares it with its checksum.
func VerifyArtifacts(dir string, artifacts []Artifact) error {
	for _, a := range artifacts {
		path, err := artifactPath(dir, a.Name)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", a.Name, err)
		}
		sum := sha256.Sum256(data)
		if got := hex.EncodeToString(sum[:]); got != a.Checksum {
			return fmt.Errorf("%s: checksum %s, want %s", a.Name, got, a.Checksum)
		}
		if a.Data != nil && !bytes.Equal(data, a.Data) {
			return fmt.Errorf("%s: content differs", a.Name)
		}
	}
	return nil
}

// artifactPath joins name under dir and refuses names that escape it.
func artifactPath(dir, name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("artifact name %q escapes the output directory", name)
	}
	return filepath.Join(dir, filepath.FromSlash(name)), nil
}
