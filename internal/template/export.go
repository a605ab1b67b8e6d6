package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/systmms/vaultops/pkg/secrets"
)

// WriteSnapshot dumps a store snapshot as one <application>.json document
// per application, the shape the file store reads back. Values are written
// in plaintext, so files are created 0600 and the directory 0700; this is
// the only operation that puts secret values on disk.
func WriteSnapshot(dir string, snapshot secrets.Snapshot) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	for _, app := range snapshot.Applications() {
		bucket := snapshot.Application(app)
		doc := make(map[string]*string, len(bucket))
		for key, value := range bucket {
			if !value.IsSet() {
				doc[key] = nil
				continue
			}
			plaintext := value.Reveal()
			doc[key] = &plaintext
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding secrets for %s: %w", app, err)
		}
		path := filepath.Join(dir, app+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
