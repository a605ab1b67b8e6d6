package stores

import (
	"encoding/json"
	"fmt"

	"github.com/systmms/vaultops/pkg/secrets"
)

// decodeBucket parses an application's secret document: a JSON object
// mapping secret keys to string values, with null marking a key whose
// value is not yet known.
func decodeBucket(storeName, app string, data []byte) (map[string]secrets.Value, error) {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing secrets for %s from %s: %w", app, storeName, err)
	}

	bucket := make(map[string]secrets.Value, len(raw))
	for key, value := range raw {
		if value == nil {
			bucket[key] = secrets.Unset()
			continue
		}
		bucket[key] = secrets.NewValue(*value)
	}
	return bucket, nil
}
