package modelfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
)

// manifestObject is the object form of a manifest file.
type manifestObject struct {
	FeatureColumns []string `json:"feature_columns"`
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest accepts either a JSON array of column names or an object
// with a "feature_columns" array.
func ParseManifest(data []byte) (*domain.Manifest, error) {
	var columns []string
	if err := json.Unmarshal(data, &columns); err != nil {
		var obj manifestObject
		if objErr := json.Unmarshal(data, &obj); objErr != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidManifest, errors.Join(err, objErr))
		}
		columns = obj.FeatureColumns
	}
	return domain.NewManifest(columns)
}

// SaveManifest writes columns as a JSON array.
func SaveManifest(path string, columns []string) error {
	data, err := json.MarshalIndent(columns, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
