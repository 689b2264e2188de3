package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"AtlasStatus/internal/model"
)

// LoadState reads the saved view from a JSON file. Returns nil if the file doesn't exist.
func LoadState(filePath string) (*model.ViewState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var state model.ViewState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	return &state, nil
}

// SaveState writes the view to a JSON file, creating its directory.
func SaveState(filePath string, state *model.ViewState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
