package labels

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// FileSource reads labels from a JSON file of the form
// {"0": "walking", "1": "talking", ...}.
type FileSource struct {
	path string
}

// NewFileSource builds a file-backed label source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the label file.
func (s *FileSource) Load(_ context.Context) (map[int]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read label file %s: %w", s.path, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse label file %s: %w", s.path, err)
	}

	out := make(map[int]string, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("label file %s: class id %q is not numeric", s.path, k)
		}
		out[id] = v
	}
	return out, nil
}
