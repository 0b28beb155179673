// Package labels - Class label tables for classification output decoding.
package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Table is an ordered list of class names, index-aligned with the model's
// score vector. Loaded once at startup and immutable afterwards.
type Table []string

// Load reads a label table from disk. JSON files must contain a flat array
// of strings; anything else is treated as plain text with one label per
// line. Blank lines are skipped.
//
// An empty table is an error: silently proceeding without labels would make
// every prediction unreadable, so the demo treats this as fatal setup.
//
// Arguments:
//   - path: The label file path.
//
// Returns:
//   - Table: The loaded table.
//   - error: An error if the file is unreadable, malformed, or empty.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading label file")
	}

	var table Table
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, errors.Wrap(err, "parsing label JSON")
		}
	} else {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			table = append(table, line)
		}
	}

	if len(table) == 0 {
		return nil, errors.Errorf("label file %s contains no labels", path)
	}
	return table, nil
}

// Name returns the label for a class index, or a stable placeholder when
// the index falls outside the table.
func (t Table) Name(index int) string {
	if index >= 0 && index < len(t) {
		return t[index]
	}
	return fmt.Sprintf("unknown_%d", index)
}
