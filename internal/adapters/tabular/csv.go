package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
)

// openCSV returns a reader over a comma-separated file and a close func.
func openCSV(path string) (rowReader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := csv.NewReader(f)
	r.LazyQuotes = true
	return r, f.Close, nil
}
