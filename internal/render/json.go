package render

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"costdelta/internal/estimator"
)

// JSON writes a result as indented JSON
func JSON(w io.Writer, result *estimator.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
