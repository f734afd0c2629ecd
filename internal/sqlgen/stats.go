package sqlgen

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/model"
)

// EncodeStats serializes the payload as compact JSON in struct field order.
// HTML escaping is off so names such as "SD & SMP" stay readable in the script.
func EncodeStats(s model.Stats) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("sqlgen: encode stats: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
