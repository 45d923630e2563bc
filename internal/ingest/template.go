package ingest

import (
	"bytes"
	"encoding/csv"
)

// Template returns a header-only CSV for the role, ending in a newline.
func Template(role Role) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(role.Headers())
	w.Flush()
	return buf.Bytes()
}
