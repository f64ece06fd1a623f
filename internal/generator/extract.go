package generator

import (
	"bytes"
	"encoding/json"
	"strings"
)

// extractJSONObject returns the first decodable JSON object embedded in raw.
// Commentary and markdown fences around the object are ignored.
func extractJSONObject(raw string) (json.RawMessage, bool) {
	for offset := 0; offset < len(raw); {
		idx := strings.IndexByte(raw[offset:], '{')
		if idx < 0 {
			return nil, false
		}
		start := offset + idx

		var obj json.RawMessage
		dec := json.NewDecoder(strings.NewReader(raw[start:]))
		if err := dec.Decode(&obj); err == nil && bytes.HasPrefix(obj, []byte("{")) {
			return obj, true
		}
		offset = start + 1
	}
	return nil, false
}
