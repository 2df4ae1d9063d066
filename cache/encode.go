package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

// isoLayout is ISO-8601 in UTC with a literal Z.
const isoLayout = "2006-01-02T15:04:05.999999999Z"

// FormatTime renders t the way cached datetimes are stored.
func FormatTime(t time.Time) string { return t.UTC().Format(isoLayout) }

// encode renders v as JSON. Plain datetimes (also inside map[string]any and []any) become
// ISO-8601 UTC strings; everything else uses its canonical JSON form, so types implementing
// json.Marshaler or encoding.TextMarshaler control their own representation.
func encode(v any) ([]byte, error) {
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return nil, fmt.Errorf("cache encode %T: %w", v, errors.Join(berr.ErrSerializationFailed, err))
	}

	return b, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case time.Time:
		return FormatTime(x)
	case *time.Time:
		if x == nil {
			return nil
		}

		return FormatTime(*x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}

		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}

		return out
	default:
		return v
	}
}

func isJSONNull(b []byte) bool { return bytes.Equal(bytes.TrimSpace(b), []byte("null")) }
