package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ImageList holds product image URLs. Rows written by older tooling store the
// column either as JSON-encoded text or as a native Postgres text[]; both are
// normalized on read. Writes always use JSON text.
type ImageList []string

func (l *ImageList) Scan(src any) error {
	if src == nil {
		*l = ImageList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return l.parse(v)
	case []byte:
		return l.parse(string(v))
	case []string:
		*l = compact(v)
		return nil
	default:
		return fmt.Errorf("ImageList: unsupported Scan type %T", src)
	}
}

func (l ImageList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("ImageList: encode: %w", err)
	}
	return string(encoded), nil
}

// ParseImageList normalizes a raw column value into a list of image URLs.
func ParseImageList(raw string) (ImageList, error) {
	var l ImageList
	if err := l.parse(raw); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *ImageList) parse(raw string) error {
	s := strings.TrimSpace(raw)
	switch {
	case s == "" || s == "null" || s == "{}" || s == "[]":
		*l = ImageList{}
		return nil
	case strings.HasPrefix(s, "["):
		var urls []string
		if err := json.Unmarshal([]byte(s), &urls); err != nil {
			return fmt.Errorf("ImageList: invalid json: %w", err)
		}
		*l = compact(urls)
		return nil
	case strings.HasPrefix(s, "{"):
		var arr pq.StringArray
		if err := arr.Scan(s); err != nil {
			return fmt.Errorf("ImageList: invalid array literal: %w", err)
		}
		*l = compact(arr)
		return nil
	case strings.HasPrefix(s, `"`):
		var single string
		if err := json.Unmarshal([]byte(s), &single); err != nil {
			return fmt.Errorf("ImageList: invalid json string: %w", err)
		}
		// double-encoded payloads carry a JSON array inside a JSON string
		return l.parse(single)
	default:
		*l = ImageList{s}
		return nil
	}
}

// First returns the primary image or an empty string.
func (l ImageList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

func compact(values []string) ImageList {
	out := make(ImageList, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
