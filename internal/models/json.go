package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// StringSlice stores a []string as JSONB.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, errors.Wrap(err, "StringSlice.Value")
	}
	return string(b), nil
}

func (s *StringSlice) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.Errorf("StringSlice.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, (*[]string)(s))
}
