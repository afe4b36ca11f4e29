package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Times are stored as Unix milliseconds so range filters compare the same
// way on every driver.

type millisScanner struct{ dst *time.Time }

func (m millisScanner) Scan(src any) error {
	n, err := asInt64(src)
	if err != nil {
		return fmt.Errorf("scan time: %w", err)
	}
	*m.dst = time.UnixMilli(n).UTC()
	return nil
}

type nullMillisScanner struct{ dst **time.Time }

func (m nullMillisScanner) Scan(src any) error {
	if src == nil {
		*m.dst = nil
		return nil
	}
	n, err := asInt64(src)
	if err != nil {
		return fmt.Errorf("scan time: %w", err)
	}
	t := time.UnixMilli(n).UTC()
	*m.dst = &t
	return nil
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// listScanner reads a JSON array column.
type listScanner struct{ dst *[]string }

func (l listScanner) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l.dst = []string{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan list: unsupported type %T", src)
	}
	list := []string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("scan list: %w", err)
		}
	}
	*l.dst = list
	return nil
}

func listValue(list []string) any {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func asInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		var n int64
		_, err := fmt.Sscan(string(v), &n)
		return n, err
	case string:
		var n int64
		_, err := fmt.Sscan(v, &n)
		return n, err
	default:
		return 0, fmt.Errorf("unsupported type %T", src)
	}
}

// bindValue converts a predicate value into a driver argument.
func bindValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMilli()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UnixMilli()
	}
	return v
}
