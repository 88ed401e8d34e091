// Package table sorts the record tables shown in the admin views.
//
// Records expose their columns through [Fielder]; a [SortConfig] names the
// column and direction. Sorting is stable and never modifies its input:
//
//	cfg := table.SortConfig{}
//	cfg = cfg.Request("first_name") // ascending
//	cfg = cfg.Request("first_name") // descending
//	sorted := table.Sort(users, cfg)
package table

import (
	"sort"
	"strings"
	"time"
)

// Direction is a sort direction
type Direction string

// Sort directions
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortConfig selects the column a table is sorted by. An empty Key keeps the
// records in their original order.
type SortConfig struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Request returns the config after the column header for key was clicked:
// the same key flips the direction, a new key starts ascending.
func (c SortConfig) Request(key string) SortConfig {
	if c.Key == key && c.Direction != Descending {
		return SortConfig{Key: key, Direction: Descending}
	}
	return SortConfig{Key: key, Direction: Ascending}
}

// Fielder is implemented by records that can be sorted by column name
type Fielder interface {
	Field(key string) (interface{}, bool)
}

// Sort returns a sorted copy of records. Ties keep their original relative
// order. Missing or unsupported values order before comparable ones.
func Sort[T Fielder](records []T, cfg SortConfig) []T {
	out := make([]T, len(records))
	copy(out, records)
	if cfg.Key == "" || len(out) < 2 {
		return out
	}

	keys := make([]value, len(out))
	for i, r := range out {
		v, ok := r.Field(cfg.Key)
		keys[i] = normalize(v, ok)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		c := compare(keys[idx[a]], keys[idx[b]])
		if cfg.Direction == Descending {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]T, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

type kind int

const (
	kindMissing kind = iota
	kindBool
	kindNumber
	kindString
	kindTime
)

type value struct {
	kind kind
	num  float64
	str  string
	t    time.Time
}

func normalize(v interface{}, ok bool) value {
	if !ok || v == nil {
		return value{}
	}
	switch x := v.(type) {
	case string:
		return value{kind: kindString, str: x}
	case bool:
		if x {
			return value{kind: kindBool, num: 1}
		}
		return value{kind: kindBool}
	case int:
		return value{kind: kindNumber, num: float64(x)}
	case int32:
		return value{kind: kindNumber, num: float64(x)}
	case int64:
		return value{kind: kindNumber, num: float64(x)}
	case float32:
		return value{kind: kindNumber, num: float64(x)}
	case float64:
		return value{kind: kindNumber, num: x}
	case time.Time:
		return value{kind: kindTime, t: x}
	case *time.Time:
		if x == nil {
			return value{}
		}
		return value{kind: kindTime, t: *x}
	}
	return value{}
}

func compare(a, b value) int {
	if a.kind != b.kind {
		// mixed columns only happen with missing values; keep them first
		if a.kind == kindMissing {
			return -1
		}
		if b.kind == kindMissing {
			return 1
		}
		return 0
	}
	switch a.kind {
	case kindString:
		return strings.Compare(a.str, b.str)
	case kindBool, kindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
	case kindTime:
		return a.t.Compare(b.t)
	}
	return 0
}
