package memstore

import (
	"sort"
	"strings"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// compare orders two field values of the same kind. ok is false when the
// values are not comparable.
func compare(a, b any) (cmp int, ok bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	switch av := a.(type) {
	case string:
		bv, bok := b.(string)
		if !bok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, bok := b.(time.Time)
		if !bok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, bok := b.(bool)
		if !bok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

func matches(f store.Fields, conds []store.Condition) bool {
	for _, c := range conds {
		v, present := f[c.Field]
		if !present {
			return false
		}
		cmp, ok := compare(v, c.Value)
		if !ok {
			return false
		}

		switch c.Op {
		case store.OpEq:
			ok = cmp == 0
		case store.OpGt:
			ok = cmp > 0
		case store.OpGte:
			ok = cmp >= 0
		case store.OpLt:
			ok = cmp < 0
		case store.OpLte:
			ok = cmp <= 0
		default:
			ok = false
		}
		if !ok {
			return false
		}
	}
	return true
}

func applyQuery(docs []store.Fields, q store.Query) []store.Fields {
	out := make([]store.Fields, 0, len(docs))
	for _, d := range docs {
		if matches(d, q.Conditions) {
			out = append(out, d)
		}
	}

	if q.SortField != "" {
		sort.SliceStable(out, func(i, j int) bool {
			cmp, _ := compare(out[i][q.SortField], out[j][q.SortField])
			if q.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func clone(f store.Fields) store.Fields {
	c := make(store.Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}
