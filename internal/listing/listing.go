// Package listing turns list query parameters into a filter, a search and
// a total ordering, and applies them to in-memory records.
package listing

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/apperr"
)

const (
	ParamSearch   = "search"
	ParamOrdering = "ordering"
)

// Record is anything a list endpoint can filter and sort.
type Record interface {
	RecordID() int64
	FieldValue(name string) (any, bool)
}

// Options are the per-endpoint allow-lists.
type Options struct {
	FilterFields   []string
	SearchFields   []string
	OrderingFields []string
	// Ordering is used when the request names none.
	Ordering []string
}

type Order struct {
	Field string
	Desc  bool
}

func (o Order) String() string {
	if o.Desc {
		return "-" + o.Field
	}
	return o.Field
}

// Query is a parsed list request. Ordering always ends with id.
type Query struct {
	Filters      map[string]string
	SearchTerms  []string
	SearchFields []string
	Ordering     []Order
}

// Parse reads filters, search and ordering from the query string. Unknown
// parameters are ignored; an ordering on a field outside the allow-list is
// a validation error.
func Parse(values url.Values, opts Options) (Query, error) {
	q := Query{SearchFields: opts.SearchFields}

	for _, f := range opts.FilterFields {
		if v := values.Get(f); v != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string)
			}
			q.Filters[f] = v
		}
	}

	if len(opts.SearchFields) > 0 {
		q.SearchTerms = splitTerms(values.Get(ParamSearch))
	}

	raw := splitTerms(values.Get(ParamOrdering))
	if len(raw) == 0 {
		raw = opts.Ordering
	}
	for _, term := range raw {
		o := Order{Field: strings.TrimPrefix(term, "-"), Desc: strings.HasPrefix(term, "-")}
		if o.Field != "id" && !slices.Contains(opts.OrderingFields, o.Field) && !slices.Contains(opts.Ordering, term) {
			return Query{}, apperr.ValidationField(ParamOrdering, fmt.Sprintf("cannot order by %q", o.Field))
		}
		q.Ordering = append(q.Ordering, o)
	}
	if !slices.ContainsFunc(q.Ordering, func(o Order) bool { return o.Field == "id" }) {
		q.Ordering = append(q.Ordering, Order{Field: "id"})
	}
	return q, nil
}

// Apply filters, searches and sorts items. The input slice is not
// modified. A filter value that does not fit the field type is a
// validation error.
func Apply[T Record](items []T, q Query) ([]T, error) {
	var zero T
	match, err := compileFilters(zero, q.Filters)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, it := range items {
		if match(it) && matchSearch(it, q.SearchTerms, q.SearchFields) {
			out = append(out, it)
		}
	}

	slices.SortStableFunc(out, func(a, b T) int {
		for _, o := range q.Ordering {
			av, _ := a.FieldValue(o.Field)
			bv, _ := b.FieldValue(o.Field)
			c := compareValues(av, bv)
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.RecordID(), b.RecordID())
	})
	return out, nil
}

func compileFilters(sample Record, filters map[string]string) (func(Record) bool, error) {
	type cond struct {
		field string
		str   string
		num   int64
		isNum bool
	}
	conds := make([]cond, 0, len(filters))
	for field, raw := range filters {
		c := cond{field: field, str: raw}
		if v, ok := sample.FieldValue(field); ok {
			if _, isInt := v.(int64); isInt {
				n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				if err != nil {
					return nil, apperr.ValidationField(field, "enter a whole number")
				}
				c.num, c.isNum = n, true
			}
		}
		conds = append(conds, c)
	}
	return func(r Record) bool {
		for _, c := range conds {
			v, ok := r.FieldValue(c.field)
			if !ok {
				return false
			}
			if c.isNum {
				if n, ok := v.(int64); !ok || n != c.num {
					return false
				}
				continue
			}
			if !strings.EqualFold(fmt.Sprint(v), c.str) {
				return false
			}
		}
		return true
	}, nil
}

// matchSearch requires every term to appear in at least one search field.
func matchSearch(r Record, terms, fields []string) bool {
	for _, term := range terms {
		term = strings.ToLower(term)
		found := false
		for _, f := range fields {
			v, ok := r.FieldValue(f)
			if ok && strings.Contains(strings.ToLower(fmt.Sprint(v)), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func splitTerms(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
