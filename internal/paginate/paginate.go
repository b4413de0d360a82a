// Package paginate slices ordered list results into pages and renders the
// page body with navigation links.
package paginate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/apperr"
)

const (
	StrategyPageNumber  = "page_number"
	StrategyEnvelope    = "envelope"
	StrategyLimitOffset = "limit_offset"
	StrategyNone        = "none"

	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamOffset = "offset"

	DefaultPageSize = 2
)

// Descriptor locates one page inside an ordered result of Count items.
type Descriptor struct {
	Page   int // 1-based, page strategies only
	Size   int
	Offset int
	Count  int
}

// Window is the resolved slice [Start, End) plus its navigation links.
// Links are nil at either end of the result.
type Window struct {
	Descriptor
	Start    int
	End      int
	Next     *string
	Previous *string
}

// Paginator is a pagination strategy. Window never fails for an index past
// the end; it yields an empty window instead.
type Paginator interface {
	Name() string
	// Bounded is false for strategies that return every item.
	Bounded() bool
	Window(total int, u *url.URL) (Window, error)
	Render(w Window, results any) any
}

// New returns the paginator for a configured strategy.
func New(strategy string, size, maxLimit int) (Paginator, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyPageNumber:
		return PageNumber{Size: size}, nil
	case StrategyEnvelope:
		return Envelope{PageNumber{Size: size}}, nil
	case StrategyLimitOffset:
		return LimitOffset{DefaultLimit: size, MaxLimit: maxLimit}, nil
	case StrategyNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown pagination strategy %q", strategy)
	}
}

// Apply slices items with p and returns the response body. items must
// already be in their final order.
func Apply[T any](p Paginator, items []T, u *url.URL) (any, error) {
	if items == nil {
		items = []T{}
	}
	if !p.Bounded() {
		return p.Render(Window{}, items), nil
	}
	w, err := p.Window(len(items), u)
	if err != nil {
		return nil, err
	}
	return p.Render(w, items[w.Start:w.End]), nil
}

// ListBody is the body of page_number and limit_offset responses.
type ListBody struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// PageNumber reads ?page=N (default 1, "last" for the final page).
type PageNumber struct {
	Size int
}

func (PageNumber) Name() string  { return StrategyPageNumber }
func (PageNumber) Bounded() bool { return true }

func (p PageNumber) Window(total int, u *url.URL) (Window, error) {
	size := p.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	last := (total + size - 1) / size
	if last == 0 {
		last = 1
	}

	page := 1
	if raw := strings.TrimSpace(query(u).Get(ParamPage)); raw != "" {
		if raw == "last" {
			page = last
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return Window{}, apperr.ValidationField(ParamPage, "invalid page")
			}
			page = n
		}
	}

	w := Window{Descriptor: Descriptor{Page: page, Size: size, Count: total}}
	if page > last {
		// past the end; (page-1)*size may overflow int here
		w.Offset, w.Start, w.End = total, total, total
	} else {
		w.Offset = (page - 1) * size
		w.Start = min(w.Offset, total)
		w.End = min(w.Offset+size, total)
	}

	if page < last {
		w.Next = link(u, map[string]string{ParamPage: strconv.Itoa(page + 1)})
	}
	if page > 1 {
		prev := min(page-1, last)
		if prev == 1 {
			w.Previous = link(u, map[string]string{ParamPage: ""})
		} else {
			w.Previous = link(u, map[string]string{ParamPage: strconv.Itoa(prev)})
		}
	}
	return w, nil
}

func (PageNumber) Render(w Window, results any) any {
	return ListBody{Count: w.Count, Next: w.Next, Previous: w.Previous, Results: results}
}

// Envelope pages like PageNumber but wraps results as
// {"links": {"next", "previous"}, "response": [...]}.
type Envelope struct {
	PageNumber
}

type EnvelopeLinks struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

type EnvelopeBody struct {
	Links    EnvelopeLinks `json:"links"`
	Response any           `json:"response"`
}

func (Envelope) Name() string { return StrategyEnvelope }

func (Envelope) Render(w Window, results any) any {
	return EnvelopeBody{
		Links:    EnvelopeLinks{Next: w.Next, Previous: w.Previous},
		Response: results,
	}
}

// LimitOffset reads ?limit=&offset=. A limit above MaxLimit is clamped.
type LimitOffset struct {
	DefaultLimit int
	MaxLimit     int
}

func (LimitOffset) Name() string  { return StrategyLimitOffset }
func (LimitOffset) Bounded() bool { return true }

func (p LimitOffset) Window(total int, u *url.URL) (Window, error) {
	q := query(u)
	limit := p.DefaultLimit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if raw := strings.TrimSpace(q.Get(ParamLimit)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Window{}, apperr.ValidationField(ParamLimit, "invalid limit")
		}
		limit = n
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	offset := 0
	if raw := strings.TrimSpace(q.Get(ParamOffset)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Window{}, apperr.ValidationField(ParamOffset, "invalid offset")
		}
		offset = n
	}

	w := Window{Descriptor: Descriptor{Size: limit, Offset: offset, Count: total}}
	w.Start = min(offset, total)
	w.End = w.Start + min(limit, total-w.Start)

	lim := strconv.Itoa(limit)
	if offset < total && limit < total-offset {
		w.Next = link(u, map[string]string{ParamLimit: lim, ParamOffset: strconv.Itoa(offset + limit)})
	}
	if offset > 0 {
		prev := max(min(offset, total)-limit, 0)
		if prev == 0 {
			w.Previous = link(u, map[string]string{ParamLimit: lim, ParamOffset: ""})
		} else {
			w.Previous = link(u, map[string]string{ParamLimit: lim, ParamOffset: strconv.Itoa(prev)})
		}
	}
	return w, nil
}

func (LimitOffset) Render(w Window, results any) any {
	return ListBody{Count: w.Count, Next: w.Next, Previous: w.Previous, Results: results}
}

// None returns every item as a bare array.
type None struct{}

func (None) Name() string  { return StrategyNone }
func (None) Bounded() bool { return false }

func (None) Window(total int, _ *url.URL) (Window, error) {
	return Window{Descriptor: Descriptor{Count: total}, End: total}, nil
}

func (None) Render(_ Window, results any) any { return results }

func query(u *url.URL) url.Values {
	if u == nil {
		return url.Values{}
	}
	return u.Query()
}

// link copies u with params set; an empty value removes the parameter.
func link(u *url.URL, params map[string]string) *string {
	if u == nil {
		u = &url.URL{}
	}
	cp := *u
	q := cp.Query()
	for k, v := range params {
		if v == "" {
			q.Del(k)
		} else {
			q.Set(k, v)
		}
	}
	cp.RawQuery = q.Encode()
	s := cp.String()
	return &s
}
