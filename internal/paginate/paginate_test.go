package paginate

import (
	"encoding/json"
	"net/url"
	"testing"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/apperr"
)

var five = []int{1, 2, 3, 4, 5}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func page(t *testing.T, p Paginator, raw string) ListBody {
	t.Helper()
	body, err := Apply(p, five, mustURL(t, raw))
	require.NoError(t, err)
	lb, ok := body.(ListBody)
	require.True(t, ok)
	return lb
}

func TestPageNumberOverFiveRecords(t *testing.T) {
	p := PageNumber{Size: 2}

	b := page(t, p, "http://api.test/v1/cats")
	assert.Equal(t, 5, b.Count)
	assert.Equal(t, []int{1, 2}, b.Results)
	require.NotNil(t, b.Next)
	assert.Equal(t, "http://api.test/v1/cats?page=2", *b.Next)
	assert.Nil(t, b.Previous)

	b = page(t, p, "http://api.test/v1/cats?page=2")
	assert.Equal(t, []int{3, 4}, b.Results)
	assert.Equal(t, "http://api.test/v1/cats?page=3", *b.Next)
	assert.Equal(t, "http://api.test/v1/cats", *b.Previous)

	b = page(t, p, "http://api.test/v1/cats?page=3")
	assert.Equal(t, []int{5}, b.Results)
	assert.Nil(t, b.Next)
	assert.Equal(t, "http://api.test/v1/cats?page=2", *b.Previous)

	b = page(t, p, "http://api.test/v1/cats?page=4")
	assert.Equal(t, []int{}, b.Results)
	assert.Nil(t, b.Next)
	assert.Equal(t, "http://api.test/v1/cats?page=3", *b.Previous)

	b = page(t, p, "http://api.test/v1/cats?page=last")
	assert.Equal(t, []int{5}, b.Results)
}

func TestPageNumberKeepsOtherParams(t *testing.T) {
	b := page(t, PageNumber{Size: 2}, "http://api.test/v1/cats?color=black&page=2")
	assert.Equal(t, "http://api.test/v1/cats?color=black&page=3", *b.Next)
	assert.Equal(t, "http://api.test/v1/cats?color=black", *b.Previous)
}

func TestPageNumberInvalidPage(t *testing.T) {
	for _, raw := range []string{"0", "-1", "two"} {
		_, err := Apply[int](PageNumber{Size: 2}, five, mustURL(t, "/v1/cats?page="+raw))
		assert.ErrorIs(t, err, apperr.ErrValidationFailed, raw)
	}
}

func TestPageNumberEmpty(t *testing.T) {
	body, err := Apply[int](PageNumber{Size: 2}, nil, mustURL(t, "/v1/cats"))
	require.NoError(t, err)
	b := body.(ListBody)
	assert.Equal(t, 0, b.Count)
	assert.Equal(t, []int{}, b.Results)
	assert.Nil(t, b.Next)
	assert.Nil(t, b.Previous)
}

func TestEnvelopeLinks(t *testing.T) {
	p := Envelope{PageNumber{Size: 2}}

	body, err := Apply(p, five, mustURL(t, "http://api.test/v1/achievements"))
	require.NoError(t, err)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"links":{"next":"http://api.test/v1/achievements?page=2","previous":null},"response":[1,2]}`, string(raw))

	body, err = Apply(p, five, mustURL(t, "http://api.test/v1/achievements?page=3"))
	require.NoError(t, err)
	raw, err = json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"links":{"next":null,"previous":"http://api.test/v1/achievements?page=2"},"response":[5]}`, string(raw))
}

func TestLimitOffset(t *testing.T) {
	p := LimitOffset{DefaultLimit: 2, MaxLimit: 3}

	b := page(t, p, "/v1/cats")
	assert.Equal(t, []int{1, 2}, b.Results)
	assert.Equal(t, "/v1/cats?limit=2&offset=2", *b.Next)
	assert.Nil(t, b.Previous)

	b = page(t, p, "/v1/cats?limit=2&offset=2")
	assert.Equal(t, []int{3, 4}, b.Results)
	assert.Equal(t, "/v1/cats?limit=2", *b.Previous)

	b = page(t, p, "/v1/cats?limit=10&offset=3")
	assert.Equal(t, []int{4, 5}, b.Results)
	assert.Nil(t, b.Next)
	assert.Equal(t, "/v1/cats?limit=3", *b.Previous)

	b = page(t, p, "/v1/cats?offset=9")
	assert.Equal(t, []int{}, b.Results)

	_, err := Apply(p, five, mustURL(t, "/v1/cats?offset=-1"))
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestHugePageAndOffsetAreEmpty(t *testing.T) {
	cases := []struct {
		name string
		p    Paginator
		raw  string
		prev string
	}{
		{"max page", PageNumber{Size: 2}, "/v1/cats?page=9223372036854775807", "/v1/cats?page=3"},
		{"page overflowing the offset", PageNumber{Size: 2}, "/v1/cats?page=4611686018427387905", "/v1/cats?page=3"},
		{"max offset", LimitOffset{DefaultLimit: 2}, "/v1/cats?limit=2&offset=9223372036854775807", "/v1/cats?limit=2&offset=3"},
		{"max limit and offset", LimitOffset{}, "/v1/cats?limit=9223372036854775807&offset=9223372036854775807", "/v1/cats?limit=9223372036854775807"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := page(t, tc.p, tc.raw)
			assert.Equal(t, 5, b.Count)
			assert.Equal(t, []int{}, b.Results)
			assert.Nil(t, b.Next)
			require.NotNil(t, b.Previous)
			assert.Equal(t, tc.prev, *b.Previous)
		})
	}
}

func TestNoneReturnsEverything(t *testing.T) {
	body, err := Apply(None{}, five, mustURL(t, "/v1/users?page=9"))
	require.NoError(t, err)
	assert.Equal(t, five, body)

	body, err = Apply[int](None{}, nil, nil)
	require.NoError(t, err)
	raw, _ := json.Marshal(body)
	assert.Equal(t, "[]", string(raw))
}

func TestNew(t *testing.T) {
	p, err := New("", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, PageNumber{Size: DefaultPageSize}, p)

	p, err = New("envelope", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, StrategyEnvelope, p.Name())

	_, err = New("cursor", 2, 0)
	assert.Error(t, err)
}
