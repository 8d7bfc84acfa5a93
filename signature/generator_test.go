package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/coalesce/types"
)

func newTestGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()

	opts = append([]Option{WithRegistry(NewRegistry())}, opts...)
	gen, err := NewGenerator(opts...)
	require.NoError(t, err)

	return gen
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in       string
		expected Encoding
	}{
		{"", EncodingJSON},
		{"json", EncodingJSON},
		{"JSON", EncodingJSON},
		{" cbor ", EncodingCBOR},
	}
	for _, tt := range tests {
		enc, err := ParseEncoding(tt.in)
		require.NoError(t, err)
		require.Equal(t, tt.expected, enc)
	}

	_, err := ParseEncoding("msgpack")
	require.ErrorIs(t, err, types.ErrUnknownEncoding)
}

func TestNewGenerator_RejectsUnknownEncoding(t *testing.T) {
	gen, err := NewGenerator(WithEncoding("xml"))

	require.ErrorIs(t, err, types.ErrUnknownEncoding)
	require.Nil(t, gen)
}

func TestGenerator_Sign(t *testing.T) {
	fetchUser, fetchTeam := &op{"fetchUser"}, &op{"fetchTeam"}

	t.Run("format is id dash json args", func(t *testing.T) {
		gen := newTestGenerator(t)

		sig, err := gen.Sign(fetchUser, []any{1, "x"})
		require.NoError(t, err)
		require.Equal(t, `0-[1,"x"]`, sig)

		sig, err = gen.Sign(fetchTeam, nil)
		require.NoError(t, err)
		require.Equal(t, `1-[]`, sig)
	})

	t.Run("equal args on the same operation match", func(t *testing.T) {
		gen := newTestGenerator(t)

		a, err := gen.Sign(fetchUser, []any{map[string]any{"id": 1}})
		require.NoError(t, err)
		b, err := gen.Sign(fetchUser, []any{map[string]any{"id": 1}})
		require.NoError(t, err)

		require.Equal(t, a, b)
	})

	t.Run("different operations never collide", func(t *testing.T) {
		gen := newTestGenerator(t)

		a, err := gen.Sign(fetchUser, []any{1})
		require.NoError(t, err)
		b, err := gen.Sign(fetchTeam, []any{1})
		require.NoError(t, err)

		require.NotEqual(t, a, b)
	})

	t.Run("different args differ", func(t *testing.T) {
		gen := newTestGenerator(t)

		a, err := gen.Sign(fetchUser, []any{1})
		require.NoError(t, err)
		b, err := gen.Sign(fetchUser, []any{2})
		require.NoError(t, err)

		require.NotEqual(t, a, b)
	})

	t.Run("wrapper identity does not matter", func(t *testing.T) {
		gen := newTestGenerator(t)

		a, err := gen.Sign(fetchUser, []any{NewValue(5)})
		require.NoError(t, err)
		b, err := gen.Sign(fetchUser, []any{NewValue(5)})
		require.NoError(t, err)
		c, err := gen.Sign(fetchUser, []any{5})
		require.NoError(t, err)

		require.Equal(t, a, b)
		require.Equal(t, a, c)
	})

	t.Run("unencodable args fail fast", func(t *testing.T) {
		gen := newTestGenerator(t)

		_, err := gen.Sign(fetchUser, []any{make(chan int)})
		require.ErrorIs(t, err, types.ErrUnencodableArgs)

		_, err = gen.Sign(fetchUser, []any{func() {}})
		require.ErrorIs(t, err, types.ErrUnencodableArgs)
	})
}

func TestGenerator_KeyOrderIndependence(t *testing.T) {
	fetch := &op{"fetch"}

	for _, enc := range []Encoding{EncodingJSON, EncodingCBOR} {
		t.Run(string(enc), func(t *testing.T) {
			gen := newTestGenerator(t, WithEncoding(enc))

			// Build the maps with opposite insertion orders, including a nested map.
			first := map[string]any{}
			first["a"] = 1
			first["b"] = map[string]any{"x": true, "y": false}
			first["c"] = []any{"p", "q"}

			second := map[string]any{}
			second["c"] = []any{"p", "q"}
			nested := map[string]any{}
			nested["y"] = false
			nested["x"] = true
			second["b"] = nested
			second["a"] = 1

			for range 20 {
				a, err := gen.Sign(fetch, []any{first})
				require.NoError(t, err)
				b, err := gen.Sign(fetch, []any{second})
				require.NoError(t, err)
				require.Equal(t, a, b)
			}
		})
	}
}

func TestGenerator_CBOR(t *testing.T) {
	gen := newTestGenerator(t, WithEncoding(EncodingCBOR))

	sig, err := gen.Sign(&op{"cbor"}, []any{1})
	require.NoError(t, err)
	// array(1) containing unsigned int 1
	require.Equal(t, "0-8101", sig)
}

func TestGenerator_Compact(t *testing.T) {
	fetch := &op{"fetch"}
	gen := newTestGenerator(t, WithCompact(true))

	long := strings.Repeat("payload", 500)
	a, err := gen.Sign(fetch, []any{long})
	require.NoError(t, err)
	b, err := gen.Sign(fetch, []any{long})
	require.NoError(t, err)
	c, err := gen.Sign(fetch, []any{long + "!"})
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.True(t, strings.HasPrefix(a, "0-"))
	require.Len(t, a, len("0-")+32)
}

func TestGenerator_DefaultRegistry(t *testing.T) {
	gen, err := NewGenerator()
	require.NoError(t, err)
	require.Same(t, DefaultRegistry, gen.Registry())
}

type pageQuery struct {
	Page   *Value[int] `json:"page"`
	Filter RefFunc     `json:"filter"`
}

func TestGenerator_NestedRefsSignByValue(t *testing.T) {
	list := &op{"list"}

	for _, enc := range []Encoding{EncodingJSON, EncodingCBOR} {
		t.Run(string(enc), func(t *testing.T) {
			gen := newTestGenerator(t, WithEncoding(enc))
			filter := RefFunc(func() any { return "active" })

			p1, err := gen.Sign(list, []any{pageQuery{Page: NewValue(1), Filter: filter}})
			require.NoError(t, err)
			p2, err := gen.Sign(list, []any{pageQuery{Page: NewValue(2), Filter: filter}})
			require.NoError(t, err)
			p1Again, err := gen.Sign(list, []any{pageQuery{Page: NewValue(1), Filter: filter}})
			require.NoError(t, err)

			require.NotEqual(t, p1, p2)
			require.Equal(t, p1, p1Again)

			typedMap := func(v int) []any {
				return []any{map[string]*Value[int]{"limit": NewValue(v)}}
			}
			m1, err := gen.Sign(list, typedMap(10))
			require.NoError(t, err)
			m2, err := gen.Sign(list, typedMap(20))
			require.NoError(t, err)
			require.NotEqual(t, m1, m2)

			typedSlice := func(v string) []any {
				return []any{[]*Value[string]{NewValue(v)}}
			}
			s1, err := gen.Sign(list, typedSlice("a"))
			require.NoError(t, err)
			s2, err := gen.Sign(list, typedSlice("b"))
			require.NoError(t, err)
			require.NotEqual(t, s1, s2)
		})
	}

	t.Run("json renders the wrapped value", func(t *testing.T) {
		gen := newTestGenerator(t)

		sig, err := gen.Sign(list, []any{pageQuery{Page: NewValue(3), Filter: RefFunc(func() any { return "x" })}})
		require.NoError(t, err)
		require.Equal(t, `0-[{"page":3,"filter":"x"}]`, sig)
	})

	t.Run("nil refs encode as null", func(t *testing.T) {
		gen := newTestGenerator(t)

		sig, err := gen.Sign(list, []any{pageQuery{}})
		require.NoError(t, err)
		require.Equal(t, `0-[{"page":null,"filter":null}]`, sig)
	})
}
