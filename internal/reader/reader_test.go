package reader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictlookup/internal/array"
	"dictlookup/internal/block"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/function"
)

func geoCatalog(t testing.TB) (*dictionary.Catalog, Resolver) {
	t.Helper()
	d, err := dictionary.New("geo",
		array.MustNewUInt64Column("id", []uint64{1, 2, 4}, nil),
		array.MustNewUtf8Column("city", []string{"Paris", "Rome", "Oslo"}, nil),
		array.MustNewFloat64Column("lat", []float64{48.85, 41.9, 59.91}, nil),
		array.MustNewInt64Column("population", []int64{2100000, 2800000, 700000}, nil),
	)
	require.NoError(t, err)
	c := dictionary.NewCatalog()
	require.NoError(t, c.Add(d))
	reg := function.NewRegistry()
	require.NoError(t, dictionary.Register(reg, c))
	return c, FromRegistry(reg)
}

func keys(vals ...uint64) array.Column {
	return array.MustNewUInt64Column("key", vals, nil)
}

func utf8Values(t *testing.T, b *block.Block, pos int) []string {
	t.Helper()
	col, ok := b.Column(pos).(*array.Utf8Column)
	require.True(t, ok, "expected utf8 column at %d", pos)
	return col.Values()
}

func TestLookup(t *testing.T) {
	_, res := geoCatalog(t)
	r, err := New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Nullable(array.Utf8())}}, res)
	require.NoError(t, err)
	assert.Equal(t, array.Utf8(), r.Schema().Fields[0].Type)

	out, err := r.Lookup(keys(1, 3, 2), 3)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, out.Found)
	assert.Equal(t, 0, out.Positions[0])
	assert.Equal(t, 1, out.Positions[2])
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, []string{"Paris", "Rome"}, utf8Values(t, out.Block, 0))
	assert.Equal(t, "city", out.Block.Column(0).Name())
}

func TestLookupEdgeCases(t *testing.T) {
	_, res := geoCatalog(t)
	r, err := New("geo",
		[]string{"city", "population"},
		[]array.Field{{Name: "city", Type: array.Utf8()}, {Name: "population", Type: array.Int(64)}},
		res)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		out, err := r.Lookup(keys(), 0)
		require.NoError(t, err)
		assert.Empty(t, out.Found)
		assert.Empty(t, out.Positions)
		assert.Equal(t, 0, out.Block.Rows())
		assert.Equal(t, 2, out.Block.Width())
	})

	t.Run("all missing", func(t *testing.T) {
		out, err := r.Lookup(keys(7, 8, 9), 3)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false, false}, out.Found)
		assert.Equal(t, 0, out.Rows())
		assert.Equal(t, 0, out.Block.Column(0).Len())
		assert.Equal(t, 0, out.Block.Column(1).Len())
	})

	t.Run("all present", func(t *testing.T) {
		out, err := r.Lookup(keys(4, 2, 1), 3)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, out.Positions)
		assert.Equal(t, []string{"Oslo", "Rome", "Paris"}, utf8Values(t, out.Block, 0))
		assert.Equal(t, []int64{700000, 2800000, 2100000}, out.Block.Column(1).(*array.Int64Column).Values())
	})

	t.Run("rows shorter than keys", func(t *testing.T) {
		out, err := r.Lookup(keys(1, 2, 4), 2)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, true}, out.Found)
		assert.Equal(t, 2, out.Block.Rows())
	})

	t.Run("rows longer than keys pads with zero keys", func(t *testing.T) {
		out, err := r.Lookup(keys(1), 3)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false, false}, out.Found)
	})

	t.Run("negative rows", func(t *testing.T) {
		_, err := r.Lookup(keys(1), -1)
		require.Error(t, err)
	})

	t.Run("wrong key type", func(t *testing.T) {
		_, err := r.Lookup(array.MustNewInt64Column("key", []int64{1}, nil), 1)
		require.Error(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		a, err := r.Lookup(keys(2, 5, 4, 1), 4)
		require.NoError(t, err)
		b, err := r.Lookup(keys(2, 5, 4, 1), 4)
		require.NoError(t, err)
		assert.Equal(t, a.Found, b.Found)
		assert.Equal(t, a.Positions, b.Positions)
		assert.Equal(t, utf8Values(t, a.Block, 0), utf8Values(t, b.Block, 0))
	})
}

func TestLookupRenamesAndOrders(t *testing.T) {
	_, res := geoCatalog(t)
	r, err := New("geo",
		[]string{"lat", "city", "city"},
		[]array.Field{{Name: "latitude", Type: array.Float(64)}, {Name: "town", Type: array.Utf8()}, {Name: "name", Type: array.Utf8()}},
		res)
	require.NoError(t, err)

	out, err := r.Lookup(keys(2, 6, 4), 3)
	require.NoError(t, err)
	require.Equal(t, 3, out.Block.Width())
	assert.Equal(t, "latitude", out.Block.At(0).Name)
	assert.Equal(t, []float64{41.9, 59.91}, out.Block.Column(0).(*array.Float64Column).Values())
	assert.Equal(t, []string{"Rome", "Oslo"}, utf8Values(t, out.Block, 1))
	assert.Equal(t, []string{"Rome", "Oslo"}, utf8Values(t, out.Block, 2))
	assert.Equal(t, "name", out.Block.Column(2).Name())
}

func TestLookupNoAttributes(t *testing.T) {
	_, res := geoCatalog(t)
	r, err := New("geo", nil, nil, res)
	require.NoError(t, err)
	out, err := r.Lookup(keys(4, 3), 2)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, out.Found)
	assert.Equal(t, 1, out.Rows())
	assert.Equal(t, 0, out.Block.Width())
}

func TestPositionsAreDenseAndOrdered(t *testing.T) {
	_, res := geoCatalog(t)
	r, err := New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Utf8()}}, res)
	require.NoError(t, err)

	in := make([]uint64, 1000)
	for i := range in {
		in[i] = uint64(i % 6)
	}
	out, err := r.Lookup(keys(in...), len(in))
	require.NoError(t, err)
	next := 0
	cities := utf8Values(t, out.Block, 0)
	for i := range in {
		if !out.Found[i] {
			continue
		}
		require.Equal(t, next, out.Positions[i])
		next++
		switch in[i] {
		case 1:
			require.Equal(t, "Paris", cities[out.Positions[i]])
		case 2:
			require.Equal(t, "Rome", cities[out.Positions[i]])
		case 4:
			require.Equal(t, "Oslo", cities[out.Positions[i]])
		default:
			t.Fatalf("key %d reported found", in[i])
		}
	}
	assert.Equal(t, next, out.Rows())
}

func TestConstructionErrors(t *testing.T) {
	_, res := geoCatalog(t)

	t.Run("arity mismatch", func(t *testing.T) {
		_, err := New("geo", []string{"city", "lat"}, []array.Field{{Name: "city", Type: array.Utf8()}}, res)
		require.ErrorIs(t, err, ErrArityMismatch)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := New("geo",
			[]string{"city", "population"},
			[]array.Field{{Name: "city", Type: array.Utf8()}, {Name: "population", Type: array.Float(64)}},
			res)
		require.ErrorIs(t, err, ErrTypeMismatch)
		var tm *TypeMismatchError
		require.True(t, errors.As(err, &tm))
		assert.Equal(t, "population", tm.Attribute)
		assert.Equal(t, array.Float(64), tm.Expected)
		assert.Equal(t, array.Int(64), tm.Actual)
		assert.Contains(t, err.Error(), "population")
	})

	t.Run("composite key", func(t *testing.T) {
		_, err := New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Utf8()}}, res, WithKeyArity(2))
		require.ErrorIs(t, err, ErrUnsupportedKeyArity)
		_, err = New("geo", nil, nil, res, WithKeyArity(0))
		require.ErrorIs(t, err, ErrInvalidKeyArity)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := New("geo", []string{"country"}, []array.Field{{Name: "country", Type: array.Utf8()}}, res)
		require.ErrorIs(t, err, dictionary.ErrUnknownAttribute)
	})

	t.Run("duplicate result names", func(t *testing.T) {
		_, err := New("geo", []string{"city", "city"}, []array.Field{{Name: "c", Type: array.Utf8()}, {Name: "c", Type: array.Utf8()}}, res)
		require.Error(t, err)
	})

	t.Run("missing resolver", func(t *testing.T) {
		_, err := New("geo", nil, nil, nil)
		require.Error(t, err)
	})
}

func TestRuntimeErrorsPropagate(t *testing.T) {
	c, res := geoCatalog(t)
	r, err := New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Utf8()}}, res)
	require.NoError(t, err)
	c.Remove("geo")
	_, err = r.Lookup(keys(1), 1)
	require.ErrorIs(t, err, dictionary.ErrUnknownDictionary)
}

// fakeOverload lets tests control the return type and runtime behaviour of a
// bound callable.
type fakeOverload struct {
	name       string
	returnType array.DataType
	run        func(b *block.Block, args []int, result int, rows int) error
}

func (f fakeOverload) Name() string                               { return f.name }
func (f fakeOverload) Build([]block.Slot) (function.Base, error) { return f, nil }
func (f fakeOverload) ReturnType() array.DataType                 { return f.returnType }
func (f fakeOverload) Prepare(*block.Block, []int, int) (function.Executable, error) {
	return function.ExecutableFunc(f.run), nil
}

type fakeResolver struct {
	has fakeOverload
	get fakeOverload
}

func (f fakeResolver) ExistenceCheck() (ExistenceCheck, error) { return f.has, nil }
func (f fakeResolver) ValueRetrieval() (ValueRetrieval, error) { return f.get, nil }

func TestFakeCallables(t *testing.T) {
	errBoom := errors.New("boom")
	allFound := func(b *block.Block, _ []int, result int, rows int) error {
		flags := make([]bool, rows)
		for i := range flags {
			flags[i] = true
		}
		return b.Set(result, array.NewBoolColumnOwned("has", flags, array.NewBitmap(rows, true)))
	}
	fail := func(*block.Block, []int, int, int) error { return errBoom }

	t.Run("existence type mismatch", func(t *testing.T) {
		fr := fakeResolver{has: fakeOverload{name: "dictHas", returnType: array.UInt(8), run: allFound}}
		_, err := New("geo", nil, nil, fr)
		var tm *TypeMismatchError
		require.True(t, errors.As(err, &tm))
		assert.Empty(t, tm.Attribute)
	})

	t.Run("retrieval error returned unchanged", func(t *testing.T) {
		fr := fakeResolver{
			has: fakeOverload{name: "dictHas", returnType: array.Bool(), run: allFound},
			get: fakeOverload{name: "dictGet", returnType: array.Utf8(), run: fail},
		}
		r, err := New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Utf8()}}, fr)
		require.NoError(t, err)
		_, err = r.Lookup(keys(1, 2), 2)
		assert.Equal(t, errBoom, err)
	})

	t.Run("existence error returned unchanged", func(t *testing.T) {
		fr := fakeResolver{has: fakeOverload{name: "dictHas", returnType: array.Bool(), run: fail}}
		r, err := New("geo", nil, nil, fr)
		require.NoError(t, err)
		_, err = r.Lookup(keys(1), 1)
		assert.Equal(t, errBoom, err)
	})
}

func TestMetrics(t *testing.T) {
	_, res := geoCatalog(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r, err := New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Utf8()}}, res, WithMetrics(m))
	require.NoError(t, err)

	_, err = r.Lookup(keys(1, 3, 2), 3)
	require.NoError(t, err)
	_, err = r.Lookup(keys(1), -1)
	require.Error(t, err)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.Keys.WithLabelValues("geo")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Found.WithLabelValues("geo")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Lookups.WithLabelValues("geo", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Lookups.WithLabelValues("geo", "error")))
}

func TestPool(t *testing.T) {
	_, res := geoCatalog(t)
	factory := func() (*Reader, error) {
		return New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Utf8()}}, res)
	}
	p, err := NewPool(2, factory)
	require.NoError(t, err)
	assert.Equal(t, "city", p.Schema().Fields[0].Name)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := p.Lookup(context.Background(), keys(2, 9, 1), 3)
			if err != nil {
				errs <- err
				return
			}
			if out.Rows() != 2 || out.Positions[2] != 1 {
				errs <- errors.New("unexpected lookup result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	t.Run("blocked acquire honours context", func(t *testing.T) {
		a, err := p.Acquire(context.Background())
		require.NoError(t, err)
		b, err := p.Acquire(context.Background())
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = p.Acquire(ctx)
		require.ErrorIs(t, err, context.Canceled)
		p.Release(a)
		p.Release(b)
	})

	t.Run("construction errors surface", func(t *testing.T) {
		_, err := NewPool(1, func() (*Reader, error) {
			return New("geo", []string{"city"}, []array.Field{{Name: "city", Type: array.Int(64)}}, res)
		})
		require.ErrorIs(t, err, ErrTypeMismatch)
		_, err = NewPool(0, factory)
		require.Error(t, err)
	})
}
