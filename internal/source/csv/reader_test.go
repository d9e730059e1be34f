package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictlookup/internal/array"
	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geo.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func geoSpec(path string) config.Dictionary {
	return config.Dictionary{
		Name:       "geo",
		Format:     config.FormatCSV,
		Path:       path,
		Key:        "id",
		NullValues: []string{"", "NULL"},
		Attributes: []config.Attribute{
			{Name: "city", Type: "utf8"},
			{Name: "population"},
			{Name: "lat"},
			{Name: "capital"},
			{Name: "code", Column: "iso"},
		},
	}
}

func TestRead(t *testing.T) {
	path := writeFile(t, "id,city,population,lat,capital,iso\n"+
		"1,Paris,2100000,48.85,true,FR\n"+
		"2,Rome,NULL,41.9,TRUE,IT\n"+
		"4,,700000,59.91,false,NO\n")

	d, err := Read(context.Background(), geoSpec(path))
	require.NoError(t, err)
	assert.Equal(t, "geo", d.Name())
	assert.Equal(t, 3, d.Len())

	want := map[string]array.DataType{
		"city":       array.Utf8(),
		"population": array.Int(64),
		"lat":        array.Float(64),
		"capital":    array.Bool(),
		"code":       array.Utf8(),
	}
	for name, typ := range want {
		f, err := d.Attribute(name)
		require.NoError(t, err)
		assert.Equal(t, typ, f.Type, name)
	}

	keys := array.MustNewUInt64Column("k", []uint64{2, 4}, nil)
	pop, err := d.Get("population", keys, 2)
	require.NoError(t, err)
	assert.True(t, pop.IsNull(0))
	city, err := d.Get("city", keys, 2)
	require.NoError(t, err)
	assert.True(t, city.IsNull(1))
	code, err := d.Get("code", keys, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"IT", "NO"}, code.(*array.Utf8Column).Values())
}

func TestReadDelimiter(t *testing.T) {
	path := writeFile(t, "id;city\n10;Lyon\n")
	spec := config.Dictionary{Name: "fr", Path: path, Key: "id", Delimiter: ";", Attributes: []config.Attribute{{Name: "city"}}}
	d, err := Read(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, d.Has(array.MustNewUInt64Column("k", []uint64{10}, nil), 1))
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		spec func(config.Dictionary) config.Dictionary
		is   error
	}{
		{name: "empty", body: ""},
		{name: "missing key column", body: "key,city\n1,Paris\n"},
		{name: "missing attribute", body: "id,town\n1,Paris\n", spec: func(d config.Dictionary) config.Dictionary {
			d.Attributes = []config.Attribute{{Name: "city"}}
			return d
		}},
		{name: "ragged row", body: "id,city\n1,Paris,extra\n", spec: onlyCity},
		{name: "bad key", body: "id,city\n-1,Paris\n", spec: onlyCity},
		{name: "null key", body: "id,city\n,Paris\n", spec: onlyCity},
		{name: "duplicate key", body: "id,city\n1,Paris\n1,Rome\n", spec: onlyCity, is: dictionary.ErrDuplicateKey},
		{name: "bad declared value", body: "id,population\n1,many\n", spec: func(d config.Dictionary) config.Dictionary {
			d.Attributes = []config.Attribute{{Name: "population", Type: "int64"}}
			return d
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := geoSpec(writeFile(t, tt.body))
			if tt.spec != nil {
				spec = tt.spec(spec)
			}
			_, err := Read(context.Background(), spec)
			require.Error(t, err)
			if tt.is != nil {
				require.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func onlyCity(d config.Dictionary) config.Dictionary {
	d.Attributes = []config.Attribute{{Name: "city"}}
	return d
}

func TestReadCanceled(t *testing.T) {
	path := writeFile(t, "id,city\n1,Paris\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Read(ctx, onlyCity(geoSpec(path)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNullMatcher(t *testing.T) {
	one := NewNullMatcher([]string{"NA"})
	assert.True(t, one.IsNull("NA"))
	assert.False(t, one.IsNull(""))
	none := NewNullMatcher(nil)
	assert.False(t, none.IsNull(""))
}
