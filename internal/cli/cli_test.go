package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictlookup/internal/array"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/reader"
)

const testConfig = `
logging:
  level: warn
dictionaries:
  - name: geo
    format: csv
    path: geo.csv
    key: id
    attributes:
      - name: city
        type: utf8
      - name: population
  - name: users
    format: json
    path: users.json
    key: uid
    attributes:
      - name: login
        type: nullable(utf8)
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"geo.csv":     "id,city,population\n1,Paris,2100000\n2,Rome,2800000\n4,Oslo,700000\n",
		"users.json":  `[{"uid": 10, "login": "ann"}, {"uid": 11}]`,
		"config.yaml": testConfig,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return filepath.Join(dir, "config.yaml")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLookupCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "--config", cfg, "lookup", "--dictionary", "geo",
		"--attribute", "town=city", "--attribute", "population:nullable(int64)", "--keys", "4, 3,1,null")
	require.NoError(t, err)
	assert.Contains(t, out, "geo: 2 of 4 keys found")
	assert.Contains(t, out, "town")
	assert.Contains(t, out, "| 0   | 4    | true  | 0    | Oslo  | 700000     |")
	assert.Contains(t, out, "| 1   | 3    | false | null | null  | null       |")
	assert.Contains(t, out, "| 3   | null | false |")
}

func TestLookupCommandAllAttributes(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "lookup", "-d", "users", "-k", "11,10")
	require.NoError(t, err)
	assert.Contains(t, out, "users: 2 of 2 keys found")
	assert.Contains(t, out, "| login |")
	assert.Contains(t, out, "ann")
}

func TestLookupCommandErrors(t *testing.T) {
	cfg := writeConfig(t)
	_, err := execute(t, "--config", cfg, "lookup", "-d", "geo", "-a", "city:int64", "-k", "1")
	require.ErrorIs(t, err, reader.ErrTypeMismatch)

	_, err = execute(t, "--config", cfg, "lookup", "-d", "geo", "-a", "country", "-k", "1")
	require.ErrorIs(t, err, dictionary.ErrUnknownAttribute)

	_, err = execute(t, "--config", cfg, "lookup", "-d", "cities", "-k", "1")
	require.ErrorIs(t, err, dictionary.ErrUnknownDictionary)

	_, err = execute(t, "--config", cfg, "lookup", "-d", "geo", "-k", "1,x")
	require.ErrorContains(t, err, "key 1")

	_, err = execute(t, "--config", cfg, "lookup", "-k", "1")
	require.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "check")
	require.NoError(t, err)
	assert.Contains(t, out, "ok  geo  3 rows, 2 attributes")
	assert.Contains(t, out, "ok  users  2 rows, 1 attributes")
}

func TestCheckCommandWithoutDictionaries(t *testing.T) {
	_, err := execute(t, "check")
	require.ErrorContains(t, err, "no dictionaries")
}

func TestDictionariesCommand(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "dictionaries")
	require.NoError(t, err)
	assert.Contains(t, out, "dictionaries (2)")
	assert.Contains(t, out, "city:utf8 population:int64")
	assert.Contains(t, out, "login:utf8")
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  readers: 0\n"), 0o600))
	_, err := execute(t, "--config", path, "dictionaries")
	require.Error(t, err)
}

func TestParseAttributes(t *testing.T) {
	d, err := dictionary.New("geo",
		array.MustNewUInt64Column("id", []uint64{1}, nil),
		array.MustNewUtf8Column("city", []string{"Paris"}, nil),
	)
	require.NoError(t, err)

	sources, fields, err := parseAttributes(d, []string{"town=city", "city:nullable(utf8)"})
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "city"}, sources)
	assert.Equal(t, []array.Field{{Name: "town", Type: array.Utf8()}, {Name: "city", Type: array.Nullable(array.Utf8())}}, fields)

	for _, bad := range []string{"=city", "town=", "city:map"} {
		_, _, err := parseAttributes(d, []string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseKeys(t *testing.T) {
	keys, err := parseKeys(" 1, ,NULL,18446744073709551615")
	require.NoError(t, err)
	require.Equal(t, 4, keys.Len())
	assert.True(t, keys.IsNull(1))
	assert.True(t, keys.IsNull(2))
	assert.Equal(t, uint64(18446744073709551615), keys.(*array.UInt64Column).Value(3))

	empty, err := parseKeys("")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}
