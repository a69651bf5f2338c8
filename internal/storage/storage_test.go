package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetJSONRoundTrip(t *testing.T) {
	kv, err := Open(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	type prefs struct {
		DefaultTemplate string   `json:"default_template"`
		Favorites       []string `json:"favorites"`
	}

	in := prefs{DefaultTemplate: "apso", Favorites: []string{"soap", "birp"}}
	require.NoError(t, kv.PutJSON("prefs:user", in))

	var out prefs
	ok, err := kv.GetJSON("prefs:user", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGetJSONMissingKey(t *testing.T) {
	kv, err := Open(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	var out map[string]string
	ok, err := kv.GetJSON("nope", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	kv, err := Open(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.PutJSON("k", []string{"a"}))
	require.NoError(t, kv.PutJSON("k", []string{"a", "b"}))

	var out []string
	ok, err := kv.GetJSON("k", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, out)
}
