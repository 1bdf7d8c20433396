package file

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s, err := NewStorage(fs, "/data")
	require.NoError(t, err)

	_, found, err := s.GetItem(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.SetItem(ctx, "@RocketShoes:cart", `[{"id":1,"amount":2}]`))
	v, found, err := s.GetItem(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `[{"id":1,"amount":2}]`, v)

	require.NoError(t, s.SetItem(ctx, "@RocketShoes:cart", `[]`))
	v, _, err = s.GetItem(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	require.Equal(t, `[]`, v)

	require.NoError(t, s.RemoveItem(ctx, "@RocketShoes:cart"))
	_, found, err = s.GetItem(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStorage_NamespacedKeysStayInDir(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s, err := NewStorage(fs, "/data")
	require.NoError(t, err)

	require.NoError(t, s.SetItem(ctx, "abc/@RocketShoes:cart", `[]`))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].IsDir())
}

func TestNewStorage_ReadOnlyFs(t *testing.T) {
	_, err := NewStorage(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data")
	require.Error(t, err)
}

func TestStorage_RemoveMissingKey(t *testing.T) {
	s, err := NewStorage(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)

	require.NoError(t, s.RemoveItem(context.Background(), "nothing"))
}

func TestStorage_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o700))
	s := &Storage{fs: afero.NewReadOnlyFs(base), dir: "/data"}

	err := s.SetItem(context.Background(), "@RocketShoes:cart", `[]`)
	require.Error(t, err)
}
