package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"memory", func(t *testing.T) Store { return NewMemStore() }},
		{"file", func(t *testing.T) Store {
			s, err := OpenFileStore(filepath.Join(dir, "settings.cbor"))
			require.NoError(t, err)
			return s
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.open(t)
			_, err := s.Load("missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, StoreValue(s, "leds", []uint8{0, 1, 0, 1}))
			var leds []uint8
			require.NoError(t, LoadValue(s, "leds", &leds))
			require.Equal(t, []uint8{0, 1, 0, 1}, leds)
		})
	}
}

func TestFileStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.cbor")
	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, StoreValue(s, "seq", uint32(4096)))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	var seq uint32
	require.NoError(t, LoadValue(reopened, "seq", &seq))
	require.Equal(t, uint32(4096), seq)
}

func TestFileStoreCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cbor")
	require.NoError(t, os.WriteFile(path, []byte{0x01}, 0o600))
	_, err := OpenFileStore(path)
	require.Error(t, err)
}
