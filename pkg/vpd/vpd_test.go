package vpd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupVpd(t *testing.T) {
	VpdDir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(VpdDir, "ro"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(VpdDir, "rw"), 0755))
}

func TestGetSet(t *testing.T) {
	setupVpd(t)
	require.NoError(t, Set("Boot0000", []byte(`{"type": "localboot"}`), false))

	value, err := Get("Boot0000", false)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"type": "localboot"}`), value)

	_, err = Get("Boot0000", true)
	require.Error(t, err)
}

func TestGetAll(t *testing.T) {
	setupVpd(t)
	require.NoError(t, Set("Boot0000", []byte("a"), true))
	require.NoError(t, Set("Boot0001", []byte("b"), true))

	all, err := GetAll(true)
	require.NoError(t, err)
	require.Equal(t, map[string][]byte{"Boot0000": []byte("a"), "Boot0001": []byte("b")}, all)

	all, err = GetAll(false)
	require.NoError(t, err)
	require.Empty(t, all)
}
