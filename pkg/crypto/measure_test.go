package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeasureWithoutTPM(t *testing.T) {
	TPMVersionFile = filepath.Join(t.TempDir(), "missing")
	require.Error(t, Measure(ConfigDataPCR, []byte("data")))

	// best effort variants only log
	TryMeasureData(ConfigDataPCR, []byte("data"), "data")
	TryMeasureFiles("", filepath.Join(t.TempDir(), "missing"))
}

func TestMeasureUnsupportedVersion(t *testing.T) {
	TPMVersionFile = filepath.Join(t.TempDir(), "tpm_version_major")
	require.NoError(t, os.WriteFile(TPMVersionFile, []byte("3\n"), 0644))
	require.ErrorContains(t, Measure(ConfigDataPCR, []byte("data")), "unsupported TPM version 3")
}
