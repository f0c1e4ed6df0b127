package digest

import (
	"crypto/md5" //nolint:gosec // test oracle, matches the package's own non-security usage.
	"encoding/hex"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestMD5FileMatchesStandardLibraryDigest(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, afero.WriteFile(fs, "payload.bin", content, 0o644))

	want := md5.Sum(content) //nolint:gosec
	got, err := MD5File(fs, "payload.bin")
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestMD5FileMissingPathErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := MD5File(fs, "does-not-exist.bin")
	require.Error(t, err)
}

func TestMD5FileEmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "empty.bin", nil, 0o644))

	want := md5.Sum(nil) //nolint:gosec
	got, err := MD5File(fs, "empty.bin")
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(want[:]), got)
}
