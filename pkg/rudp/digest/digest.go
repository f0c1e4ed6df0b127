// Package digest computes an MD5 digest over a completed file
// transfer, printed as diagnostic confirmation that sender and
// receiver agree on content.
package digest

import (
	"crypto/md5" //nolint:gosec // diagnostic fingerprinting only, not a security boundary.
	"encoding/hex"
	"io"

	"github.com/spf13/afero"
)

// MD5File returns the lowercase-hex MD5 digest of the named file, read
// through fs so tests can exercise this against an in-memory
// filesystem.
func MD5File(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
