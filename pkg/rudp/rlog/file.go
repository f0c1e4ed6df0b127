package rlog

import (
	"os"

	"github.com/pkg/errors"
)

// openLogFile truncates and opens the log file.
func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %q", path)
	}
	return f, nil
}
