package cmdutil

import (
	"io"
	"os"
)

// nopCloser keeps stdout open when the caller closes the output.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// CreateOutput returns stdout for "" or "-", else a newly created file.
func CreateOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}
