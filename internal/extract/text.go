package extract

import (
	"context"
	"os"
)

// TextReader returns UTF-8 text files verbatim.
type TextReader struct{}

// Kind implements Reader.
func (TextReader) Kind() string { return "text" }

// Read implements Reader.
func (TextReader) Read(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
