package converter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Source supplies one input document.
type Source interface {
	// Name identifies the source in error payloads and audit records.
	Name() string

	// Open returns a reader over the document bytes.
	Open() (io.ReadCloser, error)
}

// PathSource reads a document from the filesystem.
type PathSource struct {
	Path string

	// Label names the source when set; otherwise the file's base name does.
	Label string
}

// NewPathSource returns a source for the file at path.
func NewPathSource(path string) PathSource {
	return PathSource{Path: path}
}

// NewLabeledPathSource returns a source for the file at path named label.
func NewLabeledPathSource(path, label string) PathSource {
	return PathSource{Path: path, Label: label}
}

// Name returns Label, or the file's base name when Label is empty.
func (s PathSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return filepath.Base(s.Path)
}

// Open opens the file.
func (s PathSource) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// BytesSource serves a document held in memory, such as a request body.
type BytesSource struct {
	name string
	data []byte
}

// NewBytesSource returns a source named name over data.
func NewBytesSource(name string, data []byte) BytesSource {
	return BytesSource{name: name, data: data}
}

// Name returns the name given to NewBytesSource.
func (s BytesSource) Name() string {
	return s.name
}

// Open returns a reader over the bytes.
func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
