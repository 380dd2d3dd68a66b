// Package mmap provides read-only memory mapping of files, with a portable
// read-into-memory fallback on platforms without mmap support.
package mmap

// Mapping is a read-only view of a file's contents.
type Mapping struct {
	data   []byte
	mapped bool
}

// Bytes returns the mapped contents. The slice is valid until Close.
func (m *Mapping) Bytes() []byte { return m.data }

// Open maps the file at path read-only.
func Open(path string) (*Mapping, error) {
	return open(path)
}
