//go:build !unix

package mmap

import "os"

func open(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

// Close releases the buffered contents.
func (m *Mapping) Close() error {
	m.data = nil
	return nil
}
