package vrm

import (
	"io"

	"github.com/qmuntal/gltf"
)

// Parse decodes a binary VRM. Buffers must be embedded.
func Parse(r io.Reader) (*Document, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return (*Document)(&doc), nil
}
