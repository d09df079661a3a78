package vrm

import (
	"errors"
	"io"
	"os"

	"github.com/qmuntal/gltf"
)

var ErrNoVRMExtension = errors.New("vrm: VRMC_vrm extension not found")

// Write encodes doc as a binary VRM. doc must carry VRMC_vrm.
func Write(doc *Document, w io.Writer) error {
	if doc.VRM() == nil {
		return ErrNoVRMExtension
	}
	e := gltf.NewEncoder(w)
	e.AsBinary = true
	return e.Encode((*gltf.Document)(doc))
}

// Save writes doc to a .vrm file.
func Save(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(doc, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
