package facemesh

import "github.com/pkg/errors"

var (
	// ErrFileFormat is returned when mesh bytes cannot be decoded into triangles.
	ErrFileFormat = errors.New("mesh file format error")

	// ErrEmptyRegion is returned when a crop removes every triangle of a mesh.
	ErrEmptyRegion = errors.New("empty region")
)
