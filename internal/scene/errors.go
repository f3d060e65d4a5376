package scene

import (
	"errors"
	"fmt"
)

// Flattening errors. Every one of them aborts the export.
var (
	ErrUnsupportedPolygonArity = errors.New("unsupported polygon arity")
	ErrDuplicateKey            = errors.New("duplicate key")
	ErrMissingKey              = errors.New("missing key")
	ErrCornerOutOfRange        = errors.New("polygon corner out of range")
	ErrUVMismatch              = errors.New("uv layer does not cover every corner")
	ErrCyclicHierarchy         = errors.New("node is its own ancestor")
)

// ArityError reports a polygon whose corner count is neither 3 nor 4.
type ArityError struct {
	Mesh    string
	Polygon int
	Count   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("mesh %q polygon %d: %v (count=%d)", e.Mesh, e.Polygon, ErrUnsupportedPolygonArity, e.Count)
}

// Is makes errors.Is(err, ErrUnsupportedPolygonArity) hold.
func (e *ArityError) Is(target error) bool {
	return target == ErrUnsupportedPolygonArity
}
