package transform

import "fmt"

// DegenerateTransformError is returned for a rotation with no angle or a
// projection with zero distance.
type DegenerateTransformError struct {
	Op Op
}

func (e *DegenerateTransformError) Error() string {
	return fmt.Sprintf("degenerate transform %s", e.Op)
}

// UnknownKindError is returned for an Op whose Kind is not one of the
// four supported kinds.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown transform kind %d", int(e.Kind))
}
