package mesh

import (
	"errors"
	"fmt"
)

// Topology errors.
var (
	ErrNonManifold    = errors.New("non-manifold edge")
	ErrAdjacencyOrder = errors.New("incident edges do not form a single fan")
)

// NonManifoldError reports an edge claimed by more than two faces.
type NonManifoldError struct {
	Edge  int
	Verts [2]int
	// Faces lists the faces already on the edge followed by the face that
	// tried to attach a third time.
	Faces []int
}

func (e *NonManifoldError) Error() string {
	return fmt.Sprintf("%v: edge %d (%d-%d) shared by faces %v", ErrNonManifold, e.Edge, e.Verts[0], e.Verts[1], e.Faces)
}

// Unwrap makes errors.Is(err, ErrNonManifold) hold.
func (e *NonManifoldError) Unwrap() error { return ErrNonManifold }

// AdjacencyOrderError reports a vertex whose incident edges could not be
// chained into one fan: a non-manifold vertex or inconsistent orientation.
type AdjacencyOrderError struct {
	Vertex  int
	Ordered int // edges chained before getting stuck
	Degree  int
}

func (e *AdjacencyOrderError) Error() string {
	return fmt.Sprintf("%v: vertex %d (chained %d of %d edges)", ErrAdjacencyOrder, e.Vertex, e.Ordered, e.Degree)
}

// Unwrap makes errors.Is(err, ErrAdjacencyOrder) hold.
func (e *AdjacencyOrderError) Unwrap() error { return ErrAdjacencyOrder }
