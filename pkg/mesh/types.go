// Package mesh builds vertex-edge-face adjacency over polygon meshes and
// derives normals and a normalizing bounding transform from it.
//
// Records reference each other by index into the Mesh arrays; there are no
// pointers between vertices, edges and faces.
package mesh

import (
	"github.com/google/uuid"

	"github.com/Faultbox/meshlib/pkg/math"
)

// NoFace marks an absent incident face on a boundary edge.
const NoFace = -1

// Vertex is a mesh vertex and its ordered one-ring.
type Vertex struct {
	Position math.Vec3
	Color    math.Vec3
	HasColor bool
	// Edges lists incident edges so that consecutive entries share a face.
	// For a boundary vertex the first entry is a boundary edge.
	Edges    []int
	Boundary bool
}

// Face is a polygon of any size.
type Face struct {
	Verts []int
	// Edges[k] joins Verts[k] and Verts[(k+1)%len(Verts)].
	Edges  []int
	Normal math.Vec3
	Area   float32
	// Invalid faces are kept in the topology but skipped by writers.
	Invalid bool
}

// Edge joins two vertices and up to two faces.
type Edge struct {
	// Verts holds the endpoints in the order they were first seen.
	Verts [2]int
	// Faces holds the incident faces; Faces[1] is NoFace on a boundary edge.
	Faces [2]int
	// Slots[i] is the position of this edge in Verts[i]'s one-ring.
	Slots    [2]int
	Boundary bool
}

// Other returns the endpoint opposite v.
func (e Edge) Other(v int) int {
	if e.Verts[0] == v {
		return e.Verts[1]
	}
	return e.Verts[0]
}

// Slot returns the position of the edge in v's one-ring, or -1 if v is not
// an endpoint.
func (e Edge) Slot(v int) int {
	switch v {
	case e.Verts[0]:
		return e.Slots[0]
	case e.Verts[1]:
		return e.Slots[1]
	default:
		return -1
	}
}

// HasFace reports whether f is incident to the edge.
func (e Edge) HasFace(f int) bool {
	return f != NoFace && (e.Faces[0] == f || e.Faces[1] == f)
}

// Mesh is a loaded polygon mesh. It is not modified after Load returns.
type Mesh struct {
	ID   uuid.UUID
	Path string

	Vertices []Vertex
	Faces    []Face
	Edges    []Edge

	// Normals is per vertex. It is empty when the file had none and
	// topology was not built.
	Normals  []math.Vec3
	Textures []math.Vec2
	Lines    [][]int

	// MaterialLib is the mtllib file named by an OBJ source, if any.
	MaterialLib string

	// Center and Scale map the bounding box into a unit cube.
	Center math.Vec3
	Scale  float32
	Min    math.Vec3
	Max    math.Vec3

	topology bool
}

// HasTopology reports whether edges and one-rings were built.
func (m *Mesh) HasTopology() bool {
	return m.topology
}
