package mesh

import (
	"slices"

	"github.com/Faultbox/meshlib/pkg/math"
)

// faceNormal returns the unit normal of a polygon and its area, taken from
// the cross product of the edges leaving the first vertex towards the second
// and the last vertex.
func faceNormal(positions []math.Vec3, verts []int) (math.Vec3, float32) {
	if len(verts) < 3 {
		return math.Vec3{}, 0
	}
	origin := positions[verts[0]]
	n := positions[verts[1]].Sub(origin).Cross(positions[verts[len(verts)-1]].Sub(origin))
	doubled := n.NormalizeInPlace()
	return n, doubled / 2
}

// computeFaceNormals fills Normal and Area of every face.
func (m *Mesh) computeFaceNormals() {
	positions := m.Positions()
	for i := range m.Faces {
		f := &m.Faces[i]
		f.Normal, f.Area = faceNormal(positions, f.Verts)
	}
}

// computeVertexNormals sets every vertex normal to the area weighted mean of
// the normals of the faces around it. Vertices without incident area get the
// zero vector. Requires topology.
func (m *Mesh) computeVertexNormals() {
	m.Normals = make([]math.Vec3, len(m.Vertices))
	for v := range m.Vertices {
		var sum math.Vec3
		var total float32
		for _, fi := range m.ringFaces(v) {
			f := m.Faces[fi]
			sum = sum.Add(f.Normal.Scale(f.Area))
			total += f.Area
		}
		if total == 0 {
			continue
		}
		n := sum.Div(total)
		n.NormalizeInPlace()
		m.Normals[v] = n
	}
}

// ringFaces returns the faces between consecutive one-ring edges of v,
// each face once. Interior rings wrap around from the last edge to the first.
func (m *Mesh) ringFaces(v int) []int {
	ring := m.Vertices[v].Edges
	if len(ring) < 2 {
		return nil
	}

	pairs := len(ring) - 1
	if !m.Vertices[v].Boundary {
		pairs = len(ring)
	}

	faces := make([]int, 0, pairs)
	for k := 0; k < pairs; k++ {
		a, b := m.Edges[ring[k]], m.Edges[ring[(k+1)%len(ring)]]
		for _, f := range a.Faces {
			if b.HasFace(f) && !slices.Contains(faces, f) {
				faces = append(faces, f)
				break
			}
		}
	}
	return faces
}
