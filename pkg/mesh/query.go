package mesh

// Stats summarizes a mesh.
type Stats struct {
	Vertices         int
	Faces            int
	Edges            int
	Lines            int
	BoundaryEdges    int
	BoundaryVertices int
	IsolatedVertices int
	InvalidFaces     int
}

// Closed reports whether the mesh has topology but no boundary.
func (s Stats) Closed() bool {
	return s.Edges > 0 && s.BoundaryEdges == 0
}

// EulerCharacteristic returns V - E + F.
func (s Stats) EulerCharacteristic() int {
	return s.Vertices - s.Edges + s.Faces
}

// Stats counts the mesh elements.
func (m *Mesh) Stats() Stats {
	s := Stats{
		Vertices: len(m.Vertices),
		Faces:    len(m.Faces),
		Edges:    len(m.Edges),
		Lines:    len(m.Lines),
	}
	for _, e := range m.Edges {
		if e.Boundary {
			s.BoundaryEdges++
		}
	}
	for _, v := range m.Vertices {
		if v.Boundary {
			s.BoundaryVertices++
		}
		if m.topology && len(v.Edges) == 0 {
			s.IsolatedVertices++
		}
	}
	for _, f := range m.Faces {
		if f.Invalid {
			s.InvalidFaces++
		}
	}
	return s
}

// Neighbors returns the vertices adjacent to v in one-ring order.
func (m *Mesh) Neighbors(v int) []int {
	ring := m.Vertices[v].Edges
	out := make([]int, len(ring))
	for i, ei := range ring {
		out[i] = m.Edges[ei].Other(v)
	}
	return out
}

// NextInRing returns the edge after ei in v's one-ring, wrapping around for
// interior vertices. It returns -1 at the end of a boundary fan or when ei
// is not incident to v.
func (m *Mesh) NextInRing(v, ei int) int {
	slot := m.Edges[ei].Slot(v)
	if slot < 0 {
		return -1
	}
	ring := m.Vertices[v].Edges
	next := slot + 1
	if next == len(ring) {
		if m.Vertices[v].Boundary {
			return -1
		}
		next = 0
	}
	return ring[next]
}

// FacesAround returns the faces incident to v in one-ring order.
func (m *Mesh) FacesAround(v int) []int {
	return m.ringFaces(v)
}
