package mesh

// Topology is the adjacency derived from a face list.
type Topology struct {
	Edges []Edge
	// Rings[v] is the ordered one-ring of vertex v.
	Rings [][]int
	// FaceEdges[f] parallels the vertex list of face f.
	FaceEdges [][]int
	Boundary  []bool
}

// pairKey packs an unordered vertex pair into one map key.
func pairKey(a, b int) uint64 {
	if b < a {
		a, b = b, a
	}
	return uint64(uint32(a)) | uint64(uint32(b))<<32
}

// BuildTopology creates the edge set for faces over numVerts vertices,
// orders every vertex one-ring into a fan and flags boundary edges and
// vertices. Face indices must be in range and distinct within a face.
func BuildTopology(numVerts int, faces [][]int) (*Topology, error) {
	t := &Topology{
		Rings:     make([][]int, numVerts),
		FaceEdges: make([][]int, len(faces)),
		Boundary:  make([]bool, numVerts),
	}

	if err := t.linkEdges(faces); err != nil {
		return nil, err
	}

	for v := range t.Rings {
		ring, err := orderFan(v, t.Rings[v], t.Edges)
		if err != nil {
			return nil, err
		}
		t.Rings[v] = ring
	}

	t.recordSlots()
	t.markBoundary()
	return t, nil
}

// linkEdges creates one edge per unordered vertex pair and attaches up to
// two faces to it.
func (t *Topology) linkEdges(faces [][]int) error {
	index := make(map[uint64]int, len(faces)*3/2)

	for fi, verts := range faces {
		n := len(verts)
		t.FaceEdges[fi] = make([]int, n)

		for k := 0; k < n; k++ {
			a, b := verts[k], verts[(k+1)%n]
			key := pairKey(a, b)

			ei, ok := index[key]
			if !ok {
				ei = len(t.Edges)
				t.Edges = append(t.Edges, Edge{
					Verts: [2]int{a, b},
					Faces: [2]int{fi, NoFace},
				})
				index[key] = ei
				t.Rings[a] = append(t.Rings[a], ei)
				t.Rings[b] = append(t.Rings[b], ei)
			} else {
				e := &t.Edges[ei]
				if e.Faces[1] != NoFace || e.Faces[0] == fi {
					claimed := []int{e.Faces[0]}
					if e.Faces[1] != NoFace {
						claimed = append(claimed, e.Faces[1])
					}
					return &NonManifoldError{Edge: ei, Verts: e.Verts, Faces: append(claimed, fi)}
				}
				e.Faces[1] = fi
			}

			t.FaceEdges[fi][k] = ei
		}
	}
	return nil
}

// orderFan reorders ring so that consecutive edges share a face. A boundary
// edge goes first. When a fan ends on a boundary edge the walk continues
// from the next unused boundary edge; if no chain exists the vertex is not
// a single fan.
func orderFan(v int, ring []int, edges []Edge) ([]int, error) {
	degree := len(ring)
	if degree == 0 {
		return ring, nil
	}

	// Local edge positions per incident face. A manifold face touches v
	// through exactly two edges.
	byFace := make(map[int][]int, degree)
	var boundary []int
	for li, ei := range ring {
		e := edges[ei]
		for _, f := range e.Faces {
			if f != NoFace {
				byFace[f] = append(byFace[f], li)
			}
		}
		if e.Faces[1] == NoFace {
			boundary = append(boundary, li)
		}
	}

	placed := make([]bool, degree)
	ordered := make([]int, 0, degree)
	nextBoundary := 0

	takeBoundary := func() int {
		for nextBoundary < len(boundary) {
			li := boundary[nextBoundary]
			nextBoundary++
			if !placed[li] {
				return li
			}
		}
		return -1
	}

	cur := takeBoundary()
	if cur < 0 {
		cur = 0
	}
	for {
		placed[cur] = true
		ordered = append(ordered, ring[cur])
		if len(ordered) == degree {
			break
		}

		next := -1
		for _, f := range edges[ring[cur]].Faces {
			if f == NoFace {
				continue
			}
			for _, li := range byFace[f] {
				if !placed[li] {
					next = li
					break
				}
			}
			if next >= 0 {
				break
			}
		}
		if next < 0 {
			next = takeBoundary()
		}
		if next < 0 {
			return nil, &AdjacencyOrderError{Vertex: v, Ordered: len(ordered), Degree: degree}
		}
		cur = next
	}
	return ordered, nil
}

// recordSlots stores each edge's position in both endpoint rings.
func (t *Topology) recordSlots() {
	for v, ring := range t.Rings {
		for slot, ei := range ring {
			e := &t.Edges[ei]
			if e.Verts[0] == v {
				e.Slots[0] = slot
			} else {
				e.Slots[1] = slot
			}
		}
	}
}

// markBoundary flags edges with a single face and their endpoints.
func (t *Topology) markBoundary() {
	for i := range t.Edges {
		e := &t.Edges[i]
		if e.Faces[1] == NoFace {
			e.Boundary = true
			t.Boundary[e.Verts[0]] = true
			t.Boundary[e.Verts[1]] = true
		}
	}
}
