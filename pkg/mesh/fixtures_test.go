package mesh

import (
	"testing"

	"github.com/Faultbox/meshlib/pkg/formats"
	"github.com/Faultbox/meshlib/pkg/math"
)

// createTestRaw builds parsed arrays from positions and faces.
func createTestRaw(positions []math.Vec3, faces [][]int) *formats.Raw {
	raw := &formats.Raw{}
	for _, p := range positions {
		raw.Vertices = append(raw.Vertices, formats.Vertex{Position: p})
	}
	for _, f := range faces {
		raw.Faces = append(raw.Faces, formats.Face{Verts: f})
	}
	return raw
}

func triangleRaw() *formats.Raw {
	return createTestRaw(
		[]math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		[][]int{{0, 1, 2}},
	)
}

// cubeRaw is a unit cube with outward facing quads.
func cubeRaw() *formats.Raw {
	return createTestRaw(
		[]math.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		[][]int{
			{0, 3, 2, 1}, // bottom
			{4, 5, 6, 7}, // top
			{0, 1, 5, 4}, // front
			{3, 7, 6, 2}, // back
			{0, 4, 7, 3}, // left
			{1, 2, 6, 5}, // right
		},
	)
}

// gridRaw is a flat 3x3 vertex grid of four quads in the z=0 plane.
func gridRaw() *formats.Raw {
	var pos []math.Vec3
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			pos = append(pos, math.Vec3{X: float32(x), Y: float32(y)})
		}
	}
	return createTestRaw(pos, [][]int{
		{0, 1, 4, 3},
		{1, 2, 5, 4},
		{3, 4, 7, 6},
		{4, 5, 8, 7},
	})
}

func mustBuild(t *testing.T, raw *formats.Raw) *Mesh {
	t.Helper()
	m, err := FromRaw(raw, DefaultOptions())
	if err != nil {
		t.Fatalf("FromRaw failed: %v", err)
	}
	return m
}

const epsilon = 1e-5

func approx(a, b float32) bool {
	d := a - b
	return d < epsilon && d > -epsilon
}

func approxVec3(a, b math.Vec3) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y) && approx(a.Z, b.Z)
}

// assertFans checks that consecutive one-ring edges share a face, allowing
// a break only between two boundary edges.
func assertFans(t *testing.T, m *Mesh) {
	t.Helper()
	for v, vert := range m.Vertices {
		ring := vert.Edges
		for k := 0; k+1 < len(ring); k++ {
			a, b := m.Edges[ring[k]], m.Edges[ring[k+1]]
			if b.HasFace(a.Faces[0]) || b.HasFace(a.Faces[1]) {
				continue
			}
			if a.Boundary && b.Boundary {
				continue
			}
			t.Errorf("vertex %d: ring edges %d and %d share no face", v, ring[k], ring[k+1])
		}
		if vert.Boundary && len(ring) > 0 && !m.Edges[ring[0]].Boundary {
			t.Errorf("vertex %d: first ring edge %d is not a boundary edge", v, ring[0])
		}
		for slot, ei := range ring {
			if got := m.Edges[ei].Slot(v); got != slot {
				t.Errorf("vertex %d: edge %d records slot %d, ring has it at %d", v, ei, got, slot)
			}
		}
	}
}
