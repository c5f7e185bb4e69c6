package mesh

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/meshlib/internal/logger"
	"github.com/Faultbox/meshlib/pkg/formats"
	"github.com/Faultbox/meshlib/pkg/math"
)

const cubeOBJ = `# unit cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 4 8 7 3
f 1 5 8 4
f 2 3 7 6
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadOBJ(t *testing.T) {
	path := writeTestFile(t, "cube.obj", cubeOBJ)

	m, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Path != path {
		t.Errorf("expected path %q, got %q", path, m.Path)
	}
	if len(m.Vertices) != 8 || len(m.Faces) != 6 || len(m.Edges) != 12 {
		t.Errorf("unexpected counts: %+v", m.Stats())
	}
	if !m.HasTopology() {
		t.Error("expected topology")
	}
	if len(m.Normals) != 8 {
		t.Errorf("expected 8 computed normals, got %d", len(m.Normals))
	}
	assertFans(t, m)
}

func TestLoadUniqueIDs(t *testing.T) {
	path := writeTestFile(t, "cube.obj", cubeOBJ)
	a, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if a.ID == b.ID {
		t.Error("two loads should get distinct ids")
	}
}

func TestLoadConcurrent(t *testing.T) {
	cube := writeTestFile(t, "cube.obj", cubeOBJ)
	tri := writeTestFile(t, "tri.off", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n")

	const workers = 8
	meshes := make([]*Mesh, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := cube
			if i%2 == 1 {
				path = tri
			}
			meshes[i], errs[i] = Load(path, DefaultOptions())
		}(i)
	}
	wg.Wait()

	ids := make(map[uuid.UUID]bool)
	for i, m := range meshes {
		if errs[i] != nil {
			t.Fatalf("worker %d: Load failed: %v", i, errs[i])
		}
		wantFaces, wantEdges := 6, 12
		if i%2 == 1 {
			wantFaces, wantEdges = 1, 3
		}
		if len(m.Faces) != wantFaces || len(m.Edges) != wantEdges {
			t.Errorf("worker %d: unexpected counts: %+v", i, m.Stats())
		}
		if ids[m.ID] {
			t.Errorf("worker %d: duplicate id %s", i, m.ID)
		}
		ids[m.ID] = true
	}
}

func TestLoadNonManifold(t *testing.T) {
	path := writeTestFile(t, "fin.obj", `v 0 0 0
v 1 0 0
v 0 1 0
v 0 -1 0
v 0 0 1
f 1 2 3
f 2 1 4
f 1 2 5
`)
	m, err := Load(path, DefaultOptions())
	if m != nil {
		t.Error("expected no mesh on error")
	}
	if !errors.Is(err, ErrNonManifold) {
		t.Fatalf("expected ErrNonManifold, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected error to name the file, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{"bad number", "bad.obj", "v 0 x 0\n", formats.ErrParse},
		{"missing off header", "bad.off", "3 1 0\n", formats.ErrParse},
		{"ply", "mesh.ply", "ply\n", formats.ErrUnsupportedFormat},
		{"unknown extension", "mesh.stl", "solid\n", formats.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, tt.file, tt.content)
			m, err := Load(path, DefaultOptions())
			if m != nil {
				t.Error("expected no mesh")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.obj"), DefaultOptions())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadDedup(t *testing.T) {
	path := writeTestFile(t, "split.obj", `v 0 0 0
v 1 0 0
v 1 1 0
v 0 0 0
v 1 1 0
v 0 1 0
f 1 2 3
f 4 5 6
`)

	plain, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	opts := DefaultOptions()
	opts.Dedup = true
	folded, err := Load(path, opts)
	if err != nil {
		t.Fatalf("Load with dedup failed: %v", err)
	}

	if len(plain.Vertices) != 6 || len(folded.Vertices) != 4 {
		t.Fatalf("expected 6 and 4 vertices, got %d and %d", len(plain.Vertices), len(folded.Vertices))
	}
	if len(plain.Edges) != 6 || len(folded.Edges) != 5 {
		t.Errorf("expected 6 and 5 edges, got %d and %d", len(plain.Edges), len(folded.Edges))
	}

	// Faces reference the same positions either way.
	for fi := range plain.Faces {
		a, b := plain.Faces[fi].Verts, folded.Faces[fi].Verts
		for k := range a {
			pa, pb := plain.Vertices[a[k]].Position, folded.Vertices[b[k]].Position
			if pa != pb {
				t.Errorf("face %d corner %d: %v != %v", fi, k, pa, pb)
			}
		}
	}
}

func TestLoadWithoutTopology(t *testing.T) {
	path := writeTestFile(t, "cube.obj", cubeOBJ)

	m, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.HasTopology() {
		t.Error("expected no topology")
	}
	if len(m.Edges) != 0 || len(m.Vertices[0].Edges) != 0 {
		t.Error("expected no edges")
	}
	if len(m.Normals) != 0 {
		t.Errorf("expected no vertex normals, got %d", len(m.Normals))
	}
	if !approxVec3(m.Faces[1].Normal, math.Vec3{Z: 1}) {
		t.Errorf("face normals should still be computed, got %v", m.Faces[1].Normal)
	}
	if s := m.Stats(); s.IsolatedVertices != 0 || s.Closed() {
		t.Errorf("unexpected stats without topology: %+v", s)
	}
}

func TestMarkDegenerate(t *testing.T) {
	raw := triangleRaw()
	raw.Vertices = append(raw.Vertices, formats.Vertex{Position: math.Vec3{X: 2}})
	raw.Faces = append(raw.Faces, formats.Face{Verts: []int{0, 1, 3}})

	m, err := FromRaw(raw, Options{BuildTopology: true, MarkDegenerate: true})
	if err != nil {
		t.Fatalf("FromRaw failed: %v", err)
	}
	if m.Faces[0].Invalid {
		t.Error("triangle should stay valid")
	}
	if !m.Faces[1].Invalid {
		t.Error("zero area face should be marked invalid")
	}
	if got := m.Stats().InvalidFaces; got != 1 {
		t.Errorf("expected 1 invalid face, got %d", got)
	}
	if got := m.Triangles(); len(got) != 3 {
		t.Errorf("expected only the valid triangle, got %v", got)
	}
	if got := m.FaceIndices(); len(got) != 1 {
		t.Errorf("expected 1 valid face, got %v", got)
	}
}

func TestBounds(t *testing.T) {
	raw := createTestRaw(
		[]math.Vec3{{X: -2}, {X: 2, Y: 1}, {Z: 0.5}},
		[][]int{{0, 1, 2}},
	)
	m := mustBuild(t, raw)

	if !approxVec3(m.Min, math.Vec3{X: -2}) || !approxVec3(m.Max, math.Vec3{X: 2, Y: 1, Z: 0.5}) {
		t.Errorf("unexpected bounds %v %v", m.Min, m.Max)
	}
	if !approxVec3(m.Center, math.Vec3{X: 0, Y: 0.5, Z: 0.25}) {
		t.Errorf("unexpected center %v", m.Center)
	}
	if !approx(m.Scale, 0.25) {
		t.Errorf("expected scale 0.25, got %f", m.Scale)
	}

	got := m.Transform().Mul4x1(mgl32.Vec4{2, 1, 0.5, 1})
	want := mgl32.Vec4{0.5, 0.125, 0.0625, 1}
	if !got.ApproxEqual(want) {
		t.Errorf("Transform: expected %v, got %v", want, got)
	}
}

func TestBoundsWithoutExtent(t *testing.T) {
	empty := mustBuild(t, &formats.Raw{})
	if empty.Scale != 1 {
		t.Errorf("empty mesh: expected scale 1, got %f", empty.Scale)
	}

	point := mustBuild(t, createTestRaw([]math.Vec3{{X: 3, Y: 4, Z: 5}}, nil))
	if point.Scale != 1 {
		t.Errorf("single point: expected scale 1, got %f", point.Scale)
	}
	if point.Center != (math.Vec3{X: 3, Y: 4, Z: 5}) {
		t.Errorf("single point: unexpected center %v", point.Center)
	}
}

func TestTriangles(t *testing.T) {
	m := mustBuild(t, gridRaw())
	tris := m.Triangles()
	if len(tris) != 4*2*3 {
		t.Fatalf("expected 24 indices, got %d", len(tris))
	}
	want := []uint32{0, 1, 4, 0, 4, 3}
	for i, idx := range want {
		if tris[i] != idx {
			t.Errorf("index %d: expected %d, got %d", i, idx, tris[i])
		}
	}
}

func TestRotated(t *testing.T) {
	m := mustBuild(t, triangleRaw())
	r := m.Rotated(math.Vec3{X: 1}, 90)

	if r.ID == m.ID {
		t.Error("rotated mesh should get a new id")
	}
	if !approxVec3(r.Vertices[2].Position, math.Vec3{Z: 1}) {
		t.Errorf("expected (0,0,1), got %v", r.Vertices[2].Position)
	}
	if !approxVec3(r.Faces[0].Normal, math.Vec3{Y: -1}) {
		t.Errorf("expected face normal (0,-1,0), got %v", r.Faces[0].Normal)
	}
	if !approxVec3(r.Normals[0], math.Vec3{Y: -1}) {
		t.Errorf("expected vertex normal (0,-1,0), got %v", r.Normals[0])
	}

	// The source mesh is untouched.
	if !approxVec3(m.Vertices[2].Position, math.Vec3{Y: 1}) {
		t.Errorf("source mesh moved: %v", m.Vertices[2].Position)
	}
	if !approxVec3(m.Faces[0].Normal, math.Vec3{Z: 1}) {
		t.Errorf("source face normal changed: %v", m.Faces[0].Normal)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	src := writeTestFile(t, "cube.obj", cubeOBJ)
	m, err := Load(src, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, name := range []string{"out.obj", "out.off", "out.m"} {
		t.Run(name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), name)
			if err := m.Save(dst); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			again, err := Load(dst, DefaultOptions())
			if err != nil {
				t.Fatalf("reload failed: %v", err)
			}

			if len(again.Vertices) != len(m.Vertices) {
				t.Fatalf("expected %d vertices, got %d", len(m.Vertices), len(again.Vertices))
			}
			for i := range m.Vertices {
				if !approxVec3(again.Vertices[i].Position, m.Vertices[i].Position) {
					t.Errorf("vertex %d: %v != %v", i, again.Vertices[i].Position, m.Vertices[i].Position)
				}
			}
			if len(again.Faces) != len(m.Faces) {
				t.Fatalf("expected %d faces, got %d", len(m.Faces), len(again.Faces))
			}
			for i := range m.Faces {
				a, b := m.Faces[i].Verts, again.Faces[i].Verts
				if len(a) != len(b) {
					t.Errorf("face %d: %v != %v", i, a, b)
					continue
				}
				for k := range a {
					if a[k] != b[k] {
						t.Errorf("face %d: %v != %v", i, a, b)
						break
					}
				}
			}
			if len(again.Edges) != len(m.Edges) {
				t.Errorf("expected %d edges, got %d", len(m.Edges), len(again.Edges))
			}
			for i := range m.Normals {
				if !approxVec3(again.Normals[i], m.Normals[i]) {
					t.Errorf("normal %d: %v != %v", i, again.Normals[i], m.Normals[i])
				}
			}
		})
	}
}

func TestSaveRoundTripExactCoordinates(t *testing.T) {
	src := writeTestFile(t, "small.obj", `v 0.00012345 0 0
v 0 0.0000005 0
v 0.1 0.2 1234567.8
vt 0.000001 0.3
vt 0.5 0.7
vt 1e-8 1
f 1 2 3
`)
	m, err := Load(src, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, name := range []string{"out.obj", "out.off", "out.m"} {
		t.Run(name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), name)
			if err := m.Save(dst); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			again, err := Load(dst, DefaultOptions())
			if err != nil {
				t.Fatalf("reload failed: %v", err)
			}

			for i := range m.Vertices {
				if got, want := again.Vertices[i].Position, m.Vertices[i].Position; got != want {
					t.Errorf("vertex %d: got %v, want %v", i, got, want)
				}
			}
			for i := range m.Textures {
				if got, want := again.Textures[i], m.Textures[i]; got != want {
					t.Errorf("texture %d: got %v, want %v", i, got, want)
				}
			}
			for i := range m.Normals {
				if got, want := again.Normals[i], m.Normals[i]; got != want {
					t.Errorf("normal %d: got %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestLoadRejectsNonFinite(t *testing.T) {
	for _, src := range []string{
		"v nan 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n",
		"v inf 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n",
	} {
		path := writeTestFile(t, "bad.obj", src)
		m, err := Load(path, DefaultOptions())
		if m != nil {
			t.Error("expected no mesh")
		}
		if !errors.Is(err, formats.ErrParse) {
			t.Errorf("expected ErrParse for %q, got %v", src, err)
		}
	}
}

func TestSaveUnsupported(t *testing.T) {
	m := mustBuild(t, triangleRaw())
	err := m.Save(filepath.Join(t.TempDir(), "out.ply"))
	if !errors.Is(err, formats.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSaveWarnsOnMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger.Set(zap.New(core))
	defer logger.Set(zap.NewNop())

	raw := triangleRaw()
	raw.Normals = []math.Vec3{{Z: 1}}
	m := mustBuild(t, raw)

	dst := filepath.Join(t.TempDir(), "out.obj")
	if err := m.Save(dst); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("file should be written despite the mismatch: %v", err)
	}

	warnings := logs.FilterMessage("normal count differs from vertex count")
	if warnings.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	if got := warnings.All()[0].ContextMap()["normals"]; got != int64(1) {
		t.Errorf("expected normals=1 in warning, got %v", got)
	}
}

func TestSaveNoWarningWhenConsistent(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger.Set(zap.New(core))
	defer logger.Set(zap.NewNop())

	m := mustBuild(t, triangleRaw())
	if err := m.Save(filepath.Join(t.TempDir(), "out.off")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no warnings, got %v", logs.All())
	}
}
