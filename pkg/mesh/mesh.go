package mesh

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlib/internal/logger"
	"github.com/Faultbox/meshlib/pkg/formats"
	"github.com/Faultbox/meshlib/pkg/math"
)

// Options controls how a mesh file is turned into a Mesh.
type Options struct {
	// Dedup folds vertex records with identical text onto the first one.
	Dedup bool
	// BuildTopology creates edges and one-rings. Without it vertex
	// normals are only available when the file carries them.
	BuildTopology bool
	// MarkDegenerate flags zero-area faces Invalid so writers skip them.
	MarkDegenerate bool
	// RecomputeNormals replaces normals read from the file with area
	// weighted ones. Needs BuildTopology.
	RecomputeNormals bool
}

// DefaultOptions builds topology without deduplication.
func DefaultOptions() Options {
	return Options{BuildTopology: true}
}

// Load reads the mesh file at path, picking the format by extension, and
// derives topology, normals and bounding data. On error no mesh is returned.
func Load(path string, opts Options) (*Mesh, error) {
	start := time.Now()

	raw, err := formats.ReadFile(path, opts.Dedup)
	if err != nil {
		return nil, err
	}

	m, err := FromRaw(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}
	m.Path = path

	logger.Info("mesh loaded",
		zap.Stringer("id", m.ID),
		zap.String("path", path),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)),
		zap.Int("edges", len(m.Edges)),
		zap.Bool("topology", m.topology),
		zap.Duration("took", time.Since(start)),
	)
	return m, nil
}

// FromRaw builds a mesh from parsed file arrays.
func FromRaw(raw *formats.Raw, opts Options) (*Mesh, error) {
	m := &Mesh{
		ID:          uuid.New(),
		Vertices:    make([]Vertex, len(raw.Vertices)),
		Faces:       make([]Face, len(raw.Faces)),
		Normals:     raw.Normals,
		Textures:    raw.Textures,
		Lines:       raw.Lines,
		MaterialLib: raw.MaterialLib,
	}

	for i, v := range raw.Vertices {
		m.Vertices[i] = Vertex{Position: v.Position, Color: v.Color, HasColor: v.HasColor}
	}
	polys := make([][]int, len(raw.Faces))
	for i, f := range raw.Faces {
		m.Faces[i] = Face{Verts: f.Verts, Invalid: f.Invalid}
		polys[i] = f.Verts
	}

	if opts.BuildTopology {
		topo, err := BuildTopology(len(m.Vertices), polys)
		if err != nil {
			return nil, err
		}
		m.applyTopology(topo)
		logger.Debug("topology built",
			zap.Stringer("id", m.ID),
			zap.Int("edges", len(m.Edges)),
			zap.Int("boundary_edges", m.Stats().BoundaryEdges),
		)
	}

	m.computeFaceNormals()
	if opts.MarkDegenerate {
		for i := range m.Faces {
			if m.Faces[i].Area == 0 {
				m.Faces[i].Invalid = true
			}
		}
	}

	if m.topology && (len(m.Normals) == 0 || opts.RecomputeNormals) {
		m.computeVertexNormals()
	}

	m.computeBounds()
	return m, nil
}

func (m *Mesh) applyTopology(t *Topology) {
	m.Edges = t.Edges
	for v := range m.Vertices {
		m.Vertices[v].Edges = t.Rings[v]
		m.Vertices[v].Boundary = t.Boundary[v]
	}
	for f := range m.Faces {
		m.Faces[f].Edges = t.FaceEdges[f]
	}
	m.topology = true
}

// computeBounds sets Min, Max, Center and Scale. Scale is 1 over the largest
// extent, or 1 when the mesh is empty or has no extent.
func (m *Mesh) computeBounds() {
	m.Scale = 1
	if len(m.Vertices) == 0 {
		return
	}

	lo, hi := m.Vertices[0].Position, m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v.Position)
		hi = hi.Max(v.Position)
	}
	m.Min, m.Max = lo, hi
	m.Center = lo.Add(hi).Scale(0.5)

	extent := hi.Sub(lo)
	largest := math.MaxOf(extent.X, math.MaxOf(extent.Y, extent.Z))
	if largest > 0 {
		m.Scale = 1 / largest
	}
}

// Save writes the mesh to path in the format given by its extension.
// Mismatched attribute array lengths are logged and written anyway.
func (m *Mesh) Save(path string) error {
	m.warnMismatch(path)
	if err := formats.WriteFile(path, m.Raw()); err != nil {
		return err
	}
	logger.Info("mesh saved", zap.Stringer("id", m.ID), zap.String("path", path))
	return nil
}

func (m *Mesh) warnMismatch(path string) {
	nv, nn, nt := len(m.Vertices), len(m.Normals), len(m.Textures)
	fields := []zap.Field{
		zap.String("path", path),
		zap.Int("vertices", nv),
		zap.Int("normals", nn),
		zap.Int("textures", nt),
	}
	if nn > 0 && nn != nv {
		logger.Warn("normal count differs from vertex count", fields...)
	}
	if nt > 0 && nt != nv {
		logger.Warn("texture coordinate count differs from vertex count", fields...)
	}
	if nn > 0 && nt > 0 && nn != nt {
		logger.Warn("normal count differs from texture coordinate count", fields...)
	}
}

// Raw converts the mesh back to file arrays.
func (m *Mesh) Raw() *formats.Raw {
	raw := &formats.Raw{
		Vertices:    make([]formats.Vertex, len(m.Vertices)),
		Faces:       make([]formats.Face, len(m.Faces)),
		Normals:     m.Normals,
		Textures:    m.Textures,
		Lines:       m.Lines,
		MaterialLib: m.MaterialLib,
	}
	for i, v := range m.Vertices {
		raw.Vertices[i] = formats.Vertex{Position: v.Position, Color: v.Color, HasColor: v.HasColor}
	}
	for i, f := range m.Faces {
		raw.Faces[i] = formats.Face{Verts: f.Verts, Invalid: f.Invalid}
	}
	return raw
}

// Positions returns the vertex positions.
func (m *Mesh) Positions() []math.Vec3 {
	out := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position
	}
	return out
}

// FaceIndices returns the vertex lists of all valid faces.
func (m *Mesh) FaceIndices() [][]int {
	out := make([][]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		if !f.Invalid {
			out = append(out, f.Verts)
		}
	}
	return out
}

// Triangles fan-triangulates every valid face into a flat index list.
func (m *Mesh) Triangles() []uint32 {
	var out []uint32
	for _, f := range m.Faces {
		if f.Invalid {
			continue
		}
		for k := 1; k+1 < len(f.Verts); k++ {
			out = append(out, uint32(f.Verts[0]), uint32(f.Verts[k]), uint32(f.Verts[k+1]))
		}
	}
	return out
}

// Transform returns the matrix that centers the mesh at the origin and
// scales its largest extent to 1.
func (m *Mesh) Transform() mgl32.Mat4 {
	return math.NormalizeTransform(m.Center, m.Scale)
}

// Rotated returns a copy of the mesh rotated by degrees around axis through
// the origin. Face normals, vertex normals and bounds follow the rotation;
// topology is shared with m.
func (m *Mesh) Rotated(axis math.Vec3, degrees float32) *Mesh {
	out := *m
	out.ID = uuid.New()

	positions := math.Rotate(m.Positions(), axis, degrees)
	out.Vertices = make([]Vertex, len(m.Vertices))
	for i, v := range m.Vertices {
		v.Position = positions[i]
		out.Vertices[i] = v
	}
	out.Faces = make([]Face, len(m.Faces))
	copy(out.Faces, m.Faces)
	out.computeFaceNormals()

	if len(m.Normals) > 0 {
		out.Normals = math.Rotate(m.Normals, axis, degrees)
	}
	out.computeBounds()
	return &out
}
