// Package formats provides readers and writers for text polygon mesh formats.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/meshlib/pkg/math"
)

// Format errors.
var (
	ErrParse             = errors.New("malformed mesh file")
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
)

// ParseError reports a malformed line or field.
type ParseError struct {
	Format string
	Line   int // 1-based; 0 when the problem is not tied to one line
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Msg)
}

// Unwrap makes errors.Is(err, ErrParse) hold.
func (e *ParseError) Unwrap() error { return ErrParse }

func parseErrorf(format string, line int, msg string, args ...any) *ParseError {
	return &ParseError{Format: format, Line: line, Msg: fmt.Sprintf(msg, args...)}
}

// UnsupportedFormatError is returned for formats that cannot be read or written.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, ErrUnsupportedFormat)
}

// Unwrap makes errors.Is(err, ErrUnsupportedFormat) hold.
func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// Vertex is a position with an optional color.
type Vertex struct {
	Position math.Vec3
	Color    math.Vec3
	HasColor bool
}

// Face is a polygon given as 0-based vertex indices.
// Writers skip faces marked Invalid.
type Face struct {
	Verts   []int
	Invalid bool
}

// Raw holds the arrays a mesh file carries, before any topology is built.
type Raw struct {
	Vertices    []Vertex
	Faces       []Face
	Normals     []math.Vec3
	Textures    []math.Vec2
	Lines       [][]int
	MaterialLib string
}

// Positions returns the vertex positions.
func (r *Raw) Positions() []math.Vec3 {
	out := make([]math.Vec3, len(r.Vertices))
	for i, v := range r.Vertices {
		out[i] = v.Position
	}
	return out
}

// Adapter reads and writes one file format.
type Adapter interface {
	Name() string
	Decode(r io.Reader, dedup bool) (*Raw, error)
	Encode(w io.Writer, raw *Raw) error
}

// Compile-time interface checks.
var (
	_ Adapter = OBJ{}
	_ Adapter = OFF{}
	_ Adapter = M{}
	_ Adapter = PLY{}
)

// ForPath returns the adapter matching the file extension of path.
func ForPath(path string) (Adapter, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".obj":
		return OBJ{}, nil
	case ".off":
		return OFF{}, nil
	case ".m":
		return M{}, nil
	case ".ply":
		return PLY{}, nil
	default:
		return nil, &UnsupportedFormatError{Format: strings.TrimPrefix(ext, ".")}
	}
}

// ReadFile parses the mesh file at path, choosing the format by extension.
func ReadFile(path string, dedup bool) (*Raw, error) {
	adapter, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	raw, err := adapter.Decode(f, dedup)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return raw, nil
}

// WriteFile serializes raw to path, choosing the format by extension.
func WriteFile(path string, raw *Raw) error {
	adapter, err := ForPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := adapter.Encode(f, raw); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// newScanner returns a line scanner that tolerates very long face lines.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return scanner
}

// stripComment drops everything after a '#'.
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// parseFloats parses finite float32 values. NaN and infinities are rejected.
func parseFloats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		x := float32(v)
		if math32.IsNaN(x) || math32.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite number %q", f)
		}
		out[i] = x
	}
	return out, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	vals, err := parseFloats(fields[:3])
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func parseVec2(fields []string) (math.Vec2, error) {
	vals, err := parseFloats(fields[:2])
	if err != nil {
		return math.Vec2{}, err
	}
	return math.Vec2{X: vals[0], Y: vals[1]}, nil
}

// vertexTable assigns array indices to vertex records, optionally folding
// records whose text was already seen onto the first instance.
type vertexTable struct {
	dedup bool
	seen  map[string]int
	remap []int  // record -> vertex index
	kept  []bool // record -> produced a new vertex
}

func newVertexTable(dedup bool) *vertexTable {
	t := &vertexTable{dedup: dedup}
	if dedup {
		t.seen = make(map[string]int)
	}
	return t
}

// add registers the next record. next is the index the vertex would get if
// it is new. It returns the resolved index and whether the record is new.
func (t *vertexTable) add(key string, next int) (int, bool) {
	if t.dedup {
		if idx, ok := t.seen[key]; ok {
			t.remap = append(t.remap, idx)
			t.kept = append(t.kept, false)
			return idx, false
		}
		t.seen[key] = next
	}
	t.remap = append(t.remap, next)
	t.kept = append(t.kept, true)
	return next, true
}

// records returns the number of vertex records seen.
func (t *vertexTable) records() int {
	return len(t.remap)
}

// resolve maps a 0-based record index to a vertex index.
func (t *vertexTable) resolve(record int) (int, bool) {
	if record < 0 || record >= len(t.remap) {
		return 0, false
	}
	return t.remap[record], true
}

// keepAttached filters per-record attributes down to the records that
// produced a vertex. Entries past the last record are kept as is.
func keepAttached[T any](t *vertexTable, items []T) []T {
	if !t.dedup || len(items) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		if i < len(t.kept) && !t.kept[i] {
			continue
		}
		out = append(out, item)
	}
	return out
}

// pendingPoly is a face or polyline whose references are not resolved yet.
type pendingPoly struct {
	line int
	refs []int
}

// resolvePolys maps references through resolve. Faces with a repeated
// vertex are dropped when dropDegenerate is set.
func resolvePolys(format string, polys []pendingPoly, resolve func(int) (int, bool), dropDegenerate bool) ([][]int, error) {
	out := make([][]int, 0, len(polys))
	for _, p := range polys {
		verts := make([]int, len(p.refs))
		for i, ref := range p.refs {
			idx, ok := resolve(ref)
			if !ok {
				return nil, parseErrorf(format, p.line, "reference to unknown vertex %d", ref)
			}
			verts[i] = idx
		}
		if dropDegenerate && hasRepeat(verts) {
			continue
		}
		out = append(out, verts)
	}
	return out, nil
}

func hasRepeat(verts []int) bool {
	seen := make(map[int]struct{}, len(verts))
	for _, v := range verts {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

func toFaces(polys [][]int) []Face {
	faces := make([]Face, len(polys))
	for i, p := range polys {
		faces[i] = Face{Verts: p}
	}
	return faces
}
