package formats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshlib/pkg/math"
)

const formatOFF = "off"

// OFF reads and writes Object File Format meshes.
//
// Layout: an "OFF" header line, a "<verts> <faces> <edges>" counts line,
// one vertex per line (x y z, optionally followed by u v) and one face per
// line ("n i0 ... i(n-1)", 0-based).
type OFF struct{}

// Name returns "off".
func (OFF) Name() string { return formatOFF }

// offReader yields non-blank lines with comments removed.
type offReader struct {
	scanner *bufio.Scanner
	line    int
}

func (r *offReader) next() ([]string, error) {
	for r.scanner.Scan() {
		r.line++
		fields := strings.Fields(stripComment(r.scanner.Text()))
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading off: %w", err)
	}
	return nil, parseErrorf(formatOFF, r.line, "unexpected end of file")
}

// Decode parses an OFF stream.
func (OFF) Decode(r io.Reader, dedup bool) (*Raw, error) {
	in := &offReader{scanner: newScanner(r)}

	header, err := in.next()
	if err != nil {
		return nil, err
	}
	if header[0] != "OFF" {
		return nil, parseErrorf(formatOFF, in.line, "expected OFF header, got %q", header[0])
	}

	counts, err := in.next()
	if err != nil {
		return nil, err
	}
	if len(counts) < 2 {
		return nil, parseErrorf(formatOFF, in.line, "counts line needs vertex and face counts")
	}
	numVerts, err1 := strconv.Atoi(counts[0])
	numFaces, err2 := strconv.Atoi(counts[1])
	if err1 != nil || err2 != nil || numVerts < 0 || numFaces < 0 {
		return nil, parseErrorf(formatOFF, in.line, "invalid counts %q", strings.Join(counts, " "))
	}

	raw := &Raw{}
	table := newVertexTable(dedup)
	var texCoords []math.Vec2
	var hasTex []bool

	for i := 0; i < numVerts; i++ {
		fields, err := in.next()
		if err != nil {
			return nil, err
		}
		if len(fields) != 3 && len(fields) != 5 {
			return nil, parseErrorf(formatOFF, in.line, "vertex needs 3 or 5 values, got %d", len(fields))
		}
		if _, isNew := table.add(strings.Join(fields, " "), len(raw.Vertices)); !isNew {
			continue
		}
		pos, err := parseVec3(fields)
		if err != nil {
			return nil, parseErrorf(formatOFF, in.line, "vertex: %v", err)
		}
		raw.Vertices = append(raw.Vertices, Vertex{Position: pos})

		var tc math.Vec2
		if len(fields) == 5 {
			if tc, err = parseVec2(fields[3:]); err != nil {
				return nil, parseErrorf(formatOFF, in.line, "texture coordinate: %v", err)
			}
		}
		texCoords = append(texCoords, tc)
		hasTex = append(hasTex, len(fields) == 5)
	}

	for _, ok := range hasTex {
		if ok {
			raw.Textures = texCoords
			break
		}
	}

	faces := make([]pendingPoly, 0, numFaces)
	for i := 0; i < numFaces; i++ {
		fields, err := in.next()
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 3 {
			return nil, parseErrorf(formatOFF, in.line, "invalid face size %q", fields[0])
		}
		if len(fields) < n+1 {
			return nil, parseErrorf(formatOFF, in.line, "face declares %d vertices, got %d", n, len(fields)-1)
		}
		refs := make([]int, n)
		for k := 0; k < n; k++ {
			if refs[k], err = strconv.Atoi(fields[k+1]); err != nil {
				return nil, parseErrorf(formatOFF, in.line, "invalid index %q", fields[k+1])
			}
		}
		faces = append(faces, pendingPoly{line: in.line, refs: refs})
	}

	polys, err := resolvePolys(formatOFF, faces, table.resolve, true)
	if err != nil {
		return nil, err
	}
	raw.Faces = toFaces(polys)
	return raw, nil
}

// Encode writes raw as OFF. Texture coordinates are written inline when
// present; the edge count is always 0.
func (OFF) Encode(w io.Writer, raw *Raw) error {
	bw := bufio.NewWriter(w)

	valid := 0
	for _, f := range raw.Faces {
		if !f.Invalid {
			valid++
		}
	}

	fmt.Fprintln(bw, "OFF")
	fmt.Fprintf(bw, "%d %d 0\n", len(raw.Vertices), valid)
	for i, v := range raw.Vertices {
		p := v.Position
		fmt.Fprintf(bw, "%g %g %g", p.X, p.Y, p.Z)
		if i < len(raw.Textures) {
			fmt.Fprintf(bw, " %g %g", raw.Textures[i].X, raw.Textures[i].Y)
		}
		bw.WriteByte('\n')
	}
	for _, f := range raw.Faces {
		if f.Invalid {
			continue
		}
		fmt.Fprintf(bw, "%d", len(f.Verts))
		for _, idx := range f.Verts {
			fmt.Fprintf(bw, " %d", idx)
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}
