package formats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshlib/pkg/encoding"
)

const formatOBJ = "obj"

// OBJ reads and writes Wavefront OBJ files.
//
// Supported statements: v (with optional trailing r g b), vn, vt, f, l and
// mtllib. Only the vertex index of each f/l slash group is used.
type OBJ struct{}

// Name returns "obj".
func (OBJ) Name() string { return formatOBJ }

// Decode parses an OBJ stream. Faces that reference the same vertex twice
// are dropped.
func (OBJ) Decode(r io.Reader, dedup bool) (*Raw, error) {
	raw := &Raw{}
	table := newVertexTable(dedup)
	var faces, lines []pendingPoly

	scanner := newScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, parseErrorf(formatOBJ, lineNo, "vertex needs 3 coordinates, got %d", len(fields)-1)
			}
			if _, isNew := table.add(strings.Join(fields[1:], " "), len(raw.Vertices)); !isNew {
				continue
			}
			pos, err := parseVec3(fields[1:])
			if err != nil {
				return nil, parseErrorf(formatOBJ, lineNo, "vertex: %v", err)
			}
			v := Vertex{Position: pos}
			if len(fields) >= 7 {
				col, err := parseVec3(fields[4:])
				if err != nil {
					return nil, parseErrorf(formatOBJ, lineNo, "vertex color: %v", err)
				}
				v.Color, v.HasColor = col, true
			}
			raw.Vertices = append(raw.Vertices, v)

		case "vn":
			if len(fields) < 4 {
				return nil, parseErrorf(formatOBJ, lineNo, "normal needs 3 components, got %d", len(fields)-1)
			}
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, parseErrorf(formatOBJ, lineNo, "normal: %v", err)
			}
			raw.Normals = append(raw.Normals, n)

		case "vt":
			if len(fields) < 3 {
				return nil, parseErrorf(formatOBJ, lineNo, "texture coordinate needs 2 components, got %d", len(fields)-1)
			}
			tc, err := parseVec2(fields[1:])
			if err != nil {
				return nil, parseErrorf(formatOBJ, lineNo, "texture coordinate: %v", err)
			}
			raw.Textures = append(raw.Textures, tc)

		case "f":
			if len(fields) < 4 {
				return nil, parseErrorf(formatOBJ, lineNo, "face needs at least 3 vertices, got %d", len(fields)-1)
			}
			refs, err := parseOBJRefs(fields[1:], table.records())
			if err != nil {
				return nil, parseErrorf(formatOBJ, lineNo, "face: %v", err)
			}
			faces = append(faces, pendingPoly{line: lineNo, refs: refs})

		case "l":
			if len(fields) < 3 {
				return nil, parseErrorf(formatOBJ, lineNo, "polyline needs at least 2 vertices, got %d", len(fields)-1)
			}
			refs, err := parseOBJRefs(fields[1:], table.records())
			if err != nil {
				return nil, parseErrorf(formatOBJ, lineNo, "polyline: %v", err)
			}
			lines = append(lines, pendingPoly{line: lineNo, refs: refs})

		case "mtllib":
			if len(fields) < 2 {
				return nil, parseErrorf(formatOBJ, lineNo, "mtllib without file name")
			}
			raw.MaterialLib = encoding.Name(fields[len(fields)-1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading obj: %w", err)
	}

	polys, err := resolvePolys(formatOBJ, faces, table.resolve, true)
	if err != nil {
		return nil, err
	}
	raw.Faces = toFaces(polys)

	if raw.Lines, err = resolvePolys(formatOBJ, lines, table.resolve, false); err != nil {
		return nil, err
	}

	raw.Normals = keepAttached(table, raw.Normals)
	raw.Textures = keepAttached(table, raw.Textures)
	return raw, nil
}

// parseOBJRefs converts "i", "i/t", "i//n" or "i/t/n" tokens to 0-based
// vertex record indices. Negative indices count back from the records read
// so far.
func parseOBJRefs(tokens []string, records int) ([]int, error) {
	refs := make([]int, len(tokens))
	for i, tok := range tokens {
		head, _, _ := strings.Cut(tok, "/")
		n, err := strconv.Atoi(head)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", tok)
		}
		switch {
		case n > 0:
			refs[i] = n - 1
		case n < 0:
			refs[i] = records + n
			if refs[i] < 0 {
				return nil, fmt.Errorf("relative index %d before first vertex", n)
			}
		default:
			return nil, fmt.Errorf("index 0 is not valid, indices start at 1")
		}
	}
	return refs, nil
}

// Encode writes raw as OBJ with 1-based indices.
func (OBJ) Encode(w io.Writer, raw *Raw) error {
	bw := bufio.NewWriter(w)

	if raw.MaterialLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", raw.MaterialLib)
	}
	for _, v := range raw.Vertices {
		p := v.Position
		if v.HasColor {
			fmt.Fprintf(bw, "v %g %g %g %g %g %g\n", p.X, p.Y, p.Z, v.Color.X, v.Color.Y, v.Color.Z)
		} else {
			fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
		}
	}
	for _, n := range raw.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	for _, t := range raw.Textures {
		fmt.Fprintf(bw, "vt %g %g\n", t.X, t.Y)
	}

	token := objFaceToken(len(raw.Textures) > 0, len(raw.Normals) > 0)
	for _, f := range raw.Faces {
		if f.Invalid {
			continue
		}
		bw.WriteString("f")
		for _, idx := range f.Verts {
			bw.WriteByte(' ')
			bw.WriteString(token(idx + 1))
		}
		bw.WriteByte('\n')
	}

	for _, l := range raw.Lines {
		bw.WriteString("l")
		for _, idx := range l {
			fmt.Fprintf(bw, " %d", idx+1)
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// objFaceToken returns the face index formatter for the attributes present.
// Normals and texture coordinates share the vertex index.
func objFaceToken(hasTex, hasNormals bool) func(int) string {
	switch {
	case hasTex && hasNormals:
		return func(i int) string { return fmt.Sprintf("%d/%d/%d", i, i, i) }
	case hasTex:
		return func(i int) string { return fmt.Sprintf("%d/%d", i, i) }
	case hasNormals:
		return func(i int) string { return fmt.Sprintf("%d//%d", i, i) }
	default:
		return strconv.Itoa
	}
}
