package formats

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Faultbox/meshlib/pkg/math"
)

const formatM = "m"

// traitPattern matches key=(v0 v1 ...) pairs inside a {...} trait block.
var traitPattern = regexp.MustCompile(`(\w+)=\(([^)]*)\)`)

// M reads and writes the line-oriented .m mesh format:
//
//	Vertex <id> <x> <y> <z> [{uv=(u v) normal=(x y z) rgb=(r g b)}]
//	Face <id> <v0> <v1> <v2> ...
//
// Vertex ids are arbitrary 1-based identifiers; faces refer to them and are
// remapped to array indices. Other records are ignored.
type M struct{}

// Name returns "m".
func (M) Name() string { return formatM }

// mTraits holds the traits recognized on a Vertex record.
type mTraits struct {
	uv       math.Vec2
	hasUV    bool
	normal   math.Vec3
	hasNorm  bool
	color    math.Vec3
	hasColor bool
}

// splitTraits separates the {...} block from the plain fields of a record.
func splitTraits(line string) (string, string) {
	open := strings.IndexByte(line, '{')
	if open < 0 {
		return line, ""
	}
	block := line[open+1:]
	if end := strings.IndexByte(block, '}'); end >= 0 {
		block = block[:end]
	}
	return line[:open], block
}

func parseTraits(block string) (mTraits, error) {
	var t mTraits
	for _, m := range traitPattern.FindAllStringSubmatch(block, -1) {
		values := strings.Fields(m[2])
		var err error
		switch m[1] {
		case "uv":
			if len(values) < 2 {
				return t, fmt.Errorf("uv needs 2 values")
			}
			t.uv, err = parseVec2(values)
			t.hasUV = true
		case "normal":
			if len(values) < 3 {
				return t, fmt.Errorf("normal needs 3 values")
			}
			t.normal, err = parseVec3(values)
			t.hasNorm = true
		case "rgb":
			if len(values) < 3 {
				return t, fmt.Errorf("rgb needs 3 values")
			}
			t.color, err = parseVec3(values)
			t.hasColor = true
		}
		if err != nil {
			return t, fmt.Errorf("%s: %w", m[1], err)
		}
	}
	return t, nil
}

// Decode parses an .m stream.
func (M) Decode(r io.Reader, dedup bool) (*Raw, error) {
	raw := &Raw{}
	ids := make(map[int]int)
	var seen map[string]int
	if dedup {
		seen = make(map[string]int)
	}

	var uvs []math.Vec2
	var normals []math.Vec3
	var anyUV, anyNormal bool
	var faces []pendingPoly

	scanner := newScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		plain, block := splitTraits(stripComment(scanner.Text()))
		fields := strings.Fields(plain)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "Vertex":
			if len(fields) < 5 {
				return nil, parseErrorf(formatM, lineNo, "vertex needs an id and 3 coordinates")
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, parseErrorf(formatM, lineNo, "invalid vertex id %q", fields[1])
			}
			if _, dup := ids[id]; dup {
				return nil, parseErrorf(formatM, lineNo, "duplicate vertex id %d", id)
			}

			key := strings.Join(fields[2:5], " ")
			if dedup {
				if idx, ok := seen[key]; ok {
					ids[id] = idx
					continue
				}
				seen[key] = len(raw.Vertices)
			}

			pos, err := parseVec3(fields[2:])
			if err != nil {
				return nil, parseErrorf(formatM, lineNo, "vertex: %v", err)
			}
			traits, err := parseTraits(block)
			if err != nil {
				return nil, parseErrorf(formatM, lineNo, "vertex traits: %v", err)
			}

			ids[id] = len(raw.Vertices)
			raw.Vertices = append(raw.Vertices, Vertex{
				Position: pos,
				Color:    traits.color,
				HasColor: traits.hasColor,
			})
			uvs = append(uvs, traits.uv)
			normals = append(normals, traits.normal)
			anyUV = anyUV || traits.hasUV
			anyNormal = anyNormal || traits.hasNorm

		case "Face":
			if len(fields) < 5 {
				return nil, parseErrorf(formatM, lineNo, "face needs an id and at least 3 vertices")
			}
			refs := make([]int, len(fields)-2)
			for i, f := range fields[2:] {
				v, err := strconv.Atoi(f)
				if err != nil {
					return nil, parseErrorf(formatM, lineNo, "invalid vertex id %q", f)
				}
				refs[i] = v
			}
			faces = append(faces, pendingPoly{line: lineNo, refs: refs})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading m: %w", err)
	}

	resolve := func(id int) (int, bool) {
		idx, ok := ids[id]
		return idx, ok
	}
	polys, err := resolvePolys(formatM, faces, resolve, true)
	if err != nil {
		return nil, err
	}
	raw.Faces = toFaces(polys)

	if anyUV {
		raw.Textures = uvs
	}
	if anyNormal {
		raw.Normals = normals
	}
	return raw, nil
}

// Encode writes raw in .m format. Vertex ids are the 1-based array index;
// uv and normal traits are taken from the arrays at the same index.
func (M) Encode(w io.Writer, raw *Raw) error {
	bw := bufio.NewWriter(w)

	for i, v := range raw.Vertices {
		p := v.Position
		fmt.Fprintf(bw, "Vertex %d %g %g %g", i+1, p.X, p.Y, p.Z)

		var traits []string
		if i < len(raw.Textures) {
			traits = append(traits, fmt.Sprintf("uv=(%g %g)", raw.Textures[i].X, raw.Textures[i].Y))
		}
		if i < len(raw.Normals) {
			n := raw.Normals[i]
			traits = append(traits, fmt.Sprintf("normal=(%g %g %g)", n.X, n.Y, n.Z))
		}
		if v.HasColor {
			traits = append(traits, fmt.Sprintf("rgb=(%g %g %g)", v.Color.X, v.Color.Y, v.Color.Z))
		}
		if len(traits) > 0 {
			fmt.Fprintf(bw, " {%s}", strings.Join(traits, " "))
		}
		bw.WriteByte('\n')
	}

	id := 0
	for _, f := range raw.Faces {
		if f.Invalid {
			continue
		}
		id++
		fmt.Fprintf(bw, "Face %d", id)
		for _, idx := range f.Verts {
			fmt.Fprintf(bw, " %d", idx+1)
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}
