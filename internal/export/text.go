package export

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/sceneflat/internal/scene"
)

const declarations = `#include <stdint.h>
#include <stddef.h>
#include <math.h>

enum { MAX_VERTICES_PER_POLYGON = 4 };
enum { MAX_STRING_LENGTH = 64 };
enum { NO_INDEX = 0xFFFF };

typedef struct Vertex
{
    float position[3];
    float normal[3];
    float uv[2];
} Vertex;

typedef struct Polygon
{
    uint16_t indices[MAX_VERTICES_PER_POLYGON];
    uint8_t index_count;
} Polygon;

typedef struct Texture
{
    char name[MAX_STRING_LENGTH];
} Texture;

typedef struct Mesh
{
    char name[MAX_STRING_LENGTH];

    const Vertex* vertex_array;
    uint16_t vertex_count;

    const Polygon* polygon_array;
    uint32_t polygon_count;
} Mesh;

typedef struct Node
{
    char name[MAX_STRING_LENGTH];
    float matrix[16];
    uint16_t parent_index;
    uint16_t mesh_index;
} Node;

typedef struct Scene
{
    const Mesh* mesh_array;
    uint16_t mesh_count;

    const Node* node_array;
    uint16_t node_count;

    const Texture* texture_array;
    uint16_t texture_count;
} Scene;
`

// Fixed top-level symbols.
const (
	meshesSymbol   = "MESHES"
	nodesSymbol    = "NODES"
	texturesSymbol = "TEXTURES"
	sceneSymbol    = "SCENE"
)

// TextEmitter writes the scene as C declarations wrapped in an include
// guard.
type TextEmitter struct {
	// Guard is the include guard macro. Empty means SCENE_H.
	Guard string
}

// GuardFromPath derives an include guard from an output file name:
// "out/level_1.h" gives "LEVEL_1_H".
func GuardFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return Symbol(base) + "_H"
}

// Symbol upper-cases name and replaces every character that is not valid
// in a C identifier with '_'. A leading digit gets a '_' prefix.
func Symbol(name string) string {
	var sb strings.Builder
	for i, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// Emit implements Emitter.
func (e *TextEmitter) Emit(w io.Writer, s *scene.Scene) error {
	if err := Validate(s); err != nil {
		return err
	}
	guard := e.Guard
	if guard == "" {
		guard = sceneSymbol + "_H"
	}

	symbols, err := meshSymbols(s.Meshes, guard)
	if err != nil {
		return err
	}

	tw := &textWriter{w: w}
	tw.printf("#ifndef %s\n#define %s\n\n", guard, guard)
	tw.printf("%s\n", declarations)

	for i, m := range s.Meshes {
		if len(m.Vertices) == 0 {
			continue
		}
		tw.printf("const Vertex %s_VERTICES[] =\n{\n", symbols[i])
		for _, v := range m.Vertices {
			tw.printf("\t{ { %s }, { %s }, { %s } },\n",
				floats(v.Position[:]), floats(v.Normal[:]), floats(v.UV[:]))
		}
		tw.printf("};\n\n")
	}

	for i, m := range s.Meshes {
		if len(m.Polygons) == 0 {
			continue
		}
		tw.printf("const Polygon %s_POLYGONS[] =\n{\n", symbols[i])
		for _, p := range m.Polygons {
			tw.printf("\t{ { %d, %d, %d, %d }, %d },\n",
				p.Indices[0], p.Indices[1], p.Indices[2], p.Indices[3], p.Count)
		}
		tw.printf("};\n\n")
	}

	for i, m := range s.Meshes {
		tw.printf("const Mesh %s =\n{\n\t%s\n};\n\n", symbols[i], meshFields(m, symbols[i], "\n\t"))
	}

	// Entries are full literals; C rejects const variables as initializers.
	if len(s.Meshes) > 0 {
		tw.printf("const Mesh %s[] =\n{\n", meshesSymbol)
		for i, m := range s.Meshes {
			tw.printf("\t{ %s },\n", meshFields(m, symbols[i], " "))
		}
		tw.printf("};\n\n")
	}

	if len(s.Nodes) > 0 {
		tw.printf("const Node %s[] =\n{\n", nodesSymbol)
		for _, n := range s.Nodes {
			tw.printf("\t{ %s, { %s }, %s, %s },\n",
				cString(n.Name), floats(n.Matrix[:]), indexLiteral(n.Parent), indexLiteral(n.Mesh))
		}
		tw.printf("};\n\n")
	}

	if len(s.Textures) > 0 {
		tw.printf("const Texture %s[] =\n{\n", texturesSymbol)
		for _, t := range s.Textures {
			tw.printf("\t{ %s },\n", cString(t.Path))
		}
		tw.printf("};\n\n")
	}

	tw.printf("const Scene %s =\n{\n\t%s, %d,\n\t%s, %d,\n\t%s, %d\n};\n\n",
		sceneSymbol,
		arrayOrNull(meshesSymbol, len(s.Meshes)), len(s.Meshes),
		arrayOrNull(nodesSymbol, len(s.Nodes)), len(s.Nodes),
		arrayOrNull(texturesSymbol, len(s.Textures)), len(s.Textures))

	tw.printf("#endif // %s\n", guard)
	return tw.err
}

// reservedSymbols are macros and constants visible inside the header:
// its own enums, and what stddef.h, stdint.h and math.h define.
var reservedSymbols = []string{
	"MAX_VERTICES_PER_POLYGON", "MAX_STRING_LENGTH", "NO_INDEX",
	"NULL",
	"NAN", "INFINITY", "HUGE_VAL", "HUGE_VALF", "HUGE_VALL",
	"FP_NAN", "FP_INFINITE", "FP_ZERO", "FP_SUBNORMAL", "FP_NORMAL",
	"FP_ILOGB0", "FP_ILOGBNAN", "MATH_ERRNO", "MATH_ERREXCEPT", "MATH_ERRHANDLING",
	"SIZE_MAX", "PTRDIFF_MIN", "PTRDIFF_MAX", "SIG_ATOMIC_MIN", "SIG_ATOMIC_MAX",
	"WCHAR_MIN", "WCHAR_MAX", "WINT_MIN", "WINT_MAX",
}

// stdintMacro reports whether sym has the shape of a stdint.h limit or
// constant macro such as UINT16_MAX, INT_LEAST8_MIN or INTMAX_C.
func stdintMacro(sym string) bool {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(sym, "U"), "INT")
	if !ok {
		return false
	}
	switch {
	case rest != "" && rest[0] >= '0' && rest[0] <= '9':
	case strings.HasPrefix(rest, "_LEAST"), strings.HasPrefix(rest, "_FAST"),
		strings.HasPrefix(rest, "MAX"), strings.HasPrefix(rest, "PTR"):
	default:
		return false
	}
	for _, suffix := range []string{"_MAX", "_MIN", "_C"} {
		if strings.HasSuffix(rest, suffix) {
			return true
		}
	}
	return false
}

// meshSymbols returns the C symbol of every mesh. Two meshes whose
// generated symbols collide with each other, with a generated array, with
// the include guard or with a macro in scope fail.
func meshSymbols(meshes []scene.Mesh, guard string) ([]string, error) {
	taken := scene.NewIndexed[string, string]()
	fixed := append([]string{meshesSymbol, nodesSymbol, texturesSymbol, sceneSymbol, guard}, reservedSymbols...)
	for _, sym := range fixed {
		taken.Intern(sym, "")
	}

	symbols := make([]string, len(meshes))
	for i, m := range meshes {
		symbols[i] = Symbol(m.Name)
		for _, sym := range []string{symbols[i], symbols[i] + "_VERTICES", symbols[i] + "_POLYGONS"} {
			if stdintMacro(sym) {
				return nil, fmt.Errorf("mesh %q: symbol %w: %s", m.Name, scene.ErrDuplicateKey, sym)
			}
			if _, err := taken.Add(sym, m.Name); err != nil {
				return nil, fmt.Errorf("mesh %q: symbol %w", m.Name, err)
			}
		}
	}
	return symbols, nil
}

// meshFields renders the initializer fields of a Mesh literal.
func meshFields(m scene.Mesh, symbol, sep string) string {
	vertices, polygons := "NULL", "NULL"
	if len(m.Vertices) > 0 {
		vertices = symbol + "_VERTICES"
	}
	if len(m.Polygons) > 0 {
		polygons = symbol + "_POLYGONS"
	}
	return fmt.Sprintf("%s,%s%s, %d,%s%s, %d",
		cString(m.Name), sep, vertices, len(m.Vertices), sep, polygons, len(m.Polygons))
}

func arrayOrNull(symbol string, n int) string {
	if n == 0 {
		return "NULL"
	}
	return symbol
}

func indexLiteral(i int) string {
	if i == scene.NoIndex {
		return "NO_INDEX"
	}
	return strconv.Itoa(i)
}

func floats(vs []float32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = floatLiteral(v)
	}
	return strings.Join(parts, ", ")
}

// floatLiteral formats v with the shortest representation that reads back
// to the same float32.
func floatLiteral(v float32) string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INFINITY"
	case math.IsInf(f, -1):
		return "-INFINITY"
	}
	return strconv.FormatFloat(f, 'g', -1, 32)
}

// cString quotes s as a C string literal. Bytes outside printable ASCII
// are written as octal escapes.
func cString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c > 0x7E:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// textWriter keeps the first write error.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}
