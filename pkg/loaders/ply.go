package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-bdpt/pkg/core"
)

// plyProperty is one property line of a PLY element
type plyProperty struct {
	name      string
	kind      string // Scalar type, or the element type of a list
	list      bool
	countKind string // Type of the list length
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// index returns the position of the named property, or -1
func (e *plyElement) index(name string) int {
	for i, p := range e.props {
		if p.name == name {
			return i
		}
	}
	return -1
}

type plyHeader struct {
	format   string // "ascii", "binary_little_endian" or "binary_big_endian"
	elements []plyElement
}

// plyValues yields the scalar values of the body in file order
type plyValues interface {
	next(kind string) (float64, error)
}

// ReadPLY reads vertex positions, optional normals and polygon faces from a
// PLY file. Polygons with more than three corners are fan-triangulated.
func ReadPLY(path string) (*MeshData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := readPLY(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func readPLY(r *bufio.Reader) (*MeshData, error) {
	header, err := parsePLYHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValues
	switch header.format {
	case "ascii":
		scanner := bufio.NewScanner(r)
		scanner.Split(bufio.ScanWords)
		values = &asciiValues{scanner: scanner}
	case "binary_little_endian":
		values = &binaryValues{r: r, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValues{r: r, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: PLY format %q", ErrUnsupportedFormat, header.format)
	}

	var (
		positions []core.Vec3
		normals   []core.Vec3
		indices   []int
	)
	for i := range header.elements {
		el := &header.elements[i]
		switch el.name {
		case "vertex":
			positions, normals, err = readPLYVertices(el, values)
		case "face":
			indices, err = readPLYFaces(el, values)
		default:
			err = skipPLYElement(el, values)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read PLY %s data: %w", el.name, err)
		}
	}

	for _, idx := range indices {
		if idx < 0 || idx >= len(positions) {
			return nil, fmt.Errorf("face index %d out of range for %d vertices", idx, len(positions))
		}
	}

	data := &MeshData{}
	data.append(positions, indices, normals)
	if data.TriangleCount() == 0 {
		return nil, fmt.Errorf("PLY file has no faces")
	}
	return data, nil
}

// parsePLYHeader reads up to and including the end_header line
func parsePLYHeader(r *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}
	first := true

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header not terminated: %w", err)
		}
		parts := strings.Fields(line)
		if first {
			if len(parts) != 1 || parts[0] != "ply" {
				return nil, fmt.Errorf("missing ply magic")
			}
			first = false
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			return header, nil
		case "format":
			if len(parts) < 2 {
				return nil, fmt.Errorf("invalid format line %q", strings.TrimSpace(line))
			}
			header.format = parts[1]
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.elements = append(header.elements, plyElement{name: parts[1], count: count})
		case "property":
			if len(header.elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			el := &header.elements[len(header.elements)-1]
			el.props = append(el.props, prop)
		}
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return plyProperty{list: true, countKind: parts[1], kind: parts[2], name: parts[3]}, nil
	}
	if len(parts) >= 2 && parts[0] != "list" {
		return plyProperty{kind: parts[0], name: parts[1]}, nil
	}
	return plyProperty{}, fmt.Errorf("invalid property definition %q", strings.Join(parts, " "))
}

func readPLYVertices(el *plyElement, values plyValues) ([]core.Vec3, []core.Vec3, error) {
	x, y, z := el.index("x"), el.index("y"), el.index("z")
	if x < 0 || y < 0 || z < 0 {
		return nil, nil, fmt.Errorf("vertex element lacks x, y or z")
	}
	nx, ny, nz := el.index("nx"), el.index("ny"), el.index("nz")
	hasNormals := nx >= 0 && ny >= 0 && nz >= 0

	positions := make([]core.Vec3, 0, el.count)
	var normals []core.Vec3
	if hasNormals {
		normals = make([]core.Vec3, 0, el.count)
	}

	row := make([]float64, len(el.props))
	for i := 0; i < el.count; i++ {
		for j, p := range el.props {
			if p.list {
				if err := skipPLYList(p, values); err != nil {
					return nil, nil, err
				}
				continue
			}
			v, err := values.next(p.kind)
			if err != nil {
				return nil, nil, fmt.Errorf("vertex %d: %w", i, err)
			}
			row[j] = v
		}
		positions = append(positions, core.NewVec3(row[x], row[y], row[z]))
		if hasNormals {
			normals = append(normals, core.NewVec3(row[nx], row[ny], row[nz]))
		}
	}
	return positions, normals, nil
}

func readPLYFaces(el *plyElement, values plyValues) ([]int, error) {
	indices := make([]int, 0, el.count*3)
	corners := make([]int, 0, 4)

	for i := 0; i < el.count; i++ {
		for _, p := range el.props {
			if !p.list {
				if _, err := values.next(p.kind); err != nil {
					return nil, err
				}
				continue
			}
			if p.name != "vertex_indices" && p.name != "vertex_index" {
				if err := skipPLYList(p, values); err != nil {
					return nil, err
				}
				continue
			}

			n, err := values.next(p.countKind)
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			corners = corners[:0]
			for k := 0; k < int(n); k++ {
				v, err := values.next(p.kind)
				if err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
				corners = append(corners, int(v))
			}
			if len(corners) < 3 {
				return nil, fmt.Errorf("face %d has %d vertices", i, len(corners))
			}
			for k := 1; k+1 < len(corners); k++ {
				indices = append(indices, corners[0], corners[k], corners[k+1])
			}
		}
	}
	return indices, nil
}

func skipPLYElement(el *plyElement, values plyValues) error {
	for i := 0; i < el.count; i++ {
		for _, p := range el.props {
			if p.list {
				if err := skipPLYList(p, values); err != nil {
					return err
				}
				continue
			}
			if _, err := values.next(p.kind); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPLYList(p plyProperty, values plyValues) error {
	n, err := values.next(p.countKind)
	if err != nil {
		return err
	}
	for k := 0; k < int(n); k++ {
		if _, err := values.next(p.kind); err != nil {
			return err
		}
	}
	return nil
}

type asciiValues struct {
	scanner *bufio.Scanner
}

func (a *asciiValues) next(kind string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.scanner.Text(), 64)
}

type binaryValues struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryValues) next(kind string) (float64, error) {
	size := plyTypeSize(kind)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", kind)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch kind {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

// plyTypeSize returns the size in bytes of a PLY scalar type, or 0 if unknown
func plyTypeSize(kind string) int {
	switch kind {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}
