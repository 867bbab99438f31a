package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-bdpt/pkg/core"
)

const asciiSquare = `ply
format ascii 1.0
comment unit square with one quad face
element vertex 4
property float x
property float y
property float z
property float nx
property float ny
property float nz
element face 1
property list uchar int vertex_indices
end_header
0 0 0 0 0 1
1 0 0 0 0 1
1 1 0 0 0 1
0 1 0 0 0 1
4 0 1 2 3
`

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// binaryTriangle encodes one triangle with colors and an extra face property
func binaryTriangle(t *testing.T, order binary.ByteOrder, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("element vertex 3\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\n")
	buf.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("property uchar material\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}}
	for _, v := range vertices {
		if err := binary.Write(&buf, order, v); err != nil {
			t.Fatal(err)
		}
		buf.Write([]byte{255, 128, 0})
	}
	buf.WriteByte(3)
	if err := binary.Write(&buf, order, [3]int32{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	buf.WriteByte(7)
	return buf.Bytes()
}

func TestReadPLY_Formats(t *testing.T) {
	tests := []struct {
		name      string
		content   []byte
		triangles int
		vertices  int
		normals   bool
	}{
		{"ASCII quad", []byte(asciiSquare), 2, 4, true},
		{"Binary little endian", binaryTriangle(t, binary.LittleEndian, "binary_little_endian"), 1, 3, false},
		{"Binary big endian", binaryTriangle(t, binary.BigEndian, "binary_big_endian"), 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ReadPLY(writeFile(t, "mesh.ply", tt.content))
			if err != nil {
				t.Fatalf("Failed to read PLY: %v", err)
			}
			if data.TriangleCount() != tt.triangles {
				t.Errorf("Expected %d triangles, got %d", tt.triangles, data.TriangleCount())
			}
			if len(data.Positions) != tt.vertices {
				t.Errorf("Expected %d vertices, got %d", tt.vertices, len(data.Positions))
			}
			if (len(data.Normals) > 0) != tt.normals {
				t.Errorf("Expected normals=%v, got %d normals", tt.normals, len(data.Normals))
			}
		})
	}
}

func TestReadPLY_BinaryValues(t *testing.T) {
	data, err := ReadPLY(writeFile(t, "tri.ply", binaryTriangle(t, binary.LittleEndian, "binary_little_endian")))
	if err != nil {
		t.Fatalf("Failed to read PLY: %v", err)
	}
	if data.Positions[2] != core.NewVec3(0, 3, 0) {
		t.Errorf("Expected third vertex at (0,3,0), got %v", data.Positions[2])
	}
	want := []int{0, 1, 2}
	for i, idx := range want {
		if data.Indices[i] != idx {
			t.Errorf("Index %d: expected %d, got %d", i, idx, data.Indices[i])
		}
	}
}

func TestReadPLY_FanTriangulation(t *testing.T) {
	data, err := ReadPLY(writeFile(t, "quad.ply", []byte(asciiSquare)))
	if err != nil {
		t.Fatalf("Failed to read PLY: %v", err)
	}
	want := []int{0, 1, 2, 0, 2, 3}
	if len(data.Indices) != len(want) {
		t.Fatalf("Expected %d indices, got %d", len(want), len(data.Indices))
	}
	for i := range want {
		if data.Indices[i] != want[i] {
			t.Errorf("Index %d: expected %d, got %d", i, want[i], data.Indices[i])
		}
	}
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Missing magic", "format ascii 1.0\nend_header\n"},
		{"Unterminated header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"Unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"Index out of range", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
			"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 5\n"},
		{"Truncated body", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
			"end_header\n0 0 0\n1 0\n"},
		{"No faces", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\n" +
			"end_header\n0 0 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadPLY(writeFile(t, "bad.ply", []byte(tt.content))); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
