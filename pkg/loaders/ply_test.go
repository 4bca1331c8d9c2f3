package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-hitshade/pkg/core"
)

// binaryPLY builds a unit square as two triangles with normals and uvs
func binaryPLY(t *testing.T, order binary.ByteOrder, format string) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment made for tests\n")
	buf.WriteString("element vertex 4\n")
	for _, p := range []string{"x", "y", "z", "nx", "ny", "nz", "s", "t"} {
		buf.WriteString("property float " + p + "\n")
	}
	buf.WriteString("property uchar red\n")
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("property uchar flags\n")
	buf.WriteString("end_header\n")

	vertices := [][8]float32{
		{0, 0, 0, 0, 0, 1, 0, 0},
		{1, 0, 0, 0, 0, 1, 1, 0},
		{1, 1, 0, 0, 0, 1, 1, 1},
		{0, 1, 0, 0, 0, 1, 0, 1},
	}
	for _, v := range vertices {
		require.NoError(t, binary.Write(&buf, order, v))
		buf.WriteByte(255)
	}

	for _, f := range [][3]int32{{0, 1, 2}, {0, 2, 3}} {
		buf.WriteByte(3)
		require.NoError(t, binary.Write(&buf, order, f))
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func TestReadPLY_Binary(t *testing.T) {
	tests := []struct {
		name   string
		order  binary.ByteOrder
		format string
	}{
		{"little endian", binary.LittleEndian, "binary_little_endian"},
		{"big endian", binary.BigEndian, "binary_big_endian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := binaryPLY(t, tt.order, tt.format)
			mesh, err := ReadPLY(bufio.NewReader(bytes.NewReader(data)))
			require.NoError(t, err)

			require.Len(t, mesh.Vertices, 4)
			assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
			assert.Equal(t, core.NewVec3(1, 1, 0), mesh.Vertices[2].Position)
			assert.Equal(t, core.NewVec3(0, 0, 1), mesh.Vertices[2].Normal)
			assert.Equal(t, core.NewVec2(1, 1), mesh.Vertices[2].TexCoord)
			assert.Equal(t, []int32{0, 0}, mesh.TriangleMaterials)
		})
	}
}

func TestReadPLY_ASCIIPolygonWithoutNormals(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
2 0 0
2 2 0
0 2 0
4 0 1 2 3
`
	mesh, err := ReadPLY(bufio.NewReader(strings.NewReader(src)))
	require.NoError(t, err)

	assert.Equal(t, 2, mesh.TriangleCount(), "quad is fan triangulated")
	for _, v := range mesh.Vertices {
		assert.Equal(t, core.NewVec3(0, 0, 1), v.Normal)
	}
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not ply", "hello\nend_header\n"},
		{"no end header", "ply\nformat ascii 1.0\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"index out of range", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0\n3 0 0 5\n"},
		{"truncated", "ply\nformat binary_little_endian 1.0\nelement vertex 2\nproperty float x\nend_header\n\x00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(bufio.NewReader(strings.NewReader(tt.src)))
			assert.Error(t, err)
		})
	}
}

func TestLoadPLY_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.ply")
	require.NoError(t, os.WriteFile(path, binaryPLY(t, binary.LittleEndian, "binary_little_endian"), 0o644))

	mesh, err := LoadPLY(path)
	require.NoError(t, err)
	assert.Equal(t, 2, mesh.TriangleCount())

	_, err = LoadPLY(filepath.Join(t.TempDir(), "missing.ply"))
	assert.Error(t, err)
}
