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

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // type of the element count for list properties
}

// hasVertexProp reports whether the vertex element declares any of names
func (h *PLYHeader) hasVertexProp(names ...string) bool {
	for _, p := range h.VertexProps {
		for _, n := range names {
			if p.Name == n {
				return true
			}
		}
	}
	return false
}

// LoadPLY loads a PLY file into a mesh. Polygons are fan-triangulated and
// missing normals are replaced by area-weighted vertex normals.
func LoadPLY(filename string) (*geometry.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaders: open PLY: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("loaders: %s: %w", filename, err)
	}
	return mesh, nil
}

// ReadPLY parses PLY data from r
func ReadPLY(r *bufio.Reader) (*geometry.Mesh, error) {
	header, err := parsePLYHeader(r)
	if err != nil {
		return nil, fmt.Errorf("parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &plyBinaryReader{r: r, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &plyBinaryReader{r: r, order: binary.BigEndian}
	case "ascii":
		values = &plyASCIIReader{r: r}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}

	mesh := &geometry.Mesh{Vertices: make([]buffers.Vertex, header.VertexCount)}
	hasNormals := header.hasVertexProp("nx")

	for i := 0; i < header.VertexCount; i++ {
		v := &mesh.Vertices[i]
		for _, prop := range header.VertexProps {
			if prop.IsList {
				if err := skipList(values, prop); err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			value, err := values.read(prop.Type)
			if err != nil {
				return nil, fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
			}
			assignVertexProp(v, prop.Name, float32(value))
		}
	}

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList || (prop.Name != "vertex_indices" && prop.Name != "vertex_index") {
				if err := skipProp(values, prop); err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}

			count, err := values.read(prop.ListType)
			if err != nil {
				return nil, fmt.Errorf("face %d count: %w", i, err)
			}
			polygon := make([]uint32, int(count))
			for k := range polygon {
				idx, err := values.read(prop.Type)
				if err != nil {
					return nil, fmt.Errorf("face %d index %d: %w", i, k, err)
				}
				if idx < 0 || int(idx) >= header.VertexCount {
					return nil, fmt.Errorf("face %d index %d out of range", i, int64(idx))
				}
				polygon[k] = uint32(idx)
			}
			appendFan(mesh, polygon, 0)
		}
	}

	if !hasNormals {
		computeVertexNormals(mesh)
	}
	return mesh, nil
}

func assignVertexProp(v *buffers.Vertex, name string, value float32) {
	switch name {
	case "x":
		v.Position.X = value
	case "y":
		v.Position.Y = value
	case "z":
		v.Position.Z = value
	case "nx":
		v.Normal.X = value
	case "ny":
		v.Normal.Y = value
	case "nz":
		v.Normal.Z = value
	case "u", "s", "texture_u":
		v.TexCoord.X = value
	case "v", "t", "texture_v":
		v.TexCoord.Y = value
	}
}

// appendFan triangulates a convex polygon around its first corner
func appendFan(mesh *geometry.Mesh, polygon []uint32, materialIndex int32) {
	for k := 1; k+1 < len(polygon); k++ {
		mesh.Indices = append(mesh.Indices, polygon[0], polygon[k], polygon[k+1])
		mesh.TriangleMaterials = append(mesh.TriangleMaterials, materialIndex)
	}
}

// computeVertexNormals replaces normals with the area-weighted average of the
// adjacent face normals
func computeVertexNormals(mesh *geometry.Mesh) {
	accum := make([]core.Vec3, len(mesh.Vertices))
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		i0, i1, i2 := mesh.Indices[t], mesh.Indices[t+1], mesh.Indices[t+2]
		p0 := mesh.Vertices[i0].Position
		faceNormal := mesh.Vertices[i1].Position.Subtract(p0).Cross(mesh.Vertices[i2].Position.Subtract(p0))
		accum[i0] = accum[i0].Add(faceNormal)
		accum[i1] = accum[i1].Add(faceNormal)
		accum[i2] = accum[i2].Add(faceNormal)
	}
	for i := range mesh.Vertices {
		mesh.Vertices[i].Normal = accum[i].Normalize()
	}
}

// parsePLYHeader reads up to and including the end_header line
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string
	sawMagic := false

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("missing end_header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "ply":
			sawMagic = true
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line %q", line)
			}
			header.Format, header.Version = parts[1], parts[2]
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid element count %q", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				if count > 0 {
					return nil, fmt.Errorf("unsupported element %q", currentElement)
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}

	if !sawMagic {
		return nil, fmt.Errorf("not a PLY file")
	}
	return header, nil
}

// parsePLYProperty parses the words after "property"
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return PLYProperty{IsList: true, ListType: parts[1], Type: parts[2], Name: parts[3]}, nil
	}
	if len(parts) >= 2 && parts[0] != "list" {
		return PLYProperty{Type: parts[0], Name: parts[1]}, nil
	}
	return PLYProperty{}, fmt.Errorf("invalid property definition %q", strings.Join(parts, " "))
}

func skipProp(values plyValueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipList(values, prop)
	}
	_, err := values.read(prop.Type)
	return err
}

func skipList(values plyValueReader, prop PLYProperty) error {
	count, err := values.read(prop.ListType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := values.read(prop.Type); err != nil {
			return err
		}
	}
	return nil
}

// plyValueReader decodes one scalar of a PLY type
type plyValueReader interface {
	read(dataType string) (float64, error)
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryReader) read(dataType string) (float64, error) {
	size := plyTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
}

// plyASCIIReader reads whitespace separated tokens across lines
type plyASCIIReader struct {
	r      *bufio.Reader
	tokens []string
}

func (a *plyASCIIReader) read(dataType string) (float64, error) {
	for len(a.tokens) == 0 {
		line, err := a.r.ReadString('\n')
		if err != nil && line == "" {
			return 0, err
		}
		a.tokens = strings.Fields(line)
	}
	token := a.tokens[0]
	a.tokens = a.tokens[1:]

	if plyTypeSize(dataType) == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	return strconv.ParseFloat(token, 64)
}

// plyTypeSize returns the size in bytes of a PLY data type, 0 if unknown
func plyTypeSize(dataType string) int {
	switch dataType {
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
