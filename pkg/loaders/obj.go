package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/material"
)

// OpenFunc opens a file referenced by a model, such as an MTL library
type OpenFunc func(name string) (io.ReadCloser, error)

// LoadOBJ loads a Wavefront OBJ file and the MTL libraries it references.
// Texture paths are resolved relative to the OBJ file.
func LoadOBJ(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loaders: open OBJ: %w", err)
	}
	defer file.Close()

	dir := filepath.Dir(path)
	open := func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	}

	model, err := ReadOBJ(file, open)
	if err != nil {
		return nil, fmt.Errorf("loaders: %s: %w", path, err)
	}
	for i, p := range model.TexturePaths {
		if !filepath.IsAbs(p) {
			model.TexturePaths[i] = filepath.Join(dir, p)
		}
	}
	return model, nil
}

// objVertexKey identifies a unique position/uv/normal/material combination
type objVertexKey struct {
	v, vt, vn int
	material  int32
}

type objParser struct {
	positions []core.Vec3
	texCoords []core.Vec2
	normals   []core.Vec3

	materials    []material.Phong
	materialIDs  map[string]int32
	texturePaths []string
	textureIDs   map[string]int32

	current         int32 // -1 until usemtl names a known material
	defaultMaterial int32 // -1 until a face needs it

	mesh  *geometry.Mesh
	dedup map[objVertexKey]uint32
}

// ReadOBJ parses OBJ data; open resolves mtllib names and may be nil
func ReadOBJ(r io.Reader, open OpenFunc) (*Model, error) {
	p := &objParser{
		materialIDs:     make(map[string]int32),
		textureIDs:      make(map[string]int32),
		current:         -1,
		defaultMaterial: -1,
		mesh:            &geometry.Mesh{},
		dedup:           make(map[objVertexKey]uint32),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v core.Vec3
			v, err = parseVec3(fields[1:])
			p.positions = append(p.positions, v)
		case "vn":
			var n core.Vec3
			n, err = parseVec3(fields[1:])
			p.normals = append(p.normals, n)
		case "vt":
			var uv core.Vec2
			uv, err = parseTexCoord(fields[1:])
			p.texCoords = append(p.texCoords, uv)
		case "f":
			err = p.face(fields[1:])
		case "usemtl":
			if len(fields) > 1 {
				if id, ok := p.materialIDs[fields[1]]; ok {
					p.current = id
				} else {
					p.current = -1
				}
			}
		case "mtllib":
			if open != nil {
				for _, name := range fields[1:] {
					if err = p.loadMTL(name, open); err != nil {
						break
					}
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if p.mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("no faces")
	}

	if len(p.materials) == 0 {
		p.materials = append(p.materials, material.DefaultPhong())
	}

	return &Model{
		Mesh:         p.mesh,
		Variant:      buffers.VariantPhong,
		Phong:        p.materials,
		TexturePaths: p.texturePaths,
	}, nil
}

// face adds a polygon, fan-triangulated
func (p *objParser) face(tokens []string) error {
	if len(tokens) < 3 {
		return fmt.Errorf("face with %d vertices", len(tokens))
	}

	mat := p.current
	if mat < 0 {
		if p.defaultMaterial < 0 {
			p.defaultMaterial = int32(len(p.materials))
			p.materials = append(p.materials, material.DefaultPhong())
		}
		mat = p.defaultMaterial
	}

	refs := make([][3]int, len(tokens))
	hasNormals := true
	for i, tok := range tokens {
		ref, err := p.parseRef(tok)
		if err != nil {
			return err
		}
		refs[i] = ref
		if ref[2] < 0 {
			hasNormals = false
		}
	}

	var faceNormal core.Vec3
	if !hasNormals {
		p0 := p.positions[refs[0][0]]
		faceNormal = p.positions[refs[1][0]].Subtract(p0).Cross(p.positions[refs[2][0]].Subtract(p0)).Normalize()
	}

	polygon := make([]uint32, len(refs))
	for i, ref := range refs {
		polygon[i] = p.vertex(ref, mat, hasNormals, faceNormal)
	}
	appendFan(p.mesh, polygon, mat)
	return nil
}

// vertex returns the index of the vertex for ref, creating it if needed.
// Vertices with face normals are never shared.
func (p *objParser) vertex(ref [3]int, mat int32, shared bool, faceNormal core.Vec3) uint32 {
	key := objVertexKey{v: ref[0], vt: ref[1], vn: ref[2], material: mat}
	if shared {
		if idx, ok := p.dedup[key]; ok {
			return idx
		}
	}

	v := buffers.Vertex{Position: p.positions[ref[0]], Normal: faceNormal, MaterialIndex: mat}
	if ref[1] >= 0 {
		uv := p.texCoords[ref[1]]
		v.TexCoord = core.NewVec2(uv.X, 1-uv.Y)
	}
	if ref[2] >= 0 {
		v.Normal = p.normals[ref[2]]
	}

	idx := uint32(len(p.mesh.Vertices))
	p.mesh.Vertices = append(p.mesh.Vertices, v)
	if shared {
		p.dedup[key] = idx
	}
	return idx
}

// parseRef parses v, v/vt, v//vn or v/vt/vn into zero-based indices, -1 if absent
func (p *objParser) parseRef(tok string) ([3]int, error) {
	ref := [3]int{-1, -1, -1}
	parts := strings.Split(tok, "/")
	counts := [3]int{len(p.positions), len(p.texCoords), len(p.normals)}

	for i := 0; i < len(parts) && i < 3; i++ {
		if parts[i] == "" {
			continue
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return ref, fmt.Errorf("invalid face index %q", tok)
		}
		idx := n - 1
		if n < 0 {
			idx = counts[i] + n
		}
		if n == 0 || idx < 0 || idx >= counts[i] {
			return ref, fmt.Errorf("face index %q out of range", tok)
		}
		ref[i] = idx
	}
	if ref[0] < 0 {
		return ref, fmt.Errorf("face vertex %q has no position", tok)
	}
	return ref, nil
}

func (p *objParser) loadMTL(name string, open OpenFunc) error {
	rc, err := open(name)
	if err != nil {
		return fmt.Errorf("mtllib %s: %w", name, err)
	}
	defer rc.Close()

	materials, names, err := ReadMTL(rc)
	if err != nil {
		return fmt.Errorf("mtllib %s: %w", name, err)
	}

	for i, m := range materials {
		if m.texturePath != "" {
			id, ok := p.textureIDs[m.texturePath]
			if !ok {
				id = int32(len(p.texturePaths))
				p.texturePaths = append(p.texturePaths, m.texturePath)
				p.textureIDs[m.texturePath] = id
			}
			m.Phong.TextureID = id
		}
		p.materialIDs[names[i]] = int32(len(p.materials))
		p.materials = append(p.materials, m.Phong)
	}
	return nil
}

// MTLMaterial is a parsed MTL entry whose diffuse map is still a path
type MTLMaterial struct {
	material.Phong
	texturePath string
}

// TexturePath returns the map_Kd path, empty if none
func (m MTLMaterial) TexturePath() string { return m.texturePath }

// ReadMTL parses an MTL library, returning materials and their names in order
func ReadMTL(r io.Reader) ([]MTLMaterial, []string, error) {
	var materials []MTLMaterial
	var names []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("line %d: newmtl without name", lineNo)
			}
			materials = append(materials, MTLMaterial{Phong: material.DefaultPhong()})
			names = append(names, fields[1])
			continue
		}
		if len(materials) == 0 {
			continue
		}

		m := &materials[len(materials)-1]
		var err error
		switch fields[0] {
		case "Ka":
			m.Ambient, err = parseVec3(fields[1:])
		case "Kd":
			m.Diffuse, err = parseVec3(fields[1:])
		case "Ks":
			m.Specular, err = parseVec3(fields[1:])
		case "Tf":
			m.Transmittance, err = parseVec3(fields[1:])
		case "Ke":
			m.Emission, err = parseVec3(fields[1:])
		case "Ns":
			m.Shininess, err = parseFloat(fields[1:])
		case "Ni":
			m.IOR, err = parseFloat(fields[1:])
		case "d":
			m.Dissolve, err = parseFloat(fields[1:])
		case "Tr":
			var tr float32
			tr, err = parseFloat(fields[1:])
			m.Dissolve = 1 - tr
		case "illum":
			var illum float32
			illum, err = parseFloat(fields[1:])
			m.Illum = int32(illum)
		case "map_Kd":
			if len(fields) > 1 {
				// Options such as -s come first; the path is last
				m.texturePath = fields[len(fields)-1]
			}
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return materials, names, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func parseFloat(fields []string) (float32, error) {
	if len(fields) < 1 {
		return 0, fmt.Errorf("missing value")
	}
	f, err := strconv.ParseFloat(fields[0], 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", fields[0])
	}
	return float32(f), nil
}

func parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var c [3]float32
	for i := range c {
		f, err := parseFloat(fields[i:])
		if err != nil {
			return core.Vec3{}, err
		}
		c[i] = f
	}
	return core.NewVec3(c[0], c[1], c[2]), nil
}

func parseTexCoord(fields []string) (core.Vec2, error) {
	u, err := parseFloat(fields)
	if err != nil {
		return core.Vec2{}, err
	}
	var v float32
	if len(fields) > 1 {
		if v, err = parseFloat(fields[1:]); err != nil {
			return core.Vec2{}, err
		}
	}
	return core.NewVec2(u, v), nil
}
