package loaders

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/material"
)

// LoadGLTF loads a .gltf or .glb file
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loaders: open glTF: %w", err)
	}

	model, err := ReadGLTF(doc)
	if err != nil {
		return nil, fmt.Errorf("loaders: %s: %w", path, err)
	}
	return model, nil
}

// ReadGLTF merges every triangle primitive of every mesh into one model with
// metallic-roughness materials. Node transforms are not applied.
func ReadGLTF(doc *gltf.Document) (*Model, error) {
	model := &Model{
		Mesh:    &geometry.Mesh{},
		Variant: buffers.VariantMetallicRoughness,
	}
	for _, m := range doc.Materials {
		model.Metallic = append(model.Metallic, metallicFromGLTF(m))
	}

	defaultMaterial := int32(-1)
	for meshIdx, mesh := range doc.Meshes {
		for primIdx, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}

			mat := defaultMaterial
			if prim.Material != nil && int(*prim.Material) < len(model.Metallic) {
				mat = int32(*prim.Material)
			} else if mat < 0 {
				defaultMaterial = int32(len(model.Metallic))
				model.Metallic = append(model.Metallic, material.DefaultMetallicRoughness())
				mat = defaultMaterial
			}

			if err := appendPrimitive(doc, prim, mat, model.Mesh); err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, primIdx, err)
			}
		}
	}

	if model.Mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("no triangle primitives")
	}
	if len(model.Metallic) == 0 {
		model.Metallic = append(model.Metallic, material.DefaultMetallicRoughness())
	}
	return model, nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, mat int32, mesh *geometry.Mesh) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("missing POSITION")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read POSITION: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read NORMAL: %w", err)
		}
	}

	var texCoords [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if texCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read TEXCOORD_0: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("%d indices is not a whole number of triangles", len(indices))
	}

	base := uint32(len(mesh.Vertices))
	for i, p := range positions {
		v := buffers.Vertex{
			Position:      core.NewVec3(p[0], p[1], p[2]),
			MaterialIndex: mat,
		}
		if i < len(normals) {
			v.Normal = core.NewVec3(normals[i][0], normals[i][1], normals[i][2])
		}
		if i < len(texCoords) {
			v.TexCoord = core.NewVec2(texCoords[i][0], texCoords[i][1])
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	for t := 0; t < len(indices); t += 3 {
		for k := 0; k < 3; k++ {
			if int(indices[t+k]) >= len(positions) {
				return fmt.Errorf("index %d out of range", indices[t+k])
			}
			mesh.Indices = append(mesh.Indices, base+indices[t+k])
		}
		mesh.TriangleMaterials = append(mesh.TriangleMaterials, mat)
	}
	return nil
}

func metallicFromGLTF(m *gltf.Material) material.MetallicRoughness {
	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return material.DefaultMetallicRoughness()
	}

	factor := pbr.BaseColorFactorOrDefault()
	return material.MetallicRoughness{
		BaseColorFactor: [4]float32{float32(factor[0]), float32(factor[1]), float32(factor[2]), float32(factor[3])},
		Metallic:        float32(pbr.MetallicFactorOrDefault()),
		Roughness:       float32(pbr.RoughnessFactorOrDefault()),
	}
}
