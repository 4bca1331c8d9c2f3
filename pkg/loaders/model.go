// Package loaders reads meshes, materials and textures from model files.
package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/material"
)

// Model is a loaded mesh with the materials of its native variant
type Model struct {
	Mesh     *geometry.Mesh
	Variant  buffers.Variant
	Phong    []material.Phong             // VariantPhong
	Metallic []material.MetallicRoughness // VariantMetallicRoughness

	// TexturePaths are indexed by Phong.TextureID
	TexturePaths []string
}

// MaterialCount returns the number of materials of the model's variant
func (m *Model) MaterialCount() int {
	if m.Variant == buffers.VariantPhong {
		return len(m.Phong)
	}
	return len(m.Metallic)
}

// LoadModel dispatches on the file extension
func LoadModel(path string) (*Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return LoadOBJ(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	case ".ply":
		mesh, err := LoadPLY(path)
		if err != nil {
			return nil, err
		}
		return &Model{
			Mesh:    mesh,
			Variant: buffers.VariantPhong,
			Phong:   []material.Phong{material.DefaultPhong()},
		}, nil
	default:
		return nil, fmt.Errorf("loaders: unsupported model format %q", filepath.Ext(path))
	}
}
