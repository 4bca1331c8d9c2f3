package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/loaders"
	"github.com/df07/go-hitshade/pkg/material"
)

// LoadOptions control how a scene is created from a name or model file
type LoadOptions struct {
	// Variant forces the packing layout; nil keeps the scene's native variant
	Variant *buffers.Variant
	// ClearColor overrides the miss color when non-nil
	ClearColor *[4]float32
	// Camera overrides the scene camera when non-nil
	Camera *geometry.CameraConfig
	// TextureWorkers limits concurrent texture loads; 0 means no limit
	TextureWorkers int
	Logger         core.Logger
}

// Load creates a built-in scene by id, or loads a model file when name is a
// path with a supported extension
func Load(ctx context.Context, name string, opts LoadOptions) (*Scene, error) {
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger{}
	}

	var s *Scene
	var err error
	if IsModelFile(name) {
		s, err = FromModelFile(ctx, name, opts)
	} else {
		s, err = NewBuiltin(name)
		if err == nil && opts.Variant != nil && *opts.Variant != s.Variant {
			s, err = s.WithVariant(*opts.Variant)
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.ClearColor != nil {
		s.ClearColor = *opts.ClearColor
	}
	if opts.Camera != nil {
		s.CameraConfig = *opts.Camera
	}

	stats := s.Structure.Stats()
	logger.Printf("Scene %s: %d triangles, %d materials (%s), BVH %d nodes, depth %d\n",
		s.Name, stats.Triangles, s.Materials.Len(), s.Variant, stats.TotalNodes, stats.MaxDepth)
	return s, nil
}

// IsModelFile reports whether path has an extension the loaders understand
func IsModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj", ".gltf", ".glb", ".ply":
		return true
	}
	return false
}

// FromModelFile loads a model and its textures and builds a scene framed by
// a camera that looks at the model's bounding box
func FromModelFile(ctx context.Context, path string, opts LoadOptions) (*Scene, error) {
	model, err := loaders.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}

	images, err := loaders.LoadTextures(ctx, model.TexturePaths, opts.TextureWorkers)
	if err != nil {
		return nil, fmt.Errorf("scene: load textures for %s: %w", path, err)
	}
	textures := make([]material.ColorSource, len(images))
	for i, img := range images {
		textures[i] = img
	}

	variant := model.Variant
	materials := Materials{Phong: model.Phong, Metallic: model.Metallic}
	if opts.Variant != nil && *opts.Variant != variant {
		materials = ConvertMaterials(variant, materials)
		variant = *opts.Variant
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := New(name, variant, model.Mesh, materials, textures)
	if err != nil {
		return nil, err
	}
	s.CameraConfig = FrameBounds(model.Mesh.Bounds(), s.CameraConfig.VFov)
	return s, nil
}

// FrameBounds returns a camera on the +Z side of bounds, far enough back for
// the bounding sphere to fit the vertical field of view
func FrameBounds(bounds core.AABB, vfov float32) geometry.CameraConfig {
	center := bounds.Center()
	radius := bounds.Size().Length() / 2
	if radius == 0 {
		radius = 1
	}

	half := mgl32.DegToRad(vfov * 0.5)
	distance := radius/math32.Sin(half) + radius*0.1

	return geometry.LookAt(center.Add(core.NewVec3(0, 0, distance)), center)
}

// WithVariant rebuilds the scene with the other packing layout, converting
// materials between variants
func (s *Scene) WithVariant(variant buffers.Variant) (*Scene, error) {
	if variant == s.Variant {
		return s, nil
	}

	mesh := &geometry.Mesh{TriangleMaterials: s.TriangleMaterials}
	for i := 0; i < s.Vertices.Len(); i++ {
		mesh.Vertices = append(mesh.Vertices, s.Vertices.Vertex(uint32(i)))
	}
	mesh.Indices = append([]uint32(nil), s.Indices.Indices()...)

	var current Materials
	for i := 0; i < s.Materials.Len(); i++ {
		if s.Variant == buffers.VariantPhong {
			current.Phong = append(current.Phong, s.Materials.Phong(i))
		} else {
			current.Metallic = append(current.Metallic, s.Materials.MetallicRoughness(i))
		}
	}

	// Metallic vertices carry no material index; restore it from the triangle
	// table, splitting any vertex shared by triangles with different slots
	if s.Variant == buffers.VariantMetallicRoughness {
		type split struct {
			vertex uint32
			slot   int32
		}
		assigned := make([]bool, len(mesh.Vertices))
		splits := make(map[split]uint32)
		for prim, slot := range mesh.TriangleMaterials {
			for k := 0; k < 3; k++ {
				idx := mesh.Indices[3*prim+k]
				switch {
				case !assigned[idx]:
					mesh.Vertices[idx].MaterialIndex = slot
					assigned[idx] = true
				case mesh.Vertices[idx].MaterialIndex != slot:
					key := split{idx, slot}
					dup, ok := splits[key]
					if !ok {
						v := mesh.Vertices[idx]
						v.MaterialIndex = slot
						dup = uint32(len(mesh.Vertices))
						mesh.Vertices = append(mesh.Vertices, v)
						splits[key] = dup
					}
					mesh.Indices[3*prim+k] = dup
				}
			}
		}
	}

	out, err := New(s.Name, variant, mesh, ConvertMaterials(s.Variant, current), s.Textures)
	if err != nil {
		return nil, err
	}
	out.CameraConfig = s.CameraConfig
	out.ClearColor = s.ClearColor
	return out, nil
}
