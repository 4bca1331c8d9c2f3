package server

import (
	"fmt"
	"net/http"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/renderer"
	"github.com/df07/go-hitshade/pkg/shader"
)

// InspectResponse describes the shading of the primary ray through one pixel
type InspectResponse struct {
	Hit           bool       `json:"hit"`
	PixelX        int        `json:"pixelX"`
	PixelY        int        `json:"pixelY"`
	Color         [3]float32 `json:"color"`
	PrimitiveID   int        `json:"primitiveId,omitempty"`
	Distance      float32    `json:"distance,omitempty"`
	Point         [3]float32 `json:"point"`
	Normal        [3]float32 `json:"normal"`
	TexCoord      [2]float32 `json:"texCoord"`
	DiffuseTerm   float32    `json:"diffuseTerm,omitempty"`
	MaterialIndex int        `json:"materialIndex,omitempty"`
	Albedo        [3]float32 `json:"albedo"`
	BaseColor     [3]float32 `json:"baseColor"`
	Shadowed      bool       `json:"shadowed"`
	Material      any        `json:"material,omitempty"`
}

// handleInspect shades the ray through the center of pixel (x, y) and reports
// every intermediate term
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	query := r.URL.Query()
	pixelX, err := parseIntParam(query, "x", -1, 0, req.Width-1)
	if err == nil && pixelX < 0 {
		err = fmt.Errorf("missing x parameter")
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	pixelY, err := parseIntParam(query, "y", -1, 0, req.Height-1)
	if err == nil && pixelY < 0 {
		err = fmt.Errorf("missing y parameter")
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cfg, err := s.config(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sceneObj, err := s.createScene(r.Context(), cfg, nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	progressiveConfig, err := cfg.ProgressiveConfig()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	camera := geometry.NewCamera(sceneObj.CameraConfig, cfg.Width, cfg.Height)
	tracer := renderer.NewRaytracer(sceneObj, shader.DefaultOptions(sceneObj.Variant, progressiveConfig.Mode))
	ray := camera.GetRay(float32(pixelX)+0.5, float32(pixelY)+0.5)
	inspection := tracer.Inspect(ray)

	response := InspectResponse{
		Hit:    inspection.Hit,
		PixelX: pixelX,
		PixelY: pixelY,
		Color:  array3(inspection.Color),
	}
	if inspection.Hit {
		sample := inspection.Sample
		response.PrimitiveID = sample.PrimitiveID
		response.Distance = inspection.HitT
		response.Point = array3(inspection.Context.HitPoint())
		response.Normal = array3(sample.Normal)
		response.TexCoord = [2]float32{sample.TexCoord.X, sample.TexCoord.Y}
		response.DiffuseTerm = sample.DiffuseTerm
		response.MaterialIndex = sample.MaterialIndex
		response.Albedo = array3(sample.Albedo)
		response.BaseColor = array3(sample.BaseColor)
		response.Shadowed = sample.Shadowed
		response.Material = extractMaterialInfo(sceneObj.Materials, sample.MaterialIndex)
	}
	writeJSON(w, http.StatusOK, response)
}

// extractMaterialInfo returns the typed record in slot, or nil when the slot
// does not exist
func extractMaterialInfo(materials *buffers.MaterialBuffer, slot int) any {
	if slot < 0 || slot >= materials.Len() {
		return nil
	}
	switch materials.Layout().Variant {
	case buffers.VariantPhong:
		return materials.Phong(slot)
	default:
		return materials.MetallicRoughness(slot)
	}
}

func array3(v core.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}
