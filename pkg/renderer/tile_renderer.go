package renderer

import (
	"image"
	"math/rand"

	"github.com/df07/go-hitshade/pkg/geometry"
)

// TileRenderer samples the pixels of a tile through the camera
type TileRenderer struct {
	camera *geometry.Camera
	tracer RayColorer
}

// NewTileRenderer creates a tile renderer for the given camera and dispatcher
func NewTileRenderer(camera *geometry.Camera, tracer RayColorer) *TileRenderer {
	return &TileRenderer{
		camera: camera,
		tracer: tracer,
	}
}

// RenderTileBounds brings every pixel within bounds up to targetSamples.
// Pixels of different tiles never overlap, so tiles may render concurrently
// into the same pixelStats array.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, random *rand.Rand, targetSamples int) RenderStats {
	stats := tr.initRenderStatsForBounds(bounds, targetSamples)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			samplesUsed := tr.samplePixel(i, j, &pixelStats[j][i], random, targetSamples)
			tr.updateStats(&stats, samplesUsed)
		}
	}

	tr.finalizeStats(&stats)
	return stats
}

// samplePixel takes samples until the pixel holds targetSamples. The first
// sample goes through the pixel center, later ones are jittered.
func (tr *TileRenderer) samplePixel(i, j int, ps *PixelStats, random *rand.Rand, targetSamples int) int {
	initialSampleCount := ps.SampleCount

	for ps.SampleCount < targetSamples {
		dx, dy := float32(0.5), float32(0.5)
		if ps.SampleCount > 0 {
			dx, dy = random.Float32(), random.Float32()
		}
		ray := tr.camera.GetRay(float32(i)+dx, float32(j)+dy)
		ps.AddSample(tr.tracer.RayColor(ray))
	}

	return ps.SampleCount - initialSampleCount
}

func (tr *TileRenderer) initRenderStatsForBounds(bounds image.Rectangle, maxSamples int) RenderStats {
	return RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  maxSamples,
		MinSamples:  maxSamples, // reduced per pixel
	}
}

func (tr *TileRenderer) updateStats(stats *RenderStats, samplesUsed int) {
	stats.TotalSamples += samplesUsed
	stats.MinSamples = min(stats.MinSamples, samplesUsed)
	stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
}

func (tr *TileRenderer) finalizeStats(stats *RenderStats) {
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
}
