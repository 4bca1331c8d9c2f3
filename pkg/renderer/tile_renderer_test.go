package renderer

import (
	"image"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/geometry"
)

// mockTracer returns a fixed color and records the rays it was given
type mockTracer struct {
	mu          sync.Mutex
	returnColor core.Vec3
	rays        []core.Ray
}

func (m *mockTracer) RayColor(ray core.Ray) core.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rays = append(m.rays, ray)
	return m.returnColor
}

func newPixelStats(width, height int) [][]PixelStats {
	pixelStats := make([][]PixelStats, height)
	for i := range pixelStats {
		pixelStats[i] = make([]PixelStats, width)
	}
	return pixelStats
}

func TestTileRendererPixelSampling(t *testing.T) {
	camera := geometry.NewCamera(geometry.DefaultCameraConfig(), 2, 2)
	tracer := &mockTracer{returnColor: core.NewVec3(0.7, 0.3, 0.1)}
	renderer := NewTileRenderer(camera, tracer)

	pixelStats := newPixelStats(2, 2)
	stats := renderer.RenderTileBounds(image.Rect(0, 0, 2, 2), pixelStats, rand.New(rand.NewSource(42)), 4)

	assert.Len(t, tracer.rays, 16)
	assert.Equal(t, 4, stats.TotalPixels)
	assert.Equal(t, 16, stats.TotalSamples)
	assert.Equal(t, 4, stats.MaxSamples)
	assert.Equal(t, 4, stats.MinSamples)
	assert.Equal(t, 4.0, stats.AverageSamples)

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, 4, pixelStats[y][x].SampleCount)
			got := pixelStats[y][x].GetColor()
			assert.InDelta(t, 0.7, got.X, 1e-6)
			assert.InDelta(t, 0.3, got.Y, 1e-6)
			assert.InDelta(t, 0.1, got.Z, 1e-6)
		}
	}
}

func TestTileRendererFirstSampleThroughPixelCenter(t *testing.T) {
	camera := geometry.NewCamera(geometry.DefaultCameraConfig(), 3, 3)
	tracer := &mockTracer{}
	renderer := NewTileRenderer(camera, tracer)

	// The center pixel's center is the view direction
	renderer.RenderTileBounds(image.Rect(1, 1, 2, 2), newPixelStats(3, 3), rand.New(rand.NewSource(1)), 1)

	require.Len(t, tracer.rays, 1)
	dir := tracer.rays[0].Direction
	assert.InDelta(t, 0, dir.X, 1e-5)
	assert.InDelta(t, 0, dir.Y, 1e-5)
	assert.InDelta(t, -1, dir.Z, 1e-5)
}

func TestTileRendererIncrementalPasses(t *testing.T) {
	camera := geometry.NewCamera(geometry.DefaultCameraConfig(), 4, 4)
	tracer := &mockTracer{returnColor: core.NewVec3(1, 1, 1)}
	renderer := NewTileRenderer(camera, tracer)

	pixelStats := newPixelStats(4, 4)
	random := rand.New(rand.NewSource(7))
	bounds := image.Rect(0, 0, 4, 4)

	first := renderer.RenderTileBounds(bounds, pixelStats, random, 2)
	second := renderer.RenderTileBounds(bounds, pixelStats, random, 5)

	assert.Equal(t, 32, first.TotalSamples)
	assert.Equal(t, 48, second.TotalSamples, "only the missing 3 samples per pixel")
	assert.Equal(t, 5, pixelStats[3][3].SampleCount)
}

func TestTileRendererDeterministic(t *testing.T) {
	camera := geometry.NewCamera(geometry.DefaultCameraConfig(), 8, 8)
	bounds := image.Rect(0, 0, 8, 8)

	render := func() []core.Ray {
		tracer := &mockTracer{}
		NewTileRenderer(camera, tracer).RenderTileBounds(bounds, newPixelStats(8, 8), rand.New(rand.NewSource(42)), 3)
		return tracer.rays
	}

	assert.Equal(t, render(), render())
}

func TestTileRendererBoundsClipping(t *testing.T) {
	camera := geometry.NewCamera(geometry.DefaultCameraConfig(), 10, 10)
	tracer := &mockTracer{returnColor: core.NewVec3(0.5, 0.5, 0.5)}

	pixelStats := newPixelStats(10, 10)
	NewTileRenderer(camera, tracer).RenderTileBounds(image.Rect(2, 3, 5, 6), pixelStats, rand.New(rand.NewSource(3)), 1)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			inside := x >= 2 && x < 5 && y >= 3 && y < 6
			if inside {
				assert.Equal(t, 1, pixelStats[y][x].SampleCount, "pixel (%d,%d)", x, y)
			} else {
				assert.Zero(t, pixelStats[y][x].SampleCount, "pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestWorkerPool_RendersAllTasks(t *testing.T) {
	camera := geometry.NewCamera(geometry.DefaultCameraConfig(), 16, 16)
	tracer := &mockTracer{returnColor: core.NewVec3(0.2, 0.4, 0.6)}
	tiles := NewTileGrid(16, 16, 8)
	pixelStats := newPixelStats(16, 16)

	pool := NewWorkerPool(NewTileRenderer(camera, tracer), len(tiles), 3)
	assert.Equal(t, 3, pool.GetNumWorkers())
	pool.Start()

	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, PassNumber: 1, TargetSamples: 2, TaskID: i, PixelStats: pixelStats})
	}

	seen := map[int]bool{}
	for range tiles {
		result, ok := pool.GetResult()
		require.True(t, ok)
		require.NoError(t, result.Error)
		assert.Equal(t, 64, result.Stats.TotalPixels)
		seen[result.TaskID] = true
	}
	pool.Stop()
	pool.Stop()

	assert.Len(t, seen, 4)
	assert.Len(t, tracer.rays, 16*16*2)
}

type panicTracer struct{}

func (panicTracer) RayColor(core.Ray) core.Vec3 {
	var indices []uint32
	_ = indices[3] // out-of-range buffer read
	return core.Vec3{}
}

func TestWorkerPool_ReportsShadingPanic(t *testing.T) {
	camera := geometry.NewCamera(geometry.DefaultCameraConfig(), 8, 8)
	tiles := NewTileGrid(8, 8, 8)

	pool := NewWorkerPool(NewTileRenderer(camera, panicTracer{}), len(tiles), 1)
	pool.Start()
	defer pool.Stop()

	pool.SubmitTask(TileTask{Tile: tiles[0], PassNumber: 2, TargetSamples: 1, PixelStats: newPixelStats(8, 8)})
	result, ok := pool.GetResult()
	require.True(t, ok)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "tile 0 pass 2")
}
