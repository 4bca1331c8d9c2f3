package renderer

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/scene"
)

func TestProgressiveSampleCalculation(t *testing.T) {
	config := DefaultProgressiveConfig()
	config.InitialSamples = 1
	config.MaxSamplesPerPixel = 50
	config.MaxPasses = 7

	pr := &ProgressiveRaytracer{config: config}

	// Pass 2-6: (50-1)/6 = 8 samples per pass; pass 7 gets all remaining
	expectedTotalSamples := []int{1, 9, 17, 25, 33, 41, 50}

	for pass := 1; pass <= 7; pass++ {
		assert.Equal(t, expectedTotalSamples[pass-1], pr.getSamplesForPass(pass), "pass %d", pass)
	}

	pr.config.MaxPasses = 1
	assert.Equal(t, 50, pr.getSamplesForPass(1))
}

func TestProgressiveConfig(t *testing.T) {
	config := DefaultProgressiveConfig()

	assert.Equal(t, 64, config.TileSize)
	assert.Equal(t, 1, config.InitialSamples)
	assert.Equal(t, 50, config.MaxSamplesPerPixel)
	assert.Equal(t, 7, config.MaxPasses)
	assert.Equal(t, float32(1), config.Gamma)
	assert.NoError(t, config.Validate())
}

func TestProgressiveConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ProgressiveConfig)
	}{
		{"zero tile size", func(c *ProgressiveConfig) { c.TileSize = 0 }},
		{"zero initial samples", func(c *ProgressiveConfig) { c.InitialSamples = 0 }},
		{"max below initial", func(c *ProgressiveConfig) { c.InitialSamples = 4; c.MaxSamplesPerPixel = 2 }},
		{"zero passes", func(c *ProgressiveConfig) { c.MaxPasses = 0 }},
		{"negative gamma", func(c *ProgressiveConfig) { c.Gamma = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultProgressiveConfig()
			tt.modify(&config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestNewTileGrid(t *testing.T) {
	width, height, tileSize := 400, 225, 64
	tiles := NewTileGrid(width, height, tileSize)

	// 7 x 4 tiles
	require.Len(t, tiles, 28)

	covered := make([][]bool, height)
	for y := range covered {
		covered[y] = make([]bool, width)
	}

	for _, tile := range tiles {
		for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
			for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
				require.True(t, x < width && y < height, "tile %d extends beyond image at (%d,%d)", tile.ID, x, y)
				require.False(t, covered[y][x], "pixel (%d,%d) covered twice", x, y)
				covered[y][x] = true
			}
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			require.True(t, covered[y][x], "pixel (%d,%d) not covered", x, y)
		}
	}
}

func TestTileDeterministicRandom(t *testing.T) {
	bounds := image.Rect(0, 0, 64, 64)
	tile1 := NewTile(42, bounds)
	tile2 := NewTile(42, bounds)
	tile3 := NewTile(43, bounds)

	val1 := tile1.Random.Float32()
	assert.Equal(t, val1, tile2.Random.Float32(), "same id, same sequence")
	assert.NotEqual(t, val1, tile3.Random.Float32(), "different ids, different sequences")
}

func TestNewProgressiveRaytracer_InvalidSize(t *testing.T) {
	s, err := scene.NewTriangleScene()
	require.NoError(t, err)

	_, err = NewProgressiveRaytracer(s, 0, 10, DefaultProgressiveConfig(), core.NopLogger{})
	assert.Error(t, err)

	config := DefaultProgressiveConfig()
	config.TileSize = -1
	_, err = NewProgressiveRaytracer(s, 10, 10, config, core.NopLogger{})
	assert.Error(t, err)
}

func TestRenderProgressive_TriangleScene(t *testing.T) {
	s, err := scene.NewTriangleScene()
	require.NoError(t, err)

	config := DefaultProgressiveConfig()
	config.TileSize = 16
	config.MaxPasses = 2
	config.MaxSamplesPerPixel = 3
	config.NumWorkers = 2

	pr, err := NewProgressiveRaytracer(s, 32, 32, config, core.NopLogger{})
	require.NoError(t, err)

	passChan, tileChan, errChan := pr.RenderProgressive(context.Background(), RenderOptions{TileUpdates: true})

	tiles := 0
	done := make(chan struct{})
	go func() {
		for range tileChan {
			tiles++
		}
		close(done)
	}()

	var passes []PassResult
	for result := range passChan {
		passes = append(passes, result)
	}
	<-done
	for err := range errChan {
		require.NoError(t, err)
	}

	require.Len(t, passes, 2)
	assert.Equal(t, 1, passes[0].PassNumber)
	assert.Equal(t, 1.0, passes[0].Stats.AverageSamples)
	assert.True(t, passes[1].IsLast)
	assert.Equal(t, 3.0, passes[1].Stats.AverageSamples)
	assert.Equal(t, 8, tiles, "4 tiles per pass")

	img := passes[1].Image
	// Flat gray triangle facing the camera, lit at diffuse 0.424: 0.297 -> 75
	assert.Equal(t, color.RGBA{75, 75, 75, 255}, img.RGBAAt(16, 16))
	// The corner misses and gets the white clear color
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(0, 0))
}

func TestRenderPass_TileErrorDrainsPool(t *testing.T) {
	s, err := scene.NewTriangleScene()
	require.NoError(t, err)

	config := DefaultProgressiveConfig()
	config.TileSize = 4
	config.NumWorkers = 2

	pr, err := NewProgressiveRaytracer(s, 8, 8, config, core.NopLogger{})
	require.NoError(t, err)
	pr.workerPool = NewWorkerPool(NewTileRenderer(pr.camera, panicTracer{}), len(pr.tiles), config.NumWorkers)
	defer pr.workerPool.Stop()

	_, _, err = pr.RenderPass(1, nil)
	require.Error(t, err)

	assert.Empty(t, pr.workerPool.results, "no stale results left for the next pass")
	assert.Empty(t, pr.workerPool.tasks)
}

func TestRenderProgressive_Cancelled(t *testing.T) {
	s, err := scene.NewTriangleScene()
	require.NoError(t, err)

	pr, err := NewProgressiveRaytracer(s, 8, 8, DefaultProgressiveConfig(), core.NopLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	passChan, _, errChan := pr.RenderProgressive(ctx, RenderOptions{})
	for range passChan {
		t.Fatal("no pass should complete after cancellation")
	}
	assert.ErrorIs(t, <-errChan, context.Canceled)
}
