package renderer

import (
	"fmt"
	"runtime"
	"sync"
)

// TileTask asks a worker to bring one tile up to TargetSamples
type TileTask struct {
	Tile          *Tile
	PassNumber    int
	TargetSamples int
	TaskID        int            // index into the tile list
	PixelStats    [][]PixelStats // shared, tiles never overlap
}

// TileResult reports a finished tile. Error is set when shading the tile
// panicked, which happens only for buffers that break their own layout.
type TileResult struct {
	TaskID int
	Stats  RenderStats
	Error  error
}

// WorkerPool fans tile tasks out to a fixed set of goroutines that share one
// TileRenderer. Results come back in completion order.
type WorkerPool struct {
	renderer   *TileRenderer
	tasks      chan TileTask
	results    chan TileResult
	numWorkers int

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewWorkerPool creates a pool sized for numTiles queued tasks. numWorkers <= 0
// uses one worker per CPU.
func NewWorkerPool(renderer *TileRenderer, numTiles, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		renderer:   renderer,
		tasks:      make(chan TileTask, numTiles),
		results:    make(chan TileResult, numTiles),
		numWorkers: numWorkers,
	}
}

// Start launches the workers; later calls do nothing
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		wp.wg.Add(wp.numWorkers)
		for i := 0; i < wp.numWorkers; i++ {
			go wp.work()
		}
	})
}

// Stop lets queued tasks finish, then closes the result channel. It is safe to
// call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.tasks)
		wp.wg.Wait()
		close(wp.results)
	})
}

// SubmitTask queues a tile task
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.tasks <- task
}

// GetResult blocks for the next finished tile; ok is false after Stop
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.results
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) work() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		wp.results <- wp.render(task)
	}
}

func (wp *WorkerPool) render(task TileTask) (result TileResult) {
	result.TaskID = task.TaskID
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("renderer: tile %d pass %d: %v", task.Tile.ID, task.PassNumber, r)
		}
	}()

	result.Stats = wp.renderer.RenderTileBounds(task.Tile.Bounds, task.PixelStats, task.Tile.Random, task.TargetSamples)
	return result
}
