package renderer

import (
	"context"
	"runtime"
	"sync"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/scene"
)

// ViewResult pairs one camera's render with its position in the input
// slice. Err is set when that view's render failed; the other views still
// proceed.
type ViewResult struct {
	Index  int
	Result *Result
	Err    error
}

// RenderViews renders the cloud from every camera using a pool of workers
// and streams results on the returned channel as they complete, in
// whatever order the workers finish. The channel closes once all views are
// done or the context is cancelled. numWorkers <= 0 uses the CPU count.
//
// Each individual render is the normal serial two-pass pipeline; only
// whole views run in parallel, so the rasterizer must tolerate concurrent
// forward calls. The pool never touches the position-gradient buffer, but
// it must not run concurrently with VisibleMask all the same, because the
// probe assumes the rasterizer is otherwise idle.
func (r *Renderer) RenderViews(ctx context.Context, cloud *scene.Cloud, cams []*camera.Camera, opts Options, numWorkers int) <-chan ViewResult {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	tasks := make(chan int, len(cams))
	results := make(chan ViewResult, len(cams))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}

				res, err := r.Render(cloud, cams[idx], opts)

				select {
				case results <- ViewResult{Index: idx, Result: res, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for i := range cams {
		tasks <- i
	}
	close(tasks)

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
