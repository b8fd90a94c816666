package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// GradBuffer is the mutable position-gradient buffer shared between the
// visibility prober and an external training step. Only one logical phase
// may own it at a time, so access goes through Exclusive, which locks the
// buffer and guarantees it is zeroed again on every exit path. A probe can
// therefore never leak residual gradients into an unrelated backward pass.
type GradBuffer struct {
	mu   sync.Mutex
	grad []mgl32.Vec3
}

func newGradBuffer(n int) *GradBuffer {
	return &GradBuffer{grad: make([]mgl32.Vec3, n)}
}

// Len returns the number of per-splat gradient entries.
func (g *GradBuffer) Len() int { return len(g.grad) }

// Exclusive runs fn with sole access to the gradient slice. The slice is
// zeroed when fn returns, whether it succeeds, fails or panics. fn must not
// retain the slice beyond the call.
func (g *GradBuffer) Exclusive(fn func(grad []mgl32.Vec3) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer g.zero()
	return fn(g.grad)
}

// Grad exposes the raw gradient slice for a training integration that
// manages its own backward/zero cycle. Rendering code uses Exclusive
// instead; mixing the two concurrently is a caller error.
func (g *GradBuffer) Grad() []mgl32.Vec3 { return g.grad }

// Zero clears every gradient entry.
func (g *GradBuffer) Zero() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.zero()
}

func (g *GradBuffer) zero() {
	for i := range g.grad {
		g.grad[i] = mgl32.Vec3{}
	}
}
