package surface

import "context"

// Pending tracks an asynchronous decode-and-commit.
type Pending struct {
	done      chan struct{}
	err       error
	committed bool
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) finish(committed bool, err error) {
	p.committed = committed
	p.err = err
	close(p.done)
}

// Done is closed once the load has either committed or been dropped.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns why the load did not commit. It is only meaningful after Done
// is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Committed reports whether the load reached the surface.
func (p *Pending) Committed() bool {
	select {
	case <-p.done:
		return p.committed
	default:
		return false
	}
}

// Wait blocks until the load finishes or ctx ends.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
