package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// StoppableWorkers is a collection of goroutines that share a cancellable context and can be
// stopped and awaited together.
type StoppableWorkers interface {
	AddWorkers(...func(context.Context))
	Stop()
	Wait()
	Context() context.Context
}

type stoppableWorkersImpl struct {
	mu         sync.Mutex
	cancelCtx  context.Context
	cancelFunc func()
	active     sync.WaitGroup
}

// NewStoppableWorkers runs the functions in separate goroutines. They can be stopped later.
func NewStoppableWorkers(funcs ...func(context.Context)) StoppableWorkers {
	return NewStoppableWorkersWithContext(context.Background(), funcs...)
}

// NewStoppableWorkersWithContext is like NewStoppableWorkers but derives the workers' context
// from parent, so cancelling parent also stops the workers.
func NewStoppableWorkersWithContext(parent context.Context, funcs ...func(context.Context)) StoppableWorkers {
	cancelCtx, cancelFunc := context.WithCancel(parent)
	workers := &stoppableWorkersImpl{cancelCtx: cancelCtx, cancelFunc: cancelFunc}
	workers.AddWorkers(funcs...)
	return workers
}

// AddWorkers starts a goroutine per function. Calls after Stop are ignored.
func (sw *stoppableWorkersImpl) AddWorkers(funcs ...func(context.Context)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.cancelCtx.Err() != nil {
		return
	}

	sw.active.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer sw.active.Done()
			f(sw.cancelCtx)
		})
	}
}

// Stop cancels the shared context and waits for every worker to return.
func (sw *stoppableWorkersImpl) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.cancelFunc()
	sw.active.Wait()
}

// Wait blocks until every worker has returned without cancelling them.
func (sw *stoppableWorkersImpl) Wait() {
	sw.active.Wait()
}

func (sw *stoppableWorkersImpl) Context() context.Context {
	return sw.cancelCtx
}
