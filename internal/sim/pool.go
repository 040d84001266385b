package sim

import (
	"runtime"
	"sync"
)

// workerPool runs jobs on at most size goroutines.
type workerPool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &workerPool{sem: make(chan struct{}, size)}
}

func (p *workerPool) Go(job func()) {
	p.wg.Add(1)
	p.sem <- struct{}{}
	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		job()
	}()
}

func (p *workerPool) Wait() { p.wg.Wait() }
