package loader

import (
	"sync"

	"media-picker/internal/memory"
)

// pool is the bounded decode worker pool. Decode used to be one
// unmanaged goroutine per request, which under fast scrolling meant
// unbounded concurrent ffmpeg work; the pool caps both concurrency
// and queued backlog.
type pool struct {
	tasks chan func()
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
	mon   *memory.Monitor
}

func newPool(workerCount, depth int, mon *memory.Monitor) *pool {
	p := &pool{
		tasks: make(chan func(), depth),
		quit:  make(chan struct{}),
		mon:   mon,
	}
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			if p.mon != nil && !p.mon.WaitIfPaused() {
				return
			}
			task()
		}
	}
}

// submit queues a task without blocking. Returns false when the queue
// is full; the caller decides what a dropped task means.
func (p *pool) submit(task func()) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// close stops the workers. Queued tasks that have not started are
// discarded; running tasks finish.
func (p *pool) close() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
