package ctc

import (
	"runtime"
	"sync"
)

// Batch elements are independent DPs of uneven size, so they are fanned out
// to a shared pool in contiguous chunks. Workers own their scratch buffers,
// which keeps the per-call footprint at one lattice per worker rather than
// one per element.

type dpTask struct {
	job    *job
	es, ee int
	done   chan struct{}
}

type dpPool struct {
	size      int
	tasks     chan dpTask
	doneSlots chan chan struct{}
}

var (
	workPool     *dpPool
	workPoolOnce sync.Once
)

func getWorkPool() *dpPool {
	workPoolOnce.Do(func() {
		size := runtime.GOMAXPROCS(0)
		if size < 1 {
			size = 1
		}
		p := &dpPool{
			size:      size,
			tasks:     make(chan dpTask, size*2),
			doneSlots: make(chan chan struct{}, size),
		}
		for i := 0; i < size; i++ {
			p.doneSlots <- make(chan struct{}, 1)
		}
		for w := 0; w < size; w++ {
			go func() {
				var sc scratch
				for task := range p.tasks {
					for elem := task.es; elem < task.ee; elem++ {
						runElem(&sc, task.job, elem)
					}
					task.done <- struct{}{}
				}
			}()
		}
		workPool = p
	})
	return workPool
}

// dispatch runs the job over the batch, serially or across the pool.
// Element results are independent of the split, so serial and parallel runs
// produce identical output.
func (k *Kernel) dispatch(j *job) {
	workers := k.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	nbatch := j.batch.NBatch
	if workers > nbatch {
		workers = nbatch
	}
	if workers <= 1 {
		var sc scratch
		for elem := 0; elem < nbatch; elem++ {
			runElem(&sc, j, elem)
		}
		return
	}

	pool := getWorkPool()
	if workers > pool.size {
		workers = pool.size
	}
	chunk := (nbatch + workers - 1) / workers

	done := <-pool.doneSlots
	for w := 0; w < workers; w++ {
		es := w * chunk
		ee := min(es+chunk, nbatch)
		pool.tasks <- dpTask{job: j, es: es, ee: ee, done: done}
	}
	for i := 0; i < workers; i++ {
		<-done
	}
	pool.doneSlots <- done
}
