package ttb

import (
	"sync"

	"github.com/pkg/errors"
)

//Task is one unit of work for a Pool.
type Task interface {
	Run()
}

//Pool runs tasks on a fixed number of worker goroutines.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup
}

//NewPool starts threadsNum workers.
func NewPool(threadsNum int) *Pool {
	pool := &Pool{tasks: make(chan Task)}
	for worker := 0; worker < threadsNum; worker++ {
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			for task := range pool.tasks {
				task.Run()
			}
		}()
	}
	return pool
}

//AddTask queues one task. Blocks while all workers are busy.
func (pool *Pool) AddTask(task Task) {
	pool.tasks <- task
}

//Close signals that no more tasks are coming.
func (pool *Pool) Close() {
	close(pool.tasks)
}

//WaitAll blocks until every queued task has finished. Call Close first.
func (pool *Pool) WaitAll() {
	pool.wg.Wait()
}

//TaskCompileTree compiles one tree of an ensemble and records the outcome in
//its result slot.
type TaskCompileTree struct {
	treeIndex int
	compile   func(treeIndex int) error
	errs      []error
}

//Run executes the per-tree compilation.
func (task *TaskCompileTree) Run() {
	task.errs[task.treeIndex] = task.compile(task.treeIndex)
}

//forEachTree runs a per-tree compilation step for every tree index, fanning out
//over a pool when threadsNum allows it. The compile functions write into
//disjoint slots, so no locking is needed; the first error in tree order wins.
func forEachTree(numTrees, threadsNum int, compile func(treeIndex int) error) error {
	errs := make([]error, numTrees)

	if threadsNum <= 1 {
		for treeIndex := 0; treeIndex < numTrees; treeIndex++ {
			errs[treeIndex] = compile(treeIndex)
		}
	} else {
		taskPool := NewPool(threadsNum)
		for treeIndex := 0; treeIndex < numTrees; treeIndex++ {
			taskPool.AddTask(&TaskCompileTree{treeIndex: treeIndex, compile: compile, errs: errs})
		}
		taskPool.Close()
		taskPool.WaitAll()
	}

	for treeIndex, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "tree %d", treeIndex)
		}
	}
	return nil
}
