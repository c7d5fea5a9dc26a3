package service

import "time"

// deferredTask is a timed action bound to one question position.
type deferredTask struct {
	id    uint64
	timer *time.Timer
}

// taskQueue holds at most one pending task per question position.
// It is not safe for concurrent use; the owning controller guards it.
type taskQueue struct {
	afterFunc func(d time.Duration, f func()) *time.Timer
	nextID    uint64
	tasks     map[int]*deferredTask
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		afterFunc: time.AfterFunc,
		tasks:     make(map[int]*deferredTask),
	}
}

// schedule registers fire to run after delay for pos, superseding any task pending there.
// fire receives the task id, which must be claimed before acting.
func (q *taskQueue) schedule(pos int, delay time.Duration, fire func(id uint64)) {
	q.cancel(pos)

	q.nextID++
	id := q.nextID
	task := &deferredTask{id: id}
	q.tasks[pos] = task
	task.timer = q.afterFunc(delay, func() { fire(id) })
}

// claim removes the task for pos if it is still the one identified by id.
// A false result means the task was cancelled or superseded.
func (q *taskQueue) claim(pos int, id uint64) bool {
	task, ok := q.tasks[pos]
	if !ok || task.id != id {
		return false
	}
	delete(q.tasks, pos)
	return true
}

// cancel stops the task pending for pos, if any.
func (q *taskQueue) cancel(pos int) {
	task, ok := q.tasks[pos]
	if !ok {
		return
	}
	if task.timer != nil {
		task.timer.Stop()
	}
	delete(q.tasks, pos)
}

// cancelAll stops every pending task.
func (q *taskQueue) cancelAll() {
	for pos := range q.tasks {
		q.cancel(pos)
	}
}

// pending returns the number of scheduled tasks.
func (q *taskQueue) pending() int {
	return len(q.tasks)
}
