package service

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultClockSpec reports exam time once per second.
const DefaultClockSpec = "@every 1s"

// ExamClock is the repeating elapsed-time reporter of a running exam.
type ExamClock struct {
	cron *cron.Cron
	once sync.Once
}

// StartExamClock runs tick on the given cron schedule until Stop is called.
func StartExamClock(spec string, tick func()) (*ExamClock, error) {
	if spec == "" {
		spec = DefaultClockSpec
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, tick); err != nil {
		return nil, fmt.Errorf("schedule exam clock: %w", err)
	}
	c.Start()

	return &ExamClock{cron: c}, nil
}

// Stop cancels the clock. It is safe to call more than once and on a nil clock.
// Stop does not wait for a tick in progress.
func (c *ExamClock) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() {
		c.cron.Stop()
	})
}
