package scheduler

import (
	"sync"

	"controlling_pod/internal/schedule"

	"github.com/robfig/cron/v3"
)

// entry is the cron.Job for one armed trigger. Cron starts a goroutine per
// tick; run serializes them so a slow handler delays its own next firing
// instead of overlapping it. run is owned by the Scheduler and shared by every
// entry ever created for the same key.
type entry struct {
	trigger schedule.Trigger
	id      cron.EntryID
	s       *Scheduler

	run *sync.Mutex

	state     sync.Mutex
	cancelled bool
}

func (e *entry) Run() {
	e.run.Lock()
	defer e.run.Unlock()
	if !e.begin() {
		return
	}
	e.execute()
}

func (e *entry) fire() Outcome {
	e.run.Lock()
	defer e.run.Unlock()
	return e.execute()
}

func (e *entry) execute() Outcome {
	started := e.s.now()
	err := e.s.invoke(e.trigger)
	o := Outcome{
		Key:      e.trigger.Key,
		Trigger:  e.trigger,
		Started:  started,
		Duration: e.s.now().Sub(started),
		Err:      err,
	}
	e.s.record(o)
	return o
}

func (e *entry) begin() bool {
	e.state.Lock()
	defer e.state.Unlock()
	return !e.cancelled
}

func (e *entry) cancel() {
	e.state.Lock()
	e.cancelled = true
	e.state.Unlock()
}
