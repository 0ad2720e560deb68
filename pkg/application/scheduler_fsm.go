package application

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Scheduler states.
const (
	SchedulerIdle     = "idle"
	SchedulerPending  = "pending"
	SchedulerInFlight = "in_flight"
	SchedulerDisposed = "disposed"
)

// Scheduler events.
const (
	eventEdit    = "edit"
	eventSkip    = "skip"
	eventSettle  = "settle"
	eventResolve = "resolve"
	eventDispose = "dispose"
)

type schedulerContext struct {
	ID string
}

// schedulerFSM tracks the scheduler lifecycle. It is not safe for concurrent
// use; the scheduler serializes access under its own mutex.
type schedulerFSM struct {
	interpreter *statekit.Interpreter[schedulerContext]
}

func newSchedulerFSM(id string) (*schedulerFSM, error) {
	builder := statekit.NewMachine[schedulerContext]("realtime-scheduler").
		WithInitial(statekit.StateID(SchedulerIdle)).
		WithContext(schedulerContext{ID: id})

	builder.State(SchedulerIdle).
		On(eventEdit).Target(SchedulerPending).
		On(eventDispose).Target(SchedulerDisposed).
		Done()

	// A newer edit while a cycle is in flight re-arms the debounce; the
	// in-flight cycle finishes and is discarded as stale.
	builder.State(SchedulerPending).
		On(eventSkip).Target(SchedulerIdle).
		On(eventSettle).Target(SchedulerInFlight).
		On(eventDispose).Target(SchedulerDisposed).
		Done()

	builder.State(SchedulerInFlight).
		On(eventEdit).Target(SchedulerPending).
		On(eventResolve).Target(SchedulerIdle).
		On(eventDispose).Target(SchedulerDisposed).
		Done()

	builder.State(SchedulerDisposed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &schedulerFSM{interpreter: interpreter}, nil
}

// send applies an event and reports whether the state changed.
func (f *schedulerFSM) send(event string) bool {
	before := f.current()
	f.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	return f.current() != before
}

func (f *schedulerFSM) current() string {
	return string(f.interpreter.State().Value)
}
