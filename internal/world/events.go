package world

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/udisondev/portalgo/internal/model"
)

type pendingInput struct {
	fireAt    float64
	seq       uint64
	target    string
	input     string
	param     string
	activator Handle
	caller    Handle
}

// eventQueue holds inputs waiting for their delay to pass, ordered by fire
// time and then by the order they were queued.
type eventQueue struct {
	pending []pendingInput
	seq     uint64
}

func (q *eventQueue) push(ev pendingInput) {
	q.seq++
	ev.seq = q.seq
	i, _ := slices.BinarySearchFunc(q.pending, ev, func(a, b pendingInput) int {
		switch {
		case a.fireAt < b.fireAt:
			return -1
		case a.fireAt > b.fireAt:
			return 1
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	q.pending = slices.Insert(q.pending, i, ev)
}

func (q *eventQueue) popDue(now float64) (pendingInput, bool) {
	if len(q.pending) == 0 || q.pending[0].fireAt > now {
		return pendingInput{}, false
	}
	ev := q.pending[0]
	q.pending = q.pending[1:]
	return ev, true
}

// PendingInputs returns the number of queued inputs.
func (w *World) PendingInputs() int { return len(w.events.pending) }

// FireOutput queues every connection of caller's output. Connections with a
// limited number of uses are dropped once used up.
func (w *World) FireOutput(caller *Entity, output string, activator *Entity) {
	key := strings.ToLower(output)
	conns := caller.outputs[key]
	if len(conns) == 0 {
		return
	}

	var act Handle
	if activator != nil {
		act = activator.Handle()
	}

	kept := conns[:0]
	for _, c := range conns {
		w.QueueInput(c.Target, c.Input, c.Param, c.Delay, act, caller.Handle())
		if c.Times != model.FireAlways {
			c.Times--
			if c.Times <= 0 {
				continue
			}
		}
		kept = append(kept, c)
	}
	caller.outputs[key] = kept
}

// QueueInput schedules input for every entity matching target after delay
// seconds. Zero-delay inputs are delivered in the same frame's I/O pass.
func (w *World) QueueInput(target, input, param string, delay float64, activator, caller Handle) {
	w.events.push(pendingInput{
		fireAt:    w.clock.now + delay,
		target:    target,
		input:     input,
		param:     param,
		activator: activator,
		caller:    caller,
	})
}

func (w *World) serviceEvents() {
	// Inputs queued while servicing with zero delay run in this pass too;
	// the cap guards against connection loops.
	for range 4096 {
		ev, ok := w.events.popDue(w.clock.now)
		if !ok {
			return
		}
		activator, _ := w.Resolve(ev.activator)
		caller, _ := w.Resolve(ev.caller)
		for _, target := range w.resolveTargets(ev.target, activator, caller) {
			w.AcceptInput(target, ev.input, activator, ev.param)
		}
	}
	if len(w.events.pending) > 0 && w.events.pending[0].fireAt <= w.clock.now {
		slog.Warn("entity I/O loop detected, deferring remaining inputs", "pending", len(w.events.pending))
	}
}

func (w *World) resolveTargets(target string, activator, caller *Entity) []*Entity {
	switch strings.ToLower(target) {
	case "!self", "!caller":
		if caller != nil {
			return []*Entity{caller}
		}
		return nil
	case "!activator":
		if activator != nil {
			return []*Entity{activator}
		}
		return nil
	}
	if named := w.FindByName(target); len(named) > 0 {
		return named
	}
	return w.FindByClassname(target)
}

// AcceptInput delivers input to e. Kill, AddOutput and FireUser1-4 are
// handled for every class; other inputs go to the behavior.
func (w *World) AcceptInput(e *Entity, input string, activator *Entity, param string) bool {
	if e.IsRemoved() {
		return false
	}
	switch lower := strings.ToLower(input); lower {
	case "kill":
		w.Remove(e)
		return true
	case "addoutput":
		return w.addOutputInput(e, param)
	case "fireuser1", "fireuser2", "fireuser3", "fireuser4":
		w.FireOutput(e, "OnUser"+lower[len(lower)-1:], activator)
		return true
	}

	if ia, ok := e.behavior.(InputAcceptor); ok && ia.AcceptInput(w, e, input, activator, param) {
		return true
	}
	slog.Debug("unhandled input", "entity", e.id, "classname", e.classname, "input", input)
	return false
}

// addOutputInput handles "OnSomething target:input:param:delay:times" or a
// plain "key value" pair.
func (w *World) addOutputInput(e *Entity, param string) bool {
	key, value, ok := strings.Cut(strings.TrimSpace(param), " ")
	if !ok {
		slog.Warn("AddOutput without value", "entity", e.id, "param", param)
		return false
	}
	if len(key) > 2 && strings.EqualFold(key[:2], "on") {
		value = strings.ReplaceAll(value, ":", ",")
	}
	return e.KeyValue(key, value)
}
