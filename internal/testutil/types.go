package testutil

import "sync"

// Call records one lifecycle invocation observed by a test stage.
type Call struct {
	Module string
	Phase  string
}

// CallLog collects calls in the order they happen.
type CallLog struct {
	mu    sync.Mutex
	calls []Call
}

// Add appends a call.
func (l *CallLog) Add(module, phase string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{Module: module, Phase: phase})
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Strings renders calls as "module.phase" for compact assertions.
func (l *CallLog) Strings() []string {
	calls := l.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Module + "." + c.Phase
	}
	return out
}
