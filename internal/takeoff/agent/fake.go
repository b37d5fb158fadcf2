package agent

import (
	"context"
	"sync"
)

// FakeExecutor is a scripted Executor test double: each call to Invoke
// pops the next queued reply (or error) for the given agent name. Tests
// use this in place of ProcessExecutor so the full pipeline can run
// without spawning real subprocesses.
type FakeExecutor struct {
	mu      sync.Mutex
	replies map[string][]fakeReply
	calls   []FakeCall
}

type fakeReply struct {
	text string
	err  error
}

// FakeCall records one observed Invoke call, for assertions on call order
// and count.
type FakeCall struct {
	AgentName string
	Prompt    string
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{replies: make(map[string][]fakeReply)}
}

// QueueReply appends a successful reply to be returned on the next Invoke
// for agentName.
func (f *FakeExecutor) QueueReply(agentName, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[agentName] = append(f.replies[agentName], fakeReply{text: reply})
}

// QueueError appends a failing call for agentName.
func (f *FakeExecutor) QueueError(agentName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[agentName] = append(f.replies[agentName], fakeReply{err: err})
}

func (f *FakeExecutor) Invoke(ctx context.Context, agentName, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, FakeCall{AgentName: agentName, Prompt: prompt})

	queue := f.replies[agentName]
	if len(queue) == 0 {
		return "", nil
	}
	next := queue[0]
	f.replies[agentName] = queue[1:]
	if next.err != nil {
		return "", next.err
	}
	return next.text, nil
}

// Calls returns every Invoke call observed so far, in order.
func (f *FakeExecutor) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}
