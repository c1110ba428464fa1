package git

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeRunner scripts git command output per argument list. Each stubbed
// reply is consumed once, in order; an unscripted command is an error so
// tests notice unexpected git calls.
type fakeRunner struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   [][]string
}

type reply struct {
	out string
	err error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{replies: make(map[string][]reply)}
}

func (f *fakeRunner) stub(args string, out string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[args] = append(f.replies[args], reply{out: out, err: err})
}

func (f *fakeRunner) Exec(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), args...))

	queued := f.replies[key]
	if len(queued) == 0 {
		return "", fmt.Errorf("unexpected git call: %s", key)
	}
	f.replies[key] = queued[1:]
	return queued[0].out, queued[0].err
}

// callsFor counts how many times the exact argument list was executed.
func (f *fakeRunner) callsFor(args ...string) int {
	key := strings.Join(args, " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if strings.Join(call, " ") == key {
			n++
		}
	}
	return n
}
