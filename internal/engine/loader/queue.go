package loader

import (
	"context"
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
)

type task struct {
	req     domain.LoadRequest
	factory ports.Factory
	handle  *Handle
	span    ports.Span
	seq     uint64
	index   int

	// Set when the task is started.
	tier    domain.Tier
	started time.Time
	cancel  context.CancelCauseFunc

	warned bool
}

// taskQueue is a container/heap ordered by priority descending, then
// submission time and sequence ascending.
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.req.Priority != b.req.Priority {
		return a.req.Priority > b.req.Priority
	}
	if !a.req.Submitted.Equal(b.req.Submitted) {
		return a.req.Submitted.Before(b.req.Submitted)
	}
	return a.seq < b.seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
