// Package aitest provides scripted completers for tests.
package aitest

import (
	"context"
	"sync"
)

// Call is one recorded Complete invocation.
type Call struct {
	Prompt      string
	Temperature *float64
}

// Reply is a scripted result; Err wins over Text.
type Reply struct {
	Text string
	Err  error
}

// Completer replays Replies in order and repeats the last one when exhausted.
type Completer struct {
	mu      sync.Mutex
	Replies []Reply
	Calls   []Call
}

func New(replies ...Reply) *Completer {
	return &Completer{Replies: replies}
}

func Text(s string) Reply   { return Reply{Text: s} }
func Error(err error) Reply { return Reply{Err: err} }

func (c *Completer) Complete(ctx context.Context, prompt string, temperature *float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, Call{Prompt: prompt, Temperature: temperature})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(c.Replies) == 0 {
		return "", nil
	}
	i := len(c.Calls) - 1
	if i >= len(c.Replies) {
		i = len(c.Replies) - 1
	}
	r := c.Replies[i]
	return r.Text, r.Err
}

func (c *Completer) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

func (c *Completer) LastCall() Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Calls) == 0 {
		return Call{}
	}
	return c.Calls[len(c.Calls)-1]
}
