// internal/mailer/recorder.go
package mailer

import (
	"context"
	"sync"
)

// Recorder is an in-memory Sender that keeps every message it is given.
// When Err is set, Send returns it wrapped in a *DispatchError instead.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message

	Err error
}

// Send records msg or fails with Err.
func (r *Recorder) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return &DispatchError{Stage: StageSend, Err: err}
	}
	if r.Err != nil {
		return &DispatchError{Stage: StageSend, Err: r.Err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}
