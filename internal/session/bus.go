package session

import (
	"context"
	"sync"
)

// Signal asks every instance to drop a session. Origin lets the sender
// ignore its own broadcast.
type Signal struct {
	Origin string `json:"origin"`
	SID    string `json:"sid"`
}

// Bus carries clear signals between store instances.
type Bus interface {
	Publish(ctx context.Context, sig Signal) error
	// Subscribe delivers signals to fn until ctx is done.
	Subscribe(ctx context.Context, fn func(Signal)) error
}

// LocalBus connects stores living in the same process.
type LocalBus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Signal)
}

func NewLocalBus() *LocalBus { return &LocalBus{subs: make(map[int]func(Signal))} }

func (b *LocalBus) Publish(_ context.Context, sig Signal) error {
	b.mu.Lock()
	fns := make([]func(Signal), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(sig)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, fn func(Signal)) error {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
	return nil
}

// Subscribers is the number of live subscriptions.
func (b *LocalBus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
