package frontier

import (
	"context"
	"sync"
)

// Item is a unit of work handed to a worker.
type Item struct {
	// URL is the normalized URL to fetch.
	URL string
	// Depth is the link distance from the nearest seed; seeds are 0.
	Depth int
}

// Stats is a snapshot of frontier counters.
type Stats struct {
	// Queued is the number of URLs waiting to be handed out.
	Queued int
	// InFlight is the number of URLs handed out but not completed.
	InFlight int
	// Visited is the number of completed URLs.
	Visited int
	// Seen is the number of distinct URLs ever accepted.
	Seen int
}

type urlState uint8

const (
	stateQueued urlState = iota + 1
	stateInFlight
	stateVisited
)

// Frontier is a deduplicating work queue. All methods are safe for
// concurrent use; one mutex serializes every operation.
//
// Callers pass URLs already normalized with model.NormalizeURL; the
// frontier compares them as plain strings.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	states   map[string]urlState
	queue    []Item
	inFlight int
	visited  int
	closed   bool
}

// New returns an empty Frontier.
func New() *Frontier {
	f := &Frontier{
		states: make(map[string]urlState),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// OfferSeeds enqueues each not-yet-seen URL at depth 0 and returns how
// many were added.
func (f *Frontier) OfferSeeds(urls []string) int {
	return f.Offer(urls, 0)
}

// Offer enqueues each URL that is not already queued, in flight or
// visited, at the given depth. It returns the number of URLs added.
// Offers after Close are ignored.
func (f *Frontier) Offer(urls []string, depth int) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0
	}

	added := 0
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, seen := f.states[u]; seen {
			continue
		}
		f.states[u] = stateQueued
		f.queue = append(f.queue, Item{URL: u, Depth: depth})
		added++
	}
	if added > 0 {
		f.cond.Broadcast()
	}
	return added
}

// Next pops the oldest queued URL and marks it in flight.
//
// When the queue is empty but other URLs are in flight, Next waits,
// because completing them may offer more URLs. It returns ErrDone once
// the queue is empty with nothing in flight, ErrClosed after Close, and
// ctx.Err() when ctx ends while waiting.
func (f *Frontier) Next(ctx context.Context) (Item, error) {
	// Wake waiters on cancellation. Taking the lock before broadcasting
	// guarantees the waiter is either inside Wait or will see ctx.Err().
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return Item{}, err
		}
		if f.closed {
			return Item{}, ErrClosed
		}
		if len(f.queue) > 0 {
			item := f.queue[0]
			f.queue[0] = Item{}
			f.queue = f.queue[1:]
			f.states[item.URL] = stateInFlight
			f.inFlight++
			return item, nil
		}
		if f.inFlight == 0 {
			return Item{}, ErrDone
		}
		f.cond.Wait()
	}
}

// Complete moves an in-flight URL to visited and wakes waiting workers.
// It reports false if url was not in flight.
func (f *Frontier) Complete(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.states[url] != stateInFlight {
		return false
	}
	f.states[url] = stateVisited
	f.inFlight--
	f.visited++
	f.cond.Broadcast()
	return true
}

// Claim marks url visited on behalf of a worker that reached it some
// other way, such as by following a redirect. It reports false when url
// is in flight or visited already. A queued url is taken out of the
// queue, so it is never handed out.
func (f *Frontier) Claim(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.states[url] {
	case stateInFlight, stateVisited:
		return false
	case stateQueued:
		for i, item := range f.queue {
			if item.URL == url {
				f.queue = append(f.queue[:i], f.queue[i+1:]...)
				break
			}
		}
	}
	f.states[url] = stateVisited
	f.visited++
	f.cond.Broadcast()
	return true
}

// Close stops handing out work. Waiting and future Next calls return
// ErrClosed; in-flight URLs can still be completed.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
}

// Done reports whether the queue is empty and nothing is in flight.
func (f *Frontier) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0 && f.inFlight == 0
}

// Visited reports whether url has been completed.
func (f *Frontier) Visited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[url] == stateVisited
}

// Stats returns a snapshot of the counters.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Queued:   len(f.queue),
		InFlight: f.inFlight,
		Visited:  f.visited,
		Seen:     len(f.states),
	}
}
