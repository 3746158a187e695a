package frontier

import (
	"sync"

	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
)

// Filter decides whether a URL may enter the queue
type Filter func(url string) bool

// Frontier is the FIFO of pages still to visit together with the visited set.
// Every URL lives in at most one of queued, in-flight or visited.
type Frontier struct {
	mu       sync.Mutex
	queue    []models.FrontierEntry
	queued   map[string]struct{}
	inFlight map[string]struct{}
	visited  map[string]struct{}
	maxDepth int
	maxPages int
	logger   zerolog.Logger
}

// New creates an empty frontier bounded by maxDepth and maxPages
func New(maxDepth, maxPages int, logger zerolog.Logger) *Frontier {
	return &Frontier{
		queued:   make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
		visited:  make(map[string]struct{}),
		maxDepth: maxDepth,
		maxPages: maxPages,
		logger:   logger.With().Str("component", "Frontier").Logger(),
	}
}

// Enqueue appends url at depth unless it is out of depth, already known,
// rejected by filter or would exceed the page budget.
func (f *Frontier) Enqueue(url string, depth int, filter Filter) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if depth < 0 || depth > f.maxDepth {
		f.logger.Debug().Str("url", url).Int("depth", depth).Msg("Rejected: depth exceeded")
		return false
	}
	if f.knownLocked(url) {
		return false
	}
	if filter != nil && !filter(url) {
		f.logger.Debug().Str("url", url).Msg("Rejected: filtered out")
		return false
	}
	if f.countLocked() >= f.maxPages {
		f.logger.Debug().Str("url", url).Int("max_pages", f.maxPages).Msg("Rejected: page budget reached")
		return false
	}

	f.queue = append(f.queue, models.FrontierEntry{URL: url, Depth: depth})
	f.queued[url] = struct{}{}
	return true
}

// Dequeue pops the oldest entry and marks it in flight
func (f *Frontier) Dequeue() (models.FrontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return models.FrontierEntry{}, false
	}
	entry := f.queue[0]
	f.queue[0] = models.FrontierEntry{}
	f.queue = f.queue[1:]
	delete(f.queued, entry.URL)
	f.inFlight[entry.URL] = struct{}{}
	return entry, true
}

// MarkVisited moves url into the visited set. Calling it twice is harmless.
func (f *Frontier) MarkVisited(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.inFlight, url)
	if _, ok := f.queued[url]; ok {
		f.removeQueuedLocked(url)
	}
	f.visited[url] = struct{}{}
}

// Release drops url from in-flight without counting it as visited
func (f *Frontier) Release(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, url)
}

// Clear drops queued entries, keeping the visited set
func (f *Frontier) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = nil
	f.queued = make(map[string]struct{})
}

// Reset empties the queue, in-flight and visited sets
func (f *Frontier) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = nil
	f.queued = make(map[string]struct{})
	f.inFlight = make(map[string]struct{})
	f.visited = make(map[string]struct{})
}

// Len returns the number of queued entries
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the size of the visited set
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// IsVisited reports whether url has already been visited
func (f *Frontier) IsVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[url]
	return ok
}

// BudgetExhausted reports whether the visited set has reached maxPages
func (f *Frontier) BudgetExhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited) >= f.maxPages
}

// MaxDepth returns the configured depth bound
func (f *Frontier) MaxDepth() int {
	return f.maxDepth
}

// Budget returns the configured page budget
func (f *Frontier) Budget() int {
	return f.maxPages
}

func (f *Frontier) knownLocked(url string) bool {
	if _, ok := f.visited[url]; ok {
		return true
	}
	if _, ok := f.queued[url]; ok {
		return true
	}
	_, ok := f.inFlight[url]
	return ok
}

func (f *Frontier) countLocked() int {
	return len(f.queue) + len(f.inFlight) + len(f.visited)
}

func (f *Frontier) removeQueuedLocked(url string) {
	delete(f.queued, url)
	for i, entry := range f.queue {
		if entry.URL == url {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return
		}
	}
}
