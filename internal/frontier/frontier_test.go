package frontier

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowAll(string) bool { return true }

func TestFrontier_FIFOAndInFlight(t *testing.T) {
	f := New(3, 10, zerolog.Nop())

	require.True(t, f.Enqueue("https://a.example.com/", 0, allowAll))
	require.True(t, f.Enqueue("https://a.example.com/1", 1, allowAll))
	require.True(t, f.Enqueue("https://a.example.com/2", 1, allowAll))
	assert.Equal(t, 3, f.Len())

	entry, ok := f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example.com/", entry.URL)
	assert.Equal(t, 0, entry.Depth)

	// in flight URLs cannot be queued again
	assert.False(t, f.Enqueue("https://a.example.com/", 1, allowAll))

	f.MarkVisited(entry.URL)
	f.MarkVisited(entry.URL)
	assert.Equal(t, 1, f.VisitedCount())
	assert.True(t, f.IsVisited(entry.URL))
	assert.False(t, f.Enqueue(entry.URL, 1, allowAll))

	next, ok := f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example.com/1", next.URL)
}

func TestFrontier_EnqueueRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *Frontier)
		url    string
		depth  int
		filter Filter
		want   bool
	}{
		{
			name:   "depth above max",
			url:    "https://a.example.com/deep",
			depth:  3,
			filter: allowAll,
		},
		{
			name:   "negative depth",
			url:    "https://a.example.com/neg",
			depth:  -1,
			filter: allowAll,
		},
		{
			name:   "filter rejects",
			url:    "https://b.example.com/",
			depth:  1,
			filter: func(string) bool { return false },
		},
		{
			name: "already queued",
			setup: func(f *Frontier) {
				f.Enqueue("https://a.example.com/dup", 1, allowAll)
			},
			url:    "https://a.example.com/dup",
			depth:  2,
			filter: allowAll,
		},
		{
			name:   "nil filter accepts",
			url:    "https://a.example.com/ok",
			depth:  2,
			filter: nil,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(2, 10, zerolog.Nop())
			if tt.setup != nil {
				tt.setup(f)
			}
			assert.Equal(t, tt.want, f.Enqueue(tt.url, tt.depth, tt.filter))
		})
	}
}

func TestFrontier_BudgetTieRejects(t *testing.T) {
	f := New(5, 3, zerolog.Nop())

	require.True(t, f.Enqueue("https://a.example.com/0", 0, allowAll))
	entry, _ := f.Dequeue()
	f.MarkVisited(entry.URL)
	require.True(t, f.Enqueue("https://a.example.com/1", 1, allowAll))
	_, _ = f.Dequeue()
	require.True(t, f.Enqueue("https://a.example.com/2", 1, allowAll))

	// visited(1) + inFlight(1) + queued(1) == maxPages
	assert.False(t, f.Enqueue("https://a.example.com/3", 1, allowAll))
	assert.False(t, f.BudgetExhausted())
}

func TestFrontier_ClearAndReset(t *testing.T) {
	f := New(2, 10, zerolog.Nop())
	f.Enqueue("https://a.example.com/", 0, allowAll)
	entry, _ := f.Dequeue()
	f.MarkVisited(entry.URL)
	f.Enqueue("https://a.example.com/x", 1, allowAll)

	f.Clear()
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 1, f.VisitedCount())
	_, ok := f.Dequeue()
	assert.False(t, ok)

	f.Reset()
	assert.Equal(t, 0, f.VisitedCount())
	assert.True(t, f.Enqueue("https://a.example.com/", 0, allowAll))
}

func TestFrontier_NeverExceedsBudgetConcurrently(t *testing.T) {
	f := New(1, 20, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Enqueue(fmt.Sprintf("https://a.example.com/%d", i), 1, allowAll)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, f.Len())

	seen := make(map[string]bool)
	for {
		entry, ok := f.Dequeue()
		if !ok {
			break
		}
		assert.False(t, seen[entry.URL], "duplicate dequeue of %s", entry.URL)
		seen[entry.URL] = true
		f.MarkVisited(entry.URL)
	}
	assert.Equal(t, 20, f.VisitedCount())
	assert.True(t, f.BudgetExhausted())
}
