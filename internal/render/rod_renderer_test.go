package render

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	mu        sync.Mutex
	started   int
	finished  int
	mutations int
}

func (o *countingObserver) RequestStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) RequestFinished() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
}

func (o *countingObserver) StructureMutated() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mutations++
}

func (o *countingObserver) counts() (int, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started, o.finished, o.mutations
}

// dispatch calls the handler whose parameter type matches event, as EachEvent does
func dispatch(t *testing.T, handlers []interface{}, event interface{}) {
	t.Helper()
	for _, handler := range handlers {
		fn := reflect.ValueOf(handler)
		if fn.Type().In(0) == reflect.TypeOf(event) {
			fn.Call([]reflect.Value{reflect.ValueOf(event)})
			return
		}
	}
	t.Fatalf("no handler for %T", event)
}

func TestActivityBridge_NetworkEvents(t *testing.T) {
	observer := &countingObserver{}
	handlers := newActivityBridge(observer, nil).handlers()

	dispatch(t, handlers, &proto.NetworkRequestWillBeSent{RequestID: "1"})
	dispatch(t, handlers, &proto.NetworkRequestWillBeSent{RequestID: "1"}) // redirect hop
	dispatch(t, handlers, &proto.NetworkRequestWillBeSent{RequestID: "2"})
	dispatch(t, handlers, &proto.NetworkLoadingFinished{RequestID: "1"})
	dispatch(t, handlers, &proto.NetworkLoadingFailed{RequestID: "2"})
	dispatch(t, handlers, &proto.NetworkLoadingFinished{RequestID: "3"})

	started, finished, mutations := observer.counts()
	assert.Equal(t, 2, started)
	assert.Equal(t, 2, finished)
	assert.Equal(t, 0, mutations)
}

func TestActivityBridge_MutationEvents(t *testing.T) {
	observer := &countingObserver{}
	handlers := newActivityBridge(observer, nil).handlers()

	events := []interface{}{
		&proto.DOMChildNodeInserted{},
		&proto.DOMChildNodeRemoved{},
		&proto.DOMChildNodeCountUpdated{},
		&proto.DOMAttributeModified{},
		&proto.DOMCharacterDataModified{},
	}
	for _, event := range events {
		dispatch(t, handlers, event)
	}

	_, _, mutations := observer.counts()
	assert.Equal(t, len(events), mutations)
}

func TestActivityBridge_DocumentUpdatedRequestsTree(t *testing.T) {
	observer := &countingObserver{}
	tracked := make(chan struct{}, 4)
	handlers := newActivityBridge(observer, func() { tracked <- struct{}{} }).handlers()

	dispatch(t, handlers, &proto.DOMDocumentUpdated{})
	dispatch(t, handlers, &proto.DOMDocumentUpdated{})

	for i := 0; i < 2; i++ {
		select {
		case <-tracked:
		case <-time.After(2 * time.Second):
			require.FailNow(t, "document tree was not requested")
		}
	}
	_, _, mutations := observer.counts()
	assert.Equal(t, 2, mutations)
}
