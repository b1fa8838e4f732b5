package assets

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-scene/engine/core"
)

func init() {
	core.SetLogOutput(io.Discard)
}

type scriptedLoader struct {
	mutex    sync.Mutex
	order    []string
	failures map[string]error
	gate     chan struct{}
	entered  chan string
	released []string
}

func newScriptedLoader() *scriptedLoader {
	return &scriptedLoader{failures: make(map[string]error)}
}

func (sl *scriptedLoader) Load(_ context.Context, source string) (*Bundle, error) {
	if sl.entered != nil {
		sl.entered <- source
	}
	if sl.gate != nil {
		<-sl.gate
	}
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	sl.order = append(sl.order, source)
	if err, ok := sl.failures[source]; ok {
		return nil, err
	}
	return &Bundle{Source: source, Data: []byte(source)}, nil
}

func (sl *scriptedLoader) Unload(b *Bundle) error {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	sl.released = append(sl.released, b.Source)
	return nil
}

func (sl *scriptedLoader) loadOrder() []string {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	return append([]string(nil), sl.order...)
}

func (sl *scriptedLoader) releasedSources() []string {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	return append([]string(nil), sl.released...)
}

// waitForResults pumps Update on the test goroutine until want results were processed.
func waitForResults(t *testing.T, lp *LoadPool, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	got := 0
	for got < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d load results, got %d", want, got)
		}
		got += lp.Update()
		time.Sleep(time.Millisecond)
	}
}
