package pipeline

import (
	"sync"

	"murmur/log"
)

// Group runs background tasks and absorbs their panics, so a failure
// while finishing one dictation never takes the process down.
type Group struct {
	wg sync.WaitGroup
}

func (g *Group) Go(name string, fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("task %s panicked: %v", name, r)
			}
		}()
		fn()
	}()
}

// Wait blocks until every spawned task has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
