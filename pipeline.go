package starlake

import (
	"io"
	"sync"
)

// NamedReadCloser is a reader for one raw object which knows the
// object's name (file path, S3 key, etc).
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource is the interface for getting raw objects one reader at a
// time. NextReader returns io.EOF once the source is exhausted.
// Implementations of RawSource should be thread safe.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// Walk drains src on a pool of workers, handing each reader to fn. fn
// is responsible for closing the reader. The first error from src or fn
// stops the pool (workers finish the object they are on) and is
// returned after all workers exit.
func Walk(src RawSource, workers int, fn func(NamedReadCloser) error) error {
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var first error

	fail := func(err error) {
		mu.Lock()
		if first == nil {
			first = err
		}
		mu.Unlock()
	}
	stopped := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return first != nil
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stopped() {
				reader, err := src.NextReader()
				if err == io.EOF {
					return
				}
				if err != nil {
					fail(err)
					return
				}
				if err := fn(reader); err != nil {
					fail(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	return first
}
