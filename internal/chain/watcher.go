package chain

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

var ErrWatcherClosed = errors.New("head watcher closed")

type headSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// Watcher owns one upstream newHeads subscription and fans headers out to
// any number of local subscribers. When the upstream subscription fails,
// every local subscription reports the error on its Err channel.
type Watcher struct {
	src  headSubscriber
	feed event.Feed

	mu      sync.Mutex
	started bool
	sub     ethereum.Subscription
	failed  chan struct{}
	failErr error
	once    sync.Once
	wg      sync.WaitGroup
}

func NewWatcher(src headSubscriber) *Watcher {
	return &Watcher{src: src, failed: make(chan struct{})}
}

// Start opens the upstream subscription. It can only be called once.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("head watcher already started")
	}
	upstream := make(chan *types.Header, 16)
	sub, err := w.src.SubscribeNewHead(ctx, upstream)
	if err != nil {
		return err
	}
	w.started = true
	w.sub = sub
	w.wg.Add(1)
	go w.loop(upstream, sub)
	return nil
}

func (w *Watcher) loop(upstream <-chan *types.Header, sub ethereum.Subscription) {
	defer w.wg.Done()
	for {
		select {
		case h := <-upstream:
			if h != nil {
				w.feed.Send(headerFromGeth(h))
			}
		case err := <-sub.Err():
			if err == nil {
				err = ErrWatcherClosed
			}
			w.fail(err)
			return
		case <-w.failed:
			return
		}
	}
}

func (w *Watcher) fail(err error) {
	w.once.Do(func() {
		w.failErr = err
		close(w.failed)
	})
}

// SubscribeHeads delivers every new header to ch until the subscription is
// released or the watcher fails. ch should be buffered; a slow reader holds
// up every other subscriber.
func (w *Watcher) SubscribeHeads(ch chan<- Header) event.Subscription {
	inner := w.feed.Subscribe(ch)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer inner.Unsubscribe()
		select {
		case <-quit:
			return nil
		case <-w.failed:
			return w.failErr
		}
	})
}

// Close tears down the upstream subscription and fails all local ones.
func (w *Watcher) Close() {
	w.mu.Lock()
	sub := w.sub
	w.mu.Unlock()
	w.fail(ErrWatcherClosed)
	if sub != nil {
		sub.Unsubscribe()
	}
	w.wg.Wait()
}
