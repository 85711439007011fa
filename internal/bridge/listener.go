package bridge

import (
	"context"

	"storebridge/internal/store"
)

// subscription is the cancellable handle for one live update stream. Exactly
// one is live per bridge at a time; StartListening swaps it atomically.
type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the subscription and waits for its delivery goroutine to
// exit, so no update can be delivered after stop returns.
func (s *subscription) stop() {
	s.cancel()
	<-s.done
}

// StartListening begins consuming the store's live transaction-update stream.
// A prior subscription is cancelled and drained first: replace, not stack.
// Verified events are translated and pushed to the outbound channel exactly
// once; unverified events are dropped silently.
func (b *Bridge) StartListening() {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel, done: make(chan struct{})}

	b.mu.Lock()
	prev := b.listener
	b.listener = sub
	b.mu.Unlock()

	if prev != nil {
		prev.stop()
	}

	updates := b.store.TransactionUpdates(ctx)
	go b.consume(ctx, sub, updates)
}

// StopListening cancels the live subscription. After it returns, no further
// updates are delivered, even if the underlying stream had buffered elements
// in flight. No-op when nothing is listening.
func (b *Bridge) StopListening() {
	b.mu.Lock()
	sub := b.listener
	b.listener = nil
	b.mu.Unlock()

	if sub != nil {
		sub.stop()
	}
}

// Listening reports whether a live subscription is active.
func (b *Bridge) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listener != nil
}

func (b *Bridge) consume(ctx context.Context, sub *subscription, updates <-chan store.VerificationResult) {
	defer close(sub.done)
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-updates:
			if !ok {
				return
			}
			// The stream may race cancellation; never deliver past it.
			if ctx.Err() != nil {
				return
			}
			txn, cause := normalize(res)
			if cause != nil {
				b.logger.DebugContext(ctx, "dropping unverified transaction update",
					"transaction_id", res.Transaction.ID,
					"cause", cause,
				)
				continue
			}
			b.publish(ctx, translate(txn))
		}
	}
}
