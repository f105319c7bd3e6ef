package main

import (
	"context"
	"hash/fnv"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/sourcegraph/conc"
)

// dispatcher applies messages on a fixed set of workers. Every message for
// one train ID goes to the same worker, so a train's reports are applied in
// the order they arrived.
type dispatcher struct {
	shards []chan types.TrustMessage
	apply  func(context.Context, types.TrustMessage)
	wg     conc.WaitGroup
}

func newDispatcher(workers int, apply func(context.Context, types.TrustMessage)) *dispatcher {
	d := &dispatcher{
		shards: make([]chan types.TrustMessage, workers),
		apply:  apply,
	}
	for i := range d.shards {
		d.shards[i] = make(chan types.TrustMessage, 64)
	}
	return d
}

func (d *dispatcher) start(ctx context.Context) {
	for _, shard := range d.shards {
		d.wg.Go(func() {
			for msg := range shard {
				d.apply(ctx, msg)
			}
		})
	}
}

func (d *dispatcher) dispatch(msg types.TrustMessage) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(msg.Body.TrainID))
	d.shards[h.Sum32()%uint32(len(d.shards))] <- msg
}

// stop drains queued messages and waits for the workers.
func (d *dispatcher) stop() {
	for _, shard := range d.shards {
		close(shard)
	}
	d.wg.Wait()
}
