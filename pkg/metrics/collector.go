package metrics

import (
	"github.com/parapanda/docker-dns/pkg/events"
	"github.com/parapanda/docker-dns/pkg/nametable"
)

// Collector keeps the table metrics in sync by consuming mutation events
// from the broker.
type Collector struct {
	table  *nametable.Table
	broker *events.Broker
	sub    events.Subscriber
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewCollector creates a collector for the given table and broker.
func NewCollector(table *nametable.Table, broker *events.Broker) *Collector {
	return &Collector{
		table:  table,
		broker: broker,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start subscribes to the broker and begins collecting.
func (c *Collector) Start() {
	c.sub = c.broker.Subscribe()
	RecordsTotal.Set(float64(c.table.Len()))
	go c.run()
}

// Stop unsubscribes and stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
	<-c.doneCh
	c.broker.Unsubscribe(c.sub)
}

func (c *Collector) run() {
	defer close(c.doneCh)
	for {
		select {
		case ev, ok := <-c.sub:
			if !ok {
				return
			}
			c.record(ev)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Collector) record(ev *events.Event) {
	switch ev.Type {
	case events.EventRecordAdded:
		RecordMutationsTotal.WithLabelValues("add").Inc()
	case events.EventRecordRemoved:
		RecordMutationsTotal.WithLabelValues("remove").Inc()
	case events.EventRecordRenamed:
		RecordMutationsTotal.WithLabelValues("rename").Inc()
	}
	RecordsTotal.Set(float64(c.table.Len()))
}
