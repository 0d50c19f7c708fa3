/*
Package events provides an in-process broker for name table mutations.

Every add, remove, and rename applied to the name table is published as an
Event. Subscribers receive events on buffered channels; a slow subscriber
drops events rather than blocking table mutation, so the broker is an
observation channel, not a source of truth.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for ev := range sub {
			fmt.Println(ev.Type, ev.Name)
		}
	}()

The metrics collector is the primary consumer, keeping record counters in
sync without coupling the table to prometheus.
*/
package events
