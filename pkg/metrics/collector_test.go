package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/parapanda/docker-dns/pkg/events"
	"github.com/parapanda/docker-dns/pkg/nametable"
)

// TestCollectorTracksTableSize verifies the records gauge follows mutations
func TestCollectorTracksTableSize(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	table := nametable.New(broker)
	collector := NewCollector(table, broker)
	collector.Start()
	defer collector.Stop()

	table.Add("web.docker", "10.0.0.5")
	table.Add("db.docker", "10.0.0.6")

	waitForGauge(t, 2)

	table.Remove("web.docker")
	waitForGauge(t, 1)

	assert.GreaterOrEqual(t,
		testutil.ToFloat64(RecordMutationsTotal.WithLabelValues("add")), 2.0)
	assert.GreaterOrEqual(t,
		testutil.ToFloat64(RecordMutationsTotal.WithLabelValues("remove")), 1.0)
}

func waitForGauge(t *testing.T, want float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(RecordsTotal) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("records gauge never reached %v (last %v)", want, testutil.ToFloat64(RecordsTotal))
}
