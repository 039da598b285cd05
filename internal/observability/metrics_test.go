package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/admin/staff", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/api/admin/staff", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/admin/append", "POST", "BATCH_REJECTED")
	m.RecordIngest("append", 12)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.Requests["/api/admin/staff|GET|200"])
	assert.EqualValues(t, 20, snap.LatencyMs["/api/admin/staff|GET"])
	assert.EqualValues(t, 1, snap.Errors["/api/admin/append|POST|BATCH_REJECTED"])
	assert.EqualValues(t, 12, snap.IngestRows["append"])

	snap.Requests["/api/admin/staff|GET|200"] = 0
	assert.EqualValues(t, 2, m.Snapshot().Requests["/api/admin/staff|GET|200"], "snapshot is a copy")
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordIngest("upload", 1)
	assert.Empty(t, m.Snapshot().Requests)
}
