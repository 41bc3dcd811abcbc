package processor

import (
	"sync"
	"time"

	"github.com/mauv0809/tankbot/internal/metrics"
)

// TaskTimeout bounds a single background side effect.
const TaskTimeout = 2 * time.Minute

// Processor runs the side effects of a committed write: forum sync and
// record announcements. Failures are logged and counted, never rolled back.
type Processor struct {
	syncer   Syncer
	ranker   Ranker
	notifier Notifier
	metrics  metrics.Metrics
	counters metrics.MetricsStore
	wg       sync.WaitGroup
}
