package observability

import (
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// BoardStats is the snapshot served on /healthz.
type BoardStats struct {
	UptimeSeconds    int64  `json:"uptime_seconds"`
	MessagesAppended uint64 `json:"messages_appended"`
	FeedRenders      uint64 `json:"feed_renders"`
	SuppressedPolls  uint64 `json:"suppressed_polls"`
	RSSMb            uint64 `json:"rss_mb"`
	AllocMemMb       uint64 `json:"alloc_mem_mb"`
	NumGC            uint32 `json:"num_gc"`
}

// Monitor aggregates counters fed from the request path. All methods are
// safe for concurrent use.
type Monitor struct {
	startedAt  time.Time
	appended   atomic.Uint64
	renders    atomic.Uint64
	suppressed atomic.Uint64
	proc       *process.Process
}

func NewMonitor() *Monitor {
	// Failure to resolve our own process only blanks the RSS field.
	p, _ := process.NewProcess(int32(os.Getpid()))
	return &Monitor{startedAt: time.Now(), proc: p}
}

func (m *Monitor) MessageAppended() { m.appended.Add(1) }
func (m *Monitor) FeedRendered()    { m.renders.Add(1) }
func (m *Monitor) PollSuppressed()  { m.suppressed.Add(1) }

func (m *Monitor) Snapshot() BoardStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := BoardStats{
		UptimeSeconds:    int64(time.Since(m.startedAt).Seconds()),
		MessagesAppended: m.appended.Load(),
		FeedRenders:      m.renders.Load(),
		SuppressedPolls:  m.suppressed.Load(),
		AllocMemMb:       mem.Alloc / 1024 / 1024,
		NumGC:            mem.NumGC,
	}
	if m.proc != nil {
		if info, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSMb = info.RSS / 1024 / 1024
		}
	}
	return stats
}
