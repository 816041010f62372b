// Package telemetry reports process health while the evaluation sweeps run:
// CPU, memory, and goroutine counts sampled on a fixed interval.
package telemetry

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// RuntimeSnapshot is one sample of process and host health.
type RuntimeSnapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryUsed    uint64    `json:"memory_used"`
	MemoryTotal   uint64    `json:"memory_total"`
	MemoryPercent float64   `json:"memory_percent"`
	HeapAlloc     uint64    `json:"heap_alloc"`
	HeapSys       uint64    `json:"heap_sys"`
	Goroutines    int       `json:"goroutines"`
	NumGC         uint32    `json:"num_gc"`
	SampledAt     time.Time `json:"sampled_at"`
}

// RuntimeMonitor samples runtime health on an interval and keeps the latest
// snapshot available for health endpoints and logging.
type RuntimeMonitor struct {
	logger   *logrus.Logger
	interval time.Duration

	mu       sync.RWMutex
	latest   RuntimeSnapshot
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRuntimeMonitor creates a monitor. Non-positive intervals fall back to 30s.
func NewRuntimeMonitor(logger *logrus.Logger, interval time.Duration) *RuntimeMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &RuntimeMonitor{
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins sampling until Stop is called or the context is cancelled.
// It blocks; run it in its own goroutine.
func (m *RuntimeMonitor) Start(ctx context.Context) {
	m.logger.WithField("interval", m.interval).Info("starting runtime monitor")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sample(ctx)
	for {
		select {
		case <-ticker.C:
			m.sample(ctx)
		case <-m.stopChan:
			m.logger.Info("runtime monitor stopped")
			return
		case <-ctx.Done():
			m.logger.Info("runtime monitor stopped: context cancelled")
			return
		}
	}
}

// Stop halts sampling. Safe to call more than once.
func (m *RuntimeMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Latest returns the most recent snapshot.
func (m *RuntimeMonitor) Latest() RuntimeSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *RuntimeMonitor) sample(ctx context.Context) {
	snapshot := RuntimeSnapshot{SampledAt: time.Now().UTC()}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snapshot.CPUPercent = percents[0]
	} else if err != nil {
		m.logger.WithError(err).Debug("cpu sampling failed")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snapshot.MemoryUsed = vm.Used
		snapshot.MemoryTotal = vm.Total
		snapshot.MemoryPercent = vm.UsedPercent
	} else {
		m.logger.WithError(err).Debug("memory sampling failed")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snapshot.HeapAlloc = ms.HeapAlloc
	snapshot.HeapSys = ms.HeapSys
	snapshot.NumGC = ms.NumGC
	snapshot.Goroutines = runtime.NumGoroutine()

	m.mu.Lock()
	m.latest = snapshot
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"cpu_percent":    snapshot.CPUPercent,
		"memory_percent": snapshot.MemoryPercent,
		"heap_alloc":     snapshot.HeapAlloc,
		"goroutines":     snapshot.Goroutines,
	}).Debug("runtime sample collected")
}
