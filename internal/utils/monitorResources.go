package utils

import (
	"context"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// MonitorResources logs goroutine and heap usage every interval until ctx is done.
func MonitorResources(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var memStats runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)
				log.WithFields(log.Fields{
					"goroutines":   runtime.NumGoroutine(),
					"heap_kb":      float64(memStats.HeapAlloc) / 1024,
					"heap_objects": memStats.HeapObjects,
				}).Info("resource monitor")
			}
		}
	}()
}
