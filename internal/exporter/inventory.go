package exporter

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/fxnlabs/fpga/internal/metrics"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Inventory periodically enumerates the resources matching a filter and
// caches their snapshots.
type Inventory struct {
	mu        sync.RWMutex
	snapshots []opae.Snapshot
	updated   time.Time
	lastErr   error

	rt       *opae.Runtime
	filter   opae.Filter
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewInventory returns an inventory that is empty until Refresh or Start is
// called.
func NewInventory(rt *opae.Runtime, filter opae.Filter, interval time.Duration, logger *zap.Logger) *Inventory {
	return &Inventory{
		rt:       rt,
		filter:   filter,
		interval: interval,
		logger:   logger.Named("inventory"),
	}
}

// Start refreshes once and then keeps refreshing every interval until Stop.
func (inv *Inventory) Start() {
	// Initial fetch to populate cache immediately
	_ = inv.Refresh()

	ctx, cancel := context.WithCancel(context.Background())
	inv.cancel = cancel
	inv.done = make(chan struct{})
	go inv.run(ctx)
}

// Stop ends the polling loop started by Start.
func (inv *Inventory) Stop() {
	if inv.cancel == nil {
		return
	}
	inv.cancel()
	<-inv.done
	inv.cancel = nil
}

func (inv *Inventory) run(ctx context.Context) {
	defer close(inv.done)
	if inv.interval == 0 {
		inv.logger.Info("Polling interval is zero, inventory will not be updated periodically.")
		return
	}
	ticker := time.NewTicker(inv.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = inv.Refresh()
		}
	}
}

// Refresh enumerates the filter now and replaces the cached snapshots. On
// failure the previous snapshots are kept.
func (inv *Inventory) Refresh() error {
	resources, err := inv.rt.Collect(inv.filter)
	if err != nil {
		inv.logger.Error("Failed to update inventory", zap.Stringer("filter", inv.filter), zap.Error(err))
		inv.mu.Lock()
		inv.lastErr = err
		inv.mu.Unlock()
		return err
	}

	snapshots := make([]opae.Snapshot, 0, len(resources))
	for _, r := range resources {
		snapshots = append(snapshots, opae.SnapshotOf(r))
		if err := r.Close(); err != nil {
			inv.logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
	record(snapshots)

	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.snapshots = snapshots
	inv.updated = time.Now()
	inv.lastErr = nil
	inv.logger.Info("Inventory updated successfully", zap.Int("item_count", len(snapshots)))
	return nil
}

// Snapshots returns the cached snapshots and the time they were taken.
func (inv *Inventory) Snapshots() ([]opae.Snapshot, time.Time) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.snapshots, inv.updated
}

// Err returns the error of the last refresh, if it failed.
func (inv *Inventory) Err() error {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.lastErr
}

// record publishes snapshots to the inventory gauges.
func record(snapshots []opae.Snapshot) {
	counts := map[driver.ObjectType]int{driver.DeviceObject: 0, driver.AcceleratorObject: 0}
	metrics.AcceleratorAssigned.Reset()
	for _, s := range snapshots {
		counts[s.Kind]++
		acc := s.Accelerator
		if acc == nil || acc.Assigned == nil {
			continue
		}
		value := 0.0
		if *acc.Assigned {
			value = 1
		}
		metrics.AcceleratorAssigned.WithLabelValues(
			guidLabel(acc.GUID),
			hexLabel(acc.Segment),
			hexLabel(acc.Bus),
			hexLabel(acc.Device),
			hexLabel(acc.Function),
		).Set(value)
	}
	for kind, n := range counts {
		metrics.Resources.WithLabelValues(kind.String()).Set(float64(n))
	}
}

func guidLabel(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func hexLabel[T uint8 | uint16](v *T) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 16)
}
