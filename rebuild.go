package graphics

import (
	"fmt"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// RebuildToken is the capability returned by RegisterRebuild. Only the
// holder can unregister the entry.
type RebuildToken struct {
	id uint64
}

type rebuildEntry struct {
	id      uint64
	release func()
	rebuild func() error
}

// rebuildRegistry tracks resources that know how to survive device loss.
// Entries run in registration order for both phases. The registry stays
// locked for a whole phase so no partial rebuild is observable.
type rebuildRegistry struct {
	mu      sync.Mutex
	nextID  uint64
	entries []rebuildEntry
}

func (r *rebuildRegistry) register(release func(), rebuild func() error) RebuildToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries = append(r.entries, rebuildEntry{id: r.nextID, release: release, rebuild: rebuild})
	return RebuildToken{id: r.nextID}
}

func (r *rebuildRegistry) unregister(tok RebuildToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].id == tok.id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *rebuildRegistry) releaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		r.entries[i].release()
	}
}

func (r *rebuildRegistry) rebuildAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if err := r.entries[i].rebuild(); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRebuild adds a release/rebuild callback pair to the device loss
// registry and returns the capability token needed to remove it. Textures
// created with a CPU backup register themselves; external resources can
// join the same lifecycle.
func (d *Device) RegisterRebuild(release func(), rebuild func() error) RebuildToken {
	return d.rebuild.register(release, rebuild)
}

// UnregisterRebuild removes a previously registered entry.
func (d *Device) UnregisterRebuild(tok RebuildToken) {
	d.rebuild.unregister(tok)
}

// NotifyLoss runs every registered release callback in registration order.
// Call it when the backend reports the device lost, before Rebuild.
func (d *Device) NotifyLoss() {
	Logger().Warn("graphics: device loss notified")
	d.rebuild.releaseAll()
}

// Rebuild replaces the lost driver with a freshly initialized one and runs
// every registered rebuild callback in registration order. All releases
// must have run first via NotifyLoss. On a callback error the registry
// stops and the error is returned; the device keeps the new driver.
func (d *Device) Rebuild(drv gpucore.Driver) error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return ErrDeviceDestroyed
	}
	old := d.driver
	d.driver = drv
	d.mu.Unlock()

	// The replacement driver starts with no logger of its own.
	propagateLogger(d, Logger())
	old.Destroy()
	if err := d.rebuild.rebuildAll(); err != nil {
		return fmt.Errorf("graphics: rebuild after device loss: %w", err)
	}
	Logger().Info("graphics: device rebuilt")
	return nil
}
