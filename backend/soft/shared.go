package soft

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/graphics/gpucore"
)

// keyedMutex mirrors the acquire/release-by-key synchronization of shared
// GPU surfaces. A fresh mutex is released with key zero, so the creating
// side's initial acquire of key zero succeeds immediately.
type keyedMutex struct {
	mu   sync.Mutex
	cond *sync.Cond
	held bool
	key  uint64
}

func newKeyedMutex() *keyedMutex {
	k := &keyedMutex{}
	k.cond = sync.NewCond(&k.mu)
	return k
}

// acquire blocks until the mutex is released with the requested key. A
// timeout of zero or less waits without bound.
func (k *keyedMutex) acquire(key uint64, timeoutMS int64) error {
	var deadline time.Time
	if timeoutMS > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
		t := time.AfterFunc(time.Duration(timeoutMS)*time.Millisecond, k.cond.Broadcast)
		defer t.Stop()
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	for k.held || k.key != key {
		if timeoutMS > 0 && !time.Now().Before(deadline) {
			return ErrMutexTimeout
		}
		k.cond.Wait()
	}
	k.held = true
	return nil
}

// release hands the mutex off with the given key and wakes all waiters.
func (k *keyedMutex) release(key uint64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.held {
		return fmt.Errorf("soft: keyed mutex released while not held")
	}
	k.held = false
	k.key = key
	k.cond.Broadcast()
	return nil
}

// texBroker is the in-process exchange for shared textures. Export hands
// out a handle; open on any soft driver returns a view over the exporter's
// storage, sharing its keyed mutex.
type texBroker struct {
	mu      sync.Mutex
	next    gpucore.SharedHandle
	entries map[gpucore.SharedHandle]*Texture
	// foreign handles resolve to descriptors with no abstract format,
	// standing in for surfaces exported by non-soft devices.
	foreign map[gpucore.SharedHandle]struct{}
}

var broker = &texBroker{
	entries: map[gpucore.SharedHandle]*Texture{},
	foreign: map[gpucore.SharedHandle]struct{}{},
}

func (b *texBroker) export(t *Texture) gpucore.SharedHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	h := b.next
	b.entries[h] = t
	return h
}

// ExportForeign registers a handle that resolves to a native format with
// no abstract mapping, as happens when another process exports a surface
// the conversion table cannot express. Opening it fails at the resource
// layer.
func ExportForeign() gpucore.SharedHandle {
	broker.mu.Lock()
	defer broker.mu.Unlock()
	broker.next++
	h := broker.next
	broker.foreign[h] = struct{}{}
	return h
}

func (b *texBroker) open(d *Driver, h gpucore.SharedHandle) (gpucore.DriverTexture, *gpucore.TextureDesc, error) {
	b.mu.Lock()
	src, ok := b.entries[h]
	_, isForeign := b.foreign[h]
	b.mu.Unlock()
	if isForeign {
		desc := &gpucore.TextureDesc{
			Kind: gpucore.Texture2D, Width: 1, Height: 1, Depth: 1,
			Format: gpucore.FormatUnknown, Levels: 1,
		}
		return &Texture{drv: d, desc: *desc, view: true, handle: h}, desc, nil
	}
	if !ok {
		return nil, nil, fmt.Errorf("soft: no texture exported under handle %d", h)
	}
	// Imported textures always present a single level, matching what the
	// native open reports regardless of the exporter's chain.
	desc := src.desc
	desc.Levels = 1
	v := src.wrap(&desc)
	v.handle = h
	return v, &desc, nil
}

func (b *texBroker) withdraw(h gpucore.SharedHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, h)
	delete(b.foreign, h)
}
