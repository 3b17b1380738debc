package graphics

import (
	"fmt"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// SamplerState is an immutable sampler object.
type SamplerState struct {
	mu        sync.Mutex
	info      gpucore.SamplerInfo
	drv       gpucore.DriverSampler
	destroyed bool
}

// NewSamplerState creates a sampler from its description.
func NewSamplerState(d *Device, info gpucore.SamplerInfo) (*SamplerState, error) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil, ErrDeviceDestroyed
	}
	drv := d.driver
	d.mu.Unlock()

	ds, err := drv.CreateSampler(&info)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}
	return &SamplerState{info: info, drv: ds}, nil
}

// Info returns the sampler description.
func (s *SamplerState) Info() gpucore.SamplerInfo { return s.info }

func (s *SamplerState) driverSampler() gpucore.DriverSampler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drv
}

// Destroy releases the sampler. Idempotent.
func (s *SamplerState) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.drv.Destroy()
	s.drv = nil
}
