package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/graphics/gpucore"
	"github.com/gogpu/wgpu/hal"
)

func newSampler(d *Driver, info *gpucore.SamplerInfo) (*sampler, error) {
	mag, min, mip := filterModes(info.Filter)
	s, err := d.dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        "graphics_sampler",
		AddressModeU: addressMode(info.AddressU),
		AddressModeV: addressMode(info.AddressV),
		AddressModeW: addressMode(info.AddressW),
		MagFilter:    mag,
		MinFilter:    min,
		MipmapFilter: mip,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	return &sampler{drv: d, s: s}, nil
}

func addressMode(m gpucore.AddressMode) gputypes.AddressMode {
	switch m {
	case gpucore.AddressWrap:
		return gputypes.AddressModeRepeat
	case gpucore.AddressMirror, gpucore.AddressMirrorOnce:
		return gputypes.AddressModeMirrorRepeat
	default:
		// Border clamping has no direct equivalent; clamp to edge is the
		// closest the backend offers.
		return gputypes.AddressModeClampToEdge
	}
}

func filterModes(f gpucore.SampleFilter) (mag, min, mip gputypes.FilterMode) {
	switch f {
	case gpucore.FilterPoint:
		return gputypes.FilterModeNearest, gputypes.FilterModeNearest, gputypes.FilterModeNearest
	case gpucore.FilterMinMagPointMipLinear:
		return gputypes.FilterModeNearest, gputypes.FilterModeNearest, gputypes.FilterModeLinear
	case gpucore.FilterMinPointMagLinearMipPoint:
		return gputypes.FilterModeLinear, gputypes.FilterModeNearest, gputypes.FilterModeNearest
	case gpucore.FilterMinPointMagMipLinear:
		return gputypes.FilterModeLinear, gputypes.FilterModeNearest, gputypes.FilterModeLinear
	case gpucore.FilterMinLinearMagMipPoint:
		return gputypes.FilterModeNearest, gputypes.FilterModeLinear, gputypes.FilterModeNearest
	case gpucore.FilterMinLinearMagPointMipLinear:
		return gputypes.FilterModeNearest, gputypes.FilterModeLinear, gputypes.FilterModeLinear
	case gpucore.FilterMinMagLinearMipPoint:
		return gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.FilterModeNearest
	default:
		// Linear and anisotropic both filter linearly on every axis.
		return gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.FilterModeLinear
	}
}
