// Package wgpu is the GPU driver for the graphics package, built on the
// gogpu hal layer with naga shader compilation.
//
// The driver can own its whole device chain (instance, adapter, device,
// queue) or run on a host provided device through a gpucontext
// DeviceProvider. Shared texture export and keyed mutexes are not
// available on this backend; hosts that need cross-device sharing keep
// those surfaces on the native backends.
package wgpu
