package gpucore

import (
	"fmt"
	"sort"
	"sync"
)

// DriverOptions configure driver initialization.
type DriverOptions struct {
	// Adapter selects the hardware adapter by index. Zero picks the
	// default.
	Adapter int
	// Debug enables backend validation where supported.
	Debug bool
}

// DriverFactory creates a driver instance.
type DriverFactory func(opts DriverOptions) (Driver, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]DriverFactory{}
)

// RegisterDriver makes a driver variant available by name. Backend packages
// call this from init. Registering the same name twice panics.
func RegisterDriver(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[name]; dup {
		panic("gpucore: RegisterDriver called twice for " + name)
	}
	drivers[name] = factory
}

// OpenDriver instantiates a registered driver variant.
func OpenDriver(name string, opts DriverOptions) (Driver, error) {
	driversMu.RLock()
	factory, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("gpucore: unknown driver %q (registered: %v)", name, DriverNames())
	}
	return factory(opts)
}

// DriverNames returns the registered driver names in sorted order.
func DriverNames() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
