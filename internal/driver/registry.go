package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Driver)
	aliases    = make(map[string]string)
)

// Register makes a driver available by its name and aliases.
// It panics if a name or alias is registered twice, like database/sql.
func Register(d Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := strings.ToLower(d.Name())
	if _, dup := drivers[name]; dup {
		panic("driver: Register called twice for driver " + name)
	}
	if _, dup := aliases[name]; dup {
		panic("driver: Register name collides with alias " + name)
	}
	names := make([]string, 0, len(d.Aliases()))
	for _, a := range d.Aliases() {
		a = strings.ToLower(a)
		if _, dup := drivers[a]; dup {
			panic("driver: alias collides with driver name " + a)
		}
		if _, dup := aliases[a]; dup {
			panic("driver: alias registered twice " + a)
		}
		names = append(names, a)
	}

	drivers[name] = d
	for _, a := range names {
		aliases[a] = name
	}
}

// Get returns the driver registered under name or one of its aliases.
func Get(name string) (Driver, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if d, ok := drivers[key]; ok {
		return d, nil
	}
	if primary, ok := aliases[key]; ok {
		return drivers[primary], nil
	}
	return nil, fmt.Errorf("unknown database driver %q (available: %s)", name, strings.Join(availableLocked(), ", "))
}

// Available returns the sorted primary names of all registered drivers.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return availableLocked()
}

func availableLocked() []string {
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
