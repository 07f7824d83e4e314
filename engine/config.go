package engine

import (
	"github.com/moraru210/rematcher/avail"
	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/ethernet"
)

// Config holds the compile-time constants spec §6 names as configuration:
// none of it is expected to change at runtime, but nothing here forbids a
// caller from building several Engines with different values in tests.
type Config struct {
	// ListenerPort is the destination port identifying the client-facing
	// direction.
	ListenerPort uint16
	// MaxClients bounds conn_map (2x) and state_map capacity.
	MaxClients int
	// MaxServers bounds available_map capacity.
	MaxServers int
	// MaxPerServer sizes numbers_map (MaxClients + MaxServers*MaxPerServer).
	// It does not change the slot vector of available_map, which is always
	// avail.MaxPerServer slots long.
	MaxPerServer int
	// VLANMaxDepth bounds stacked VLAN tags the decoder will walk.
	VLANMaxDepth int
}

// DefaultConfig returns the configuration spec §6 describes as defaults.
func DefaultConfig() Config {
	return Config{
		ListenerPort: conntrack.DefaultListenerPort,
		MaxClients:   1024,
		MaxServers:   64,
		MaxPerServer: avail.MaxPerServer,
		VLANMaxDepth: ethernet.MaxVLANDepth,
	}
}

func (c Config) connMapCapacity() int    { return 2 * c.MaxClients }
func (c Config) numbersMapCapacity() int { return c.MaxClients + c.MaxServers*c.MaxPerServer }
