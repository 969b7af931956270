package proxy

import (
	"sync"

	"go.uber.org/zap"

	"github.com/novastosha/rustyproxy/event"
)

// Router picks which ProxiedServer a newly-handshaking player should be
// routed to, given the virtual-host address the client dialed and the
// configured server table. It returns ok=false to reject the connection.
type Router func(serverAddress string, servers map[string]ProxiedServer) (ProxiedServer, bool)

// DefaultRouter routes to the server whose configured Hostname matches the
// client's handshake server_address; failing that, if exactly one server
// is configured, use it; otherwise reject.
func DefaultRouter(serverAddress string, servers map[string]ProxiedServer) (ProxiedServer, bool) {
	for _, s := range servers {
		if s.Hostname == serverAddress {
			return s, true
		}
	}
	if len(servers) == 1 {
		for _, s := range servers {
			return s, true
		}
	}
	return ProxiedServer{}, false
}

// Instance holds the shared state for one running proxy -- bind address,
// the mutable server table, the event bus, and the routing policy -- kept
// as an explicit value rather than a process-wide static. One Instance is
// created per Start call and threaded through every PlayerConnection and
// listener callback it spawns.
type Instance struct {
	Bind   string
	Router Router
	Bus    *event.Bus
	Log    *zap.Logger

	mu      sync.RWMutex
	servers map[string]ProxiedServer
}

// NewInstance builds an Instance from a Configuration. log and router may
// be nil/zero; log defaults to zap.NewNop(), router defaults to
// DefaultRouter.
func NewInstance(cfg Configuration, router Router, log *zap.Logger) *Instance {
	if log == nil {
		log = zap.NewNop()
	}
	if router == nil {
		router = DefaultRouter
	}
	servers := make(map[string]ProxiedServer, len(cfg.Servers))
	for k, v := range cfg.Servers {
		servers[k] = v
	}
	return &Instance{
		Bind:    cfg.BindAddr(),
		Router:  router,
		Bus:     event.NewBus(log),
		Log:     log,
		servers: servers,
	}
}

// Servers returns a snapshot copy of the current routing table.
func (i *Instance) Servers() map[string]ProxiedServer {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string]ProxiedServer, len(i.servers))
	for k, v := range i.servers {
		out[k] = v
	}
	return out
}

// SetServer adds or replaces a routed server. Exposed so
// ProxyFinishedInitialization listeners can mutate the table before any
// player is served.
func (i *Instance) SetServer(name string, server ProxiedServer) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.servers[name] = server
}

// RemoveServer drops a routed server by name.
func (i *Instance) RemoveServer(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.servers, name)
}

// route applies i.Router against a snapshot of the current server table.
func (i *Instance) route(serverAddress string) (ProxiedServer, bool) {
	return i.Router(serverAddress, i.Servers())
}
