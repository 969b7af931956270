package proxy

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ProxiedServer is one named backend the proxy can route a player to.
// Immutable once constructed; serializable for event payloads (it has no
// unexported fields and no pointers).
type ProxiedServer struct {
	Name     string `toml:"name"`
	Hostname string `toml:"address"`
	Port     uint16 `toml:"port"`
}

func (s ProxiedServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// Configuration is the immutable, fully-loaded proxy config: bind address,
// bind port, and the name -> ProxiedServer routing table.
type Configuration struct {
	Address string
	Port    uint16
	Servers map[string]ProxiedServer
}

// BindAddr formats the listener address for net.Listen.
func (c Configuration) BindAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// tomlConfig mirrors the on-disk TOML document shape:
//
//	proxy_port = <int>
//	address = "<optional bind address>"
//
//	[servers.<name>]
//	name = "<display name>"
//	address = "<host or ip>"
//	port = <u16>
type tomlConfig struct {
	ProxyPort int                      `toml:"proxy_port"`
	Address   string                   `toml:"address"`
	Servers   map[string]ProxiedServer `toml:"servers"`
}

// LoadConfig reads and parses a TOML config file into a Configuration. It is
// a thin adapter over the file format, not part of the proxy's core engine.
func LoadConfig(path string) (Configuration, error) {
	var raw tomlConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return Configuration{}, fmt.Errorf("proxy: loading config %s: %w", path, err)
	}
	if raw.ProxyPort <= 0 || raw.ProxyPort > 0xFFFF {
		return Configuration{}, fmt.Errorf("proxy: invalid proxy_port %d", raw.ProxyPort)
	}
	address := raw.Address
	if address == "" {
		address = "0.0.0.0"
	}
	servers := raw.Servers
	if servers == nil {
		servers = make(map[string]ProxiedServer)
	}
	for name, srv := range servers {
		if srv.Name == "" {
			srv.Name = name
			servers[name] = srv
		}
	}
	return Configuration{
		Address: address,
		Port:    uint16(raw.ProxyPort),
		Servers: servers,
	}, nil
}
