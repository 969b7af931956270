package proxy

import (
	"bufio"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/novastosha/rustyproxy/event"
	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/packet"
)

// PlayerConnection is the per-client state: the client socket, protocol
// phase, compression threshold, optional player identity, and an optional
// link to a backend. One is created per accepted client and destroyed when
// either side's socket closes.
//
// The player socket needs no lock of its own: once forwarding starts, the
// player->backend direction only ever reads it and the backend->player
// direction only ever writes it, from two different goroutines -- which is
// safe for a net.Conn, achieved here without an actual half-closing
// wrapper. Everything else that can be mutated concurrently (backend link,
// player info, compression threshold, phase) is guarded by mu.
type PlayerConnection struct {
	conn       net.Conn
	reader     *bufio.Reader
	remoteAddr net.Addr
	instance   *Instance
	log        *zap.Logger

	mu        sync.Mutex
	backend   *BackendLink
	info      *PlayerInfo
	threshold int
	phase     packet.Phase
}

// NewPlayerConnection wraps an accepted client socket.
func NewPlayerConnection(conn net.Conn, instance *Instance) *PlayerConnection {
	return &PlayerConnection{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		remoteAddr: conn.RemoteAddr(),
		instance:   instance,
		log:        instance.Log.With(zap.String("remote_addr", conn.RemoteAddr().String())),
		phase:      packet.PhaseHandshake,
	}
}

// RemoteAddr returns the client's network address, used by event listeners
// and log fields.
func (c *PlayerConnection) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// SetPlayerInfo populates (or overwrites) the connection's player identity.
// One-shot in the ordinary flow, but listeners on PlayerJoinedProxy may
// call it again to rewrite the username before it reaches the backend.
func (c *PlayerConnection) SetPlayerInfo(info PlayerInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = &info
}

// PlayerInfo returns the connection's player identity, if any has been set.
func (c *PlayerConnection) PlayerInfo() (PlayerInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info == nil {
		return PlayerInfo{}, false
	}
	return *c.info, true
}

// Phase returns the player-side protocol phase.
func (c *PlayerConnection) Phase() packet.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SetPhase advances the player-side protocol phase.
func (c *PlayerConnection) SetPhase(p packet.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = p
}

// CompressionThreshold returns the threshold currently applied to both
// directions of this connection (0 disables compression).
func (c *PlayerConnection) CompressionThreshold() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold
}

// SetCompressionThreshold updates the shared threshold -- applied to both
// directions from the next frame onward.
func (c *PlayerConnection) SetCompressionThreshold(t int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = t
}

// Backend returns the connection's current backend link, if any.
func (c *PlayerConnection) Backend() (*BackendLink, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend == nil {
		return nil, false
	}
	return c.backend, true
}

// ReadPacket decodes exactly one frame from the player socket using the
// connection's current compression threshold.
func (c *PlayerConnection) ReadPacket() (frame.RawPacket, error) {
	return frame.ReadFrom(c.reader, c.CompressionThreshold())
}

// SendPacket encodes and writes (id, payload) as one frame to the player
// socket using the connection's current compression threshold.
func (c *PlayerConnection) SendPacket(id uint32, payload []byte) error {
	return frame.WriteTo(c.conn, id, payload, c.CompressionThreshold())
}

// Close shuts down the player socket and, if a backend link exists, shuts
// that down too and clears it.
func (c *PlayerConnection) Close() error {
	c.mu.Lock()
	backend := c.backend
	c.backend = nil
	c.mu.Unlock()

	if backend != nil {
		backend.Close()
	}
	return c.conn.Close()
}

// ConnectTo tears down any existing backend link, dispatches
// PlayerJoinedServer, and -- unless a listener vetoes it -- opens a fresh
// TCP connection to server, synthesizing the proxy's own Handshake and
// LoginStart. The new link is stored with phase=Login.
func (c *PlayerConnection) ConnectTo(server ProxiedServer) (*BackendLink, error) {
	c.mu.Lock()
	prior := c.backend
	c.backend = nil
	c.mu.Unlock()
	if prior != nil {
		prior.Close()
	}

	if dispatchResult(c.instance.Bus, PlayerJoinedServer{Connection: c, Server: server}) == event.Stop {
		return nil, ErrConnectionAborted
	}

	conn, err := net.Dial("tcp", server.Addr())
	if err != nil {
		return nil, err
	}

	link := newBackendLink(conn, c, server)

	info, _ := c.PlayerInfo()
	hs := packet.Handshake{
		ProtocolVersion: packet.ProxyHandshakeProtocolVersion,
		ServerAddress:   server.Hostname,
		Port:            server.Port,
		NextState:       packet.NextStateLogin,
	}
	if id, data, encErr := hs.Encode(); encErr == nil {
		err = frame.WriteTo(conn, id, data, 0)
	} else {
		err = encErr
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	loginStart := packet.LoginStart{Username: info.Username, UUID: info.UUID}
	id, data, err := loginStart.Encode()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := frame.WriteTo(conn, id, data, 0); err != nil {
		conn.Close()
		return nil, err
	}

	c.mu.Lock()
	c.backend = link
	c.mu.Unlock()
	return link, nil
}
