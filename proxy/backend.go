package proxy

import (
	"net"
	"sync"
	"weak"

	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/packet"
)

// BackendLink is the outbound TCP connection to a proxied server a player
// has joined. It owns the socket; it holds a weak back-reference to its
// PlayerConnection purely so event payloads and log lines can address
// "which player is this backend serving" without creating an ownership
// cycle (ownership flows PlayerConnection -> BackendLink only).
type BackendLink struct {
	conn   net.Conn
	player weak.Pointer[PlayerConnection]
	server ProxiedServer

	mu    sync.Mutex
	phase packet.Phase
}

func newBackendLink(conn net.Conn, player *PlayerConnection, server ProxiedServer) *BackendLink {
	return &BackendLink{
		conn:   conn,
		player: weak.Make(player),
		server: server,
		phase:  packet.PhaseLogin,
	}
}

// Player resolves the weak back-reference, returning nil if the owning
// PlayerConnection has already been collected (it should never actually
// outlive its backend link in normal operation, but the reference is weak
// precisely so that invariant isn't load-bearing).
func (l *BackendLink) Player() *PlayerConnection {
	return l.player.Value()
}

// Server returns the backend this link points at.
func (l *BackendLink) Server() ProxiedServer {
	return l.server
}

// Phase returns the backend-side protocol phase.
func (l *BackendLink) Phase() packet.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// SetPhase advances the backend-side protocol phase. Phase transitions
// observed in the forwarding loop are one-way: Login -> Configuration ->
// Play.
func (l *BackendLink) SetPhase(p packet.Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = p
}

// SendPacket encodes and writes (id, payload) as one frame to the backend
// socket.
func (l *BackendLink) SendPacket(id uint32, payload []byte, threshold int) error {
	return frame.WriteTo(l.conn, id, payload, threshold)
}

// Close shuts down the backend socket.
func (l *BackendLink) Close() error {
	return l.conn.Close()
}
