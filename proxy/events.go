package proxy

import (
	"github.com/novastosha/rustyproxy/event"
	"github.com/novastosha/rustyproxy/frame"
)

// ProxyFinishedInitialization fires once, after the listening socket is
// bound, before any player is accepted. Listeners may mutate the
// Instance's server table (under its own lock) at this point.
type ProxyFinishedInitialization struct {
	Instance *Instance
}

// PlayerJoinedProxy fires after a successful LoginStart receive, before any
// backend has been chosen. A Stop result terminates the connection without
// connecting to any backend.
type PlayerJoinedProxy struct {
	Connection *PlayerConnection
}

// PlayerJoinedServer fires inside ConnectTo, before the outbound socket is
// opened. A Stop result aborts the connect with ErrConnectionAborted.
type PlayerJoinedServer struct {
	Connection *PlayerConnection
	Server     ProxiedServer
}

// PlayerLeftProxy is fire-and-forget: no listener can veto or observe a
// result. It is dispatched only once a backend connect has been attempted;
// Server is nil if that connect failed. Connections that end earlier
// (handshake failure, no servers, a PlayerJoinedProxy veto) do not fire it.
type PlayerLeftProxy struct {
	Connection *PlayerConnection
	Server     *ProxiedServer
}

// ServerSentPacket fires once per whole server->player frame while
// forwarding, after the forwarding loop has reassembled it from its
// opportunistic reads (see proxy/forward.go). It does not fire for the
// frames the loop's state machine handles itself (SetCompression,
// LoginSuccess, FinishConfiguration, a Play-phase kick) or for bytes that
// cannot be parsed as a frame. A Stop result drops the frame silently
// instead of forwarding it.
type ServerSentPacket struct {
	Connection *PlayerConnection
	Packet     frame.RawPacket
}

// dispatchResult is a small helper so call sites read naturally:
// `if dispatchResult(bus, ev) == event.Stop { ... }`.
func dispatchResult[E any](bus *event.Bus, ev E) event.Result {
	result, ok := event.Dispatch[E, event.Result](bus, ev)
	if !ok {
		return event.Continue
	}
	return result
}
