package proxy

import (
	"net"

	"go.uber.org/zap"

	"github.com/novastosha/rustyproxy/event"
	"github.com/novastosha/rustyproxy/packet"
)

// Start binds inst.Bind and runs the accept loop until Accept fails. The
// listener it binds is not exposed, so Start has no cancellation mechanism;
// Serve, which takes a caller-supplied listener, stops when that listener
// is closed. It dispatches ProxyFinishedInitialization once, before accepting any
// connection, so listeners can seed or rewrite the server table first.
func Start(inst *Instance) error {
	lis, err := net.Listen("tcp", inst.Bind)
	if err != nil {
		return err
	}
	return Serve(inst, lis)
}

// Serve runs the accept loop against an already-bound listener, taking
// ownership of it (Serve closes lis when it returns). Split out from
// Start so tests can bind an ephemeral port instead of a configured one.
func Serve(inst *Instance, lis net.Listener) error {
	defer lis.Close()

	dispatchResult(inst.Bus, ProxyFinishedInitialization{Instance: inst})
	inst.Log.Info("proxy listening", zap.String("addr", lis.Addr().String()))

	for {
		conn, err := lis.Accept()
		if err != nil {
			return err
		}
		go serveConnection(inst, conn)
	}
}

// serveConnection runs the full life cycle of one accepted client: the
// handshake/login handoff, then the backend connect, then the forwarding
// loop, then cleanup. It never returns an error -- every failure path
// simply closes the connection; handshake, LoginStart and backend-connect
// failures are also logged.
func serveConnection(inst *Instance, conn net.Conn) {
	pc := NewPlayerConnection(conn, inst)
	defer pc.Close()

	hs, err := readHandshake(pc)
	if err != nil {
		pc.log.Debug("handshake read failed", zap.Error(err))
		return
	}

	if hs.NextState != packet.NextStateLogin {
		// Status pings and anything else pre-login are out of scope for this
		// core; the proxy only drives the login -> forward pipeline.
		return
	}
	pc.SetPhase(packet.PhaseLogin)

	servers := inst.Servers()
	if len(servers) == 0 {
		sendLoginDisconnect(pc, "no servers available")
		return
	}

	loginStart, err := readLoginStart(pc)
	if err != nil {
		pc.log.Debug("login start read failed", zap.Error(err))
		return
	}
	pc.SetPlayerInfo(playerInfoFromLoginStart(loginStart))

	if dispatchResult(inst.Bus, PlayerJoinedProxy{Connection: pc}) == event.Stop {
		return
	}

	server, ok := inst.route(hs.ServerAddress)
	if !ok {
		sendLoginDisconnect(pc, "no servers available")
		return
	}

	link, err := pc.ConnectTo(server)
	if err != nil {
		pc.log.Warn("backend connect failed", zap.String("server", server.Name), zap.Error(err))
		sendLoginDisconnect(pc, "could not connect to backend server")
		dispatchResult(inst.Bus, PlayerLeftProxy{Connection: pc, Server: nil})
		return
	}

	reason := Forward(pc, link)
	pc.log.Info("connection ended", zap.String("reason", reason.String()))

	if reason == ServerKickedPlayer {
		notifyKicked(pc)
	}

	srv := link.Server()
	dispatchResult(inst.Bus, PlayerLeftProxy{Connection: pc, Server: &srv})
}

func readHandshake(pc *PlayerConnection) (packet.Handshake, error) {
	raw, err := pc.ReadPacket()
	if err != nil {
		return packet.Handshake{}, err
	}
	return packet.DecodeHandshake(raw)
}

func readLoginStart(pc *PlayerConnection) (packet.LoginStart, error) {
	raw, err := pc.ReadPacket()
	if err != nil {
		return packet.LoginStart{}, err
	}
	return packet.DecodeLoginStart(raw)
}

func sendLoginDisconnect(pc *PlayerConnection, reason string) {
	d := packet.NewLoginDisconnect(reason)
	id, data, err := d.Encode()
	if err != nil {
		return
	}
	_ = pc.SendPacket(id, data)
}

// notifyKicked is sent after the forwarding loop already observed and
// suppressed the backend's own Play-phase Disconnect frame: the player
// still needs to be told why the connection is ending.
func notifyKicked(pc *PlayerConnection) {
	msg, err := packet.NewSystemChatMessage("§cYou were kicked from the server!", false)
	if err != nil {
		return
	}
	id, data, err := msg.Encode()
	if err != nil {
		return
	}
	_ = pc.SendPacket(id, data)
}
