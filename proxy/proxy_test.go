package proxy

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/novastosha/rustyproxy/event"
	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/packet"
)

// startServing binds an ephemeral listener, runs Serve in the background,
// registers a t.Cleanup that closes the listener, and returns its address.
func startServing(t *testing.T, inst *Instance) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go Serve(inst, lis)
	t.Cleanup(func() { lis.Close() })
	return lis.Addr().String()
}

func dialAndHandshake(t *testing.T, addr, serverAddr, username string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	hs := packet.Handshake{
		ProtocolVersion: 769,
		ServerAddress:   serverAddr,
		Port:            25565,
		NextState:       packet.NextStateLogin,
	}
	id, data, err := hs.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if err := frame.WriteTo(conn, id, data, 0); err != nil {
		t.Fatal(err)
	}

	ls := packet.LoginStart{Username: username}
	id, data, err = ls.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if err := frame.WriteTo(conn, id, data, 0); err != nil {
		t.Fatal(err)
	}
	return conn
}

// TestNoServersConfigured is scenario S1: an empty server table disconnects
// the player with a LoginDisconnect instead of hanging or panicking.
func TestNoServersConfigured(t *testing.T) {
	inst := NewInstance(Configuration{Servers: map[string]ProxiedServer{}}, nil, zap.NewNop())
	addr := startServing(t, inst)

	conn := dialAndHandshake(t, addr, "play.example.com", "steve")
	defer conn.Close()

	pkt, err := frame.ReadFrom(bufReader(conn), 0)
	if err != nil {
		t.Fatal(err)
	}
	d, err := packet.DecodeLoginDisconnect(pkt)
	if err != nil {
		t.Fatalf("expected a LoginDisconnect frame, decode failed: %v", err)
	}
	if string(d.Reason) == "" {
		t.Fatal("expected a non-empty disconnect reason")
	}
}

// TestHappyPathLoginAndForward is scenario S2: a configured backend accepts
// the synthesized Handshake+LoginStart and then sees bytes the player sent
// forwarded verbatim.
func TestHappyPathLoginAndForward(t *testing.T) {
	backend, backendAddr := newFixtureBackend(t)
	defer backend.Close()

	servers := map[string]ProxiedServer{
		"main": {Name: "main", Hostname: splitHost(backendAddr), Port: splitPort(t, backendAddr)},
	}
	inst := NewInstance(Configuration{Servers: servers}, nil, zap.NewNop())
	addr := startServing(t, inst)

	conn := dialAndHandshake(t, addr, servers["main"].Hostname, "alex")
	defer conn.Close()

	backendConn, err := backend.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer backendConn.Close()

	// The backend should see the proxy's own synthesized Handshake first.
	hsPkt, err := frame.ReadFrom(bufReader(backendConn), 0)
	if err != nil {
		t.Fatal(err)
	}
	hs, err := packet.DecodeHandshake(hsPkt)
	if err != nil {
		t.Fatalf("backend did not receive a synthesized Handshake: %v", err)
	}
	if hs.NextState != packet.NextStateLogin {
		t.Fatalf("expected next_state=login, got %v", hs.NextState)
	}

	lsPkt, err := frame.ReadFrom(bufReader(backendConn), 0)
	if err != nil {
		t.Fatal(err)
	}
	ls, err := packet.DecodeLoginStart(lsPkt)
	if err != nil {
		t.Fatalf("backend did not receive a synthesized LoginStart: %v", err)
	}
	if ls.Username != "alex" {
		t.Fatalf("username = %q, want alex", ls.Username)
	}

	// Now the forwarding loop is live: player -> backend bytes should pass
	// through untouched.
	pingID, pingData := uint32(0x10), []byte("ping-from-player")
	if err := frame.WriteTo(conn, pingID, pingData, 0); err != nil {
		t.Fatal(err)
	}
	got, err := frame.ReadFrom(bufReader(backendConn), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != pingID || string(got.Data) != string(pingData) {
		t.Fatalf("forwarded frame mismatch: id=%d data=%q", got.ID, got.Data)
	}
}

// TestListenerVetoesJoin is scenario S5: a PlayerJoinedProxy listener that
// returns Stop ends the connection before any backend is dialed.
func TestListenerVetoesJoin(t *testing.T) {
	backend, backendAddr := newFixtureBackend(t)
	defer backend.Close()

	servers := map[string]ProxiedServer{
		"main": {Name: "main", Hostname: splitHost(backendAddr), Port: splitPort(t, backendAddr)},
	}
	inst := NewInstance(Configuration{Servers: servers}, nil, zap.NewNop())
	event.On(inst.Bus, false, func(PlayerJoinedProxy) (event.Result, bool) {
		return event.Stop, true
	})
	addr := startServing(t, inst)

	conn := dialAndHandshake(t, addr, servers["main"].Hostname, "banned")
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected the connection to be closed without any backend traffic")
	}

	backend.(*net.TCPListener).SetDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := backend.Accept(); err == nil {
		t.Fatal("listener veto should have prevented a backend dial")
	}
}

// TestInitListenerSeedsServerTable is scenario S6: a ProxyFinishedInitialization
// listener may add a server before any player is served.
func TestInitListenerSeedsServerTable(t *testing.T) {
	backend, backendAddr := newFixtureBackend(t)
	defer backend.Close()

	inst := NewInstance(Configuration{Servers: map[string]ProxiedServer{}}, nil, zap.NewNop())
	seeded := ProxiedServer{Name: "seeded", Hostname: splitHost(backendAddr), Port: splitPort(t, backendAddr)}
	event.On(inst.Bus, false, func(ev ProxyFinishedInitialization) (event.Result, bool) {
		ev.Instance.SetServer("seeded", seeded)
		return event.Continue, true
	})
	addr := startServing(t, inst)

	// Give Serve a moment to run its ProxyFinishedInitialization dispatch.
	time.Sleep(50 * time.Millisecond)

	conn := dialAndHandshake(t, addr, seeded.Hostname, "newplayer")
	defer conn.Close()

	backendConn, err := backend.Accept()
	if err != nil {
		t.Fatalf("seeded server was never dialed: %v", err)
	}
	backendConn.Close()
}

// TestServerKickSendsNotice is scenario S4: a Play-phase Disconnect from
// the backend is not forwarded verbatim, but the player still receives a
// SystemChatMessage kick notice before the connection closes.
func TestServerKickSendsNotice(t *testing.T) {
	backend, backendAddr := newFixtureBackend(t)
	defer backend.Close()

	servers := map[string]ProxiedServer{
		"main": {Name: "main", Hostname: splitHost(backendAddr), Port: splitPort(t, backendAddr)},
	}
	inst := NewInstance(Configuration{Servers: servers}, nil, zap.NewNop())
	addr := startServing(t, inst)

	conn := dialAndHandshake(t, addr, servers["main"].Hostname, "kicked")
	defer conn.Close()

	backendConn, err := backend.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer backendConn.Close()

	backendReader := bufReader(backendConn)
	if _, err := frame.ReadFrom(backendReader, 0); err != nil {
		t.Fatalf("backend did not receive the synthesized Handshake: %v", err)
	}
	if _, err := frame.ReadFrom(backendReader, 0); err != nil {
		t.Fatalf("backend did not receive the synthesized LoginStart: %v", err)
	}

	// Advance the backend-side phase to Play: LoginSuccess, then Finish
	// Configuration.
	if err := frame.WriteTo(backendConn, packet.LoginSuccessID, nil, 0); err != nil {
		t.Fatal(err)
	}
	if err := frame.WriteTo(backendConn, packet.FinishConfigurationID, nil, 0); err != nil {
		t.Fatal(err)
	}
	// Now the kick: a Play-phase Disconnect. This must not be forwarded
	// verbatim.
	if err := frame.WriteTo(backendConn, packet.PlayDisconnectID, []byte("irrelevant"), 0); err != nil {
		t.Fatal(err)
	}

	playerReader := bufReader(conn)

	pkt, err := frame.ReadFrom(playerReader, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pkt.ID != packet.LoginSuccessID {
		t.Fatalf("expected forwarded LoginSuccess, got id=%d", pkt.ID)
	}

	pkt, err = frame.ReadFrom(playerReader, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pkt.ID != packet.FinishConfigurationID {
		t.Fatalf("expected forwarded FinishConfiguration, got id=%d", pkt.ID)
	}

	pkt, err = frame.ReadFrom(playerReader, 0)
	if err != nil {
		t.Fatalf("expected a SystemChatMessage kick notice, got error: %v", err)
	}
	msg, err := packet.DecodeSystemChatMessage(pkt)
	if err != nil {
		t.Fatalf("expected a SystemChatMessage, decode failed: %v", err)
	}
	if len(msg.NBTText) == 0 {
		t.Fatal("expected a non-empty kick notice")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected the connection to close after the kick notice")
	}
}

func bufReader(conn net.Conn) *bufReaderAdapter {
	return &bufReaderAdapter{conn: conn}
}

// bufReaderAdapter is the minimal io.Reader+io.ByteReader wrapper the
// streaming frame decoder needs; tests don't otherwise need bufio's
// buffering since each side writes exactly one frame at a time.
type bufReaderAdapter struct {
	conn net.Conn
	buf  [1]byte
}

func (b *bufReaderAdapter) Read(p []byte) (int, error) { return b.conn.Read(p) }
func (b *bufReaderAdapter) ReadByte() (byte, error) {
	_, err := b.conn.Read(b.buf[:])
	return b.buf[0], err
}

func newFixtureBackend(t *testing.T) (net.Listener, string) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	return lis, lis.Addr().String()
}

func splitHost(addr string) string {
	host, _, _ := net.SplitHostPort(addr)
	return host
}

func splitPort(t *testing.T, addr string) uint16 {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	var port uint16
	for _, c := range portStr {
		port = port*10 + uint16(c-'0')
	}
	return port
}
