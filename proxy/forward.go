package proxy

import (
	"errors"
	"io"

	"github.com/novastosha/rustyproxy/event"
	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/packet"
)

// forwardBufSize is the chunk size used for opportunistic reads in both
// directions. Frames larger than this still round-trip correctly, they
// just arrive across more than one opportunistic read (the backend-side
// reassembler below handles that).
const forwardBufSize = 48 * 1024

// Forward runs the bidirectional byte pump between conn's player socket
// and link's backend socket until either side terminates it, using two
// independent goroutines for full-duplex proxying: each direction
// preserves its own read order, and closing either socket on termination
// unblocks whichever direction is still running.
//
// On ServerKickedPlayer the player socket is deliberately left open: per
// spec, that termination is recovered -- the caller still needs to write
// its own SystemChatMessage kick notice to conn before closing it, and a
// socket Forward already closed would fail that write. Every other
// termination reason closes both sockets here, since nothing downstream
// has anything left to send the player.
func Forward(conn *PlayerConnection, link *BackendLink) TerminationReason {
	results := make(chan TerminationReason, 2)

	go pumpPlayerToBackend(conn, link, results)
	go pumpBackendToPlayer(conn, link, results)

	first := <-results
	link.conn.Close()
	if first != ServerKickedPlayer {
		conn.conn.Close()
	}
	// Drain the other direction without blocking this return: on a kick,
	// the still-running player->backend pump may be sitting in a Read on
	// the (still open) player socket, and won't unblock until the caller
	// closes it after sending the kick notice.
	go func() { <-results }()

	return first
}

// pumpPlayerToBackend is the player->backend direction: pure byte pump, no
// parsing, no event dispatch.
func pumpPlayerToBackend(conn *PlayerConnection, link *BackendLink, out chan<- TerminationReason) {
	buf := make([]byte, forwardBufSize)
	for {
		// Read through conn.reader, not the raw socket: its bufio buffer
		// may still hold bytes the player sent right after LoginStart,
		// before this loop took over reading.
		n, err := conn.reader.Read(buf)
		if err != nil {
			out <- PlayerDisconnected
			return
		}
		if _, err := link.conn.Write(buf[:n]); err != nil {
			out <- PlayerErrored
			return
		}
	}
}

// pumpBackendToPlayer is the backend->player direction: opportunistic
// reads are reassembled into whole frames so ServerSentPacket fires
// exactly once per real frame, rather than once per opportunistic read.
// Each frame's original wire bytes are forwarded verbatim (or dropped
// whole, on Stop) -- never re-encoded, so backend-chosen framing quirks
// survive.
func pumpBackendToPlayer(conn *PlayerConnection, link *BackendLink, out chan<- TerminationReason) {
	var pending []byte
	chunk := make([]byte, forwardBufSize)

	for {
		n, err := link.conn.Read(chunk)
		if n > 0 {
			pending = append(pending, chunk[:n]...)
			if reason, done := drainFrames(conn, link, &pending); done {
				out <- reason
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				out <- ServerDisconnectedPlayer
				return
			}
			out <- ServerErrored
			return
		}
	}
}

// drainFrames extracts and handles as many whole frames as currently sit
// at the front of *pending. It returns done=true if the loop should
// terminate now (a kick, or a downstream write failure).
func drainFrames(conn *PlayerConnection, link *BackendLink, pending *[]byte) (reason TerminationReason, done bool) {
	threshold := conn.CompressionThreshold()
	for {
		buf := *pending
		if len(buf) == 0 {
			return 0, false
		}
		pkt, consumed, err := frame.ReadFromBytes(buf, threshold)
		if errors.Is(err, frame.ErrShortFrame) {
			return 0, false // wait for more bytes
		}
		if err != nil {
			// Unparseable as a frame: forward what we have verbatim and
			// give up trying to find frame boundaries in it.
			if writeErr := writeToPlayer(conn, buf); writeErr != nil {
				return ServerDisconnectedPlayer, true
			}
			*pending = nil
			return 0, false
		}

		frameBytes := buf[:consumed]
		*pending = buf[consumed:]

		reason, handled, terminate := handleFrame(conn, link, pkt, frameBytes)
		if terminate {
			return reason, true
		}
		if handled {
			// SetCompression may have just changed the threshold, and it
			// applies starting with the very next frame.
			threshold = conn.CompressionThreshold()
		}
	}
}

// handleFrame applies the backend-to-player per-frame state machine.
// handled=true means the frame was consumed here -- forwarded, or dropped on
// a ServerSentPacket Stop -- and the caller re-reads the compression
// threshold before the next frame; terminate=true means the connection should end now (a Play-phase kick,
// or a downstream write failure).
func handleFrame(conn *PlayerConnection, link *BackendLink, pkt frame.RawPacket, frameBytes []byte) (reason TerminationReason, handled bool, terminate bool) {
	phase := link.Phase()

	switch {
	case phase == packet.PhaseLogin && pkt.ID == packet.SetCompressionID:
		if t, err := packet.DecodeSetCompressionThreshold(pkt); err == nil {
			conn.SetCompressionThreshold(t)
		}
		if writeToPlayer(conn, frameBytes) != nil {
			return ServerDisconnectedPlayer, true, true
		}
		return 0, true, false

	case phase == packet.PhaseLogin && pkt.ID == packet.LoginSuccessID:
		link.SetPhase(packet.PhaseConfiguration)
		if writeToPlayer(conn, frameBytes) != nil {
			return ServerDisconnectedPlayer, true, true
		}
		return 0, true, false

	case phase == packet.PhaseConfiguration && pkt.ID == packet.FinishConfigurationID:
		link.SetPhase(packet.PhasePlay)
		if writeToPlayer(conn, frameBytes) != nil {
			return ServerDisconnectedPlayer, true, true
		}
		return 0, true, false

	case phase == packet.PhasePlay && pkt.ID == packet.PlayDisconnectID:
		return ServerKickedPlayer, false, true

	default:
		result := dispatchResult(conn.instance.Bus, ServerSentPacket{Connection: conn, Packet: pkt})
		if result == event.Stop {
			return 0, true, false
		}
		if writeToPlayer(conn, frameBytes) != nil {
			return ServerDisconnectedPlayer, true, true
		}
		return 0, true, false
	}
}

func writeToPlayer(conn *PlayerConnection, b []byte) error {
	_, err := conn.conn.Write(b)
	return err
}
