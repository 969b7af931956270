package proxy

import (
	"github.com/google/uuid"

	"github.com/novastosha/rustyproxy/packet"
)

// PlayerInfo is populated from a client's LoginStart packet.
type PlayerInfo struct {
	Username string
	UUID     uuid.UUID
}

func playerInfoFromLoginStart(l packet.LoginStart) PlayerInfo {
	return PlayerInfo{Username: l.Username, UUID: l.UUID}
}

// State is the per-side protocol phase: the same numeric packet ID means
// different things in different phases, so both the player-facing and
// backend-facing views of a connection track their own State: these can
// transiently disagree while a state-transitioning packet is in flight.
type State = packet.Phase

const (
	StateHandshake     = packet.PhaseHandshake
	StateLogin         = packet.PhaseLogin
	StateConfiguration = packet.PhaseConfiguration
	StatePlay          = packet.PhasePlay
)
