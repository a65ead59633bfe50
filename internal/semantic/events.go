// Package semantic dispatches framed packets to the closed set of
// SemanticEvent variants the battle controller consumes, resolving
// EntityMethod/EntityProperty wire indices against a build's schema
// tables (spec §3/§4.4).
package semantic

import (
	"github.com/landaire/wows-replay-go/internal/proppath"
	"github.com/landaire/wows-replay-go/internal/replaytypes"
	"github.com/landaire/wows-replay-go/internal/wirecodec"
)

// EventKind tags which of the closed SemanticEvent shapes an event
// carries.
type EventKind int

const (
	EventChat EventKind = iota
	EventVoiceLine
	EventRibbon
	EventShipDestroyed
	EventDamageReceived
	EventDamageStat
	EventMinimapUpdate
	EventConsumable
	EventArenaStateReceived
	EventGameRoomStateChanged
	EventBattleEnd
	EventBattleResults
	EventPropertyUpdate
	EventPosition
	EventArtilleryShots
	EventTorpedoes
	EventMinimapSquadron
	EventEntityMethod // unknown method, raw passthrough
)

// Chat carries one onChatMessage RPC, matching decoder.rs's
// DecodedPacketPayload::Chat (decoder.rs:1337-1437: sender_id, audience,
// message). Audience is the game's own free-form string ("battle", "team",
// "div", a player name for a whisper), not a closed enum — decoder.rs
// never constrains it to one.
type Chat struct {
	EntityID int32
	SenderID int32
	Audience string
	Message  string
}

type VoiceLine struct {
	EntityID int32
	LineID   int32
}

type Ribbon struct {
	EntityID int32
	RibbonID int32
}

// DeathCause enumerates why a vehicle died, mirroring
// analyzer/decoder.rs's DeathCause (decoder.rs:118-132) and the literal
// wire-code table its receiveVehicleDeath handling matches on
// (decoder.rs:1657-1681). There is no "self" cause in the source: a
// self-destruct is just a Detonation (or any other cause) where the killer
// and victim entity ids happen to coincide — see ShipDestroyed.Self.
type DeathCause int

const (
	CauseUnknown DeathCause = iota
	CauseSecondaries
	CauseArtillery
	CauseFire
	CauseFlooding
	CauseTorpedo
	CauseDiveBomber
	CauseAerialRocket
	CauseAerialTorpedo
	CauseDetonation
	CauseRamming
	CauseDepthCharge
	CauseSkipBombs
)

// ShipDestroyed carries a vehicle's death. Self is derived from
// victim == killer (spec scenario 2: attacker=Self), independent of Cause
// — a Detonation is reported identically whether it is a self-destruct or
// an enemy-triggered magazine explosion.
type ShipDestroyed struct {
	VictimID int32
	KillerID int32
	Cause    DeathCause
	// RawCause holds the wire code when Cause == CauseUnknown, mirroring
	// decoder.rs's DeathCause::Unknown(u32).
	RawCause uint32
	Self     bool
}

// DamageHit is one attacker's contribution within a DamageReceived batch.
type DamageHit struct {
	AttackerID int32
	Amount     float32
}

type DamageReceived struct {
	VictimID int32
	Hits     []DamageHit
}

// DamageStatEntry is one bucketed damage-source total, keyed by a string
// like "AP_SHELLS" or "FIRE" — the bucket taxonomy is the client's own and
// is preserved verbatim rather than re-enumerated here.
type DamageStatEntry struct {
	Bucket string
	Amount float32
}

// DamageStat reports a vehicle's damage-dealt breakdown.
type DamageStat struct {
	EntityID int32
	Entries  []DamageStatEntry
}

// MinimapContact is one decoded minimap record (spec §3's worked example:
// 11 bits x, 11 bits y, 8 bits heading, 2 bits flags).
type MinimapContact struct {
	EntityID       int32
	Pos            replaytypes.NormalizedPos
	HeadingDeg     float32
	Unknown        bool
	IsDisappearing bool
}

// MinimapUpdate batches every contact reported in one
// updateMinimapVisionInfo call.
type MinimapUpdate struct {
	Contacts []MinimapContact
}

type Consumable struct {
	EntityID int32
	Slot     int32
	Duration float32
}

type ArenaStateReceived struct {
	EntityID int32
	Raw      wirecodec.PickleValue
}

type GameRoomStateChanged struct {
	EntityID int32
	Raw      wirecodec.PickleValue
}

type BattleEnd struct {
	WinningTeam int32
	FinishReason int32
}

type BattleResults struct {
	ResultsJSON string
}

// PropertyUpdate is either a full property replace (FullValue set, Path
// empty — from an EntityProperty packet) or a nested mutation (Path/Action
// set — from a PropertyUpdate/NestedProperty packet), passed through for
// the battle controller to apply via proppath.Apply.
type PropertyUpdate struct {
	EntityID      int32
	PropertyIndex uint16
	FullValue     *wirecodec.Value
	Path          []proppath.Level
	Action        proppath.Action
}

type Position struct {
	EntityID int32
	Pos      replaytypes.WorldPos
	Rot      replaytypes.Rotation
}

type ArtilleryShots struct {
	ShooterID int32
	ShotIDs   []int32
	Salvo     wirecodec.PickleValue
}

type Torpedoes struct {
	ShooterID int32
	ShotIDs   []int32
	Salvo     wirecodec.PickleValue
}

type MinimapSquadron struct {
	EntityID int32
	Squadron wirecodec.PickleValue
}

// EntityMethod is the raw passthrough for a method index with no known
// semantic mapping — still useful to an analyzer doing generic inspection.
type EntityMethod struct {
	EntityID    int32
	MethodName  string
	MethodIndex uint16
	Args        []wirecodec.Value
}

// Event is one decoded semantic event, tagged by Kind.
type Event struct {
	Clock replaytypes.GameClock
	Kind  EventKind

	Chat                 Chat
	VoiceLine            VoiceLine
	Ribbon               Ribbon
	ShipDestroyed        ShipDestroyed
	DamageReceived       DamageReceived
	DamageStat           DamageStat
	MinimapUpdate        MinimapUpdate
	Consumable           Consumable
	ArenaStateReceived   ArenaStateReceived
	GameRoomStateChanged GameRoomStateChanged
	BattleEnd            BattleEnd
	BattleResults        BattleResults
	PropertyUpdate       PropertyUpdate
	Position             Position
	ArtilleryShots       ArtilleryShots
	Torpedoes            Torpedoes
	MinimapSquadron      MinimapSquadron
	EntityMethod         EntityMethod
}
