// Package battle reconstructs a battle's world state from the semantic
// event stream and produces a final BattleReport. It tolerates malformed
// or out-of-order input: unknown entities, invalid paths, and duplicate
// events are recorded as Warnings rather than aborting the pipeline
// (spec §4.6/§7).
package battle

import (
	"fmt"

	"github.com/landaire/wows-replay-go/internal/replaytypes"
	"github.com/landaire/wows-replay-go/internal/semantic"
)

// Warning is a non-fatal StateViolation recorded during reconstruction.
type Warning struct {
	At      replaytypes.GameClock
	Message string
}

// ConnectionChangeKind enumerates the kinds of connection-status flips a
// player can experience mid-battle.
type ConnectionChangeKind int

const (
	ConnectionDropped ConnectionChangeKind = iota
	ConnectionRestored
)

// ConnectionChange is one entry of a Player's connection history. HadDeath
// records whether any of the player's vehicles was already dead when the
// change was observed (original_source's ConnectionChangeInfo.had_death_event, SUPPLEMENTED).
type ConnectionChange struct {
	At       replaytypes.GameClock
	Kind     ConnectionChangeKind
	HadDeath bool
}

// Player is one match participant, independent of which ship entity
// currently represents them (a player can switch ships via consumables
// in some game modes, though the common case is one ship for the match).
type Player struct {
	AccountID         replaytypes.AccountId
	Name              string
	TeamID            int32
	IsHidden          bool
	VehicleIDs        []int32
	ConnectionChanges []ConnectionChange
}

// DeathInfo records how and when a vehicle died. Self is true when the
// killer and victim entity ids coincide (spec scenario 2: attacker=Self),
// independent of Cause.
type DeathInfo struct {
	At     replaytypes.GameClock
	Killer int32
	Cause  semantic.DeathCause
	Self   bool
}

// VehicleEntity is one ship entity tracked across the battle.
type VehicleEntity struct {
	EntityID    int32
	PlayerID    replaytypes.AccountId // 0 until linked by ArenaStateReceived
	CaptainID   replaytypes.GameParamId
	ShipParamID replaytypes.GameParamId
	Pos         replaytypes.WorldPos
	Rot         replaytypes.Rotation
	DamageDealt float64
	DamageTaken float64
	DamageStats map[string]float64
	Dead        bool
	Death       *DeathInfo
	Properties  map[string]any
}

// SmokeScreenEntity tracks a deployed smoke cloud.
type SmokeScreenEntity struct {
	EntityID int32
	Pos      replaytypes.WorldPos
	SpawnedAt replaytypes.GameClock
}

// BuildingEntity tracks a static map object (e.g. a coastal fort). Alive
// starts true; a ShipDestroyed-shaped event against a building entity
// flips it false rather than recording a Death (SUPPLEMENTED from
// battle_controller/state.rs's BuildingEntity).
type BuildingEntity struct {
	EntityID int32
	Pos      replaytypes.WorldPos
	Alive    bool
}

// CapturePointState mirrors one control point's live contest state.
// Progress is the (fraction, time_remaining) pair spec.md's progress[2]
// names (SUPPLEMENTED field split, see SPEC_FULL.md).
type CapturePointState struct {
	Index       int32
	HasInvaders bool
	InvaderTeam int32
	BothInside  bool
	Progress    [2]float32
}

// TeamScore tracks one team's running score.
type TeamScore struct {
	TeamID int32
	Score  int32
}

// TimelineEventKind enumerates the closed set of timeline entries.
type TimelineEventKind int

const (
	TimelineShipDestroyed TimelineEventKind = iota
	TimelineSelfDestruct
	TimelineEntityCreate
	TimelineEntityLeave
	TimelineSmokeScreenCreated
	TimelineSmokeScreenDestroyed
	TimelineConsumableUsed
	TimelineCapturePointChanged
	TimelineTeamScoreChanged
	TimelineChat
	TimelineRibbon
	TimelineStateViolation
)

var timelineEventKindNames = [...]string{
	"ShipDestroyed", "SelfDestruct", "EntityCreate", "EntityLeave",
	"SmokeScreenCreated", "SmokeScreenDestroyed", "ConsumableUsed",
	"CapturePointChanged", "TeamScoreChanged", "Chat", "Ribbon", "StateViolation",
}

// String renders the timeline entry kind's name, used by the `investigate`
// CLI subcommand and the streamserver's JSON fan-out.
func (k TimelineEventKind) String() string {
	if int(k) < 0 || int(k) >= len(timelineEventKindNames) {
		return fmt.Sprintf("TimelineEventKind(%d)", int(k))
	}
	return timelineEventKindNames[k]
}

// TimelineEvent is one append-only entry of the battle's reconstructed
// timeline.
type TimelineEvent struct {
	At   replaytypes.GameClock
	Kind TimelineEventKind
	Data any
}

// GameTimeline is an append-only, clock-ordered event log.
type GameTimeline struct {
	events []TimelineEvent
}

func (t *GameTimeline) push(ev TimelineEvent) { t.events = append(t.events, ev) }

// Events returns every recorded timeline entry, in append order (which is
// clock order for a well-formed replay — spec §8's monotonicity property).
func (t *GameTimeline) Events() []TimelineEvent { return t.events }

// EventsInRange returns events with At in [from, to), assuming Events() is
// sorted by At (true for any replay that didn't trip a clock-regression
// warning).
func (t *GameTimeline) EventsInRange(from, to replaytypes.GameClock) []TimelineEvent {
	lo := search(t.events, from)
	hi := search(t.events, to)
	return t.events[lo:hi]
}

func search(events []TimelineEvent, clock replaytypes.GameClock) int {
	lo, hi := 0, len(events)
	for lo < hi {
		mid := (lo + hi) / 2
		if events[mid].At < clock {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.At, w.Message)
}
