package semantic

import (
	"github.com/landaire/wows-replay-go/internal/replaytypes"
	"github.com/landaire/wows-replay-go/internal/wirecodec"
)

// dispatchMethod maps a known RPC method name and its decoded args to a
// concrete SemanticEvent. handled is false for any method name not in
// this table, so the caller falls back to the raw EntityMethod passthrough
// (spec §4.4: unknown methods pass through raw).
func dispatchMethod(clock replaytypes.GameClock, entityID int32, name string, args []wirecodec.Value) (*Event, bool) {
	switch name {
	case "onChatMessage":
		if len(args) < 3 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventChat, Chat: Chat{
			EntityID: entityID,
			SenderID: int32(argInt(args[0])),
			Audience: argString(args[1]),
			Message:  argString(args[2]),
		}}, true

	case "receive_CommonCMD":
		if len(args) < 1 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventVoiceLine, VoiceLine: VoiceLine{
			EntityID: entityID,
			LineID:   int32(argInt(args[0])),
		}}, true

	case "onRibbon":
		if len(args) < 1 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventRibbon, Ribbon: Ribbon{
			EntityID: entityID,
			RibbonID: int32(argInt(args[0])),
		}}, true

	case "receiveVehicleDeath":
		if len(args) < 3 {
			return nil, false
		}
		victim := int32(argInt(args[0]))
		killer := int32(argInt(args[1]))
		rawCause := uint32(argUint(args[2]))
		sd := ShipDestroyed{
			VictimID: victim,
			KillerID: killer,
			Cause:    deathCauseFromWireCode(rawCause),
			Self:     killer == victim,
		}
		if sd.Cause == CauseUnknown {
			sd.RawCause = rawCause
		}
		return &Event{Clock: clock, Kind: EventShipDestroyed, ShipDestroyed: sd}, true

	case "receiveDamagesOnShip":
		if len(args) < 1 {
			return nil, false
		}
		hits := make([]DamageHit, 0, len(args[0].Array))
		for _, item := range args[0].Array {
			if len(item.Array) < 2 {
				continue
			}
			hits = append(hits, DamageHit{
				AttackerID: int32(argInt(item.Array[0])),
				Amount:     float32(argFloat(item.Array[1])),
			})
		}
		return &Event{Clock: clock, Kind: EventDamageReceived, DamageReceived: DamageReceived{
			VictimID: entityID,
			Hits:     hits,
		}}, true

	case "receiveDamageStat":
		if len(args) < 1 {
			return nil, false
		}
		entries := make([]DamageStatEntry, 0, len(args[0].Pickle.DictEntries))
		for _, e := range args[0].Pickle.DictEntries {
			entries = append(entries, DamageStatEntry{
				Bucket: e.Key.String,
				Amount: float32(pickleNumber(e.Value)),
			})
		}
		return &Event{Clock: clock, Kind: EventDamageStat, DamageStat: DamageStat{
			EntityID: entityID,
			Entries:  entries,
		}}, true

	case "updateMinimapVisionInfo":
		if len(args) < 1 {
			return nil, false
		}
		contacts := make([]MinimapContact, 0, len(args[0].Array))
		for _, item := range args[0].Array {
			if len(item.Array) < 2 {
				continue
			}
			id := int32(argInt(item.Array[0]))
			raw := uint32(argUint(item.Array[1]))
			contacts = append(contacts, decodeMinimapRecord(id, raw))
		}
		return &Event{Clock: clock, Kind: EventMinimapUpdate, MinimapUpdate: MinimapUpdate{Contacts: contacts}}, true

	case "consumableUsed":
		if len(args) < 2 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventConsumable, Consumable: Consumable{
			EntityID: entityID,
			Slot:     int32(argInt(args[0])),
			Duration: float32(argFloat(args[1])),
		}}, true

	case "onArenaStateReceived":
		if len(args) < 1 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventArenaStateReceived, ArenaStateReceived: ArenaStateReceived{
			EntityID: entityID,
			Raw:      args[0].Pickle,
		}}, true

	case "onGameRoomStateChanged":
		if len(args) < 1 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventGameRoomStateChanged, GameRoomStateChanged: GameRoomStateChanged{
			EntityID: entityID,
			Raw:      args[0].Pickle,
		}}, true

	case "onBattleEnd":
		if len(args) < 2 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventBattleEnd, BattleEnd: BattleEnd{
			WinningTeam:  int32(argInt(args[0])),
			FinishReason: int32(argInt(args[1])),
		}}, true

	case "onBattleResults":
		if len(args) < 1 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventBattleResults, BattleResults: BattleResults{
			ResultsJSON: argString(args[0]),
		}}, true

	case "receiveArtilleryShots":
		if len(args) < 1 {
			return nil, false
		}
		ids := make([]int32, 0, len(args[0].Pickle.Items))
		for _, v := range args[0].Pickle.Items {
			ids = append(ids, int32(v.Int))
		}
		var salvo wirecodec.PickleValue
		if len(args) > 1 {
			salvo = args[1].Pickle
		}
		return &Event{Clock: clock, Kind: EventArtilleryShots, ArtilleryShots: ArtilleryShots{
			ShooterID: entityID,
			ShotIDs:   ids,
			Salvo:     salvo,
		}}, true

	case "receiveTorpedoes":
		if len(args) < 1 {
			return nil, false
		}
		ids := make([]int32, 0, len(args[0].Pickle.Items))
		for _, v := range args[0].Pickle.Items {
			ids = append(ids, int32(v.Int))
		}
		var salvo wirecodec.PickleValue
		if len(args) > 1 {
			salvo = args[1].Pickle
		}
		return &Event{Clock: clock, Kind: EventTorpedoes, Torpedoes: Torpedoes{
			ShooterID: entityID,
			ShotIDs:   ids,
			Salvo:     salvo,
		}}, true

	case "receive_updateMinimapSquadron":
		if len(args) < 1 {
			return nil, false
		}
		return &Event{Clock: clock, Kind: EventMinimapSquadron, MinimapSquadron: MinimapSquadron{
			EntityID: entityID,
			Squadron: args[0].Pickle,
		}}, true

	default:
		return nil, false
	}
}

// decodeMinimapRecord unpacks a 32-bit minimap record: bits [0:11)=x,
// [11:22)=y, [22:30)=heading, [30:32)=flags, least-significant bit first
// (spec §3's worked example: x=2, y=8, heading=128, flags=0b00). The
// flags bit meanings (unknown, is_disappearing) and the heading/position
// scaling formulas follow the client's own conversion, not the spec's raw
// field boundaries, since the spec's worked example only fixes bit widths.
func decodeMinimapRecord(entityID int32, raw uint32) MinimapContact {
	x := raw & 0x7FF
	y := (raw >> 11) & 0x7FF
	heading := (raw >> 22) & 0xFF
	flags := (raw >> 30) & 0x3

	return MinimapContact{
		EntityID:   entityID,
		Pos:        replaytypes.NormalizedPos{X: float32(x)/512 - 1.5, Y: float32(y)/512 - 1.5},
		HeadingDeg: float32(heading)/256*360 - 180,
		Unknown:        flags&0x1 != 0,
		IsDisappearing: flags&0x2 != 0,
	}
}

// deathCauseFromWireCode maps receiveVehicleDeath's third argument to a
// DeathCause following analyzer/decoder.rs's literal match table
// (decoder.rs:1657-1681). Codes 18 and 19 collapse to Artillery there too;
// 28 is a second, unexplained DepthCharge code the original itself leaves
// marked TODO. Any other code is CauseUnknown with the raw value retained.
func deathCauseFromWireCode(code uint32) DeathCause {
	switch code {
	case 2:
		return CauseSecondaries
	case 3:
		return CauseTorpedo
	case 4:
		return CauseDiveBomber
	case 5:
		return CauseAerialTorpedo
	case 6:
		return CauseFire
	case 7:
		return CauseRamming
	case 9:
		return CauseFlooding
	case 13, 28:
		return CauseDepthCharge
	case 14:
		return CauseAerialRocket
	case 15:
		return CauseDetonation
	case 17, 18, 19:
		return CauseArtillery
	case 22:
		return CauseSkipBombs
	default:
		return CauseUnknown
	}
}

func argUint(v wirecodec.Value) uint64 {
	if v.Uint != 0 {
		return v.Uint
	}
	return uint64(v.Int)
}

func argInt(v wirecodec.Value) int64 {
	if v.Int != 0 {
		return v.Int
	}
	return int64(v.Uint)
}

func argFloat(v wirecodec.Value) float64 { return v.Float }

func argString(v wirecodec.Value) string {
	if v.Str != "" {
		return v.Str
	}
	return string(v.Bytes)
}

// pickleNumber returns a pickled dict entry's int as a float64; any other
// kind reads as 0 (the pickle sub-protocol has no float kind).
func pickleNumber(v wirecodec.PickleValue) float64 {
	if v.Kind == wirecodec.PickleInt {
		return float64(v.Int)
	}
	return 0
}
