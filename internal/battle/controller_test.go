package battle

import (
	"testing"

	"github.com/landaire/wows-replay-go/internal/proppath"
	"github.com/landaire/wows-replay-go/internal/replaytypes"
	"github.com/landaire/wows-replay-go/internal/semantic"
	"github.com/landaire/wows-replay-go/internal/wirecodec"
)

func replayPos() replaytypes.WorldPos { return replaytypes.WorldPos{} }

func pstr(s string) wirecodec.PickleValue { return wirecodec.PickleValue{Kind: wirecodec.PickleString, String: s} }
func pint(n int64) wirecodec.PickleValue  { return wirecodec.PickleValue{Kind: wirecodec.PickleInt, Int: n} }
func pbool(b bool) wirecodec.PickleValue  { return wirecodec.PickleValue{Kind: wirecodec.PickleBool, Bool: b} }

func pdict(entries ...wirecodec.PickleEntry) wirecodec.PickleValue {
	return wirecodec.PickleValue{Kind: wirecodec.PickleDict, DictEntries: entries}
}

func plist(items ...wirecodec.PickleValue) wirecodec.PickleValue {
	return wirecodec.PickleValue{Kind: wirecodec.PickleList, Items: items}
}

func entry(k string, v wirecodec.PickleValue) wirecodec.PickleEntry {
	return wirecodec.PickleEntry{Key: pstr(k), Value: v}
}

// TestSelfDestructionScenario mirrors spec §8 scenario 2: a self-frag
// records the death but excludes the attacker's frag count.
func TestSelfDestructionScenario(t *testing.T) {
	c := NewController()
	c.ProcessCreate(0, 7, "Ship", replayPos())

	c.Process(&semantic.Event{Clock: 1, Kind: semantic.EventShipDestroyed, ShipDestroyed: semantic.ShipDestroyed{
		VictimID: 7, KillerID: 7, Cause: semantic.CauseDetonation, Self: true,
	}})

	report := c.BuildReport()
	if len(report.Players) != 1 {
		t.Fatalf("Players = %+v", report.Players)
	}
	p := report.Players[0]
	if !p.Died || p.Death == nil || p.Death.Cause != semantic.CauseDetonation || !p.Death.Self {
		t.Fatalf("Death = %+v", p.Death)
	}
	if len(p.Frags) != 0 {
		t.Fatalf("expected no frags for a self-destruct, got %+v", p.Frags)
	}
}

// TestCapturePointProgressScenario mirrors spec §8 scenario 3.
func TestCapturePointProgressScenario(t *testing.T) {
	c := NewController()
	c.ProcessCreate(0, 99, "BattleLogic", replayPos())

	initial := pdict(entry("controlPoints", plist(pdict(entry("progress", plist(pint(0), pint(0)))))))
	c.Process(&semantic.Event{Clock: 0, Kind: semantic.EventPropertyUpdate, PropertyUpdate: semantic.PropertyUpdate{
		EntityID: 99, FullValue: &wirecodec.Value{Pickle: initial},
	}})

	path := []proppath.Level{{Kind: proppath.LevelDictKey, Key: "controlPoints"}, {Kind: proppath.LevelArrayIndex, Index: 0}}
	action := proppath.Action{Kind: proppath.ActionSetKey, Key: "progress", Value: plist(pint(0), pint(3))}
	c.Process(&semantic.Event{Clock: 1, Kind: semantic.EventPropertyUpdate, PropertyUpdate: semantic.PropertyUpdate{
		EntityID: 99, Path: path, Action: action,
	}})

	report := c.BuildReport()
	if len(report.CapturePoints) != 1 {
		t.Fatalf("CapturePoints = %+v", report.CapturePoints)
	}
	if got := report.CapturePoints[0].Progress; got != [2]float32{0, 3} {
		t.Fatalf("Progress = %v, want [0 3]", got)
	}
}

// TestUnknownEntityMethodScenario mirrors spec §8 scenario 6: a
// StateViolation is recorded and processing continues.
func TestUnknownEntityMethodScenario(t *testing.T) {
	c := NewController()
	c.Process(&semantic.Event{Clock: 0, Kind: semantic.EventDamageStat, DamageStat: semantic.DamageStat{EntityID: 404}})

	if len(c.Warnings()) != 1 {
		t.Fatalf("Warnings = %+v", c.Warnings())
	}

	// A later, well-formed event still gets processed.
	c.ProcessCreate(1, 1, "Ship", replayPos())
	c.Process(&semantic.Event{Clock: 2, Kind: semantic.EventDamageStat, DamageStat: semantic.DamageStat{
		EntityID: 1, Entries: []semantic.DamageStatEntry{{Bucket: "AP", Amount: 10}},
	}})
	report := c.BuildReport()
	if len(report.Players) != 1 || report.Players[0].DamageStats["AP"] != 10 {
		t.Fatalf("Players = %+v", report.Players)
	}
}

// TestDamageReceivedAccumulatesOnVictimAndAttacker mirrors spec §8's
// testable property: damage_taken(v) = sum of Amount over every
// DamageReceived hit targeting v, while each attacker's DamageDealt
// accrues independently from the same hits.
func TestDamageReceivedAccumulatesOnVictimAndAttacker(t *testing.T) {
	c := NewController()
	c.ProcessCreate(0, 1, "Ship", replayPos())
	c.ProcessCreate(0, 2, "Ship", replayPos())
	c.ProcessCreate(0, 3, "Ship", replayPos())

	c.Process(&semantic.Event{Clock: 1, Kind: semantic.EventDamageReceived, DamageReceived: semantic.DamageReceived{
		VictimID: 1,
		Hits: []semantic.DamageHit{
			{AttackerID: 2, Amount: 500},
			{AttackerID: 3, Amount: 250},
		},
	}})
	c.Process(&semantic.Event{Clock: 2, Kind: semantic.EventDamageReceived, DamageReceived: semantic.DamageReceived{
		VictimID: 1,
		Hits:     []semantic.DamageHit{{AttackerID: 2, Amount: 100}},
	}})

	report := c.BuildReport()
	byID := make(map[int32]PlayerReport, len(report.Players))
	for _, p := range report.Players {
		byID[p.EntityID] = p
	}

	if got := byID[1].DamageTaken; got != 850 {
		t.Fatalf("victim DamageTaken = %v, want 850", got)
	}
	if got := byID[2].DamageDealt; got != 600 {
		t.Fatalf("attacker 2 DamageDealt = %v, want 600", got)
	}
	if got := byID[3].DamageDealt; got != 250 {
		t.Fatalf("attacker 3 DamageDealt = %v, want 250", got)
	}
	if byID[1].DamageDealt != 0 {
		t.Fatalf("victim DamageDealt = %v, want 0", byID[1].DamageDealt)
	}
}

func TestDuplicateShipDestroyedFirstWins(t *testing.T) {
	c := NewController()
	c.ProcessCreate(0, 1, "Ship", replayPos())

	c.Process(&semantic.Event{Clock: 1, Kind: semantic.EventShipDestroyed, ShipDestroyed: semantic.ShipDestroyed{VictimID: 1, KillerID: 2, Cause: semantic.CauseArtillery}})
	c.Process(&semantic.Event{Clock: 2, Kind: semantic.EventShipDestroyed, ShipDestroyed: semantic.ShipDestroyed{VictimID: 1, KillerID: 3, Cause: semantic.CauseTorpedo}})

	report := c.BuildReport()
	if report.Players[0].Death.Killer != 2 {
		t.Fatalf("expected first-wins killer=2, got %+v", report.Players[0].Death)
	}
	found := false
	for _, w := range report.Warnings {
		if w.Message != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning for the duplicate ShipDestroyed")
	}
}

func TestBuildingDestroyed(t *testing.T) {
	c := NewController()
	c.ProcessCreate(0, 50, "CoastalFortBuilding", replayPos())
	c.Process(&semantic.Event{Clock: 1, Kind: semantic.EventShipDestroyed, ShipDestroyed: semantic.ShipDestroyed{VictimID: 50, KillerID: 1}})

	report := c.BuildReport()
	if len(report.Buildings) != 1 || report.Buildings[0].Alive {
		t.Fatalf("Buildings = %+v", report.Buildings)
	}
}

func TestArenaStateRosterLinksVehicleToPlayer(t *testing.T) {
	c := NewController()
	c.ProcessCreate(0, 1, "Ship", replayPos())

	roster := plist(pdict(
		entry("accountId", pint(555)),
		entry("name", pstr("Bismarck_Fan")),
		entry("teamId", pint(1)),
		entry("shipId", pint(1)),
	))
	c.Process(&semantic.Event{Clock: 0, Kind: semantic.EventArenaStateReceived, ArenaStateReceived: semantic.ArenaStateReceived{Raw: roster}})

	report := c.BuildReport()
	if len(report.Players) != 1 || report.Players[0].AccountID != 555 || report.Players[0].Name != "Bismarck_Fan" {
		t.Fatalf("Players = %+v", report.Players)
	}
}

func TestGameRoomStateChangedRecordsConnectionChange(t *testing.T) {
	c := NewController()
	c.ProcessCreate(0, 1, "Ship", replayPos())
	roster := plist(pdict(entry("accountId", pint(555)), entry("shipId", pint(1))))
	c.Process(&semantic.Event{Clock: 0, Kind: semantic.EventArenaStateReceived, ArenaStateReceived: semantic.ArenaStateReceived{Raw: roster}})

	change := pdict(entry("accountId", pint(555)), entry("connected", pbool(false)))
	c.Process(&semantic.Event{Clock: 5, Kind: semantic.EventGameRoomStateChanged, GameRoomStateChanged: semantic.GameRoomStateChanged{Raw: change}})

	report := c.BuildReport()
	if len(report.Players[0].ConnectionChanges) != 1 || report.Players[0].ConnectionChanges[0].Kind != ConnectionDropped {
		t.Fatalf("ConnectionChanges = %+v", report.Players[0].ConnectionChanges)
	}
}
