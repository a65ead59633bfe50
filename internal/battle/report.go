package battle

import (
	"sort"

	"github.com/landaire/wows-replay-go/internal/replaytypes"
)

// FragEntry is one confirmed kill, attributed to the killer.
type FragEntry struct {
	VictimID int32
	Death    DeathInfo
}

// PlayerReport summarizes one vehicle's final stats for the report, joined
// to its owning Player roster entry when one was linked via
// ArenaStateReceived.
type PlayerReport struct {
	EntityID          int32
	AccountID         replaytypes.AccountId
	Name              string
	TeamID            int32
	DamageDealt       float64
	DamageTaken       float64
	DamageStats       map[string]float64
	Frags             []FragEntry
	Died              bool
	Death             *DeathInfo
	ConnectionChanges []ConnectionChange
}

// BuildingReport is one static map object's final state.
type BuildingReport struct {
	EntityID int32
	Pos      replaytypes.WorldPos
	Alive    bool
}

// BattleReport is the final, immutable snapshot produced by BuildReport.
// It aliases none of the Controller's internal mutable state.
type BattleReport struct {
	Players       []PlayerReport
	Buildings     []BuildingReport
	CapturePoints []CapturePointState
	TeamScores    []TeamScore
	Timeline      []TimelineEvent
	Warnings      []Warning
}

// BuildReport finalizes the controller's accumulated state into a
// BattleReport. It is safe to call exactly once, after the packet/event
// stream has been fully consumed (spec §4.6/§4.8).
func (c *Controller) BuildReport() BattleReport {
	players := make([]PlayerReport, 0, len(c.entities))
	for id, ent := range c.entities {
		if ent.Kind != EntityKindVehicle {
			continue
		}
		v := ent.Vehicle
		pr := PlayerReport{
			EntityID:    id,
			DamageDealt: v.DamageDealt,
			DamageTaken: v.DamageTaken,
			DamageStats: copyFloatMap(v.DamageStats),
			Died:        v.Dead,
		}
		if v.Death != nil {
			d := *v.Death
			pr.Death = &d
		}
		pr.Frags = append(pr.Frags, c.frags[id]...)
		if v.PlayerID != 0 {
			if p, ok := c.players[v.PlayerID]; ok {
				pr.AccountID = p.AccountID
				pr.Name = p.Name
				pr.TeamID = p.TeamID
				pr.ConnectionChanges = append([]ConnectionChange(nil), p.ConnectionChanges...)
			}
		}
		players = append(players, pr)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].DamageDealt != players[j].DamageDealt {
			return players[i].DamageDealt > players[j].DamageDealt
		}
		return players[i].EntityID < players[j].EntityID
	})

	buildings := make([]BuildingReport, 0)
	for id, ent := range c.entities {
		if ent.Kind != EntityKindBuilding {
			continue
		}
		buildings = append(buildings, BuildingReport{EntityID: id, Pos: ent.Building.Pos, Alive: ent.Building.Alive})
	}
	sort.Slice(buildings, func(i, j int) bool { return buildings[i].EntityID < buildings[j].EntityID })

	cps := make([]CapturePointState, 0, len(c.capturePoints))
	for _, cp := range c.capturePoints {
		cps = append(cps, *cp)
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i].Index < cps[j].Index })

	scores := make([]TeamScore, 0, len(c.teamScores))
	for _, s := range c.teamScores {
		scores = append(scores, *s)
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].TeamID < scores[j].TeamID })

	return BattleReport{
		Players:       players,
		Buildings:     buildings,
		CapturePoints: cps,
		TeamScores:    scores,
		Timeline:      append([]TimelineEvent(nil), c.timeline.events...),
		Warnings:      append([]Warning(nil), c.warnings...),
	}
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
