package battle

import (
	"strconv"
	"strings"

	"github.com/landaire/wows-replay-go/internal/proppath"
	"github.com/landaire/wows-replay-go/internal/replaytypes"
	"github.com/landaire/wows-replay-go/internal/semantic"
	"github.com/landaire/wows-replay-go/internal/wirecodec"
)

// EntityKind tags the closed set of tracked entity shapes (spec §3's
// Entity tagged union).
type EntityKind int

const (
	EntityKindVehicle EntityKind = iota
	EntityKindBuilding
	EntityKindSmokeScreen
)

// Entity is one tracked world object, tagged by Kind.
type Entity struct {
	Kind        EntityKind
	Vehicle     *VehicleEntity
	Building    *BuildingEntity
	SmokeScreen *SmokeScreenEntity
}

// Controller reconstructs world state from the packet/semantic-event
// stream. It is forward-only and non-restartable: one Controller serves
// exactly one replay (spec §5).
type Controller struct {
	entities map[int32]*Entity
	frags    map[int32][]FragEntry // killer entity ID -> confirmed kills
	players  map[replaytypes.AccountId]*Player

	capturePoints map[int32]*CapturePointState
	teamScores    map[int32]*TeamScore

	arenaEntityID int32
	haveArena     bool
	arenaState    wirecodec.PickleValue

	timeline GameTimeline
	warnings []Warning

	clock replaytypes.GameClock
}

// NewController returns an empty, ready-to-run Controller.
func NewController() *Controller {
	return &Controller{
		entities:      make(map[int32]*Entity),
		frags:         make(map[int32][]FragEntry),
		players:       make(map[replaytypes.AccountId]*Player),
		capturePoints: make(map[int32]*CapturePointState),
		teamScores:    make(map[int32]*TeamScore),
	}
}

func (c *Controller) warn(at replaytypes.GameClock, msg string) {
	c.warnings = append(c.warnings, Warning{At: at, Message: msg})
	c.timeline.push(TimelineEvent{At: at, Kind: TimelineStateViolation, Data: msg})
}

// Warnings returns every StateViolation recorded so far.
func (c *Controller) Warnings() []Warning { return c.warnings }

// RecordDecodeError records a packet-level decode failure as a
// non-fatal Warning, letting the pipeline keep going at the next packet
// (spec §7: codec-level errors are never fatal to the run as a whole).
func (c *Controller) RecordDecodeError(clock replaytypes.GameClock, err error) {
	c.warn(clock, "decode error: "+err.Error())
}

// Timeline returns the controller's live timeline.
func (c *Controller) Timeline() *GameTimeline { return &c.timeline }

// ProcessCreate registers a newly created entity, classified by its
// resolved schema type name (spec §4.6: EntityCreate -> register vehicle).
func (c *Controller) ProcessCreate(clock replaytypes.GameClock, entityID int32, typeName string, pos replaytypes.WorldPos) {
	c.clock = clock
	switch classify(typeName) {
	case EntityKindVehicle:
		c.entities[entityID] = &Entity{Kind: EntityKindVehicle, Vehicle: &VehicleEntity{
			EntityID:    entityID,
			Pos:         pos,
			DamageStats: make(map[string]float64),
			Properties:  make(map[string]any),
		}}
		c.timeline.push(TimelineEvent{At: clock, Kind: TimelineEntityCreate, Data: entityID})
	case EntityKindBuilding:
		c.entities[entityID] = &Entity{Kind: EntityKindBuilding, Building: &BuildingEntity{EntityID: entityID, Pos: pos, Alive: true}}
	case EntityKindSmokeScreen:
		c.entities[entityID] = &Entity{Kind: EntityKindSmokeScreen, SmokeScreen: &SmokeScreenEntity{EntityID: entityID, Pos: pos, SpawnedAt: clock}}
		c.timeline.push(TimelineEvent{At: clock, Kind: TimelineSmokeScreenCreated, Data: entityID})
	}
	if strings.Contains(typeName, "Arena") || strings.Contains(typeName, "BattleLogic") {
		c.arenaEntityID = entityID
		c.haveArena = true
	}
}

// pickleNumber returns a pickled int as a float64; any other kind reads
// as 0 (the pickle sub-protocol has no float kind).
func pickleNumber(v wirecodec.PickleValue) float64 {
	if v.Kind == wirecodec.PickleInt {
		return float64(v.Int)
	}
	return 0
}

func classify(typeName string) EntityKind {
	switch {
	case strings.Contains(typeName, "Smoke"):
		return EntityKindSmokeScreen
	case strings.Contains(typeName, "Building") || strings.Contains(typeName, "Fort"):
		return EntityKindBuilding
	default:
		return EntityKindVehicle
	}
}

// ProcessLeave removes an entity from the client's area of interest. Only
// smoke screens get a timeline entry — ordinary leave events for vehicles
// just mean out of render range, not destruction (spec §4.6).
func (c *Controller) ProcessLeave(clock replaytypes.GameClock, entityID int32) {
	c.clock = clock
	ent, ok := c.entities[entityID]
	if !ok {
		c.warn(clock, "EntityLeave for unknown entity")
		return
	}
	if ent.Kind == EntityKindSmokeScreen {
		c.timeline.push(TimelineEvent{At: clock, Kind: TimelineSmokeScreenDestroyed, Data: entityID})
	}
	delete(c.entities, entityID)
}

// vehicle looks up a tracked vehicle, recording a StateViolation if the
// entity is unknown or not a vehicle.
func (c *Controller) vehicle(clock replaytypes.GameClock, entityID int32, context string) *VehicleEntity {
	ent, ok := c.entities[entityID]
	if !ok || ent.Kind != EntityKindVehicle {
		c.warn(clock, context+": entity "+strconv.Itoa(int(entityID))+" is not a tracked vehicle")
		return nil
	}
	return ent.Vehicle
}

// Process applies one semantic event to the world state. ev may be nil
// for packets that carry no semantic meaning (lifecycle is handled via
// ProcessCreate/ProcessLeave instead, driven directly by the packet
// stream — see pipeline.Decode).
func (c *Controller) Process(ev *semantic.Event) {
	if ev == nil {
		return
	}
	c.clock = ev.Clock

	switch ev.Kind {
	case semantic.EventShipDestroyed:
		c.processShipDestroyed(ev)
	case semantic.EventDamageReceived:
		c.processDamageReceived(ev)
	case semantic.EventDamageStat:
		c.processDamageStat(ev)
	case semantic.EventPropertyUpdate:
		c.processPropertyUpdate(ev)
	case semantic.EventChat:
		c.timeline.push(TimelineEvent{At: ev.Clock, Kind: TimelineChat, Data: ev.Chat})
	case semantic.EventRibbon:
		c.timeline.push(TimelineEvent{At: ev.Clock, Kind: TimelineRibbon, Data: ev.Ribbon})
	case semantic.EventConsumable:
		c.timeline.push(TimelineEvent{At: ev.Clock, Kind: TimelineConsumableUsed, Data: ev.Consumable})
	case semantic.EventArenaStateReceived:
		c.processArenaStateReceived(ev)
	case semantic.EventGameRoomStateChanged:
		c.processGameRoomStateChanged(ev)
	}
}

// processArenaStateReceived builds the player roster from the pickled
// arena-state blob: a list of dicts with accountId/name/teamId/shipId keys
// (spec §4.7: "link to player by playerAvatarId" — shipId is that link).
// Malformed roster entries are dropped, not fatal (spec §4.7).
func (c *Controller) processArenaStateReceived(ev *semantic.Event) {
	for _, entry := range ev.ArenaStateReceived.Raw.Items {
		accountIDv, ok := entry.StringKey("accountId")
		if !ok {
			c.warn(ev.Clock, "arena roster entry missing accountId")
			continue
		}
		accountID := replaytypes.AccountIdFromInt64(accountIDv.Int)

		p := &Player{AccountID: accountID}
		if v, ok := entry.StringKey("name"); ok {
			p.Name = v.String
		}
		if v, ok := entry.StringKey("teamId"); ok {
			p.TeamID = int32(v.Int)
		}
		if v, ok := entry.StringKey("isHidden"); ok {
			p.IsHidden = v.Bool
		}
		if v, ok := entry.StringKey("shipId"); ok {
			vehicleID := int32(v.Int)
			p.VehicleIDs = append(p.VehicleIDs, vehicleID)
			if ent, ok := c.entities[vehicleID]; ok && ent.Kind == EntityKindVehicle {
				ent.Vehicle.PlayerID = accountID
			}
		}
		c.players[accountID] = p
	}
}

// processGameRoomStateChanged appends a connection-change record to the
// affected player, flagging whether the vehicle is currently dead
// (SUPPLEMENTED: original_source's ConnectionChangeInfo.had_death_event).
func (c *Controller) processGameRoomStateChanged(ev *semantic.Event) {
	raw := ev.GameRoomStateChanged.Raw
	accountIDv, ok := raw.StringKey("accountId")
	if !ok {
		c.warn(ev.Clock, "GameRoomStateChanged missing accountId")
		return
	}
	p, ok := c.players[replaytypes.AccountIdFromInt64(accountIDv.Int)]
	if !ok {
		c.warn(ev.Clock, "GameRoomStateChanged for unknown player")
		return
	}
	kind := ConnectionDropped
	if v, ok := raw.StringKey("connected"); ok && v.Bool {
		kind = ConnectionRestored
	}
	hadDeath := false
	for _, vid := range p.VehicleIDs {
		if v := c.vehicle(ev.Clock, vid, "GameRoomStateChanged"); v != nil && v.Dead {
			hadDeath = true
		}
	}
	p.ConnectionChanges = append(p.ConnectionChanges, ConnectionChange{At: ev.Clock, Kind: kind, HadDeath: hadDeath})
}

func (c *Controller) processShipDestroyed(ev *semantic.Event) {
	sd := ev.ShipDestroyed
	if ent, ok := c.entities[sd.VictimID]; ok && ent.Kind == EntityKindBuilding {
		ent.Building.Alive = false
		c.timeline.push(TimelineEvent{At: ev.Clock, Kind: TimelineShipDestroyed, Data: sd})
		return
	}
	v := c.vehicle(ev.Clock, sd.VictimID, "ShipDestroyed")
	if v == nil {
		return
	}
	if v.Dead {
		c.warn(ev.Clock, "duplicate ShipDestroyed for entity "+strconv.Itoa(int(sd.VictimID))+", keeping first")
		return
	}
	v.Dead = true
	v.Death = &DeathInfo{At: ev.Clock, Killer: sd.KillerID, Cause: sd.Cause, Self: sd.Self}

	if !sd.Self {
		c.frags[sd.KillerID] = append(c.frags[sd.KillerID], FragEntry{VictimID: sd.VictimID, Death: *v.Death})
	}
	c.timeline.push(TimelineEvent{At: ev.Clock, Kind: TimelineShipDestroyed, Data: sd})
}

func (c *Controller) processDamageReceived(ev *semantic.Event) {
	victim := c.vehicle(ev.Clock, ev.DamageReceived.VictimID, "DamageReceived")
	for _, hit := range ev.DamageReceived.Hits {
		if victim != nil {
			victim.DamageTaken += float64(hit.Amount)
		}
		attacker := c.vehicle(ev.Clock, hit.AttackerID, "DamageReceived")
		if attacker == nil {
			continue
		}
		attacker.DamageDealt += float64(hit.Amount)
	}
}

func (c *Controller) processDamageStat(ev *semantic.Event) {
	v := c.vehicle(ev.Clock, ev.DamageStat.EntityID, "DamageStat")
	if v == nil {
		return
	}
	for _, e := range ev.DamageStat.Entries {
		v.DamageStats[e.Bucket] += float64(e.Amount)
	}
}

func (c *Controller) processPropertyUpdate(ev *semantic.Event) {
	pu := ev.PropertyUpdate

	if c.haveArena && pu.EntityID == c.arenaEntityID {
		c.applyArenaUpdate(ev.Clock, pu)
		return
	}

	v := c.vehicle(ev.Clock, pu.EntityID, "PropertyUpdate")
	if v == nil {
		return
	}
	if pu.FullValue != nil {
		v.Properties[strconv.Itoa(int(pu.PropertyIndex))] = pu.FullValue
		return
	}
	c.warn(ev.Clock, "nested PropertyUpdate on a non-arena vehicle property is not modeled; dropped")
}

func (c *Controller) applyArenaUpdate(clock replaytypes.GameClock, pu semantic.PropertyUpdate) {
	if pu.FullValue != nil {
		c.arenaState = pu.FullValue.Pickle
	} else {
		next, err := proppath.Apply(c.arenaState, pu.Path, pu.Action)
		if err != nil {
			c.warn(clock, "arena state PropertyUpdate: "+err.Error())
			return
		}
		c.arenaState = next
	}
	c.rederiveArenaAggregates(clock)
}

// rederiveArenaAggregates walks the arena's pickled state for
// controlPoints and missions.teamsScore, refreshing the controller's
// derived views (spec §3's SUPPLEMENTED capture-point fields).
func (c *Controller) rederiveArenaAggregates(clock replaytypes.GameClock) {
	if cps, ok := c.arenaState.StringKey("controlPoints"); ok {
		for i, cp := range cps.Items {
			state := &CapturePointState{Index: int32(i)}
			if v, ok := cp.StringKey("hasInvaders"); ok {
				state.HasInvaders = v.Bool
			}
			if v, ok := cp.StringKey("invaderTeam"); ok {
				state.InvaderTeam = int32(v.Int)
			}
			if v, ok := cp.StringKey("bothInside"); ok {
				state.BothInside = v.Bool
			}
			if v, ok := cp.StringKey("progress"); ok {
				for j, item := range v.Items {
					if j >= 2 {
						break
					}
					state.Progress[j] = float32(pickleNumber(item))
				}
			}
			prev, existed := c.capturePoints[int32(i)]
			c.capturePoints[int32(i)] = state
			if !existed || *prev != *state {
				c.timeline.push(TimelineEvent{At: clock, Kind: TimelineCapturePointChanged, Data: *state})
			}
		}
	}

	if missions, ok := c.arenaState.StringKey("missions"); ok {
		if scores, ok := missions.StringKey("teamsScore"); ok {
			for i, s := range scores.Items {
				score := &TeamScore{TeamID: int32(i)}
				if v, ok := s.StringKey("score"); ok {
					score.Score = int32(v.Int)
				}
				prev, existed := c.teamScores[int32(i)]
				c.teamScores[int32(i)] = score
				if !existed || *prev != *score {
					c.timeline.push(TimelineEvent{At: clock, Kind: TimelineTeamScoreChanged, Data: *score})
				}
			}
		}
	}
}

