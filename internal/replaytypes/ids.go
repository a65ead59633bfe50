// Package replaytypes holds the small value types shared by every stage of
// the decode pipeline: account/resource identifiers, world/minimap
// positions, and the replay clock.
package replaytypes

import "fmt"

// AccountId is a persistent player account identifier (db_id, avatar_id),
// threaded from the ArenaStateReceived roster through to the final report
// (internal/battle's Player/PlayerReport).
type AccountId uint64

func (id AccountId) String() string { return fmt.Sprintf("%d", uint64(id)) }

// AccountIdFromInt64 converts a signed wire value.
func AccountIdFromInt64(v int64) AccountId { return AccountId(uint64(v)) }

// GameParamId identifies a row in the external GameParams data set (ships,
// equipment, consumables). The engine never resolves these itself; it hands
// them to the ResourceLoader capability (internal/resource).
type GameParamId uint32

func (id GameParamId) String() string { return fmt.Sprintf("%d", uint32(id)) }

// GameParamIdFromInt64 converts a signed wire value (truncated to 32 bits,
// matching the game's own representation).
func GameParamIdFromInt64(v int64) GameParamId { return GameParamId(uint32(v)) }
