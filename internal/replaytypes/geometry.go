package replaytypes

import (
	"fmt"
	"time"
)

// WorldPos is a world-space position in the game's coordinate system: X is
// east/west, Y is altitude, Z is north/south, origin at map center.
type WorldPos struct {
	X, Y, Z float32
}

func (p WorldPos) Add(o WorldPos) WorldPos { return WorldPos{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }
func (p WorldPos) Sub(o WorldPos) WorldPos { return WorldPos{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }
func (p WorldPos) Scale(k float32) WorldPos { return WorldPos{p.X * k, p.Y * k, p.Z * k} }

// Lerp linearly interpolates between two world positions.
func (p WorldPos) Lerp(o WorldPos, t float32) WorldPos {
	return p.Add(o.Sub(p).Scale(t))
}

// Rotation holds a ship or camera's yaw/pitch/roll in radians.
type Rotation struct {
	Yaw, Pitch, Roll float32
}

// NormalizedPos is a minimap position with values roughly in [-0.5, 1.5],
// centered on [0,1]. X: 0 = left edge, 1 = right edge. Y: 0 = bottom edge,
// 1 = top edge.
type NormalizedPos struct {
	X, Y float32
}

// GameClock is elapsed real-time seconds since the replay started
// recording. There is typically a ~30s pre-game countdown baked into every
// clock value.
type GameClock float32

func (c GameClock) Seconds() float32 { return float32(c) }

func (c GameClock) Duration() time.Duration { return time.Duration(float32(c) * float32(time.Second)) }

// GameTime returns the clock value after subtracting the pre-game
// countdown, clamped to zero.
func (c GameClock) GameTime() float32 {
	v := float32(c) - 30.0
	if v < 0 {
		return 0
	}
	return v
}

func (c GameClock) String() string { return fmt.Sprintf("%.1fs", float32(c)) }

// Before reports whether c is strictly earlier than o.
func (c GameClock) Before(o GameClock) bool { return c < o }
