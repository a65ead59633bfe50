package analyzer

import (
	"fmt"
	"io"

	"github.com/landaire/wows-replay-go/internal/packet"
	"github.com/landaire/wows-replay-go/internal/semantic"
)

// ChatLogger prints every Chat and VoiceLine event as it arrives,
// resolving the sending entity to a username once a roster has been
// observed via ArenaStateReceived (grounded on original_source's
// analyzer/chat.rs, which keeps the same sender-id -> username map).
type ChatLogger struct {
	decoder   *semantic.Decoder
	usernames map[int32]string
	out       io.Writer
}

// NewChatLogger returns a ChatLogger that decodes packets with decoder
// and writes formatted lines to out.
func NewChatLogger(decoder *semantic.Decoder, out io.Writer) *ChatLogger {
	return &ChatLogger{decoder: decoder, usernames: make(map[int32]string), out: out}
}

func (c *ChatLogger) Process(p packet.Packet) {
	ev, err := c.decoder.Process(p)
	if err != nil || ev == nil {
		return
	}

	switch ev.Kind {
	case semantic.EventChat:
		fmt.Fprintf(c.out, "%.1f: %s: %s\n", ev.Clock, c.nameOf(ev.Chat.SenderID), ev.Chat.Message)
	case semantic.EventVoiceLine:
		fmt.Fprintf(c.out, "%.1f: %s: voiceline %d\n", ev.Clock, c.nameOf(ev.VoiceLine.EntityID), ev.VoiceLine.LineID)
	case semantic.EventArenaStateReceived:
		c.trackRoster(ev.ArenaStateReceived)
	}
}

func (c *ChatLogger) Finish() {}

func (c *ChatLogger) nameOf(entityID int32) string {
	if name, ok := c.usernames[entityID]; ok {
		return name
	}
	return "<UNKNOWN_USERNAME>"
}

// trackRoster indexes each roster entry's name by its avatarId (the
// entity id chat/voiceline methods are called against), falling back to
// shipId when avatarId is absent.
func (c *ChatLogger) trackRoster(arena semantic.ArenaStateReceived) {
	for _, entry := range arena.Raw.Items {
		name, ok := entry.StringKey("name")
		if !ok {
			continue
		}
		if avatarID, ok := entry.StringKey("avatarId"); ok {
			c.usernames[int32(avatarID.Int)] = name.String
			continue
		}
		if shipID, ok := entry.StringKey("shipId"); ok {
			c.usernames[int32(shipID.Int)] = name.String
		}
	}
}
