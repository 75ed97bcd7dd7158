package chat

import "strings"

// Markers are the line prefixes and literal the remote service uses to frame its stream.
type Markers struct {
	DataPrefix string `toml:"data_prefix"`
	Sentinel   string `toml:"sentinel"`
	IDPrefix   string `toml:"id_prefix"`
}

// DefaultMarkers returns the framing used by the SkillCycle chat service.
func DefaultMarkers() Markers {
	return Markers{
		DataPrefix: "data: ",
		Sentinel:   "[DONE]",
		IDPrefix:   "END_",
	}
}

// FrameKind classifies a single complete line of the stream.
type FrameKind int

const (
	FrameEmpty FrameKind = iota
	FramePayload
	FrameSentinel
	FrameConversationID
	FrameUnknown
)

func (k FrameKind) String() string {
	switch k {
	case FrameEmpty:
		return "empty"
	case FramePayload:
		return "payload"
	case FrameSentinel:
		return "sentinel"
	case FrameConversationID:
		return "conversation_id"
	default:
		return "unknown"
	}
}

// Frame is a classified line. Value holds the payload body or the conversation ID,
// and the trimmed raw line for unknown frames.
type Frame struct {
	Kind  FrameKind
	Value string
}

// Classify trims line and maps it to a Frame. It must only be called with complete
// lines; partial lines stay in a LineBuffer until terminated.
func (m Markers) Classify(line string) Frame {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Frame{Kind: FrameEmpty}
	}

	if m.DataPrefix != "" && strings.HasPrefix(trimmed, m.DataPrefix) {
		body := strings.TrimPrefix(trimmed, m.DataPrefix)
		if body == m.Sentinel {
			return Frame{Kind: FrameSentinel}
		}
		return Frame{Kind: FramePayload, Value: body}
	}

	if m.IDPrefix != "" && strings.HasPrefix(trimmed, m.IDPrefix) {
		return Frame{Kind: FrameConversationID, Value: strings.TrimPrefix(trimmed, m.IDPrefix)}
	}

	return Frame{Kind: FrameUnknown, Value: trimmed}
}
