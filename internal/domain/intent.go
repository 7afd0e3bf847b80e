package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentTap
	IntentStart
	IntentStop
	IntentSetMode
	IntentSetSpeed
	IntentListChants
	IntentSelectChant
	IntentSetChantText
	IntentSuggestVoice
	IntentRecord
	IntentHistory
	IntentStatus
	IntentSave
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentTap:
		return "tap"
	case IntentStart:
		return "start"
	case IntentStop:
		return "stop"
	case IntentSetMode:
		return "set_mode"
	case IntentSetSpeed:
		return "set_speed"
	case IntentListChants:
		return "list_chants"
	case IntentSelectChant:
		return "select_chant"
	case IntentSetChantText:
		return "set_chant_text"
	case IntentSuggestVoice:
		return "suggest_voice"
	case IntentRecord:
		return "record"
	case IntentHistory:
		return "history"
	case IntentStatus:
		return "status"
	case IntentSave:
		return "save"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string // optional argument, e.g. chant number or voice style
}
