package domain

// CommandType classifies what the user wants the timer to do.
type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandStart
	CommandCancel
	CommandRestart
	CommandStatus
	CommandHelp
	CommandQuit
)

// String returns a human-readable command type.
func (c CommandType) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandCancel:
		return "cancel"
	case CommandRestart:
		return "restart"
	case CommandStatus:
		return "status"
	case CommandHelp:
		return "help"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command represents a parsed user action.
type Command struct {
	Type  CommandType
	Input string // the raw text, kept for unknown commands
}
