package status

// VT100 control sequences used on the operator console.
const (
	ClearScreen = "\x1b[2J\x1b[H"
	Red         = "\x1b[31m"
	Green       = "\x1b[32m"
	Yellow      = "\x1b[33m"
	Default     = "\x1b[39m"
)
