package chat

// Native Source 2 chat color escapes.
const (
	Default     = "\x01"
	DarkRed     = "\x02"
	LightPurple = "\x03"
	Green       = "\x04"
	Olive       = "\x05"
	Lime        = "\x06"
	Red         = "\x07"
	Grey        = "\x08"
	Yellow      = "\x09"
	Silver      = "\x0A"
	Blue        = "\x0B"
	DarkBlue    = "\x0C"
	Purple      = "\x0E"
	LightRed    = "\x0F"
	Gold        = "\x10"
)

// Palette maps lower-case token names to native escapes.
type Palette map[string]string

// Source2 is the default palette. Several names alias the same escape.
var Source2 = Palette{
	"default":     Default,
	"white":       Default,
	"darkred":     DarkRed,
	"lightpurple": LightPurple,
	"green":       Green,
	"olive":       Olive,
	"lime":        Lime,
	"red":         Red,
	"grey":        Grey,
	"gray":        Grey,
	"yellow":      Yellow,
	"lightyellow": Yellow,
	"silver":      Silver,
	"bluegrey":    Silver,
	"blue":        Blue,
	"lightblue":   Blue,
	"darkblue":    DarkBlue,
	"purple":      Purple,
	"magenta":     Purple,
	"lightred":    LightRed,
	"gold":        Gold,
	"orange":      Gold,
}

// ansi maps native escapes to SGR sequences for terminal output.
var ansi = map[byte]string{
	0x01: "\x1b[0m",
	0x02: "\x1b[31m",
	0x03: "\x1b[95m",
	0x04: "\x1b[32m",
	0x05: "\x1b[33m",
	0x06: "\x1b[92m",
	0x07: "\x1b[91m",
	0x08: "\x1b[90m",
	0x09: "\x1b[93m",
	0x0A: "\x1b[37m",
	0x0B: "\x1b[94m",
	0x0C: "\x1b[34m",
	0x0E: "\x1b[35m",
	0x0F: "\x1b[91m",
	0x10: "\x1b[38;5;214m",
}
