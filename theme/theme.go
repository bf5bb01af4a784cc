// Package theme manages display color palettes with dark/light variants
package theme

// Mode controls whether the dark or light variant is rendered.
type Mode int

const (
	ModeAuto Mode = iota // dark at night, light during the day
	ModeDark
	ModeLight
)

// Palette indices. Classic and Minecraft are built in and immutable,
// Custom is user editable and persisted.
const (
	PaletteClassic = iota
	PaletteMinecraft
	PaletteCustom

	PaletteCount
)

// Colors assigns an RGB565 value to each semantic role for one variant.
// Roles are split between text drawn on the main background and text
// drawn inside card containers, since some palettes need different
// contrast on each surface.
type Colors struct {
	Background      uint16 `json:"bg"`
	Card            uint16 `json:"card"`
	Text            uint16 `json:"text"`
	TextOnCard      uint16 `json:"textOnCard"`
	Accent          uint16 `json:"accent"`
	AccentOnCard    uint16 `json:"accentOnCard"`
	Warm            uint16 `json:"warm"`
	WarmOnCard      uint16 `json:"warmOnCard"`
	Cool            uint16 `json:"cool"`
	CoolOnCard      uint16 `json:"coolOnCard"`
	Secondary       uint16 `json:"secondary"`
	SecondaryOnCard uint16 `json:"secondaryOnCard"`
}

// Palette is a named pair of color variants.
type Palette struct {
	Name  string `json:"name"`
	Dark  Colors `json:"dark"`
	Light Colors `json:"light"`
}

var classicDark = Colors{
	Background:      0x1083, // true neutral dark
	Card:            0x18E4, // slightly elevated gray
	Text:            0xFFFF,
	TextOnCard:      0xFFFF,
	Accent:          0x5DDE, // soft sky blue
	AccentOnCard:    0x5DDE,
	Warm:            0xFC60, // warm amber
	WarmOnCard:      0xFC60,
	Cool:            0x4C1F, // clean blue
	CoolOnCard:      0x4C1F,
	Secondary:       0x9CF3,
	SecondaryOnCard: 0x9CF3,
}

var classicLight = Colors{
	Background:      0xF79E, // warm off-white
	Card:            0xFFFF,
	Text:            0x2104,
	TextOnCard:      0x2104,
	Accent:          0x2B52, // deep teal
	AccentOnCard:    0x2B52,
	Warm:            0xD340, // burnt orange
	WarmOnCard:      0xD340,
	Cool:            0x2B1D,
	CoolOnCard:      0x2B1D,
	Secondary:       0x528A,
	SecondaryOnCard: 0x528A,
}

var minecraftDark = Colors{
	Background:      0x0862, // night sky
	Card:            0x1B22, // dark grass block
	Text:            0xF79D,
	TextOnCard:      0xF79D,
	Accent:          0x4F7B, // diamond ore
	AccentOnCard:    0x4F7B,
	Warm:            0xFC84, // lava glow
	WarmOnCard:      0xFC84,
	Cool:            0x3399, // night water
	CoolOnCard:      0x3399,
	Secondary:       0x8410, // stone
	SecondaryOnCard: 0x8410,
}

// Light sand background needs dark accents while the gray stone cards
// need bright ones, so this is the one palette where the on-card roles
// genuinely differ.
var minecraftLight = Colors{
	Background:      0xEF5D, // light sand
	Card:            0x8410, // cobblestone gray
	Text:            0x2903, // dark oak
	TextOnCard:      0xFFFF,
	Accent:          0x1AC2, // dark grass
	AccentOnCard:    0x5FE9, // bright grass
	Warm:            0xCC00, // deep gold
	WarmOnCard:      0xFE00, // bright gold
	Cool:            0x1A94, // deep water
	CoolOnCard:      0x5DDF, // bright water
	Secondary:       0x4A49,
	SecondaryOnCard: 0xC618,
}

var builtins = [...]Palette{
	{Name: "Classic", Dark: classicDark, Light: classicLight},
	{Name: "Minecraft", Dark: minecraftDark, Light: minecraftLight},
}

// Builtin returns the built-in palette for the given index. The custom
// index and anything out of range fall back to Classic.
func Builtin(index int) Palette {
	if index < 0 || index >= len(builtins) {
		return builtins[PaletteClassic]
	}
	return builtins[index]
}

// DefaultCustom is the starting point for the user-editable palette.
func DefaultCustom() Palette {
	return Palette{Name: "Custom", Dark: classicDark, Light: classicLight}
}

// IsBuiltin reports whether the palette at index is immutable.
func IsBuiltin(index int) bool {
	return index >= 0 && index < len(builtins)
}

// Resolve selects the concrete color set for a palette given the theme
// mode and the day/night signal. It is a pure lookup with no I/O.
func Resolve(p Palette, mode Mode, dark bool) Colors {
	switch mode {
	case ModeDark:
		return p.Dark
	case ModeLight:
		return p.Light
	default:
		if dark {
			return p.Dark
		}
		return p.Light
	}
}

// Fallback night window used when no valid weather snapshot can report
// day/night.
const (
	fallbackNightStart = 22
	fallbackNightEnd   = 7
)

// AutoDark derives the dark signal for ModeAuto. When the primary
// snapshot is valid its day/night flag wins; otherwise hours in the
// fixed 22:00-07:00 window count as night.
func AutoDark(snapshotValid, isDay bool, hour int) bool {
	if snapshotValid {
		return !isDay
	}
	return hour >= fallbackNightStart || hour < fallbackNightEnd
}
