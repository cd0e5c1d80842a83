package statusbar

import "strings"

// ParseColor maps a color name returned by a plugin to a Color. The dark_*
// names have no terminal equivalent and map to dark gray; anything
// unrecognized is white.
func ParseColor(name string) Color {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red":
		return ColorRed
	case "green":
		return ColorGreen
	case "yellow":
		return ColorYellow
	case "blue":
		return ColorBlue
	case "magenta":
		return ColorMagenta
	case "cyan":
		return ColorCyan
	case "white":
		return ColorWhite
	case "black":
		return ColorBlack
	case "gray", "grey":
		return ColorGray
	case "dark_red", "dark_green", "dark_yellow", "dark_blue", "dark_magenta", "dark_cyan":
		return ColorDarkGray
	default:
		return ColorWhite
	}
}

// ANSI returns the 16-color palette index for c, or -1 for ColorDefault.
func (c Color) ANSI() int {
	switch c {
	case ColorBlack:
		return 0
	case ColorRed:
		return 1
	case ColorGreen:
		return 2
	case ColorYellow:
		return 3
	case ColorBlue:
		return 4
	case ColorMagenta:
		return 5
	case ColorCyan:
		return 6
	case ColorGray:
		return 7
	case ColorDarkGray:
		return 8
	case ColorLightRed:
		return 9
	case ColorLightGreen:
		return 10
	case ColorWhite:
		return 15
	default:
		return -1
	}
}
