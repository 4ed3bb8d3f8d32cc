package cli

import (
	"fmt"
	"os"
	"strings"
)

const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
)

// RGB represents a TrueColor
type RGB struct {
	R, G, B float64
}

var (
	BrandPink   = RGB{236, 72, 153}
	BrandPurple = RGB{139, 92, 246}
)

var disableColor = checkNoColor()

func checkNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Enabled reports whether ANSI colors should be written.
func Enabled() bool {
	return !disableColor
}

// Style wraps text in a specific color code
func Style(text string, colorCode string) string {
	if disableColor {
		return text
	}
	return colorCode + text + Reset
}

// ColorizeRGB returns text wrapped in ANSI TrueColor escape codes
func ColorizeRGB(text string, c RGB) string {
	if disableColor {
		return text
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s%s", int(c.R), int(c.G), int(c.B), text, Reset)
}

// Gradient colors text with a linear interpolation between start and end (progress 0.0 to 1.0).
func Gradient(text string, start, end RGB, progress float64) string {
	r := start.R + (end.R-start.R)*progress
	g := start.G + (end.G-start.G)*progress
	b := start.B + (end.B-start.B)*progress

	return ColorizeRGB(text, RGB{r, g, b})
}

// Banner renders a one-line gradient title.
func Banner(title string) string {
	if disableColor || len(title) == 0 {
		return title
	}
	runes := []rune(title)
	var sb strings.Builder
	for i, r := range runes {
		progress := 0.0
		if len(runes) > 1 {
			progress = float64(i) / float64(len(runes)-1)
		}
		sb.WriteString(Gradient(string(r), BrandPink, BrandPurple, progress))
	}
	return sb.String()
}

func CheckMark() string {
	return Style("✔", Green)
}

func Arrow() string {
	return Style("➜", Blue)
}

func CrossMark() string {
	return Style("✘", Red)
}

func WarningSign() string {
	return Style("⚠", Yellow)
}
