// Package ui holds terminal presentation helpers: colors, TTY detection,
// and the phase progress spinner shown while insights are collected.
package ui

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[94m" // Bright blue - more readable on dark backgrounds
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// ColorFunc wraps text with color codes if colors are enabled
type ColorFunc func(string) string

// Colors holds all color functions
type Colors struct {
	enabled bool
}

// NewColors creates a new Colors instance
func NewColors(enabled bool) *Colors {
	return &Colors{enabled: enabled}
}

// Red returns red colored text
func (c *Colors) Red(s string) string {
	if !c.enabled {
		return s
	}
	return ColorRed + s + ColorReset
}

// Green returns green colored text
func (c *Colors) Green(s string) string {
	if !c.enabled {
		return s
	}
	return ColorGreen + s + ColorReset
}

// Yellow returns yellow colored text
func (c *Colors) Yellow(s string) string {
	if !c.enabled {
		return s
	}
	return ColorYellow + s + ColorReset
}

// Blue returns blue colored text
func (c *Colors) Blue(s string) string {
	if !c.enabled {
		return s
	}
	return ColorBlue + s + ColorReset
}

// Cyan returns cyan colored text
func (c *Colors) Cyan(s string) string {
	if !c.enabled {
		return s
	}
	return ColorCyan + s + ColorReset
}

// Gray returns gray colored text
func (c *Colors) Gray(s string) string {
	if !c.enabled {
		return s
	}
	return ColorGray + s + ColorReset
}

// Bold returns bold text
func (c *Colors) Bold(s string) string {
	if !c.enabled {
		return s
	}
	return ColorBold + s + ColorReset
}

// SuccessRate colors a success percentage: healthy above 80, warning from 50
func (c *Colors) SuccessRate(rate float64, text string) string {
	switch {
	case rate > 80:
		return c.Green(text)
	case rate >= 50:
		return c.Yellow(text)
	default:
		return c.Red(text)
	}
}

// FailureRate colors a failure percentage, where high is bad
func (c *Colors) FailureRate(rate float64, text string) string {
	switch {
	case rate >= 50:
		return c.Red(text)
	case rate >= 25:
		return c.Yellow(text)
	default:
		return c.Green(text)
	}
}

// Flakiness colors a flakiness percentage, where high is bad
func (c *Colors) Flakiness(rate float64, text string) string {
	switch {
	case rate >= 10:
		return c.Red(text)
	case rate >= 5:
		return c.Yellow(text)
	default:
		return c.Green(text)
	}
}

// Duration colors a pipeline duration in seconds: fast up to 10 minutes,
// tolerable up to 15
func (c *Colors) Duration(seconds float64, text string) string {
	switch {
	case seconds <= 600:
		return c.Green(text)
	case seconds <= 900:
		return c.Yellow(text)
	default:
		return c.Red(text)
	}
}
