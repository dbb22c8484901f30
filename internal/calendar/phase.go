package calendar

import "fmt"

// MoonPhase is one of the eight named lunar phases carried by the dataset.
type MoonPhase int

const (
	NewMoon MoonPhase = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	ThirdQuarter
	WaningCrescent
)

type phaseInfo struct {
	name  string
	glyph string
}

var phases = [...]phaseInfo{
	NewMoon:        {"New Moon", "🌑"},
	WaxingCrescent: {"Waxing Crescent", "🌒"},
	FirstQuarter:   {"First Quarter", "🌓"},
	WaxingGibbous:  {"Waxing Gibbous", "🌔"},
	FullMoon:       {"Full Moon", "🌕"},
	WaningGibbous:  {"Waning Gibbous", "🌖"},
	ThirdQuarter:   {"Third Quarter", "🌗"},
	WaningCrescent: {"Waning Crescent", "🌘"},
}

var phasesByName = map[string]MoonPhase{
	"New Moon":        NewMoon,
	"Waxing Crescent": WaxingCrescent,
	"First Quarter":   FirstQuarter,
	"Waxing Gibbous":  WaxingGibbous,
	"Full Moon":       FullMoon,
	"Waning Gibbous":  WaningGibbous,
	"Third Quarter":   ThirdQuarter,
	"Waning Crescent": WaningCrescent,
}

// ParseMoonPhase resolves a display name. Unknown names resolve to NewMoon;
// the dataset has always been read this way, so it is kept rather than rejected.
func ParseMoonPhase(name string) MoonPhase {
	p, _ := LookupMoonPhase(name)
	return p
}

// LookupMoonPhase is ParseMoonPhase that also reports whether name was recognised.
func LookupMoonPhase(name string) (MoonPhase, bool) {
	p, ok := phasesByName[name]
	if !ok {
		return NewMoon, false
	}
	return p, true
}

// AllMoonPhases returns the phases in cycle order.
func AllMoonPhases() []MoonPhase {
	return []MoonPhase{NewMoon, WaxingCrescent, FirstQuarter, WaxingGibbous, FullMoon, WaningGibbous, ThirdQuarter, WaningCrescent}
}

func (p MoonPhase) valid() bool {
	return p >= NewMoon && p <= WaningCrescent
}

// Name returns the human-readable phase name.
func (p MoonPhase) Name() string {
	if !p.valid() {
		return fmt.Sprintf("MoonPhase(%d)", int(p))
	}
	return phases[p].name
}

// Glyph returns the phase's moon symbol.
func (p MoonPhase) Glyph() string {
	if !p.valid() {
		return ""
	}
	return phases[p].glyph
}

func (p MoonPhase) String() string {
	return p.Name()
}

// MarshalText implements encoding.TextMarshaler using the display name.
func (p MoonPhase) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("invalid moon phase %d", int(p))
	}
	return []byte(p.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same fallback as ParseMoonPhase.
func (p *MoonPhase) UnmarshalText(b []byte) error {
	*p = ParseMoonPhase(string(b))
	return nil
}
