package viewer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit selects how a chart's value axis is labelled.
type Unit string

const (
	UnitNone    Unit = "none"
	UnitPercent Unit = "percent"
	UnitCelsius Unit = "celsius"
)

// ValueFormatter turns a value-axis tick into its label. It only decorates the number;
// values are never converted.
type ValueFormatter interface {
	Format(v float64) string
	Suffix() string
}

type suffixFormatter struct {
	suffix string
}

func (f suffixFormatter) Suffix() string { return f.suffix }

// Format prints at most two decimals, trailing zeros dropped, then the suffix.
func (f suffixFormatter) Format(v float64) string {
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		rounded = 0 // no "-0"
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64) + f.suffix
}

var formatters = map[Unit]ValueFormatter{
	UnitNone:    suffixFormatter{},
	UnitPercent: suffixFormatter{suffix: "%"},
	UnitCelsius: suffixFormatter{suffix: "°C"},
}

// FormatterFor returns the formatter registered for unit.
func FormatterFor(unit Unit) (ValueFormatter, error) {
	f, ok := formatters[unit]
	if !ok {
		return nil, fmt.Errorf("unknown unit %q", string(unit))
	}
	return f, nil
}

// ParseUnit accepts the unit names used in configuration.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return UnitNone, nil
	case "percent", "%":
		return UnitPercent, nil
	case "celsius", "degc", "°c":
		return UnitCelsius, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}
