package domain

import (
	"fmt"
	"math"
	"strings"
)

// RiskLevel is the ordered fire danger category derived from an FWI value.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskExtreme
)

// Lower bounds of each bracket. A value equal to a threshold belongs to the
// higher bracket.
const (
	ModerateThreshold = 5.0
	HighThreshold     = 30.0
	ExtremeThreshold  = 80.0
)

var riskNames = [...]string{"Low", "Moderate", "High", "Extreme"}

var riskAdvisories = [...]string{
	"Low fire danger.",
	"Moderate fire danger.",
	"High fire danger!",
	"Extreme fire danger! Take precautions.",
}

// Classify maps an FWI value onto a risk level. It is total: every float64,
// including NaN, maps to exactly one level.
func Classify(fwi float64) RiskLevel {
	switch {
	case fwi < ModerateThreshold:
		return RiskLow
	case fwi < HighThreshold:
		return RiskModerate
	case fwi < ExtremeThreshold:
		return RiskHigh
	default:
		return RiskExtreme
	}
}

func (r RiskLevel) String() string {
	if r < RiskLow || r > RiskExtreme {
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
	return riskNames[r]
}

// Advisory is the short human-readable message shown next to a prediction.
func (r RiskLevel) Advisory() string {
	if r < RiskLow || r > RiskExtreme {
		return ""
	}
	return riskAdvisories[r]
}

// ParseRiskLevel accepts the names produced by String, case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for i, name := range riskNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return RiskLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown risk level %q", s)
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	if r < RiskLow || r > RiskExtreme {
		return nil, fmt.Errorf("invalid risk level %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(b []byte) error {
	level, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
