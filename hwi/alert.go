package hwi

import (
	"fmt"
	"strings"
)

type AlertLevel string

const (
	AlertGreen  AlertLevel = "green"
	AlertYellow AlertLevel = "yellow"
	AlertRed    AlertLevel = "red"
	AlertBlack  AlertLevel = "black"
)

// Lower bounds of the yellow, red and black bands.
const (
	yellowThreshold = 25
	redThreshold    = 50
	blackThreshold  = 75
)

// AlertLevels in increasing severity.
var AlertLevels = []AlertLevel{AlertGreen, AlertYellow, AlertRed, AlertBlack}

type alertInfo struct {
	description string
	color       string
	actions     []string
}

var alerts = map[AlertLevel]alertInfo{
	AlertGreen: {
		description: "Normal conditions - routine monitoring",
		color:       "#10b981",
		actions: []string{
			"Continue routine health monitoring",
			"Maintain existing health programs",
			"Document baseline conditions",
		},
	},
	AlertYellow: {
		description: "Elevated stress - increase surveillance",
		color:       "#f59e0b",
		actions: []string{
			"Increase monitoring frequency",
			"Activate existing health programs",
			"Engage with cooperative leadership",
			"Assess specific household needs",
		},
	},
	AlertRed: {
		description: "Crisis conditions - activate response mechanisms",
		color:       "#ef4444",
		actions: []string{
			"Emergency cost-of-living adjustments",
			"Deploy mobile health clinics",
			"Provide direct household support",
			"Coordinate with health authorities",
			"Implement targeted interventions",
		},
	},
	AlertBlack: {
		description: "Severe crisis - emergency intervention required",
		color:       "#1f2937",
		actions: []string{
			"Supply chain intervention required",
			"Route purchases through health-infrastructure cooperatives",
			"Emergency humanitarian assistance",
			"Multi-stakeholder crisis response",
			"Consider supply chain suspension pending improvement",
		},
	},
}

// AlertLevelFor maps a composite score to its alert band. Bounds are inclusive
// at the bottom of each band, so 75 is black.
func AlertLevelFor(score float64) AlertLevel {
	switch {
	case score >= blackThreshold:
		return AlertBlack
	case score >= redThreshold:
		return AlertRed
	case score >= yellowThreshold:
		return AlertYellow
	default:
		return AlertGreen
	}
}

// ParseAlertLevel reads a level name case-insensitively.
func ParseAlertLevel(s string) (AlertLevel, error) {
	level := AlertLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := alerts[level]; !ok {
		return "", fmt.Errorf("unknown alert level %q, expected one of %v", s, AlertLevels)
	}
	return level, nil
}

// Severity orders levels from 0 (green) to 3 (black); unknown levels are -1.
func (l AlertLevel) Severity() int {
	for i, level := range AlertLevels {
		if level == l {
			return i
		}
	}
	return -1
}

func (l AlertLevel) Description() string {
	return alerts[l].description
}

// Color is the display colour of the level.
func (l AlertLevel) Color() string {
	return alerts[l].color
}

// RecommendedActions returns a copy of the fixed action list of the level.
func (l AlertLevel) RecommendedActions() []string {
	actions := alerts[l].actions
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}
