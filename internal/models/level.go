package models

// Level is the experience tier derived from a user's eco-points.
type Level string

const (
	LevelExplorer  Level = "EXPLORER"
	LevelDefender  Level = "DEFENDER"
	LevelProtector Level = "PROTECTOR"
	LevelGuardian  Level = "GUARDIAN"
)

// LevelThreshold pairs a tier with its inclusive lower bound.
type LevelThreshold struct {
	Level     Level  `json:"level"`
	MinPoints int    `json:"min_points"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
}

// levelThresholds is ordered most senior first.
var levelThresholds = []LevelThreshold{
	{Level: LevelGuardian, MinPoints: 1000, Title: "Guardian", Icon: "🌎"},
	{Level: LevelProtector, MinPoints: 500, Title: "Protector", Icon: "🌿"},
	{Level: LevelDefender, MinPoints: 100, Title: "Defender", Icon: "🍃"},
	{Level: LevelExplorer, MinPoints: 0, Title: "Explorer", Icon: "🌱"},
}

// LevelFor maps a points total to its tier. Negative totals map to Explorer.
func LevelFor(points int) Level {
	for _, t := range levelThresholds {
		if points >= t.MinPoints {
			return t.Level
		}
	}
	return LevelExplorer
}

// Rank orders tiers from 0 (Explorer) upwards.
func (l Level) Rank() int {
	for i, t := range levelThresholds {
		if t.Level == l {
			return len(levelThresholds) - 1 - i
		}
	}
	return -1
}

// Levels returns the thresholds, most senior first.
func Levels() []LevelThreshold {
	return append([]LevelThreshold(nil), levelThresholds...)
}
