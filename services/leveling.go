package services

import "strconv"

const MaxLevel = 10

// levelFloors[i] is the minimum XP for level i+1
var levelFloors = [MaxLevel]int{0, 500, 1500, 3000, 5000, 7500, 10500, 14000, 18000, 22500}

type tier struct {
	name     string
	minLevel int
}

// ordered from highest to lowest minimum level
var tiers = []tier{
	{"templar", 50},
	{"oracle", 30},
	{"conscious", 15},
	{"illuminated", 5},
	{"enchanter", 0},
}

// LevelFor maps accumulated XP to a level between 1 and MaxLevel
func LevelFor(xp int) int {
	level := 1
	for i, floor := range levelFloors {
		if xp >= floor {
			level = i + 1
		}
	}
	return level
}

// LevelString is LevelFor rendered the way it is stored on the user
func LevelString(xp int) string {
	return strconv.Itoa(LevelFor(xp))
}

// TierFor returns the tier name for a level
func TierFor(level int) string {
	for _, t := range tiers {
		if level >= t.minLevel {
			return t.name
		}
	}
	return tiers[len(tiers)-1].name
}

// NextLevelXP returns the XP needed for the next level, or -1 at the cap
func NextLevelXP(xp int) int {
	level := LevelFor(xp)
	if level >= MaxLevel {
		return -1
	}
	return levelFloors[level]
}

// parseLevel reads a stored level string, treating garbage as level 1
func parseLevel(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
