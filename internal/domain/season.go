package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Season is a calendar season label used as a one-hot model feature.
type Season string

const (
	SeasonWinter      Season = "Winter"
	SeasonSpring      Season = "Spring"
	SeasonMonsoon     Season = "Monsoon"
	SeasonPostMonsoon Season = "Post-Monsoon"
)

// Seasons lists every season in calendar order starting from January.
var Seasons = []Season{SeasonWinter, SeasonSpring, SeasonMonsoon, SeasonPostMonsoon}

const seasonColumnPrefix = "season_"

// SeasonForMonth maps a calendar month to its season.
func SeasonForMonth(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonMonsoon
	default:
		return SeasonPostMonsoon
	}
}

// CurrentSeason returns the season for the clock's current month.
func CurrentSeason(clock clockwork.Clock) Season {
	return SeasonForMonth(clock.Now().Month())
}

// Column returns the manifest column name for the season indicator.
func (s Season) Column() string {
	return seasonColumnPrefix + string(s)
}

func parseSeason(s string) (Season, bool) {
	for _, season := range Seasons {
		if string(season) == s {
			return season, true
		}
	}
	return "", false
}
