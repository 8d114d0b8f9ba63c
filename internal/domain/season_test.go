package domain_test

import (
	"testing"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestSeasonForMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  domain.Season
	}{
		{time.January, domain.SeasonWinter},
		{time.February, domain.SeasonWinter},
		{time.March, domain.SeasonSpring},
		{time.April, domain.SeasonSpring},
		{time.May, domain.SeasonSpring},
		{time.June, domain.SeasonMonsoon},
		{time.July, domain.SeasonMonsoon},
		{time.August, domain.SeasonMonsoon},
		{time.September, domain.SeasonPostMonsoon},
		{time.October, domain.SeasonPostMonsoon},
		{time.November, domain.SeasonPostMonsoon},
		{time.December, domain.SeasonWinter},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.SeasonForMonth(tt.month))
		})
	}
}

func TestSeasonForMonth_ExactlyOneIndicatorPerMonth(t *testing.T) {
	m := testManifest(t)
	obs := sampleObservation()

	for month := time.January; month <= time.December; month++ {
		vec, err := domain.Encode(obs, "Delhi", domain.SeasonForMonth(month), m)
		assert.NoError(t, err)

		var ones int
		for _, s := range domain.Seasons {
			v, ok := vec.Value(s.Column())
			assert.True(t, ok)
			if v == 1 {
				ones++
			} else {
				assert.Zero(t, v)
			}
		}
		assert.Equal(t, 1, ones, "month %s", month)
	}
}

func TestCurrentSeason_UsesInjectedClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, domain.SeasonMonsoon, domain.CurrentSeason(clock))

	clock.Advance(90 * 24 * time.Hour)
	assert.Equal(t, domain.SeasonPostMonsoon, domain.CurrentSeason(clock))
}

func TestSeason_Column(t *testing.T) {
	assert.Equal(t, "season_Post-Monsoon", domain.SeasonPostMonsoon.Column())
	assert.Equal(t, "season_Winter", domain.SeasonWinter.Column())
}
