package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSlots(t *testing.T) {
	known := []string{"Сочи", "Москва", "Санкт-Петербург", "Казань", "Рим"}

	tests := []struct {
		name      string
		text      string
		wantCity  string
		wantDays  int
		cityFound bool
		daysFound bool
	}{
		{name: "days and known city", text: "Хочу на 3 дня в Сочи", wantCity: "Сочи", wantDays: 3, cityFound: true, daysFound: true},
		{name: "inflected city", text: "что посмотреть в Москве за 5 дней?", wantCity: "Москва", wantDays: 5, cityFound: true, daysFound: true},
		{name: "lowercase city", text: "поездка в казань", wantCity: "Казань", wantDays: 3, cityFound: true},
		{name: "longest match wins", text: "2 дня в Санкт-Петербурге", wantCity: "Санкт-Петербург", wantDays: 2, cityFound: true, daysFound: true},
		{name: "unknown city after preposition", text: "Plan 4 days in Lisbon please", wantCity: "Lisbon", wantDays: 4, cityFound: true, daysFound: true},
		{name: "defaults", text: "да, давай", wantCity: "Сочи", wantDays: 3},
		{name: "days clamped", text: "маршрут на 90 дней", wantCity: "Сочи", wantDays: maxTripDays, daysFound: true},
		{name: "zero days ignored", text: "0 дней", wantCity: "Сочи", wantDays: 3},
		{name: "city inside a word", text: "Примерно на 3 дня, что посоветуешь?", wantCity: "Сочи", wantDays: 3, daysFound: true},
		{name: "short city inflected", text: "Неделя в Риме", wantCity: "Рим", wantDays: 3, cityFound: true},
		{name: "short city as word", text: "рим или казань?", wantCity: "Казань", wantDays: 3, cityFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSlots(tt.text, known, "Сочи", 3)
			assert.Equal(t, tt.wantCity, got.City)
			assert.Equal(t, tt.wantDays, got.Days)
			assert.Equal(t, tt.cityFound, got.CityFound)
			assert.Equal(t, tt.daysFound, got.DaysFound)
		})
	}
}
