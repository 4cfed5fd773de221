package countries

import (
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"country-cache/feature/countries/models"
)

// ErrMissingName aborts a refresh run: every feed entry must carry a name.
var ErrMissingName = errors.New("country entry has no name")

// Multiplier draws the GDP estimation multiplier for one entry.
type Multiplier func() int

// NewMultiplier returns a source of uniform random multipliers in [min, max].
// A fresh value is drawn per entry per run, so the stored estimate is not
// reproducible across refreshes. The bounds are configurable; collapsing them
// to a single value makes the estimate deterministic.
func NewMultiplier(min, max int) Multiplier {
	if max < min {
		max = min
	}
	span := max - min + 1
	return func() int {
		return min + rand.Intn(span)
	}
}

// BuildRecord converts one raw feed entry plus the rate mapping into a
// canonical record ready for storage. The record carries no id; identity
// resolution against existing rows happens at upsert time.
//
// Derivation rules:
//   - the first currency code is used, if the currency list has one;
//   - population defaults to 0 when the feed omits it;
//   - a resolvable currency sets the exchange rate and estimates GDP as
//     population * multiplier / rate (0 when rate or population is zero);
//   - a currency code with no known rate leaves both derived fields unset;
//   - no currency code at all pins the GDP estimate to 0.
func BuildRecord(entry models.CountryEntry, rates map[string]float64, now time.Time, multiplier Multiplier) (*models.Country, error) {
	if entry.Name == "" {
		return nil, ErrMissingName
	}

	var code string
	if len(entry.Currencies) > 0 {
		code = entry.Currencies[0].Code
	}

	population := entry.Population
	if population < 0 {
		population = 0
	}

	var exchangeRate, estimatedGDP *float64
	if code != "" {
		if rate, ok := rates[code]; ok {
			exchangeRate = &rate
			gdp := 0.0
			if rate != 0 && population > 0 {
				gdp = float64(population) * float64(multiplier()) / rate
			}
			estimatedGDP = &gdp
		}
	} else {
		zero := 0.0
		estimatedGDP = &zero
	}

	return &models.Country{
		Name:            titleCase(entry.Name),
		Capital:         optional(entry.Capital),
		Region:          optional(entry.Region),
		Population:      population,
		CurrencyCode:    optional(code),
		ExchangeRate:    exchangeRate,
		EstimatedGDP:    estimatedGDP,
		FlagURL:         optional(entry.Flag),
		LastRefreshedAt: now,
	}, nil
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest, where a word is any run of letters ("south AFRICA" -> "South Africa").
func titleCase(s string) string {
	prevLetter := false
	return strings.Map(func(r rune) rune {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && prevLetter:
			r = unicode.ToLower(r)
		case isLetter:
			r = unicode.ToUpper(r)
		}
		prevLetter = isLetter
		return r
	}, s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
