package models

import (
	"errors"
	"fmt"
)

// ErrInvalidVocabulary is the common cause of unknown commodity or market names.
var ErrInvalidVocabulary = errors.New("invalid commodity or market name")

var (
	ErrUnknownCommodity = fmt.Errorf("unknown commodity: %w", ErrInvalidVocabulary)
	ErrUnknownMarket    = fmt.Errorf("unknown market: %w", ErrInvalidVocabulary)
)

// Commodity is the categorical ID of a traded good. IDs are contiguous from 0 and
// must match the encoding used when the predictors were trained.
type Commodity int

const (
	Milk Commodity = iota
	Onion
	Potato
	Sugar
	Tomato
)

var commodityNames = [...]string{"Milk", "Onion", "Potato", "Sugar", "Tomato"}

// Market is the categorical ID of a Delhi mandi.
type Market int

const (
	Azadpur Market = iota
	Daryaganj
	Ghazipur
	INAMarket
	Keshopur
	Okhla
	Rohini
)

var marketNames = [...]string{"Azadpur", "Daryaganj", "Ghazipur", "INA Market", "Keshopur", "Okhla", "Rohini"}

func (c Commodity) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Commodity(%d)", int(c))
	}
	return commodityNames[c]
}

// Valid reports whether c is a member of the vocabulary.
func (c Commodity) Valid() bool { return c >= 0 && int(c) < len(commodityNames) }

func (m Market) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Market(%d)", int(m))
	}
	return marketNames[m]
}

// Valid reports whether m is a member of the vocabulary.
func (m Market) Valid() bool { return m >= 0 && int(m) < len(marketNames) }

// ParseCommodity maps an exact commodity name to its ID.
func ParseCommodity(name string) (Commodity, error) {
	for i, n := range commodityNames {
		if n == name {
			return Commodity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommodity, name)
}

// ParseMarket maps an exact market name to its ID.
func ParseMarket(name string) (Market, error) {
	for i, n := range marketNames {
		if n == name {
			return Market(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMarket, name)
}

// VocabularyEntry is a name/ID pair exposed to clients.
type VocabularyEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Vocabulary lists both closed vocabularies in ID order.
type Vocabulary struct {
	Commodities []VocabularyEntry `json:"commodities"`
	Markets     []VocabularyEntry `json:"markets"`
}

// Commodities returns every commodity in ID order.
func Commodities() []Commodity {
	out := make([]Commodity, len(commodityNames))
	for i := range commodityNames {
		out[i] = Commodity(i)
	}
	return out
}

// Markets returns every market in ID order.
func Markets() []Market {
	out := make([]Market, len(marketNames))
	for i := range marketNames {
		out[i] = Market(i)
	}
	return out
}

func CurrentVocabulary() Vocabulary {
	v := Vocabulary{
		Commodities: make([]VocabularyEntry, 0, len(commodityNames)),
		Markets:     make([]VocabularyEntry, 0, len(marketNames)),
	}
	for i, n := range commodityNames {
		v.Commodities = append(v.Commodities, VocabularyEntry{ID: i, Name: n})
	}
	for i, n := range marketNames {
		v.Markets = append(v.Markets, VocabularyEntry{ID: i, Name: n})
	}
	return v
}
