package sentiment

import (
	"regexp"
	"strings"

	"github.com/wedhazo/nexussentinel/internal/models"
)

var (
	// 1-5 uppercase letters, optionally followed by a dot and more letters (BRK.B).
	symbolPattern = regexp.MustCompile(`\b[A-Z]{1,5}(?:\.[A-Z]+)?\b`)
	wordPattern   = regexp.MustCompile(`\b\w+\b`)
	// Sequences of capitalized words ("Morgan Stanley", "Apple").
	companyPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

// Short common words that happen to look like tickers.
var symbolStoplist = map[string]struct{}{
	"A": {}, "I": {}, "ME": {}, "MY": {}, "IT": {}, "IF": {},
	"IS": {}, "BE": {}, "TO": {}, "OF": {}, "IN": {}, "FOR": {},
}

var companyStoplist = map[string]struct{}{
	"I": {}, "Me": {}, "You": {}, "He": {}, "She": {}, "They": {}, "We": {}, "It": {},
}

var financialInstruments = map[string]struct{}{
	"bond": {}, "bonds": {}, "etf": {}, "etfs": {}, "future": {}, "futures": {},
	"option": {}, "options": {}, "stock": {}, "stocks": {}, "share": {}, "shares": {},
	"index": {}, "indices": {}, "fund": {}, "funds": {}, "treasury": {}, "treasuries": {},
	"forex": {}, "currency": {}, "currencies": {}, "crypto": {}, "cryptocurrency": {},
	"cryptocurrencies": {}, "commodity": {}, "commodities": {},
}

// ExtractFinancialEntities runs three independent heuristic passes over the
// text and concatenates the results. It is pure and idempotent; duplicates are
// possible and callers may deduplicate. Precision is deliberately low
// (sentence-initial capitalized words will match the company pass).
func ExtractFinancialEntities(text string) []models.Entity {
	var entities []models.Entity

	for _, symbol := range symbolPattern.FindAllString(text, -1) {
		if _, skip := symbolStoplist[symbol]; skip {
			continue
		}
		entities = append(entities, models.Entity{
			Text:       symbol,
			Type:       models.EntitySymbol,
			Confidence: 0.8,
		})
	}

	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := financialInstruments[word]; !ok {
			continue
		}
		entities = append(entities, models.Entity{
			Text:       word,
			Type:       models.EntityFinancialInstrument,
			Confidence: 0.7,
		})
	}

	for _, company := range companyPattern.FindAllString(text, -1) {
		if len(company) <= 3 {
			continue
		}
		if _, skip := companyStoplist[company]; skip {
			continue
		}
		entities = append(entities, models.Entity{
			Text:       company,
			Type:       models.EntityCompany,
			Confidence: 0.6,
		})
	}

	return entities
}
