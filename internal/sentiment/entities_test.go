package sentiment

import (
	"reflect"
	"testing"

	"github.com/wedhazo/nexussentinel/internal/models"
)

func findEntity(entities []models.Entity, text string, entityType models.EntityType) *models.Entity {
	for i := range entities {
		if entities[i].Text == text && entities[i].Type == entityType {
			return &entities[i]
		}
	}
	return nil
}

func TestExtractFinancialEntities(t *testing.T) {
	t.Run("extracts symbols, instruments and companies", func(t *testing.T) {
		entities := ExtractFinancialEntities("Apple stock rallied after AAPL earnings beat expectations")

		symbol := findEntity(entities, "AAPL", models.EntitySymbol)
		if symbol == nil {
			t.Fatal("expected AAPL to be extracted as a symbol")
		}
		if symbol.Confidence != 0.8 {
			t.Errorf("symbol confidence = %v, want 0.8", symbol.Confidence)
		}

		instrument := findEntity(entities, "stock", models.EntityFinancialInstrument)
		if instrument == nil {
			t.Fatal("expected 'stock' to be extracted as a financial instrument")
		}
		if instrument.Confidence != 0.7 {
			t.Errorf("instrument confidence = %v, want 0.7", instrument.Confidence)
		}

		company := findEntity(entities, "Apple", models.EntityCompany)
		if company == nil {
			t.Fatal("expected 'Apple' to be extracted as a company")
		}
		if company.Confidence != 0.6 {
			t.Errorf("company confidence = %v, want 0.6", company.Confidence)
		}
	})

	t.Run("handles multi-word company names", func(t *testing.T) {
		entities := ExtractFinancialEntities("Analysts at Morgan Stanley upgraded the shares")

		if findEntity(entities, "Morgan Stanley", models.EntityCompany) == nil {
			t.Error("expected 'Morgan Stanley' to be extracted as a single company entity")
		}
	})

	t.Run("handles symbols with class suffixes", func(t *testing.T) {
		entities := ExtractFinancialEntities("BRK.B closed higher")

		if findEntity(entities, "BRK.B", models.EntitySymbol) == nil {
			t.Error("expected BRK.B to be extracted as a symbol")
		}
	})

	t.Run("instrument matching is case-insensitive", func(t *testing.T) {
		entities := ExtractFinancialEntities("Buying some ETFs and Options today")

		if findEntity(entities, "etfs", models.EntityFinancialInstrument) == nil {
			t.Error("expected 'etfs' to be extracted as a financial instrument")
		}
		if findEntity(entities, "options", models.EntityFinancialInstrument) == nil {
			t.Error("expected 'options' to be extracted as a financial instrument")
		}
	})

	t.Run("stoplists suppress common words", func(t *testing.T) {
		entities := ExtractFinancialEntities("IF I buy IT now, TO me IS fine")

		for _, common := range []string{"IF", "I", "IT", "TO", "IS"} {
			if findEntity(entities, common, models.EntitySymbol) != nil {
				t.Errorf("common word %q should not be extracted as a symbol", common)
			}
		}
	})

	t.Run("short capitalized words are not companies", func(t *testing.T) {
		entities := ExtractFinancialEntities("Fed kept rates unchanged")

		if findEntity(entities, "Fed", models.EntityCompany) != nil {
			t.Error("three-letter words should not be extracted as companies")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		text := "Tesla TSLA calls are printing"
		first := ExtractFinancialEntities(text)
		second := ExtractFinancialEntities(text)

		if len(first) != len(second) {
			t.Fatalf("repeated extraction differs: %d vs %d entities", len(first), len(second))
		}
		for i := range first {
			if !reflect.DeepEqual(first[i], second[i]) {
				t.Errorf("entity %d differs between runs: %+v vs %+v", i, first[i], second[i])
			}
		}
	})

	t.Run("empty text yields no entities", func(t *testing.T) {
		if entities := ExtractFinancialEntities(""); len(entities) != 0 {
			t.Errorf("expected no entities, got %v", entities)
		}
	})
}
