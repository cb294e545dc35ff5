package currency

import (
	"errors"
	"testing"

	"fundflow-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestRate_Identity(t *testing.T) {
	rates := DefaultRates()

	rate, err := rates.Rate("EUR", "EUR")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected identity rate 1, got %s", rate)
	}
}

func TestRate_ToUSD(t *testing.T) {
	rates := DefaultRates()

	rate, err := rates.Rate("EUR", "USD")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("1.1")) {
		t.Errorf("Expected EUR->USD rate 1.1, got %s", rate)
	}
}

func TestRate_FromUSD(t *testing.T) {
	rates := DefaultRates()

	rate, err := rates.Rate("USD", "GBP")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	// 1 / 1.3 at 6 decimal places, half-up.
	if !rate.Equal(decimal.RequireFromString("0.769231")) {
		t.Errorf("Expected USD->GBP rate 0.769231, got %s", rate)
	}
}

func TestRate_CrossCurrency(t *testing.T) {
	rates := DefaultRates()

	rate, err := rates.Rate("EUR", "GBP")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	// 1.1 / 1.3 at 6 decimal places, half-up.
	if !rate.Equal(decimal.RequireFromString("0.846154")) {
		t.Errorf("Expected EUR->GBP rate 0.846154, got %s", rate)
	}
}

func TestRate_UnsupportedCurrency(t *testing.T) {
	rates := DefaultRates()

	if _, err := rates.Rate("XXX", "USD"); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for unsupported from, got: %v", err)
	}
	if _, err := rates.Rate("USD", "XXX"); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for unsupported to, got: %v", err)
	}
}

func TestConvert_RoundsToTwoPlaces(t *testing.T) {
	rates := DefaultRates()

	result, err := rates.Convert(decimal.RequireFromString("100"), "EUR", "USD")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !result.ConvertedAmount.Equal(decimal.RequireFromString("110")) {
		t.Errorf("Expected 110, got %s", result.ConvertedAmount)
	}
	if result.ConvertedAmount.Exponent() < -2 {
		t.Errorf("Converted amount has more than 2 decimal places: %s", result.ConvertedAmount)
	}
}

func TestConvert_RoundTripStaysWithinRounding(t *testing.T) {
	rates := DefaultRates()
	original := decimal.RequireFromString("250.00")

	there, err := rates.Convert(original, "EUR", "USD")
	if err != nil {
		t.Fatalf("EUR->USD failed: %v", err)
	}
	back, err := rates.Convert(there.ConvertedAmount, "USD", "EUR")
	if err != nil {
		t.Fatalf("USD->EUR failed: %v", err)
	}

	// Round-tripping loses at most rounding noise, never whole units.
	drift := back.ConvertedAmount.Sub(original).Abs()
	if drift.GreaterThan(decimal.RequireFromString("0.01")) {
		t.Errorf("Round trip drifted by %s (got %s)", drift, back.ConvertedAmount)
	}
}

func TestCurrencies_SortedAndComplete(t *testing.T) {
	rates := DefaultRates()
	codes := rates.Currencies()
	if len(codes) != 8 {
		t.Fatalf("Expected 8 currencies, got %d: %v", len(codes), codes)
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("Currencies not sorted: %v", codes)
		}
	}
	if !rates.Supported("jpy") {
		t.Error("Supported should be case insensitive")
	}
}
