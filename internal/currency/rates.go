package currency

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// RateConfig is one entry in rates.yaml: how many settlement-currency units
// one unit of the currency is worth.
type RateConfig struct {
	Currency string `yaml:"currency"`
	Rate     string `yaml:"rate"`
}

type RatesConfig struct {
	Rates []RateConfig `yaml:"rates"`
}

// Rates converts amounts between supported currencies through USD cross
// rates. Cross rates are computed at 6 decimal places, converted amounts
// rounded to 2, both half-up.
type Rates struct {
	usdRates map[string]decimal.Decimal
}

const (
	rateScale   = 6
	amountScale = 2
)

// DefaultRates returns the built-in USD rate table.
func DefaultRates() *Rates {
	return &Rates{usdRates: map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("1.1"),
		"GBP": decimal.RequireFromString("1.3"),
		"JPY": decimal.RequireFromString("0.009"),
		"CAD": decimal.RequireFromString("0.8"),
		"AUD": decimal.RequireFromString("0.75"),
		"CHF": decimal.RequireFromString("1.05"),
		"CNY": decimal.RequireFromString("0.15"),
	}}
}

// LoadRates reads a yaml rate table, falling back to the defaults when the
// file does not exist.
func LoadRates(ratesFile string) (*Rates, error) {
	var ratesPath string
	if filepath.IsAbs(ratesFile) {
		ratesPath = ratesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		ratesPath = filepath.Join(wd, ratesFile)
	}

	data, err := os.ReadFile(ratesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRates(), nil
		}
		return nil, fmt.Errorf("unable to read %s: %w", ratesFile, err)
	}

	var config RatesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", ratesFile, err)
	}
	if len(config.Rates) == 0 {
		return nil, fmt.Errorf("%s contains no rates", ratesFile)
	}

	usdRates := make(map[string]decimal.Decimal, len(config.Rates))
	for i, rc := range config.Rates {
		if rc.Currency == "" {
			return nil, fmt.Errorf("rate at index %d missing currency", i)
		}
		rate, err := decimal.NewFromString(rc.Rate)
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("rate at index %d has invalid value %q", i, rc.Rate)
		}
		usdRates[strings.ToUpper(rc.Currency)] = rate
	}
	if _, ok := usdRates["USD"]; !ok {
		usdRates["USD"] = decimal.NewFromInt(1)
	}

	return &Rates{usdRates: usdRates}, nil
}

// Currencies lists the supported currency codes in sorted order.
func (r *Rates) Currencies() []string {
	codes := make([]string, 0, len(r.usdRates))
	for code := range r.usdRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Supported reports whether the currency code is in the rate table.
func (r *Rates) Supported(code string) bool {
	_, ok := r.usdRates[strings.ToUpper(code)]
	return ok
}

// Rate returns the applied rate from one currency to another.
func (r *Rates) Rate(from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	fromRate, ok := r.usdRates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unsupported currency %s", store.ErrValidation, from)
	}
	toRate, ok := r.usdRates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unsupported currency %s", store.ErrValidation, to)
	}

	switch {
	case from == to:
		return decimal.NewFromInt(1), nil
	case from == "USD":
		// toRate is USD per unit of `to`, so the USD->to rate is its inverse.
		return decimal.NewFromInt(1).DivRound(toRate, rateScale), nil
	case to == "USD":
		return fromRate, nil
	default:
		return fromRate.DivRound(toRate, rateScale), nil
	}
}

// Convert applies the rate and rounds the result to 2 decimal places.
func (r *Rates) Convert(amount decimal.Decimal, from, to string) (*models.CurrencyConversionResponse, error) {
	rate, err := r.Rate(from, to)
	if err != nil {
		return nil, err
	}

	return &models.CurrencyConversionResponse{
		FromCurrency:    strings.ToUpper(from),
		ToCurrency:      strings.ToUpper(to),
		Amount:          amount,
		ConvertedAmount: amount.Mul(rate).Round(amountScale),
		Rate:            rate,
	}, nil
}
