package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Events    EventsConfig
	Ledger    LedgerConfig
	Reconcile ReconcileConfig
	Balance   BalanceConfig
	Currency  CurrencyConfig
	Fraud     FraudConfig
	HTTP      HTTPConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	SeedDummyUsers  bool
}

// EventsConfig holds event channel settings
type EventsConfig struct {
	Path         string
	PollInterval time.Duration
	BatchSize    int
}

// LedgerConfig holds saga controller settings
type LedgerConfig struct {
	SettlementCurrency string
	ConsumerGroup      string
}

// ReconcileConfig holds reconciliation engine settings
type ReconcileConfig struct {
	InitialDelay   time.Duration
	SweepInterval  time.Duration
	MaturityWindow time.Duration
	Tolerance      decimal.Decimal
	ConsumerGroup  string
}

// BalanceConfig holds the balance service address and client timeout
type BalanceConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	ListenAddr     string
}

// CurrencyConfig holds currency conversion settings
type CurrencyConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RatesFile      string
	ListenAddr     string
}

// FraudConfig holds fraud oracle settings
type FraudConfig struct {
	ConsumerGroup string
	MinDelay      time.Duration
	MaxDelay      time.Duration
	RejectOver    decimal.Decimal
}

// HTTPConfig holds the ledger API server settings
type HTTPConfig struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
}
