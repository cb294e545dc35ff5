/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fundflow-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	pollInterval, err := getEnvDuration("EVENTS_POLL_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}

	initialDelay, err := getEnvDuration("RECONCILE_INITIAL_DELAY", 30*time.Second)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := getEnvDuration("RECONCILE_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	maturityWindow, err := getEnvDuration("RECONCILE_MATURITY_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	tolerance, err := getEnvDecimal("RECONCILE_TOLERANCE", decimal.Zero)
	if err != nil {
		return nil, err
	}

	balanceTimeout, err := getEnvDuration("BALANCE_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	currencyTimeout, err := getEnvDuration("CURRENCY_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	fraudMinDelay, err := getEnvDuration("FRAUD_MIN_DELAY", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}

	fraudMaxDelay, err := getEnvDuration("FRAUD_MAX_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	rejectOver, err := getEnvDecimal("FRAUD_REJECT_OVER", decimal.Zero)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "fundflow.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			SeedDummyUsers:  getEnvBool("SEED_DUMMY_USERS", false),
		},
		Events: models.EventsConfig{
			Path:         getEnvString("EVENTS_PATH", "events.db"),
			PollInterval: pollInterval,
			BatchSize:    getEnvInt("EVENTS_BATCH_SIZE", 50),
		},
		Ledger: models.LedgerConfig{
			SettlementCurrency: getEnvString("SETTLEMENT_CURRENCY", "USD"),
			ConsumerGroup:      getEnvString("LEDGER_CONSUMER_GROUP", "ledger"),
		},
		Reconcile: models.ReconcileConfig{
			InitialDelay:   initialDelay,
			SweepInterval:  sweepInterval,
			MaturityWindow: maturityWindow,
			Tolerance:      tolerance,
			ConsumerGroup:  getEnvString("RECONCILE_CONSUMER_GROUP", "reconciler"),
		},
		Balance: models.BalanceConfig{
			BaseURL:        getEnvString("BALANCE_SERVICE_URL", "http://localhost:8081"),
			RequestTimeout: balanceTimeout,
			ListenAddr:     getEnvString("BALANCE_LISTEN_ADDR", ":8081"),
		},
		Currency: models.CurrencyConfig{
			BaseURL:        getEnvString("CURRENCY_SERVICE_URL", "http://localhost:8082"),
			RequestTimeout: currencyTimeout,
			RatesFile:      getEnvString("RATES_FILE", "rates.yaml"),
			ListenAddr:     getEnvString("CURRENCY_LISTEN_ADDR", ":8082"),
		},
		Fraud: models.FraudConfig{
			ConsumerGroup: getEnvString("FRAUD_CONSUMER_GROUP", "fraud-oracle"),
			MinDelay:      fraudMinDelay,
			MaxDelay:      fraudMaxDelay,
			RejectOver:    rejectOver,
		},
		HTTP: models.HTTPConfig{
			ListenAddr:      getEnvString("LEDGER_LISTEN_ADDR", ":8080"),
			ShutdownTimeout: shutdownTimeout,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
