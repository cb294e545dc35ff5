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

package database

const (
	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (id, user_id, amount, description, type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransaction = `
		SELECT id, user_id, amount, description, type, status, created_at, updated_at
		FROM transactions
		WHERE id = ?`

	queryGetUserTransactions = `
		SELECT id, user_id, amount, description, type, status, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC`

	queryTransitionStatus = `
		UPDATE transactions
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	queryTransactionExists = `
		SELECT 1 FROM transactions WHERE id = ? LIMIT 1`

	// Reconciliation record queries
	queryInsertReconciliationRecord = `
		INSERT INTO reconciliation_records (
			id, transaction_id, user_id, amount, description, type, status,
			reconciliation_status, reconciled, is_discrepancy, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 'PENDING', 0, 0, ?)`

	queryUpdateReconciliationStatus = `
		UPDATE reconciliation_records
		SET status = ?, last_checked_at = ?
		WHERE transaction_id = ?`

	// Live transaction status wins over the mirrored one when the ledger
	// row exists; the records table keeps working for foreign writers.
	queryFindUnreconciled = `
		SELECT r.id, r.transaction_id, r.user_id, r.amount, r.description, r.type,
		       COALESCE(t.status, r.status), r.reconciliation_status,
		       r.reconciled, r.is_discrepancy, r.created_at
		FROM reconciliation_records r
		LEFT JOIN transactions t ON t.id = r.transaction_id
		WHERE r.reconciled = 0 AND r.is_discrepancy = 0
		ORDER BY r.created_at`

	queryMarkReconciliation = `
		UPDATE reconciliation_records
		SET reconciliation_status = ?, reconciled = ?, is_discrepancy = ?, last_checked_at = ?
		WHERE transaction_id = ?`

	// User queries (balance service)
	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, username, email, balance) VALUES (?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, username, email, balance, is_frozen, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryUpdateUserBalance = `
		UPDATE users
		SET balance = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	querySetUserFrozen = `
		UPDATE users
		SET is_frozen = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
)
