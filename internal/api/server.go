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

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fundflow-go/internal/ledger"
	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"go.uber.org/zap"
)

// Server exposes the ledger over HTTP.
type Server struct {
	ledger *ledger.Service
}

func NewServer(svc *ledger.Service) *Server {
	return &Server{ledger: svc}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /transaction/create", s.handleCreateTransaction)
	mux.HandleFunc("GET /transaction/user/{userId}", s.handleUserTransactions)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, models.ApiResponse{Status: "ok"})
}

// handleCreateTransaction accepts the transaction and answers 201 as soon as
// it is persisted in PENDING_FRAUD_CHECK. Fraud screening and settlement
// happen asynchronously; callers poll the transaction list for the outcome.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, fmt.Errorf("%w: invalid request body: %v", store.ErrValidation, err))
		return
	}

	tx, err := s.ledger.CreateTransaction(r.Context(), req.UserId, req.Amount, req.Description, req.Type, req.Currency)
	if err != nil {
		RespondError(w, err)
		return
	}

	zap.L().Info("Transaction accepted",
		zap.String("transaction_id", tx.Id),
		zap.String("user_id", tx.UserId),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()))

	RespondJSON(w, http.StatusCreated, models.ApiResponse{
		Status: "success",
		Data:   toTransactionResponse(tx),
	})
}

func (s *Server) handleUserTransactions(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")

	transactions, err := s.ledger.GetUserTransactions(r.Context(), userId)
	if err != nil {
		RespondError(w, err)
		return
	}

	responses := make([]models.TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = *toTransactionResponse(&transactions[i])
	}
	RespondJSON(w, http.StatusOK, models.ApiResponse{
		Status: "success",
		Data:   responses,
	})
}

func toTransactionResponse(tx *models.Transaction) *models.TransactionResponse {
	return &models.TransactionResponse{
		Id:          tx.Id,
		UserId:      tx.UserId,
		Amount:      tx.Amount,
		Description: tx.Description,
		Type:        tx.Type,
		Status:      tx.Status,
		CreatedAt:   tx.CreatedAt,
	}
}
