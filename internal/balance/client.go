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

package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"fundflow-go/internal/common"
	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Client must satisfy store.BalanceClient.
var _ store.BalanceClient = (*Client)(nil)

// Client is the adapter to the external balance store. UpdateBalance takes
// an absolute target; the read-then-write sequence callers are forced into
// is not atomic, and the reconciliation engine exists to detect what that
// race can do to balances.
type Client struct {
	baseURL    string
	httpClient http.Client
}

func NewClient(cfg models.BalanceConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("balance service base URL cannot be empty")
	}

	httpClient, err := common.NewHTTPClient(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create http client: %w", err)
	}

	return &Client{baseURL: cfg.BaseURL, httpClient: httpClient}, nil
}

type balanceEnvelope struct {
	Status    string                      `json:"status"`
	Data      *models.UserBalanceSnapshot `json:"data"`
	Message   string                      `json:"message"`
	ErrorCode string                      `json:"errorCode"`
}

// GetBalance fetches the user's current balance snapshot.
func (c *Client) GetBalance(ctx context.Context, userId string) (*models.UserBalanceSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/user/balance/"+userId, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build balance request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError("get balance", err)
	}
	defer closeBody(resp)

	if err := c.checkStatus(resp, userId); err != nil {
		return nil, err
	}

	var envelope balanceEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed balance response: %v", store.ErrUpstreamUnavailable, err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: balance response was empty", store.ErrUpstreamUnavailable)
	}
	return envelope.Data, nil
}

// UpdateBalance writes an absolute balance for the user.
func (c *Client) UpdateBalance(ctx context.Context, userId string, newBalance decimal.Decimal) error {
	body := models.UpdateBalanceRequest{UserId: userId, NewBalance: newBalance}
	return c.post(ctx, "/user/balance/update", userId, body)
}

// Freeze marks the user's account frozen. Freezing an already-frozen
// account succeeds.
func (c *Client) Freeze(ctx context.Context, userId string) error {
	return c.post(ctx, "/user/freeze", userId, models.FreezeAccountRequest{UserId: userId})
}

// Unfreeze clears the frozen flag. Idempotent like Freeze.
func (c *Client) Unfreeze(ctx context.Context, userId string) error {
	return c.post(ctx, "/user/unfreeze", userId, models.FreezeAccountRequest{UserId: userId})
}

func (c *Client) post(ctx context.Context, path, userId string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(path, err)
	}
	defer closeBody(resp)

	return c.checkStatus(resp, userId)
}

func (c *Client) checkStatus(resp *http.Response, userId string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
	case resp.StatusCode == http.StatusBadRequest:
		var envelope balanceEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil &&
			envelope.ErrorCode == "ACCOUNT_FROZEN" {
			return fmt.Errorf("%w: user %s", store.ErrAccountFrozen, userId)
		}
		return fmt.Errorf("%w: balance service rejected request for user %s", store.ErrValidation, userId)
	default:
		return fmt.Errorf("%w: balance service returned %d", store.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

func (c *Client) transportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("%w: %s timed out: %v", store.ErrUpstreamUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s failed: %v", store.ErrUpstreamUnavailable, op, err)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		zap.L().Warn("Failed to close response body", zap.Error(err))
	}
}
