package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"fundflow-go/internal/common"
	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Client must satisfy store.CurrencyConverter.
var _ store.CurrencyConverter = (*Client)(nil)

// Client calls the currency-conversion service over HTTP.
type Client struct {
	baseURL    string
	httpClient http.Client
}

func NewClient(cfg models.CurrencyConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("currency service base URL cannot be empty")
	}

	httpClient, err := common.NewHTTPClient(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create http client: %w", err)
	}

	return &Client{baseURL: cfg.BaseURL, httpClient: httpClient}, nil
}

type conversionEnvelope struct {
	Status  string                             `json:"status"`
	Data    *models.CurrencyConversionResponse `json:"data"`
	Message string                             `json:"message"`
}

func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*models.CurrencyConversionResponse, error) {
	query := url.Values{}
	query.Set("amount", amount.String())
	query.Set("from", from)
	query.Set("to", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/convert?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build convert request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fmt.Errorf("%w: currency conversion timed out: %v", store.ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("%w: currency conversion failed: %v", store.ErrUpstreamUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: conversion %s->%s rejected", store.ErrValidation, from, to)
	default:
		return nil, fmt.Errorf("%w: currency service returned %d", store.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var envelope conversionEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed conversion response: %v", store.ErrUpstreamUnavailable, err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: conversion response was empty", store.ErrUpstreamUnavailable)
	}

	return envelope.Data, nil
}
