// Package ledgerclient вызывает контракт внешнего реестра через JSON-RPC 2.0 шлюз:
// запись волонтёрской сессии, агрегаты волонтёра и баланс токенов по адресу.
// Любая ошибка транспорта или шлюза оборачивается в models.ErrSettlementFailure.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/helptoken/helptoken/internal/models"
)

// Методы контракта, доступные через шлюз.
const (
	MethodRecordSession  = "recordVolunteerSession"
	MethodVolunteerStats = "getVolunteerStats"
	MethodBalanceOf      = "balanceOf"
)

// maxResponseSize ограничивает тело ответа шлюза.
const maxResponseSize = 1 << 20

type Config struct {
	URL             string
	ContractAddress string
	Timeout         time.Duration
}

// Client — JSON-RPC клиент шлюза реестра.
type Client struct {
	rpcURL     string
	contract   string
	httpClient *http.Client
	nextID     atomic.Int64
}

// NewClient создаёт клиента. Таймаут по умолчанию 30 секунд.
func NewClient(cfg Config) (*Client, error) {
	const op = "ledgerclient.NewClient"
	if cfg.URL == "" {
		return nil, fmt.Errorf("%s: gateway URL required", op)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		rpcURL:     cfg.URL,
		contract:   cfg.ContractAddress,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

// RPCError — ошибка, возвращённая шлюзом в поле error.
type RPCError struct {
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call выполняет JSON-RPC вызов и возвращает поле result.
func (c *Client) Call(ctx context.Context, method string, params ...any) (gjson.Result, error) {
	const op = "ledgerclient.Call"
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: create request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %s: %w: %w", op, method, models.ErrSettlementFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: read response: %w: %w", op, models.ErrSettlementFailure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("%s: %s: gateway status %d: %w", op, method, resp.StatusCode, models.ErrSettlementFailure)
	}
	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("%s: %s: malformed response: %w", op, method, models.ErrSettlementFailure)
	}

	parsed := gjson.ParseBytes(respBody)
	if rpcErr := parsed.Get("error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		e := &RPCError{Code: rpcErr.Get("code").Int(), Message: rpcErr.Get("message").String()}
		return gjson.Result{}, fmt.Errorf("%s: %s: %w: %w", op, method, models.ErrSettlementFailure, e)
	}
	result := parsed.Get("result")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%s: %s: response without result: %w", op, method, models.ErrSettlementFailure)
	}
	return result, nil
}

// RecordSession записывает сессию в контракт и возвращает хэш транзакции.
// Шлюз дедуплицирует повторы по IdempotencyKey.
func (c *Client) RecordSession(ctx context.Context, req models.SettlementRequest) (string, error) {
	const op = "ledgerclient.RecordSession"
	result, err := c.Call(ctx, MethodRecordSession, map[string]any{
		"contract":       c.contract,
		"opportunityId":  strconv.FormatInt(req.OpportunityID, 10),
		"volunteer":      req.Beneficiary,
		"minutes":        req.Minutes,
		"idempotencyKey": req.IdempotencyKey,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	txHash := result.Get("txHash").String()
	if txHash == "" && result.Type == gjson.String {
		txHash = result.String()
	}
	if txHash == "" {
		return "", fmt.Errorf("%s: empty transaction hash: %w", op, models.ErrSettlementFailure)
	}
	return txHash, nil
}

// VolunteerStats возвращает агрегаты контракта по адресу волонтёра.
func (c *Client) VolunteerStats(ctx context.Context, address string) (*models.VolunteerStats, error) {
	const op = "ledgerclient.VolunteerStats"
	result, err := c.Call(ctx, MethodVolunteerStats, map[string]any{
		"contract": c.contract,
		"address":  address,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.VolunteerStats{
		Address:       address,
		TotalMinutes:  result.Get("totalMinutes").Int(),
		TotalProjects: result.Get("totalProjects").Int(),
		TotalEarned:   result.Get("totalEarned").String(),
	}, nil
}

// BalanceOf возвращает баланс токенов адреса в реестре как десятичную строку.
func (c *Client) BalanceOf(ctx context.Context, address string) (string, error) {
	const op = "ledgerclient.BalanceOf"
	result, err := c.Call(ctx, MethodBalanceOf, map[string]any{
		"contract": c.contract,
		"address":  address,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if b := result.Get("balance"); b.Exists() {
		return b.String(), nil
	}
	return result.String(), nil
}
