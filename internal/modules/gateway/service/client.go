package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

type Client struct {
	cfg *config.Config

	http     *http.Client
	wsDialer *websocket.Dialer
	baseURL  string
	token    string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{},
		baseURL:  cfg.Gateway.BaseURL,
		token:    cfg.Gateway.Token,
	}
}

func (c *Client) AccountState(ctx context.Context) (models.AccountState, error) {
	var resp accountResp
	if err := c.get(ctx, "/api/v1/account", &resp); err != nil {
		return models.AccountState{}, errors.Wrap(err, "gateway: account")
	}
	return models.AccountState{
		Equity:     resp.Equity,
		FreeMargin: resp.FreeMargin,
	}, nil
}

func (c *Client) SymbolMeta(ctx context.Context, symbol string) (models.SymbolMeta, error) {
	var resp symbolResp
	if err := c.get(ctx, "/api/v1/symbols/"+symbol, &resp); err != nil {
		return models.SymbolMeta{}, errors.Wrapf(err, "gateway: symbol %s", symbol)
	}
	return models.SymbolMeta{
		Point:        resp.Point,
		PipSize:      resp.PipSize,
		TickValue:    resp.TickValue,
		LotStep:      resp.LotStep,
		MinLot:       resp.MinLot,
		MaxLot:       resp.MaxLot,
		ContractSize: resp.ContractSize,
		Disabled:     resp.Disabled,
	}, nil
}

func (c *Client) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	path := fmt.Sprintf("/api/v1/candles?symbol=%s&tf=%s&limit=%d", symbol, timeframe, limit)
	var resp []candleResp
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, errors.Wrapf(err, "gateway: candles %s", symbol)
	}
	out := make([]models.Candle, 0, len(resp))
	for _, r := range resp {
		out = append(out, models.Candle{
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
			Start:  time.UnixMilli(r.Start),
			End:    time.UnixMilli(r.End),
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal")
		}
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var e errResp
		if err := sonic.Unmarshal(raw, &e); err == nil && e.Code != "" {
			return &bridgeError{Code: e.Code, Msg: e.Msg}
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	return nil
}

// bridgeError — типизированный отказ моста, code прокидываем наверх.
type bridgeError struct {
	Code string
	Msg  string
}

func (e *bridgeError) Error() string { return e.Code + ": " + e.Msg }
