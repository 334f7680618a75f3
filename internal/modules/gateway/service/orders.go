package service

import (
	"context"
	"net"

	"fx_bot/internal/models"

	"github.com/pkg/errors"
)

// OpenOrder выставляет рыночный ордер с SL/TP. Отказ брокера не ретраим:
// наверх уходит типизированный *models.OpenFailure, решает вызывающий.
func (c *Client) OpenOrder(ctx context.Context, p models.Proposal) (string, float64, error) {
	req := openOrderReq{
		Symbol: p.Symbol,
		Side:   string(p.Side),
		Lot:    p.Lot,
		SL:     p.SL,
		TP:     p.TP,
	}

	var resp openOrderResp
	if err := c.post(ctx, "/api/v1/orders", req, &resp); err != nil {
		return "", 0, openFailure(err)
	}
	if resp.Ticket == "" {
		return "", 0, &models.OpenFailure{
			Reason: OpenFailUnknownAs(OpenFailCodeRequote),
			Err:    errors.New("empty ticket in response"),
		}
	}
	return resp.Ticket, resp.Price, nil
}

func (c *Client) ModifyStop(ctx context.Context, ticket string, newSL float64) error {
	return c.post(ctx, "/api/v1/orders/"+ticket+"/stop", modifyStopReq{SL: newSL}, nil)
}

func (c *Client) ClosePosition(ctx context.Context, ticket string) (float64, float64, error) {
	var resp closeResp
	if err := c.post(ctx, "/api/v1/orders/"+ticket+"/close", nil, &resp); err != nil {
		return 0, 0, errors.Wrapf(err, "gateway: close %s", ticket)
	}
	return resp.Price, resp.Profit, nil
}

// Коды отказов моста (он транслирует retcode терминала).
const (
	OpenFailCodeMargin   = "NO_MONEY"
	OpenFailCodeDisabled = "TRADE_DISABLED"
	OpenFailCodeRequote  = "REQUOTE"
)

func OpenFailUnknownAs(code string) models.OpenFailReason {
	switch code {
	case OpenFailCodeMargin:
		return models.OpenFailMargin
	case OpenFailCodeDisabled:
		return models.OpenFailDisabled
	default:
		return models.OpenFailRequote
	}
}

func openFailure(err error) error {
	var be *bridgeError
	if errors.As(err, &be) {
		return &models.OpenFailure{Reason: OpenFailUnknownAs(be.Code), Err: err}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &models.OpenFailure{Reason: models.OpenFailTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.OpenFailure{Reason: models.OpenFailTimeout, Err: err}
	}

	return &models.OpenFailure{Reason: models.OpenFailRequote, Err: err}
}
