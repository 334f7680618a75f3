package service

import (
	"context"
	"time"

	"fx_bot/pkg/logger"

	"github.com/bytedance/sonic"
)

// Quote — тик котировки для marketdata.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
	At     time.Time
}

// StreamQuotes — один WebSocket на весь список символов.
// Реконнект с паузой; канал закрывается только по ctx.
func (c *Client) StreamQuotes(ctx context.Context, symbols []string) <-chan Quote {
	ch := make(chan Quote)

	go func() {
		defer close(ch)

		if len(symbols) == 0 {
			return
		}

		sub := map[string]any{
			"op":      "subscribe",
			"symbols": symbols,
		}

		for {
			if ctx.Err() != nil {
				return
			}

			logger.Info("[WS] connect quotes, %d symbols", len(symbols))
			conn, _, err := c.wsDialer.DialContext(ctx, c.cfg.Gateway.WSURL, nil)
			if err != nil {
				logger.Warn("[WS] dial error: %v", err)
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			if err := conn.WriteJSON(sub); err != nil {
				logger.Warn("[WS] subscribe error: %v", err)
				_ = conn.Close()
				continue
			}

			// рвём Read при отмене контекста
			go func() {
				<-ctx.Done()
				_ = conn.Close()
			}()

			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Warn("[WS] read error: %v, reconnect", err)
					_ = conn.Close()
					break
				}

				var msg quoteMsg
				if err := sonic.Unmarshal(raw, &msg); err != nil || msg.Symbol == "" {
					continue
				}

				q := Quote{
					Symbol: msg.Symbol,
					Bid:    msg.Bid,
					Ask:    msg.Ask,
					At:     time.UnixMilli(msg.TS),
				}

				select {
				case ch <- q:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch
}
