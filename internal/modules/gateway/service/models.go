package service

// Wire-модели брокерского моста. Мост сам ходит в терминал и сам
// переподключается; для нас всё это синхронный request/response.

type accountResp struct {
	Equity     float64 `json:"equity"`
	FreeMargin float64 `json:"freeMargin"`
}

type symbolResp struct {
	Symbol       string  `json:"symbol"`
	Point        float64 `json:"point"`
	PipSize      float64 `json:"pipSize"`
	TickValue    float64 `json:"tickValue"`
	LotStep      float64 `json:"lotStep"`
	MinLot       float64 `json:"minLot"`
	MaxLot       float64 `json:"maxLot"`
	ContractSize float64 `json:"contractSize"`
	Disabled     bool    `json:"disabled"`
}

type candleResp struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	Start  int64   `json:"ts"`  // unix ms, начало бара
	End    int64   `json:"cts"` // unix ms, закрытие бара
}

type openOrderReq struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"` // BUY/SELL
	Lot    float64 `json:"lot"`
	SL     float64 `json:"sl"`
	TP     float64 `json:"tp"`
}

type openOrderResp struct {
	Ticket string  `json:"ticket"`
	Price  float64 `json:"price"` // фактическая цена исполнения
}

type modifyStopReq struct {
	SL float64 `json:"sl"`
}

type closeResp struct {
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
}

type errResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// quoteMsg — тик котировки из WS-потока моста.
type quoteMsg struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	TS     int64   `json:"ts"` // unix ms
}
