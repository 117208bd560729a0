package models

// Market identifies which exchange a transaction or holding belongs to.
// TW amounts are denominated in TWD, US amounts in USD.
type Market string

const (
	MarketTW Market = "TW"
	MarketUS Market = "US"
)

// TxnType is the trade direction.
type TxnType string

const (
	TxnBuy  TxnType = "buy"
	TxnSell TxnType = "sell"
)

// KpiView scopes aggregate metrics to one market or blends both.
type KpiView string

const (
	ViewAll KpiView = "ALL"
	ViewTW  KpiView = "TW"
	ViewUS  KpiView = "US"
)

// Transaction is one recorded trade. Dates are calendar-day strings in
// YYYY/MM/DD form with no time component; string comparison orders them.
type Transaction struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Market Market  `json:"market"`
	Type   TxnType `json:"type"`
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Qty    float64 `json:"qty"`
	Fee    float64 `json:"fee"`
	Tax    float64 `json:"tax"`
}

// Holding is a derived per-instrument snapshot; it is recomputed from the
// full transaction history and the current price map on every query.
type Holding struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Market       Market  `json:"market"`
	Qty          float64 `json:"qty"`
	TotalCost    float64 `json:"totalCost"`
	AvgCost      float64 `json:"avgCost"`
	CurrPrice    float64 `json:"currPrice"`
	MarketValue  float64 `json:"marketValue"`
	UnrealizedPL float64 `json:"unrealizedPL"`
	ProfitRate   float64 `json:"profitRate"`
	Dividend     float64 `json:"dividend"`
}

// RealizedGain accumulates sell profits per market currency. The two buckets
// are independent; no conversion happens at ledger level.
type RealizedGain struct {
	TWD float64 `json:"twd"`
	USD float64 `json:"usd"`
}

// RealizedRecord is the optional audit row emitted to the remote mirror when
// a sell is recorded. Profit is split by market currency the same way the
// ledger splits it.
type RealizedRecord struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	Market       Market  `json:"market"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Qty          float64 `json:"qty"`
	SellPrice    float64 `json:"sellPrice"`
	TotalCost    float64 `json:"totalCost"`
	NetProfitTWD float64 `json:"netProfitTWD"`
	NetProfitUSD float64 `json:"netProfitUSD"`
	Note         string  `json:"note"`
}

// RepaymentType says what a repayment was applied against.
type RepaymentType string

const (
	RepayTotal     RepaymentType = "total"
	RepayPrincipal RepaymentType = "principal"
	RepayInterest  RepaymentType = "interest"
)

type Repayment struct {
	ID     string        `json:"id"`
	Date   string        `json:"date"`
	Amount float64       `json:"amount"`
	Type   RepaymentType `json:"type"`
}

// DebtKind distinguishes pledge-backed loans from unsecured ones.
type DebtKind string

const (
	DebtPledge DebtKind = "pledge"
	DebtLoan   DebtKind = "loan"
)

// Debt is an outstanding loan. Amount is the current principal, already net
// of repayments and floored at 0. Rate is annual percent.
type Debt struct {
	ID         string      `json:"id"`
	Type       DebtKind    `json:"type"`
	Symbol     string      `json:"symbol,omitempty"`
	Shares     float64     `json:"shares,omitempty"`
	Amount     float64     `json:"amount"`
	Rate       float64     `json:"rate"`
	Date       string      `json:"date"`
	Fee        float64     `json:"fee"`
	Note       string      `json:"note"`
	Repayments []Repayment `json:"repayments"`
}

// InterestRecord is an actual dividend/interest payout that landed in the
// account, distinct from the flat dividend estimate on holdings.
type InterestRecord struct {
	ID               string  `json:"id"`
	StockSymbol      string  `json:"stockSymbol"`
	StockName        string  `json:"stockName"`
	DistributeDate   string  `json:"distributeDate"`
	PerShareDividend float64 `json:"perShareDividend,omitempty"`
	CashDividend     float64 `json:"cashDividend"`
}

// KpiData is the derived dashboard rollup for one view filter.
type KpiData struct {
	TotalVal     float64 `json:"totalVal"`
	TotalCost    float64 `json:"totalCost"`
	PL           float64 `json:"pl"`
	PLRate       float64 `json:"plRate"`
	TotalDiv     float64 `json:"totalDiv"`
	NetProfit    float64 `json:"netProfit"`
	RealizedGain float64 `json:"realizedGain"`
}

// DebtStats summarizes all debts for the net-worth section.
type DebtStats struct {
	TotalDebt     float64 `json:"totalDebt"`
	TotalInterest float64 `json:"totalInterest"`
}
