package contracts

// QuoteSource identifies which upstream produced a quote
type QuoteSource string

const (
	SourceTencent QuoteSource = "tencent"
	SourceSina    QuoteSource = "sina"
)

// Quote is a point-in-time snapshot for a symbol.
// Units follow the upstream: Tencent amount is 万元 and market caps 亿元,
// Sina amount is 元. Absent numbers stay nil.
type Quote struct {
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Price          *float64    `json:"price"`
	Open           *float64    `json:"open,omitempty"`
	High           *float64    `json:"high,omitempty"`
	Low            *float64    `json:"low,omitempty"`
	PrevClose      *float64    `json:"prev_close,omitempty"`
	Volume         *float64    `json:"volume,omitempty"`
	Amount         *float64    `json:"amount,omitempty"`
	ChangePct      *float64    `json:"change_pct,omitempty"`
	PE             *float64    `json:"pe,omitempty"`
	PB             *float64    `json:"pb,omitempty"`
	MarketCap      *float64    `json:"market_cap,omitempty"`
	FloatMarketCap *float64    `json:"float_market_cap,omitempty"`
	TurnoverRate   *float64    `json:"turnover_rate,omitempty"`
	Amplitude      *float64    `json:"amplitude,omitempty"`
	Date           string      `json:"date,omitempty"`
	Time           string      `json:"time,omitempty"`
	Source         QuoteSource `json:"source"`
}

// Tradable reports whether the quote carries a positive last price
func (q Quote) Tradable() bool {
	return q.Price != nil && *q.Price > 0
}

// IndexQuote is a market index snapshot
type IndexQuote struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	ChangePct *float64 `json:"change_pct"`
	Amount    *float64 `json:"amount"`
}

// SectorQuote is one row of an industry or concept board ranking
type SectorQuote struct {
	Name      string   `json:"name"`
	Code      string   `json:"code"`
	ChangePct *float64 `json:"change_pct"`
	Amount    *float64 `json:"amount"`
}

// NewsItem is a headline returned by a news search
type NewsItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}
