package contracts

// ListingRow is one row of the market listing as delivered.
// Values are kept as raw text; validation belongs to the hard filter.
// ⭐ SSOT: S1 Builder → HardFilter 원본 데이터 전달
type ListingRow struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Trade         string `json:"trade"`         // 最新价
	PE            string `json:"per"`           // 市盈率
	PB            string `json:"pb"`            // 市净率
	MktCap        string `json:"mktcap"`        // 总市值 (万元)
	Amount        string `json:"amount"`        // 成交额 (元)
	TurnoverRatio string `json:"turnoverratio"` // 换手率 (%)
	ChangePercent string `json:"changepercent"` // 涨跌幅 (%)
	Volume        string `json:"volume"`
}

// UniverseEntry is a row that survived the hard filter, carried through scoring
type UniverseEntry struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	PE           *float64 `json:"pe"`
	PB           *float64 `json:"pb"`
	MktCapWan    *float64 `json:"mktcap_wan"`
	MktCapYi     *float64 `json:"mktcap_yi"`
	Amount       *float64 `json:"amount"`
	TurnoverRate *float64 `json:"turnover_rate"`
	ChangePct    *float64 `json:"change_pct"`
	Board        Board    `json:"board"`

	// run-scoped
	Tech        TechnicalIndicators `json:"tech"`
	Scores      FactorScores        `json:"scores"`
	EnrichError string              `json:"enrich_error,omitempty"`
}

// FilterStats counts rejections per rule
type FilterStats map[string]int

// Rejection reasons, in rule order
const (
	RejectST        = "st"
	RejectPrice     = "price"
	RejectMktCap    = "mktcap"
	RejectPE        = "pe"
	RejectLiquidity = "liquidity"
)
