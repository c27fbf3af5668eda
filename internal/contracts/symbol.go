package contracts

import "strings"

// Market is the exchange prefix used by upstream quote APIs
type Market string

const (
	MarketShanghai Market = "sh"
	MarketShenzhen Market = "sz"
)

// Board is the listing tier of a security
type Board string

const (
	BoardMain       Board = "main"       // 主板
	BoardGrowth     Board = "growth"     // 创业板
	BoardInnovation Board = "innovation" // 科创板
	BoardRegional   Board = "regional"   // 北交所
)

// Label returns the exchange's Chinese name for the board
func (b Board) Label() string {
	switch b {
	case BoardGrowth:
		return "创业板"
	case BoardInnovation:
		return "科创板"
	case BoardRegional:
		return "北交所"
	default:
		return "主板"
	}
}

// PriceLimit returns the daily price-move limit as a fraction
func (b Board) PriceLimit() float64 {
	switch b {
	case BoardInnovation:
		return 0.20
	case BoardRegional:
		return 0.30
	default:
		// 创业板 stays at the main-board limit here
		return 0.10
	}
}

// Symbol is an exchange-qualified security identifier
// ⭐ SSOT: 시장/보드 판정은 여기서만 (순수 함수, I/O 없음)
type Symbol struct {
	Code       string  `json:"code"`
	Market     Market  `json:"market"`
	Board      Board   `json:"board"`
	PriceLimit float64 `json:"price_limit"`
}

// ParseSymbol derives market, board and price limit from a raw code
func ParseSymbol(code string) Symbol {
	board := BoardOf(code)
	return Symbol{
		Code:       code,
		Market:     MarketOf(code),
		Board:      board,
		PriceLimit: board.PriceLimit(),
	}
}

// Qualified returns the upstream identifier, e.g. "sh600519"
func (s Symbol) Qualified() string {
	return string(s.Market) + s.Code
}

// MarketOf returns sh for codes starting with 6, 5, 9 or 11 and sz otherwise
func MarketOf(code string) Market {
	if strings.HasPrefix(code, "11") {
		return MarketShanghai
	}
	if code != "" && strings.ContainsRune("659", rune(code[0])) {
		return MarketShanghai
	}
	return MarketShenzhen
}

// BoardOf classifies a code by prefix
func BoardOf(code string) Board {
	switch {
	case strings.HasPrefix(code, "688"):
		return BoardInnovation
	case strings.HasPrefix(code, "300"), strings.HasPrefix(code, "301"):
		return BoardGrowth
	case strings.HasPrefix(code, "8"), strings.HasPrefix(code, "4"):
		return BoardRegional
	default:
		return BoardMain
	}
}

// Qualify converts a raw code to its upstream identifier
func Qualify(code string) string {
	return ParseSymbol(code).Qualified()
}
