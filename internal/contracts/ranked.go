package contracts

// ScreenWeights are the composite weights of the five screening factors
type ScreenWeights struct {
	Growth    float64 `json:"growth" yaml:"growth"`
	Valuation float64 `json:"valuation" yaml:"valuation"`
	Quality   float64 `json:"quality" yaml:"quality"`
	Safety    float64 `json:"safety" yaml:"safety"`
	Momentum  float64 `json:"momentum" yaml:"momentum"`
}

// Sum returns the total weight
func (w ScreenWeights) Sum() float64 {
	return w.Growth + w.Valuation + w.Quality + w.Safety + w.Momentum
}

// FactorScores holds 0–100 screening sub-scores and their weighted composite
type FactorScores struct {
	Growth    float64 `json:"growth"`
	Valuation float64 `json:"valuation"`
	Quality   float64 `json:"quality"`
	Safety    float64 `json:"safety"`
	Momentum  float64 `json:"momentum"`
	Composite float64 `json:"composite"`
}

// Factors drops the composite, which reports carry at the row level
func (s FactorScores) Factors() ResultScores {
	return ResultScores{
		Growth:    s.Growth,
		Valuation: s.Valuation,
		Quality:   s.Quality,
		Safety:    s.Safety,
		Momentum:  s.Momentum,
	}
}

// ResultScores are the five sub-scores as emitted in a report row
type ResultScores struct {
	Growth    float64 `json:"growth"`
	Valuation float64 `json:"valuation"`
	Quality   float64 `json:"quality"`
	Safety    float64 `json:"safety"`
	Momentum  float64 `json:"momentum"`
}

// DeepWeights are the weights of the six research factors
type DeepWeights struct {
	Growth      float64 `json:"growth" yaml:"growth"`
	Valuation   float64 `json:"valuation" yaml:"valuation"`
	CapitalFlow float64 `json:"capital_flow" yaml:"capital_flow"`
	Catalyst    float64 `json:"catalyst" yaml:"catalyst"`
	Technical   float64 `json:"technical" yaml:"technical"`
	Conviction  float64 `json:"conviction" yaml:"conviction"`
}

// Sum returns the total weight
func (w DeepWeights) Sum() float64 {
	return w.Growth + w.Valuation + w.CapitalFlow + w.Catalyst + w.Technical + w.Conviction
}

// DeepScores holds 1–5 research sub-scores and their weighted composite
type DeepScores struct {
	Growth      float64 `json:"growth"`
	Valuation   float64 `json:"valuation"`
	CapitalFlow float64 `json:"capital_flow"`
	Catalyst    float64 `json:"catalyst"`
	Technical   float64 `json:"technical"`
	Conviction  float64 `json:"conviction"`
	Composite   float64 `json:"composite"`
}

// ScreenResult is one ranked row of a screen report
// ⭐ SSOT: 스크린 결과 JSON 스키마
type ScreenResult struct {
	Rank      int          `json:"rank"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Price     *float64     `json:"price"`
	PE        *float64     `json:"pe"`
	PB        *float64     `json:"pb"`
	MktCapYi  *float64     `json:"mktcap_yi"`
	ChangePct *float64     `json:"change_pct"`
	Board     string       `json:"board"`
	Composite float64      `json:"composite"`
	Scores    ResultScores `json:"scores"`
	Tech      TechSummary  `json:"tech"`
}

// TimestampLayout is the report timestamp format (UTC)
const TimestampLayout = "2006-01-02 15:04 UTC"

// ScreenReport is the document emitted by a full-market screen
type ScreenReport struct {
	Timestamp      string         `json:"timestamp"`
	Market         string         `json:"market"`
	UniverseSize   int            `json:"universe_size"`
	AfterFilter    int            `json:"after_filter"`
	Enriched       int            `json:"enriched"`
	TopN           int            `json:"top_n"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	Weights        ScreenWeights  `json:"weights"`
	Results        []ScreenResult `json:"results"`
}
