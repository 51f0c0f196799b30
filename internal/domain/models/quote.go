package models

// Mode selects how a ticker is read from the upstream chart metadata.
type Mode int

const (
	// ModeRegular reports the live regular-market price.
	ModeRegular Mode = iota
	// ModeClosing reports the last completed session (ADRs).
	ModeClosing
)

func (m Mode) String() string {
	switch m {
	case ModeClosing:
		return "closing"
	default:
		return "regular"
	}
}

const (
	SourceRegularMarket = "regular-market"
	SourceClosingPrice  = "closing-price"
	SourceNoData        = "no-data"

	DataTypeClosing = "closing"

	MessageClosing = "Dados de fechamento (after-market disponível para preenchimento manual)"
	MessageNoData  = "Sem dados de fechamento disponíveis"
)

// Quote is a regular-market reading. VariationPct is serialized as "variation".
type Quote struct {
	Current      float64 `json:"current"`
	VariationPct float64 `json:"variation"`
	Timestamp    string  `json:"timestamp"`
	Ticker       string  `json:"ticker"`
	Source       string  `json:"source"`
}

// ClosingQuote is the ADR reading built from the prior session close.
// Current and VariationPct are nil when Source is SourceNoData.
type ClosingQuote struct {
	Current        *float64 `json:"current"`
	VariationPct   *float64 `json:"variation"`
	Timestamp      string   `json:"timestamp"`
	Ticker         string   `json:"ticker"`
	Source         string   `json:"source"`
	HasAfterMarket bool     `json:"has_after_market"`
	DataType       string   `json:"data_type"`
	Message        string   `json:"message"`
}

// FetchStatus tags the outcome of a single upstream call.
type FetchStatus int

const (
	// FetchOK carries a populated record.
	FetchOK FetchStatus = iota
	// FetchNoData is a successful closing-mode call with a null payload.
	FetchNoData
	// FetchFailed means the slot must be left untouched.
	FetchFailed
)

func (s FetchStatus) String() string {
	switch s {
	case FetchOK:
		return "ok"
	case FetchNoData:
		return "no_data"
	default:
		return "failed"
	}
}

// FetchResult is what a QuoteSource hands back for one ticker.
// Quote is set for regular mode, Closing for closing mode, Err for FetchFailed.
type FetchResult struct {
	Status  FetchStatus
	Ticker  string
	Mode    Mode
	Quote   *Quote
	Closing *ClosingQuote
	Err     error
}

// Failed reports whether the caller must keep the previous value.
func (r FetchResult) Failed() bool { return r.Status == FetchFailed }

// Price returns the rounded current price carried by the result, if any.
func (r FetchResult) Price() (float64, bool) {
	switch {
	case r.Quote != nil:
		return r.Quote.Current, true
	case r.Closing != nil && r.Closing.Current != nil:
		return *r.Closing.Current, true
	}
	return 0, false
}
