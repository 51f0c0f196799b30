package models

// Response shapes of the market HTTP API.

type MarketData struct {
	VIX    any                     `json:"vix"`
	Gold   any                     `json:"gold"`
	Iron   any                     `json:"iron"`
	WinFut any                     `json:"winfut"`
	ADRs   map[string]ClosingQuote `json:"adrs"`
	Macro  map[string]Quote        `json:"macro"`
}

type MarketDataResponse struct {
	Status    string     `json:"status"`
	Timestamp string     `json:"timestamp"`
	Data      MarketData `json:"data"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	DataStatus string `json:"data_status"`
	LastUpdate string `json:"last_update"`
	Mode       string `json:"mode"`
	Version    string `json:"version"`
}

type UpdateResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type IndexResponse struct {
	Message   string   `json:"message"`
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// emptyEntry serializes as {}.
type emptyEntry struct{}

// EntryOrEmpty maps an unset slot to {} instead of null.
func EntryOrEmpty(q *Quote) any {
	if q == nil {
		return emptyEntry{}
	}
	return q
}

// Data projects the snapshot onto the market-data payload.
func (s *MarketSnapshot) Data() MarketData {
	return MarketData{
		VIX:    EntryOrEmpty(s.VIX),
		Gold:   EntryOrEmpty(s.Gold),
		Iron:   EntryOrEmpty(s.Iron),
		WinFut: EntryOrEmpty(s.WinFut),
		ADRs:   s.ADRs,
		Macro:  s.Macro,
	}
}

// QuoteUpdate is one refreshed entry as published to the message bus.
type QuoteUpdate struct {
	Category string `json:"category"` // vix, gold, iron, winfut, adrs, macro
	Key      string `json:"key"`
	Ticker   string `json:"ticker"`
	Data     any    `json:"data"`
}
