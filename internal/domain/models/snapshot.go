package models

// DataStatus is the refresh state machine: initializing -> success <-> error.
type DataStatus string

const (
	StatusInitializing DataStatus = "initializing"
	StatusSuccess      DataStatus = "success"
	StatusError        DataStatus = "error"
)

// Slot names the fixed single-quote entries of the snapshot.
type Slot string

const (
	SlotVIX    Slot = "vix"
	SlotGold   Slot = "gold"
	SlotIron   Slot = "iron"
	SlotWinFut Slot = "winfut"
)

// MarketSnapshot is the full cache. Values are treated as immutable once
// published; writers work on a Clone.
type MarketSnapshot struct {
	VIX    *Quote
	Gold   *Quote
	Iron   *Quote
	WinFut *Quote
	ADRs   map[string]ClosingQuote
	Macro  map[string]Quote

	// Timestamp of the last successful refresh, empty until the first one.
	Timestamp string
	Status    DataStatus
	Error     string
}

// NewSnapshot returns the process-start state.
func NewSnapshot() *MarketSnapshot {
	return &MarketSnapshot{
		ADRs:   make(map[string]ClosingQuote),
		Macro:  make(map[string]Quote),
		Status: StatusInitializing,
	}
}

// Clone copies the snapshot deep enough that mutating the copy never
// touches the original.
func (s *MarketSnapshot) Clone() *MarketSnapshot {
	c := *s
	c.VIX = cloneQuote(s.VIX)
	c.Gold = cloneQuote(s.Gold)
	c.Iron = cloneQuote(s.Iron)
	c.WinFut = cloneQuote(s.WinFut)
	c.ADRs = make(map[string]ClosingQuote, len(s.ADRs))
	for k, v := range s.ADRs {
		c.ADRs[k] = v
	}
	c.Macro = make(map[string]Quote, len(s.Macro))
	for k, v := range s.Macro {
		c.Macro[k] = v
	}
	return &c
}

// Slot returns the single-quote entry for name, nil if unset.
func (s *MarketSnapshot) Slot(name Slot) *Quote {
	switch name {
	case SlotVIX:
		return s.VIX
	case SlotGold:
		return s.Gold
	case SlotIron:
		return s.Iron
	case SlotWinFut:
		return s.WinFut
	}
	return nil
}

// SetSlot overwrites the single-quote entry for name.
func (s *MarketSnapshot) SetSlot(name Slot, q Quote) {
	p := &q
	switch name {
	case SlotVIX:
		s.VIX = p
	case SlotGold:
		s.Gold = p
	case SlotIron:
		s.Iron = p
	case SlotWinFut:
		s.WinFut = p
	}
}

func cloneQuote(q *Quote) *Quote {
	if q == nil {
		return nil
	}
	c := *q
	return &c
}

// RefreshEvent is emitted after each refresh cycle. Updates lists only the
// entries written during that cycle, in fetch order.
type RefreshEvent struct {
	Snapshot *MarketSnapshot
	Updates  []QuoteUpdate
}
