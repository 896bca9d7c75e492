package model

// ImbalanceEvent marks a detected bullish volume imbalance.
// Right is always Left+2. Top and Bottom are the literal bounds
// min(close, low) of the oldest bar and max(open, high) of the newest bar;
// Top <= Bottom is not guaranteed.
type ImbalanceEvent struct {
	Left   int     `json:"left"`
	Right  int     `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Violation describes a bar that breaks OHLC consistency.
type Violation struct {
	Index  int
	Reason string
}
