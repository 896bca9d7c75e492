package model

import "time"

// Report is the outcome of one fetch → scan → render run.
type Report struct {
	Start      time.Time
	End        time.Time
	Series     *PriceSeries
	Events     []ImbalanceEvent
	Violations []Violation
	ChartFile  string // web path of the chart image
	TableFile  string // web path of the bottom-value table image
	CreatedAt  time.Time
}
