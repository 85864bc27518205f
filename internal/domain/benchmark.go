package domain

import "math"

// BenchmarkRecord is a single (title, location, country, year, period) salary
// data point as indexed by the search backend. Immutable once indexed.
type BenchmarkRecord struct {
	Title    string  `json:"title"`
	Location string  `json:"location"`
	Country  string  `json:"country"`
	Salary   float64 `json:"salary"`
	Year     int     `json:"year"`
	Period   string  `json:"period"` // year/month/week/hour
	IDCode   string  `json:"id_code,omitempty"`
}

// JobTitleEntry maps a free-text job title to its classification code
// (e.g. a UK SOC code) and coarse group.
type JobTitleEntry struct {
	Title  string `json:"title"`
	IDCode string `json:"soc"`
	Group  string `json:"group"`
}

// Band is the fixed high/low range shown around a benchmark salary.
// Not a statistical confidence interval.
type Band struct {
	High int `json:"high"`
	Low  int `json:"low"`
}

func BandFor(salary float64) Band {
	return Band{
		High: int(math.Round(salary * 1.3)),
		Low:  int(math.Round(salary * 0.75)),
	}
}
