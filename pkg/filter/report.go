package filter

// Report aggregates filter outcomes for a batch.
type Report struct {
	Total      int            `json:"total_queries"`
	Valid      int            `json:"valid_queries"`
	Filtered   int            `json:"filtered_queries"`
	FilterRate float64        `json:"filter_rate"`
	Reasons    map[Reason]int `json:"filter_reasons"`
}

func BuildReport(results []Result) Report {
	r := Report{Total: len(results), Reasons: map[Reason]int{}}
	for _, res := range results {
		if res.Accepted {
			r.Valid++
			continue
		}
		r.Reasons[res.Reason]++
	}
	r.Filtered = r.Total - r.Valid
	if r.Total > 0 {
		r.FilterRate = float64(r.Filtered) / float64(r.Total)
	}
	return r
}

// Merge folds another report into r.
func (r *Report) Merge(other Report) {
	if r.Reasons == nil {
		r.Reasons = map[Reason]int{}
	}
	r.Total += other.Total
	r.Valid += other.Valid
	r.Filtered += other.Filtered
	for k, v := range other.Reasons {
		r.Reasons[k] += v
	}
	if r.Total > 0 {
		r.FilterRate = float64(r.Filtered) / float64(r.Total)
	}
}
