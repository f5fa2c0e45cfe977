package analytics

import (
	"salesinsight/internal/catalog"
	"salesinsight/internal/weblog"
)

// KPIs are the headline business metrics of a filtered record set.
type KPIs struct {
	TotalRequests      int     `json:"total_requests"`
	ConversionRequests int     `json:"conversion_requests"`
	ConversionRate     float64 `json:"conversion_rate"` // percent, 0..100
	TotalRevenue       float64 `json:"total_revenue"`
	TotalProfit        float64 `json:"total_profit"`
	AverageTarget      float64 `json:"average_target"`
}

// ComputeKPIs summarizes records. An empty set yields all zeros.
func ComputeKPIs(records []weblog.Record, cat *catalog.Catalog) KPIs {
	k := KPIs{TotalRequests: len(records)}
	for _, r := range records {
		if cat.IsConversion(r.RequestType) {
			k.ConversionRequests++
		}
		revenue := cat.Revenue(r.RequestType)
		k.TotalRevenue += revenue
		k.TotalProfit += cat.Profit(revenue)
	}
	if k.TotalRequests > 0 {
		k.ConversionRate = float64(k.ConversionRequests) / float64(k.TotalRequests) * 100
	}
	k.AverageTarget = meanCount(jobTypeCounts(records))
	return k
}

// jobTypeCounts counts records per job type, leaving out NoJob.
func jobTypeCounts(records []weblog.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.JobType == catalog.NoJob {
			continue
		}
		counts[r.JobType]++
	}
	return counts
}

func meanCount(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return float64(total) / float64(len(counts))
}
