package usecase

import (
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

// Summary describes the distribution of pull requests across repositories.
type Summary struct {
	Username            string         `json:"username"`
	Repositories        int            `json:"repositories"`
	PullRequests        int            `json:"pullRequests"`
	SearchTotal         int            `json:"searchTotal"`
	MeanPerRepository   float64        `json:"meanPerRepository"`
	MedianPerRepository float64        `json:"medianPerRepository"`
	P90PerRepository    float64        `json:"p90PerRepository"`
	MaxPerRepository    int            `json:"maxPerRepository"`
	Stars               int            `json:"stars"`
	Enriched            int            `json:"enriched"`
	Languages           map[string]int `json:"languages"`
}

// Summarize computes the Summary of a report.
func Summarize(report *domain.Report) Summary {
	summary := Summary{
		Username:    report.Username,
		SearchTotal: report.SearchTotal,
		Languages:   map[string]int{},
	}
	if len(report.Contributions) == 0 {
		return summary
	}

	counts := make([]int, 0, len(report.Contributions))
	for _, c := range report.Contributions {
		counts = append(counts, c.PRCount)
		summary.PullRequests += c.PRCount
		if c.StarCount != nil {
			summary.Enriched++
			summary.Stars += *c.StarCount
		}
		if c.PrimaryLanguage != nil && *c.PrimaryLanguage != "" {
			summary.Languages[*c.PrimaryLanguage]++
		}
	}
	summary.Repositories = len(counts)

	data := stats.LoadRawData(counts)
	// The only error stats returns for these functions is for empty input,
	// which is handled above.
	summary.MeanPerRepository, _ = stats.Mean(data)
	summary.MedianPerRepository, _ = stats.Median(data)
	summary.P90PerRepository, _ = stats.Percentile(data, 90)
	maxCount, _ := stats.Max(data)
	summary.MaxPerRepository = int(maxCount)

	return summary
}
