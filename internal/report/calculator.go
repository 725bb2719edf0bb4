// Package report turns the stored responses of a purchase into the
// aggregated Category → Subcategory → Question statistics document.
package report

import "github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"

// Calculate computes count, mean and a zero-filled frequency table.
// choices must be the ordered list of valid rating values.
func Calculate(ratings []int, choices []int) model.RatingStats {
	stats := model.RatingStats{
		Count:       len(ratings),
		Frequencies: make([]model.Frequency, 0, len(choices)),
	}

	occurrences := make(map[int]int, len(choices))
	sum := 0
	for _, r := range ratings {
		occurrences[r]++
		sum += r
	}

	if stats.Count > 0 {
		avg := float64(sum) / float64(stats.Count)
		stats.Average = &avg
	}

	for _, c := range choices {
		stats.Frequencies = append(stats.Frequencies, model.Frequency{c, occurrences[c]})
	}
	return stats
}
