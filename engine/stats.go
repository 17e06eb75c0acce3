package engine

import (
	"strings"

	"persona_analyzer/models"
)

// BuildActivityStats 汇总画像卡展示用的活跃度统计。记录为空时返回nil，
// 调用方应先通过 ExtractFeatures 保证用户确实有数据。
func BuildActivityStats(records []models.NotebookRecord) *models.StatsView {
	if len(records) == 0 {
		return nil
	}

	stats := &models.StatsView{
		TotalNotebooks: len(records),
		Languages:      make(map[string]int),
	}

	earliest, latest := records[0].CreatedAt, records[0].CreatedAt
	cellSum := 0
	mostVotes := -1

	for _, r := range records {
		stats.TotalVotes += r.Votes
		stats.TotalForks += r.Forks
		stats.TotalViews += r.Views
		cellSum += r.CellCount

		if r.Language != "" {
			stats.Languages[r.Language]++
		}

		switch strings.ToLower(r.Medal) {
		case "gold":
			stats.GoldMedals++
		case "silver":
			stats.SilverMedals++
		case "bronze":
			stats.BronzeMedals++
		}

		// 严格大于：得票持平时保留输入顺序里先出现的notebook
		if r.Votes > mostVotes {
			mostVotes = r.Votes
			stats.MostVotes = r.Votes
			if r.Title != "" {
				stats.MostVotedNotebook = r.Title
			} else {
				stats.MostVotedNotebook = r.NotebookID
			}
		}

		if r.CreatedAt.Before(earliest) {
			earliest = r.CreatedAt
		}
		if r.CreatedAt.After(latest) {
			latest = r.CreatedAt
		}
	}

	total := float64(len(records))
	stats.AvgVotes = float64(stats.TotalVotes) / total
	stats.AvgCells = float64(cellSum) / total
	stats.ActiveMonthSpan = monthSpan(earliest, latest)
	stats.MostActiveMonth = mostActiveMonth(records)

	return stats
}

// mostActiveMonth 创作最多的月份，数量持平时取更早的月份
func mostActiveMonth(records []models.NotebookRecord) string {
	timeline := BuildTimeline(records)
	best := ""
	bestCount := 0
	for _, p := range timeline {
		// 时间线已按月份升序，严格大于即"取最早"
		if p.Count > bestCount {
			best = p.Period
			bestCount = p.Count
		}
	}
	return best
}
