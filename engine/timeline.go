package engine

import (
	"sort"

	"persona_analyzer/models"
)

// BuildTimeline 把一个用户的notebook记录按自然月聚合成活跃趋势序列。
// 输出是稀疏的：只包含有创作的月份，按月份升序，没有零计数的桶，
// 补齐空档留给展示层自己处理。月份取时间戳原始时区下的年月，不做时区换算。
func BuildTimeline(records []models.NotebookRecord) []models.TimelinePoint {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.CreatedAt.Format("2006-01")]++
	}

	points := make([]models.TimelinePoint, 0, len(counts))
	for period, c := range counts {
		points = append(points, models.TimelinePoint{Period: period, Count: c})
	}

	// YYYY-MM的字典序就是时间序
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})
	return points
}
