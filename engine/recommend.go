package engine

import "sort"

// 最多推荐的主题个数
const recommendLimit = 3

// RecommendTopics 给用户推荐接下来值得尝试的主题：优先推荐所属画像
// 权重高但用户还没碰过的主题，不够时再从基准词表里补。结果确定有序
// （权重降序、同权重按标签升序），Uncategorized永远不会被推荐。
func RecommendTopics(fv *FeatureVector, winner Archetype) []string {
	if fv == nil {
		return []string{}
	}

	type candidate struct {
		tag    string
		weight float64
	}

	// 画像签名里用户尚未探索的主题
	candidates := make([]candidate, 0, len(winner.Weights))
	for tag, w := range winner.Weights {
		if tag == Uncategorized || w <= 0 {
			continue
		}
		if fv.Counts[tag] > 0 {
			continue
		}
		candidates = append(candidates, candidate{tag: tag, weight: w})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].tag < candidates[j].tag
	})

	topics := make([]string, 0, recommendLimit)
	picked := make(map[string]bool)
	for _, c := range candidates {
		if len(topics) >= recommendLimit {
			break
		}
		topics = append(topics, c.tag)
		picked[c.tag] = true
	}

	// 基准词表兜底，保证资深专精用户也能拿到建议
	for _, tag := range CanonicalTags {
		if len(topics) >= recommendLimit {
			break
		}
		if picked[tag] || fv.Counts[tag] > 0 {
			continue
		}
		topics = append(topics, tag)
		picked[tag] = true
	}

	return topics
}
