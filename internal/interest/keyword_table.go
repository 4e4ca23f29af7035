package interest

// staticRelatedTable is the domain-tuned keyword→related-terms fallback used
// when the LM call in Related fails or returns nothing (spec.md §4.7 step
// 3). Every candidate it produces is still validated against the user's
// real interests by substring match before being returned.
var staticRelatedTable = map[string][]string{
	"轨道":   {"地铁", "高铁", "火车", "轨道交通", "地铁站", "高铁站"},
	"轨道交通": {"地铁", "高铁", "火车", "公交", "地铁站"},
	"交通":   {"地铁", "高铁", "火车", "公交", "飞机", "汽车"},
	"transport": {"subway", "metro", "railway", "train", "bus", "transit"},

	"体育":   {"足球", "篮球", "网球", "乒乓球", "奥运", "世界杯"},
	"sports": {"football", "basketball", "tennis", "olympics", "world cup"},

	"科技":        {"AI", "人工智能", "互联网", "芯片", "半导体", "量子计算"},
	"technology": {"ai", "artificial intelligence", "software", "chip", "semiconductor"},

	"娱乐":           {"电影", "音乐", "明星", "综艺", "电视剧"},
	"entertainment": {"movie", "music", "celebrity", "tv show", "streaming"},

	"金融":      {"股票", "基金", "银行", "投资", "经济", "通胀"},
	"finance": {"stock", "fund", "bank", "investment", "economy", "inflation"},

	"健康":     {"医疗", "疫苗", "养生", "健身", "心理健康"},
	"health": {"medical", "vaccine", "fitness", "wellness", "mental health"},
}
