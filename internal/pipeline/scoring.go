package pipeline

import "strings"

// lengthBuckets are the reply-length thresholds (runes) that earn quality
// points, coarsest first (spec.md §4.11 "response-quality score (length
// buckets + personalization bit + memory-used bit + news-context bit)").
var lengthBuckets = []int{50, 150, 400}

// scoreQuality computes the coordinator's response-quality score: one point
// per length bucket the reply clears, plus a personalization bit, a
// memory-used bit, and a news-context bit, normalized to [0, 1].
func scoreQuality(resp *Response) float64 {
	maxPoints := float64(len(lengthBuckets) + 3)
	points := 0.0

	replyLen := len([]rune(resp.Reply))
	for _, bucket := range lengthBuckets {
		if replyLen >= bucket {
			points++
		}
	}

	if resp.MemoriesUsed > 0 {
		points++ // memory-used bit
		points++ // personalization bit
	}
	if resp.NewsRetrieved > 0 {
		points++ // news-context bit
	}

	return points / maxPoints
}

// scoreContextRelevance computes keyword overlap between the user's message
// and the reply, plus a news-presence bit, normalized to [0, 1] (spec.md
// §4.11 "context-relevance score (keyword overlap + news presence)").
func scoreContextRelevance(message string, resp *Response) float64 {
	overlap := keywordOverlap(message, resp.Reply)

	newsPresence := 0.0
	if resp.NewsRetrieved > 0 {
		newsPresence = 1
	}

	return (overlap + newsPresence) / 2
}

// keywordOverlap returns the fraction of message's distinct lowercase words
// that also appear in reply, 0 if message has none.
func keywordOverlap(message, reply string) float64 {
	messageWords := wordSet(message)
	if len(messageWords) == 0 {
		return 0
	}
	replyWords := wordSet(reply)

	matches := 0
	for w := range messageWords {
		if _, ok := replyWords[w]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(messageWords))
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
