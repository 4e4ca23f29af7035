package orchestrator

import (
	"context"
	"strings"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

const manageInterestsPrompt = "You manage the user's interest tags using this protocol. Emit one or more lines, each starting with " +
	"one of: QUERY: (list current interests), QUERY_RELATED:<keyword> (find interests related to a keyword), " +
	"ADD:<comma,separated,tags>, REMOVE:<comma,separated,tags>, CLEAR: (remove all), " +
	"REPLACE:<remove_csv>|<add_csv>, or UNKNOWN: if the request doesn't fit. Reply with only these lines."

// manageInterests implements the manage_interests node's two-phase protocol
// (spec.md §4.9): phase 1 executes every LM-emitted line in order; any
// QUERY_RELATED line enqueues a phase-2 REMOVE using the tags it discovers,
// which runs only after phase 1 completes.
func (o *Orchestrator) manageInterests(ctx context.Context, user, message string) []OperationOutcome {
	resp, err := o.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: manageInterestsPrompt},
		{Role: "user", Content: message},
	}, interfaces.ChatOptions{Temperature: 0, MaxTokens: 200})
	if err != nil {
		common.PipelineWarn(ctx, stageName, "manage_interests_classify_failed", map[string]interface{}{"error": err.Error()})
		return []OperationOutcome{{Line: "", Success: false, Detail: "could not reach the interest assistant"}}
	}

	lines := splitNonEmptyLines(resp.Content)
	if len(lines) == 0 {
		return []OperationOutcome{{Line: "", Success: false, Detail: "no recognizable interest operation"}}
	}

	outcomes := make([]OperationOutcome, 0, len(lines))
	var phase2Removals []string

	for _, line := range lines {
		outcome, related := o.runInterestLine(ctx, user, line)
		outcomes = append(outcomes, outcome)
		phase2Removals = append(phase2Removals, related...)
	}

	if len(phase2Removals) > 0 {
		removed, err := o.interests.Remove(ctx, user, phase2Removals)
		if err != nil {
			outcomes = append(outcomes, OperationOutcome{Line: "REMOVE (phase 2)", Success: false, Detail: err.Error()})
		} else {
			outcomes = append(outcomes, OperationOutcome{
				Line: "REMOVE (phase 2)", Success: true,
				Detail: "removed related tags, remaining: " + strings.Join(removed, ", "),
			})
		}
	}

	return outcomes
}

func splitNonEmptyLines(raw string) []string {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// runInterestLine executes one protocol line, returning its outcome and,
// for QUERY_RELATED, the related tags to enqueue into phase 2.
func (o *Orchestrator) runInterestLine(ctx context.Context, user, line string) (OperationOutcome, []string) {
	switch {
	case strings.HasPrefix(line, "QUERY_RELATED:"):
		keyword := strings.TrimSpace(strings.TrimPrefix(line, "QUERY_RELATED:"))
		related, err := o.interests.Related(ctx, user, keyword)
		if err != nil {
			return OperationOutcome{Line: line, Success: false, Detail: err.Error()}, nil
		}
		return OperationOutcome{Line: line, Success: true, Detail: "related: " + strings.Join(related, ", ")}, related

	case strings.HasPrefix(line, "QUERY:"):
		interests, err := o.interests.Get(ctx, user)
		if err != nil {
			return OperationOutcome{Line: line, Success: false, Detail: err.Error()}, nil
		}
		return OperationOutcome{Line: line, Success: true, Detail: strings.Join(interests, ", ")}, nil

	case strings.HasPrefix(line, "ADD:"):
		tags := csvToTags(strings.TrimPrefix(line, "ADD:"))
		result, err := o.interests.Add(ctx, user, tags)
		if err != nil {
			return OperationOutcome{Line: line, Success: false, Detail: err.Error()}, nil
		}
		return OperationOutcome{Line: line, Success: true, Detail: "now: " + strings.Join(result, ", ")}, nil

	case strings.HasPrefix(line, "REMOVE:"):
		tags := csvToTags(strings.TrimPrefix(line, "REMOVE:"))
		result, err := o.interests.Remove(ctx, user, tags)
		if err != nil {
			return OperationOutcome{Line: line, Success: false, Detail: err.Error()}, nil
		}
		return OperationOutcome{Line: line, Success: true, Detail: "now: " + strings.Join(result, ", ")}, nil

	case strings.HasPrefix(line, "CLEAR:"):
		if err := o.interests.Clear(ctx, user); err != nil {
			return OperationOutcome{Line: line, Success: false, Detail: err.Error()}, nil
		}
		return OperationOutcome{Line: line, Success: true, Detail: "interests cleared"}, nil

	case strings.HasPrefix(line, "REPLACE:"):
		return o.runReplace(ctx, user, line), nil

	case strings.HasPrefix(line, "UNKNOWN:"):
		return OperationOutcome{Line: line, Success: false, Detail: "request did not match a known interest operation"}, nil

	default:
		return OperationOutcome{Line: line, Success: false, Detail: "unrecognized operation"}, nil
	}
}

func (o *Orchestrator) runReplace(ctx context.Context, user, line string) OperationOutcome {
	body := strings.TrimPrefix(line, "REPLACE:")
	halves := strings.SplitN(body, "|", 2)
	if len(halves) != 2 {
		return OperationOutcome{Line: line, Success: false, Detail: "malformed REPLACE, expected rm_csv|add_csv"}
	}

	removeTags := csvToTags(halves[0])
	addTags := csvToTags(halves[1])

	if len(removeTags) > 0 {
		if _, err := o.interests.Remove(ctx, user, removeTags); err != nil {
			return OperationOutcome{Line: line, Success: false, Detail: err.Error()}
		}
	}
	result, err := o.interests.Add(ctx, user, addTags)
	if err != nil {
		return OperationOutcome{Line: line, Success: false, Detail: err.Error()}
	}
	return OperationOutcome{Line: line, Success: true, Detail: "now: " + strings.Join(result, ", ")}
}

func csvToTags(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
