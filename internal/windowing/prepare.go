package windowing

import "github.com/anthropics/anthropic-sdk-go"

// Stats summarizes the result of window preparation.
type Stats struct {
	Total            int  // estimated tokens for included groups
	Budget           int  // the input token budget used
	IncludedGroups   int  // number of groups included
	SkippedGroups    int  // total groups minus IncludedGroups
	OverBudgetNewest bool // true when the newest single group alone exceeds Budget
}

// PrepareSendWindow returns a subslice of msgs (oldest to newest) that fits
// within budget using the TokenCounter, without splitting groups.
//
// Rules:
//   - Include whole groups scanning newest to oldest while total <= budget.
//   - If the newest group alone exceeds budget, return an empty window and
//     set OverBudgetNewest.
//   - If budget <= 0, return an empty window (OverBudgetNewest set when any
//     groups exist).
func PrepareSendWindow(msgs []anthropic.MessageParam, budget int, c TokenCounter) ([]anthropic.MessageParam, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupBlocks(msgs)

	if budget <= 0 {
		stats := Stats{Budget: budget, SkippedGroups: len(groups)}
		if len(groups) > 0 {
			stats.OverBudgetNewest = true
		}
		return nil, stats
	}

	total := 0
	included := 0
	startIdx := len(groups) // exclusive sentinel; lowered when a group is included

	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], msgs)

		if included == 0 && cost > budget {
			return nil, Stats{
				Budget:           budget,
				SkippedGroups:    len(groups),
				OverBudgetNewest: true,
			}
		}

		if total+cost <= budget {
			total += cost
			included++
			startIdx = gi
			continue
		}
		// Adding this group would exceed budget; stop scanning older groups.
		break
	}

	if included == 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups)}
	}

	window := msgs[groups[startIdx].Start:]
	return window, Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}
