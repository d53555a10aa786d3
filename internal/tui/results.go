package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/render"
	"github.com/simonyos/geochat/internal/tools"
	"github.com/simonyos/geochat/internal/tui/components"
)

func resultLines(results []tools.Result) []components.ResultLine {
	lines := make([]components.ResultLine, 0, len(results))
	for _, res := range results {
		lines = append(lines, components.ResultLine{
			Tool:   res.Tool,
			Text:   render.Describe(res),
			Failed: !res.OK(),
		})
	}
	return lines
}

// turnStats summarizes a finished turn in one line
func turnStats(turn agent.Turn) string {
	if turn.ID == "" {
		return ""
	}
	return fmt.Sprintf("%s · %d/%d model calls · %d tokens · %s",
		turn.State,
		turn.ModelCalls,
		turn.MaxModelCalls,
		turn.Usage.TotalTokens,
		turn.Duration().Round(100*time.Millisecond),
	)
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}
