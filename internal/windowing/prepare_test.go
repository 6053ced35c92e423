package windowing_test

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/okaines/scout/internal/windowing"
)

func TestPrepareSendWindow_BudgetRespected_OrderPreserved(t *testing.T) {
	// Oldest -> newest
	msgs := []anthropic.MessageParam{
		User(T("old")), // G0: 3 + 4 = 7
		Asst(TU("a")),
		User(TRString("a", "r")),
		User(T("tail")),
	}
	budget := 17 // G2(8) + G1(9) = 17

	window, stats := windowing.PrepareSendWindow(msgs, budget, windowing.HeuristicCounter{})

	if stats.Budget != budget || stats.Total != 17 || stats.IncludedGroups != 2 || stats.OverBudgetNewest {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(window) != 3 { // expect msgs[1:]
		t.Fatalf("unexpected window length: got %d want 3", len(window))
	}
	if window[0].Role != anthropic.MessageParamRoleAssistant || window[1].Role != anthropic.MessageParamRoleUser || window[2].Role != anthropic.MessageParamRoleUser {
		t.Fatalf("unexpected roles in window")
	}
}

func TestPrepareSendWindow_NewestGroupOverBudget(t *testing.T) {
	msgs := []anthropic.MessageParam{
		User(T("old")),                // G0: 7
		Asst(TU("a")),                 // G1 part: 4
		User(TRString("a", "xxxxxx")), // G1 part: 10 => G1 total 14 (newest)
	}
	budget := 10 // less than newest group cost (14)

	window, stats := windowing.PrepareSendWindow(msgs, budget, windowing.HeuristicCounter{})

	if len(window) != 0 {
		t.Fatalf("expected empty window, got %d", len(window))
	}
	if !stats.OverBudgetNewest || stats.IncludedGroups != 0 || stats.SkippedGroups == 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPrepareSendWindow_ZeroBudget(t *testing.T) {
	msgs := []anthropic.MessageParam{User(T("x"))}
	window, stats := windowing.PrepareSendWindow(msgs, 0, windowing.HeuristicCounter{})
	if len(window) != 0 || !stats.OverBudgetNewest || stats.SkippedGroups != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPrepareSendWindow_EmptyMsgs(t *testing.T) {
	window, stats := windowing.PrepareSendWindow(nil, 123, windowing.HeuristicCounter{})
	if window != nil || stats.Budget != 123 || stats.Total != 0 || stats.OverBudgetNewest {
		t.Fatalf("unexpected result: window=%v stats=%+v", window, stats)
	}
}

func TestPrepareSendWindow_AllFit(t *testing.T) {
	msgs := []anthropic.MessageParam{
		User(T("oldest")), // 10
		User(T("mid")),    // 7
		User(T("new")),    // 7
	}
	window, stats := windowing.PrepareSendWindow(msgs, 24, windowing.HeuristicCounter{})

	if stats.IncludedGroups != 3 || stats.SkippedGroups != 0 || stats.OverBudgetNewest {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(window) != len(msgs) {
		t.Fatalf("window size: got %d want %d", len(window), len(msgs))
	}
}

func TestPrepareSendWindow_StopsBeforeOldest(t *testing.T) {
	msgs := []anthropic.MessageParam{
		User(T("a")),    // 5
		User(T("bbbb")), // 8
		User(T("cc")),   // 6 (newest)
	}
	// Budget 14 includes newest (6) + next (8); the oldest would make 19.
	window, stats := windowing.PrepareSendWindow(msgs, 14, windowing.HeuristicCounter{})

	if stats.IncludedGroups != 2 || stats.SkippedGroups != 1 || stats.Total != 14 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(window) != 2 {
		t.Fatalf("window size: got %d want 2", len(window))
	}
}
