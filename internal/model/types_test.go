package model

import "testing"

func TestBlockedConstructor(t *testing.T) {
	v := Blocked("nope")
	if v.Allowed {
		t.Error("blocked verdict must not be allowed")
	}
	if v.Risk != RiskBlocked {
		t.Errorf("expected blocked risk, got %s", v.Risk)
	}
	if v.RequiresConfirmation {
		t.Error("blocked verdict must not request confirmation")
	}
}

func TestNeedsConfirmationConstructor(t *testing.T) {
	v := NeedsConfirmation(RiskHigh, "ask first")
	if !v.Allowed {
		t.Error("confirmation-gated verdict must be allowed")
	}
	if !v.RequiresConfirmation {
		t.Error("expected requires_confirmation")
	}
}

func TestRiskRankOrdering(t *testing.T) {
	order := []RiskLevel{RiskSafe, RiskLow, RiskMedium, RiskHigh, RiskBlocked}
	for i := 1; i < len(order); i++ {
		if RiskRank[order[i-1]] >= RiskRank[order[i]] {
			t.Errorf("expected %s < %s", order[i-1], order[i])
		}
	}
}

func TestParseActionKnown(t *testing.T) {
	a, ok := ParseAction("read_file")
	if !ok || a != ActionReadFile {
		t.Errorf("expected read_file to parse, got %q ok=%v", a, ok)
	}
}

func TestParseActionUnknown(t *testing.T) {
	a, ok := ParseAction("install_rootkit")
	if ok || a != ActionUnknown {
		t.Errorf("expected unknown action to fail parsing, got %q ok=%v", a, ok)
	}
}

func TestRequestFromParams(t *testing.T) {
	req := RequestFromParams("write_file", map[string]any{
		"path":      "/tmp/a.txt",
		"content":   "hello",
		"confirmed": true,
	})
	if req.Path != "/tmp/a.txt" || req.Content != "hello" || !req.Confirmed {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestRequestFromParamsMistypedFields(t *testing.T) {
	// Numbers where strings belong, string where the bool belongs; the
	// request comes back zeroed, not panicking.
	req := RequestFromParams("shell", map[string]any{
		"command":   42,
		"confirmed": "yes",
	})
	if req.Command != "" {
		t.Errorf("expected mistyped command to be dropped, got %q", req.Command)
	}
	if req.Confirmed {
		t.Error("expected mistyped confirmed to stay false")
	}
}

func TestRequestFromParamsCwdFallback(t *testing.T) {
	req := RequestFromParams("shell", map[string]any{"cwd": "/srv"})
	if req.WorkingDirectory != "/srv" {
		t.Errorf("expected cwd fallback, got %q", req.WorkingDirectory)
	}
}

func TestRequestFromParamsNil(t *testing.T) {
	req := RequestFromParams("system_info", nil)
	if req.Action != "system_info" || req.Confirmed {
		t.Errorf("unexpected request: %+v", req)
	}
}
