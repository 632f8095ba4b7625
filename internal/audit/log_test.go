package audit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open audit log: %v", err)
	}
	return l, path
}

func testEntry(decision string) Entry {
	return Entry{
		RequestID: "req-1",
		Action:    "shell",
		Target:    "echo hello",
		Decision:  decision,
		Risk:      "safe",
		Reason:    "test reason",
	}
}

func TestSequentialWritesProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 5; i++ {
		if err := l.Record(testEntry(DecisionExecuted)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}

func TestChainSurvivesReopen(t *testing.T) {
	l, path := newTestLog(t)
	if err := l.Record(testEntry(DecisionExecuted)); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := l2.Record(testEntry(DecisionBlocked)); err != nil {
		t.Fatal(err)
	}
	l2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected chain to continue across reopen: %s", result.Error)
	}
	if result.Lines != 2 {
		t.Fatalf("expected 2 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsTamperedEntry(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		if err := l.Record(testEntry(DecisionExecuted)); err != nil {
			t.Fatal(err)
		}
	}
	l.Close()

	// Tamper: flip the decision on line 2.
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lines[1] = strings.Replace(lines[1], `"executed"`, `"blocked"`, 1)
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected verification to fail on tampered entry")
	}
	if result.ErrorLine != 3 {
		t.Errorf("expected break detected at line 3, got %d", result.ErrorLine)
	}
}

func TestFirstEntryUsesGenesisHash(t *testing.T) {
	l, path := newTestLog(t)
	if err := l.Record(testEntry(DecisionExecuted)); err != nil {
		t.Fatal(err)
	}
	l.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), GenesisHash) {
		t.Error("expected first entry to reference the genesis hash")
	}
}

func TestRecordFillsTimestamp(t *testing.T) {
	l, path := newTestLog(t)
	if err := l.Record(testEntry(DecisionExecuted)); err != nil {
		t.Fatal(err)
	}
	l.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), `"ts":""`) {
		t.Error("expected timestamp to be filled in")
	}
}

func TestConcurrentRecords(t *testing.T) {
	l, path := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Record(testEntry(DecisionExecuted))
		}()
	}
	wg.Wait()
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain under concurrency: %s", result.Error)
	}
	if result.Lines != 10 {
		t.Fatalf("expected 10 lines, got %d", result.Lines)
	}
}
