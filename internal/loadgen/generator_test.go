package loadgen

import "testing"

func TestGenerateDevices(t *testing.T) {
	devices := generateDevices(25)
	if len(devices) != 25 {
		t.Fatalf("expected 25 devices, got %d", len(devices))
	}

	seen := make(map[string]bool, len(devices))
	for _, d := range devices {
		if d.udid == "" {
			t.Error("device has empty udid")
		}
		if seen[d.udid] {
			t.Errorf("duplicate udid %s", d.udid)
		}
		seen[d.udid] = true
		if d.userName == "" {
			t.Error("device has empty userName")
		}
	}
}

func TestGenerateSubmissionBounds(t *testing.T) {
	d := device{udid: "test-device", userName: "Alice"}
	for i := 0; i < 200; i++ {
		sub := generateSubmission(d, "CPU")
		if sub.UDID != "test-device" || sub.UserName != "Alice" || sub.ExerciseID != "CPU" {
			t.Fatalf("identity fields not carried: %+v", sub)
		}
		if sub.Score < lowScoreMin || sub.Score > highScoreMin+highScoreRange {
			t.Errorf("score %f out of range", sub.Score)
		}
		if sub.TestsPassed < 0 || sub.TestsPassed > sub.TotalTests {
			t.Errorf("testsPassed %d out of range for %d total", sub.TestsPassed, sub.TotalTests)
		}
		if sub.ExecutionTimeMs < 0 || sub.ExecutionTimeMs > maxExecutionTimeMs {
			t.Errorf("executionTimeMs %f out of range", sub.ExecutionTimeMs)
		}
		if sub.GCAllocBytes < 0 || sub.GCAllocBytes >= maxGCAllocBytes {
			t.Errorf("gcAllocBytes %d out of range", sub.GCAllocBytes)
		}
	}
}

func TestVerifyRanking(t *testing.T) {
	ok := []RankedEntry{
		{Rank: 1, UserName: "Bob", Score: 30},
		{Rank: 2, UserName: "Carol", Score: 20},
		{Rank: 3, UserName: "Alice", Score: 20},
	}
	if err := verifyRanking("CPU", ok); err != nil {
		t.Errorf("unexpected error for valid ranking: %v", err)
	}

	if err := verifyRanking("CPU", nil); err != nil {
		t.Errorf("unexpected error for empty ranking: %v", err)
	}

	badRank := []RankedEntry{
		{Rank: 1, Score: 30},
		{Rank: 3, Score: 20},
	}
	if err := verifyRanking("CPU", badRank); err == nil {
		t.Error("expected error for non-contiguous ranks")
	}

	badOrder := []RankedEntry{
		{Rank: 1, Score: 10},
		{Rank: 2, Score: 50},
	}
	if err := verifyRanking("CPU", badOrder); err == nil {
		t.Error("expected error for ascending scores")
	}
}
