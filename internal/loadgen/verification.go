package loadgen

import "fmt"

// verifyRanking checks the leaderboard contract: scores descend and ranks
// are contiguous starting at 1.
func verifyRanking(exerciseID string, ranking []RankedEntry) error {
	for i, entry := range ranking {
		if entry.Rank != i+1 {
			return fmt.Errorf("%s: entry %d has rank %d, want %d", exerciseID, i, entry.Rank, i+1)
		}
		if i > 0 && entry.Score > ranking[i-1].Score {
			return fmt.Errorf("%s: entry %d score %.3f exceeds previous %.3f",
				exerciseID, i, entry.Score, ranking[i-1].Score)
		}
	}
	return nil
}
