package data

import "time"

type Reward string

const (
	RewardNone        Reward = ""
	RewardBadge       Reward = "badge"
	RewardCertificate Reward = "certificate"
)

// Snapshot captures the reward-relevant state of a story on either
// side of a single mutation.
type Snapshot struct {
	PageCount      int
	WordCount      int
	CompletionDate *time.Time
}

func SnapshotOf(s *Story) Snapshot {
	return Snapshot{
		PageCount:      len(s.Pages),
		WordCount:      s.WordCount,
		CompletionDate: s.CompletionDate,
	}
}

// EvaluateReward decides which celebration, if any, a mutation should
// surface. A badge fires when the new page count lands exactly on 5
// or 10, or the new word count lands exactly on 100; a mutation that
// jumps over those values fires nothing. A certificate fires exactly
// once, on the transition where the completion date becomes non-nil.
// At most one reward is returned per mutation, certificate winning
// when both hold.
func EvaluateReward(before, after Snapshot) Reward {
	reward := RewardNone
	if after.PageCount == 5 || after.PageCount == 10 || after.WordCount == 100 {
		reward = RewardBadge
	}
	if before.CompletionDate == nil && after.CompletionDate != nil {
		reward = RewardCertificate
	}
	return reward
}
