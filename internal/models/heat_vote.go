package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	HeatVoteWave      = "wave"
	HeatVoteFire      = "fire"
	HeatVoteDeclining = "declining"
	HeatVoteDead      = "dead"
)

var heatVoteValues = map[string]int{
	HeatVoteWave:      2,
	HeatVoteFire:      1,
	HeatVoteDeclining: -1,
	HeatVoteDead:      -2,
}

// HeatVoteValue returns the score of a heat vote type.
func HeatVoteValue(voteType string) (int, bool) {
	v, ok := heatVoteValues[voteType]
	return v, ok
}

type HeatVote struct {
	bun.BaseModel `bun:"table:trend_heat_vote,alias:hv"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	TrendID       uuid.UUID `bun:"trend_id,type:uuid,notnull" json:"trend_id"`
	UserID        uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id"`
	VoteType      string    `bun:"vote_type,notnull" json:"vote_type"`
	VoteValue     int       `bun:"vote_value,notnull" json:"vote_value"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type HeatVoteCount struct {
	VoteType string `bun:"vote_type"`
	Count    int    `bun:"count"`
}

type HeatSummary struct {
	TrendID          uuid.UUID      `json:"trend_id"`
	HeatScore        int            `json:"heat_score"`
	UserVote         *string        `json:"user_vote"`
	VoteDistribution map[string]int `json:"vote_distribution"`
}

type HeatVoteResult struct {
	Success        bool      `json:"success"`
	VoteCast       string    `json:"vote_cast"`
	XPEarned       int       `json:"xp_earned"`
	HeatScore      int       `json:"heat_score"`
	WaveVotes      int       `json:"wave_votes"`
	FireVotes      int       `json:"fire_votes"`
	DecliningVotes int       `json:"declining_votes"`
	DeadVotes      int       `json:"dead_votes"`
	TrendID        uuid.UUID `json:"trend_id"`
}

// Score sums a vote distribution into a heat score.
func Score(distribution map[string]int) int {
	score := 0
	for voteType, count := range distribution {
		score += heatVoteValues[voteType] * count
	}
	return score
}
