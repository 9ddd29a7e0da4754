package votes

import (
	"context"
	"fmt"
)

type Rank string

const (
	RankNewbie      Rank = "Newbie"
	RankContributor Rank = "Contributor"
	RankExpert      Rank = "Expert"
)

func RankFor(reputation int) Rank {
	switch {
	case reputation > 50:
		return RankExpert
	case reputation > 10:
		return RankContributor
	default:
		return RankNewbie
	}
}

// Profile reports both reputation figures of a user. Reputation is the
// stored accumulated counter and is authoritative; ContentScore is the sum
// of current scores of the user's existing content and drifts from it when
// content is deleted.
type Profile struct {
	UserID       string `json:"userId"`
	Reputation   int    `json:"reputation"`
	ContentScore int    `json:"contentScore"`
	Rank         Rank   `json:"rank"`
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	rep, err := s.ledger.Reputation(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("read reputation of %s: %w", userID, err)
	}
	score, err := s.agg.ContentScore(ctx, s.targets, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		UserID:       userID,
		Reputation:   rep,
		ContentScore: score,
		Rank:         RankFor(rep),
	}, nil
}
