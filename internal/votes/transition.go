package votes

import "github.com/emilythestrangee/qna-forum/backend/internal/models"

// Action is the vote record mutation a transition performs.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Transition is one row of the voting table.
type Transition struct {
	Prior  models.VoteStatus
	Next   models.VoteStatus
	Action Action
	// ReputationDelta is applied to the target author.
	ReputationDelta int
}

// Decide applies the voting table to the voter's prior status and the
// requested direction. Repeating a direction removes the vote; switching
// direction is a single ±2 adjustment.
func Decide(prior, requested models.VoteStatus) Transition {
	sign := 1
	if requested == models.VoteDownvoted {
		sign = -1
	}

	switch prior {
	case models.VoteNone:
		return Transition{Prior: prior, Next: requested, Action: ActionCreate, ReputationDelta: sign}
	case requested:
		return Transition{Prior: prior, Next: models.VoteNone, Action: ActionDelete, ReputationDelta: -sign}
	default:
		return Transition{Prior: prior, Next: requested, Action: ActionUpdate, ReputationDelta: 2 * sign}
	}
}

// ApplyCounts returns c with the transition applied.
func (t Transition) ApplyCounts(c Counts) Counts {
	up, down := c.Upvotes, c.Downvotes
	switch t.Prior {
	case models.VoteUpvoted:
		up--
	case models.VoteDownvoted:
		down--
	}
	switch t.Next {
	case models.VoteUpvoted:
		up++
	case models.VoteDownvoted:
		down++
	}
	return NewCounts(up, down)
}
