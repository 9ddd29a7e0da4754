package votes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
)

// memStore is an in-memory VoteStore, TargetStore and ReputationLedger.
type memStore struct {
	mu         sync.Mutex
	seq        int
	votes      map[string]*models.Vote
	authors    map[Target]string
	reputation map[string]int

	failAddReputation error
	failCreate        error
	// beforeWrite runs ahead of every record mutation, outside the lock,
	// standing in for another instance writing the same row.
	beforeWrite func()
}

func newMemStore() *memStore {
	return &memStore{
		votes:      make(map[string]*models.Vote),
		authors:    make(map[Target]string),
		reputation: make(map[string]int),
	}
}

func (m *memStore) addTarget(t Target, authorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors[t] = authorID
	if _, ok := m.reputation[authorID]; !ok {
		m.reputation[authorID] = 0
	}
}

func (m *memStore) FindVote(_ context.Context, t Target, voterID string) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.votes {
		if v.Type == t.Type && v.TypeID == t.ID && v.VotedByID == voterID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateVote(_ context.Context, vote *models.Vote) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	for _, v := range m.votes {
		if v.Type == vote.Type && v.TypeID == vote.TypeID && v.VotedByID == vote.VotedByID {
			return ErrVoteConflict
		}
	}
	m.seq++
	vote.ID = fmt.Sprintf("v%d", m.seq)
	cp := *vote
	m.votes[vote.ID] = &cp
	return nil
}

func (m *memStore) UpdateVoteStatus(_ context.Context, id string, from, to models.VoteStatus) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.votes[id]
	if !ok || v.VoteStatus != from {
		return ErrVoteConflict
	}
	v.VoteStatus = to
	return nil
}

func (m *memStore) DeleteVote(_ context.Context, id string, status models.VoteStatus) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.votes[id]
	if !ok || v.VoteStatus != status {
		return ErrVoteConflict
	}
	delete(m.votes, id)
	return nil
}

func (m *memStore) CountVotes(_ context.Context, t Target, status models.VoteStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, v := range m.votes {
		if v.Type == t.Type && v.TypeID == t.ID && v.VoteStatus == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) AuthorOf(_ context.Context, t Target) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.authors[t]
	if !ok {
		return "", ErrTargetNotFound
	}
	return a, nil
}

func (m *memStore) TargetsBy(_ context.Context, authorID string) ([]Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Target
	for t, a := range m.authors {
		if a == authorID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) Reputation(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reputation[userID]
	if !ok {
		return 0, errors.New("user not found")
	}
	return r, nil
}

func (m *memStore) AddReputation(_ context.Context, userID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAddReputation != nil {
		return m.failAddReputation
	}
	if _, ok := m.reputation[userID]; !ok {
		return errors.New("user not found")
	}
	m.reputation[userID] += delta
	return nil
}

// put stores a vote directly, bypassing the service.
func (m *memStore) put(t Target, voterID string, status models.VoteStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.votes {
		if v.Type == t.Type && v.TypeID == t.ID && v.VotedByID == voterID {
			v.VoteStatus = status
			return
		}
	}
	m.seq++
	id := fmt.Sprintf("v%d", m.seq)
	m.votes[id] = &models.Vote{ID: id, Type: t.Type, TypeID: t.ID, VotedByID: voterID, VoteStatus: status}
}

func (m *memStore) remove(t Target, voterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.votes {
		if v.Type == t.Type && v.TypeID == t.ID && v.VotedByID == voterID {
			delete(m.votes, id)
		}
	}
}

func (m *memStore) removeTarget(t Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.authors, t)
}

func (m *memStore) rep(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reputation[userID]
}

func (m *memStore) recordsFor(t Target, voterID string) []models.Vote {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vote
	for _, v := range m.votes {
		if v.Type == t.Type && v.TypeID == t.ID && v.VotedByID == voterID {
			out = append(out, *v)
		}
	}
	return out
}
