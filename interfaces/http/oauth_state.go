package http

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"blog-social/domain/model"
)

const oauthStateTTL = 10 * time.Minute

type pendingState struct {
	userID   string
	platform model.Platform
	expires  time.Time
}

// stateStore keeps OAuth state values handed out by the authorize endpoint.
// A state is single use and bound to the user and platform that requested it.
type stateStore struct {
	mu     sync.Mutex
	states map[string]pendingState
	now    func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: map[string]pendingState{}, now: time.Now}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *stateStore) issue(userID string, platform model.Platform) string {
	state := randomState()
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.states {
		if now.After(v.expires) {
			delete(s.states, k)
		}
	}
	s.states[state] = pendingState{userID: userID, platform: platform, expires: now.Add(oauthStateTTL)}
	return state
}

func (s *stateStore) consume(state, userID string, platform model.Platform) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return p.userID == userID && p.platform == platform && !s.now().After(p.expires)
}
