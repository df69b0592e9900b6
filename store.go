package main

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds all crosswords and game sessions in memory.
type Store struct {
	mu         sync.RWMutex
	crosswords map[string]*Crossword
	games      map[string]*GameSession
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		crosswords: make(map[string]*Crossword),
		games:      make(map[string]*GameSession),
	}
}

// SaveCrossword stores c under a fresh ID and returns it.
func (s *Store) SaveCrossword(c *Crossword) *Crossword {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()

	s.mu.Lock()
	s.crosswords[c.ID] = c
	s.mu.Unlock()

	return c
}

// GetCrossword returns a crossword by ID, or nil if not found.
func (s *Store) GetCrossword(id string) *Crossword {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crosswords[id]
}

// ListCrosswords returns all crosswords, most recent first.
func (s *Store) ListCrosswords() []*Crossword {
	s.mu.RLock()
	list := make([]*Crossword, 0, len(s.crosswords))
	for _, c := range s.crosswords {
		list = append(list, c)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b *Crossword) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}

// CreateGame starts a game session on a stored crossword.
func (s *Store) CreateGame(crosswordID string) (*GameSession, error) {
	s.mu.RLock()
	cw := s.crosswords[crosswordID]
	s.mu.RUnlock()

	if cw == nil {
		return nil, fmt.Errorf("crossword %s: %w", crosswordID, errNotFound)
	}

	game := newGameSession(uuid.NewString(), cw)

	s.mu.Lock()
	s.games[game.ID] = game
	s.mu.Unlock()

	return game, nil
}

// GetGame returns a game session by ID, or nil if not found.
func (s *Store) GetGame(id string) *GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[id]
}

// ListGames returns all game sessions, most recent first.
func (s *Store) ListGames() []*GameSession {
	s.mu.RLock()
	list := make([]*GameSession, 0, len(s.games))
	for _, g := range s.games {
		list = append(list, g)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b *GameSession) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}
