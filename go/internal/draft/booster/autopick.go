package booster

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mcdev12/boosterdraft/go/internal/models"
)

// AutoPickStrategy chooses a card for a player who did not pick in time.
type AutoPickStrategy interface {
	Choose(booster []models.Card) (models.Card, bool)
}

// RandomStrategy picks a random card from the booster.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy constructs a RandomStrategy with its own seed.
func NewRandomStrategy() *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *RandomStrategy) Choose(booster []models.Card) (models.Card, bool) {
	if len(booster) == 0 {
		return models.Card{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return booster[s.rng.Intn(len(booster))], true
}

// RarityStrategy takes the rarest card, first in booster order on ties.
type RarityStrategy struct{}

var rarityRank = map[string]int{
	RarityMythic:   4,
	RarityRare:     3,
	RarityUncommon: 2,
	RarityCommon:   1,
}

func (RarityStrategy) Choose(booster []models.Card) (models.Card, bool) {
	if len(booster) == 0 {
		return models.Card{}, false
	}
	best := booster[0]
	for _, c := range booster[1:] {
		if rarityRank[c.Rarity] > rarityRank[best.Rarity] {
			best = c
		}
	}
	return best, true
}
