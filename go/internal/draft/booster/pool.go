package booster

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"gopkg.in/yaml.v3"
)

// Rarity of a card in a set list.
const (
	RarityCommon   = "common"
	RarityUncommon = "uncommon"
	RarityRare     = "rare"
	RarityMythic   = "mythic"
)

// CardDef is a card of a set list.
type CardDef struct {
	Name     string `yaml:"name"`
	ManaCost string `yaml:"mana_cost"`
	Rarity   string `yaml:"rarity"`
}

// SetList is the YAML shape of a card pool file.
type SetList struct {
	SetCode string    `yaml:"set_code"`
	Cards   []CardDef `yaml:"cards"`
}

// Pool opens boosters from a set list.
type Pool struct {
	setCode  string
	byRarity map[string][]CardDef
	all      []CardDef

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPool builds a pool from a set list.
func NewPool(list SetList, seed int64) (*Pool, error) {
	if len(list.Cards) == 0 {
		return nil, fmt.Errorf("set %q has no cards", list.SetCode)
	}
	p := &Pool{
		setCode:  list.SetCode,
		byRarity: make(map[string][]CardDef),
		all:      list.Cards,
		rng:      rand.New(rand.NewSource(seed)),
	}
	for _, c := range list.Cards {
		r := c.Rarity
		if r == RarityMythic {
			r = RarityRare
		}
		p.byRarity[r] = append(p.byRarity[r], c)
	}
	return p, nil
}

// LoadPool reads a YAML set list from path.
func LoadPool(path string, seed int64) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card pool: %w", err)
	}
	var list SetList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse card pool %s: %w", path, err)
	}
	return NewPool(list, seed)
}

// DefaultPool returns a generated pool for runs without a set list.
func DefaultPool(seed int64) *Pool {
	list := SetList{SetCode: "GEN"}
	add := func(n int, rarity, prefix string) {
		for i := 1; i <= n; i++ {
			list.Cards = append(list.Cards, CardDef{Name: prefix + " " + strconv.Itoa(i), Rarity: rarity})
		}
	}
	add(80, RarityCommon, "Common")
	add(40, RarityUncommon, "Uncommon")
	add(20, RarityRare, "Rare")
	add(5, RarityMythic, "Mythic")

	p, _ := NewPool(list, seed)
	return p
}

// Open returns a fresh booster of size cards: one rare, three uncommons and
// commons for the rest, falling back to any card when a slot has none.
func (p *Pool) Open(size int) []models.Card {
	p.mu.Lock()
	defer p.mu.Unlock()

	booster := make([]models.Card, 0, size)
	for i := 0; i < size; i++ {
		var slot string
		switch {
		case i == 0:
			slot = RarityRare
		case i <= 3:
			slot = RarityUncommon
		default:
			slot = RarityCommon
		}
		candidates := p.byRarity[slot]
		if len(candidates) == 0 {
			candidates = p.all
		}
		def := candidates[p.rng.Intn(len(candidates))]
		booster = append(booster, models.Card{
			ID:       uuid.New(),
			Name:     def.Name,
			SetCode:  p.setCode,
			ManaCost: def.ManaCost,
			Rarity:   def.Rarity,
		})
	}
	return booster
}
