package dex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/matchup"
	"github.com/cpunion/dexbot/pkg/types"
)

// MemoryStore keeps the whole roster in memory. It is immutable after
// construction.
type MemoryStore struct {
	byName map[string]*types.CreatureProfile
	sorted []*types.CreatureProfile
}

// NewMemoryStore indexes profiles by lowercased name. Later duplicates
// replace earlier ones.
func NewMemoryStore(profiles []*types.CreatureProfile) *MemoryStore {
	s := &MemoryStore{byName: make(map[string]*types.CreatureProfile, len(profiles))}
	for _, p := range profiles {
		s.byName[p.Key()] = p
	}
	for _, p := range s.byName {
		s.sorted = append(s.sorted, p)
	}
	SortProfiles(s.sorted)
	return s
}

// SortProfiles orders profiles by roster id, then name.
func SortProfiles(ps []*types.CreatureProfile) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Identity.ID != ps[j].Identity.ID {
			return ps[i].Identity.ID < ps[j].Identity.ID
		}
		return ps[i].Key() < ps[j].Key()
	})
}

func (s *MemoryStore) Get(_ context.Context, name string) (*types.CreatureProfile, error) {
	key := types.NormalizeName(name)
	p, ok := s.byName[key]
	if !ok {
		return nil, &NotFoundError{Name: key}
	}
	return p, nil
}

func (s *MemoryStore) Bulk(context.Context) ([]*types.CreatureProfile, error) {
	out := make([]*types.CreatureProfile, len(s.sorted))
	copy(out, s.sorted)
	return out, nil
}

// Len returns the roster size.
func (s *MemoryStore) Len() int {
	return len(s.sorted)
}

// DecodeRoster reads a JSON array of profiles and derives their matchup
// profiles and tiers with a.
func DecodeRoster(r io.Reader, a *matchup.Analyzer) ([]*types.CreatureProfile, error) {
	var profiles []*types.CreatureProfile
	if err := json.NewDecoder(r).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if err := Prepare(a, profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Prepare fills the derived fields of every profile.
func Prepare(a *matchup.Analyzer, profiles []*types.CreatureProfile) error {
	if a == nil {
		a = matchup.New(nil)
	}
	for _, p := range profiles {
		if p.Identity.Name == "" {
			return fmt.Errorf("roster entry %d has no name", p.Identity.ID)
		}
		p.Identity.Name = types.NormalizeName(p.Identity.Name)
		if err := a.Profile(p); err != nil {
			return err
		}
	}
	return nil
}

// LoadJSON loads a roster file into a MemoryStore.
func LoadJSON(path string, a *matchup.Analyzer, logger *zap.Logger) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	profiles, err := DecodeRoster(f, a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s := NewMemoryStore(profiles)
	if logger != nil {
		logger.Info("roster loaded", zap.String("path", path), zap.Int("creatures", s.Len()))
	}
	return s, nil
}
