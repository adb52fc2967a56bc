// Package search filters the roster by compound criteria.
package search

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/types"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Criteria are independently optional filters. Filters are ANDed together;
// values inside a list are ORed, except RequiredResists and
// RequiredImmunities which need every listed type. Nil biology flags are
// unset.
type Criteria struct {
	IncludeTypes       []string `json:"include_types,omitempty"`
	ExcludeTypes       []string `json:"exclude_types,omitempty"`
	IncludeRoles       []string `json:"include_roles,omitempty"`
	SpeedTiers         []string `json:"speed_tiers,omitempty"`
	AttackFocus        []string `json:"attack_focus,omitempty"`
	DefenseCategories  []string `json:"defense_categories,omitempty"`
	BSTTiers           []string `json:"base_stat_tier,omitempty"`
	StrategicTags      []string `json:"strategic_tags,omitempty"`
	GameVersion        string   `json:"game_version,omitempty"`
	RequiredResists    []string `json:"required_resists,omitempty"`
	RequiredImmunities []string `json:"required_immunities,omitempty"`
	ExcludeWeaknesses  []string `json:"exclude_weaknesses,omitempty"`
	IsLegendary        *bool    `json:"is_legendary,omitempty"`
	IsMythical         *bool    `json:"is_mythical,omitempty"`
	IsBaby             *bool    `json:"is_baby,omitempty"`
	Shapes             []string `json:"shape,omitempty"`
	Colors             []string `json:"color,omitempty"`
	Habitats           []string `json:"habitat,omitempty"`
	Limit              int      `json:"limit,omitempty"`
}

// InvalidCriteriaError reports a criteria value outside its vocabulary.
type InvalidCriteriaError struct {
	Field string
	Value string
}

func (e *InvalidCriteriaError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// Summary is the fixed projection returned for each match.
type Summary struct {
	Name            string       `json:"name"`
	Types           []types.Type `json:"types"`
	SpeedTier       string       `json:"speed_tier"`
	AttackFocus     string       `json:"attack_focus"`
	DefenseCategory string       `json:"defense_category"`
	BSTTier         string       `json:"bst_tier"`
}

// Validate checks every value against its vocabulary.
func (c Criteria) Validate() error {
	_, err := compile(c)
	return err
}

// Engine evaluates criteria against a store's bulk view.
type Engine struct {
	store        dex.Store
	logger       *zap.Logger
	defaultLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultLimit sets the cap used when criteria leave limit unset.
// Values outside [1, MaxLimit] keep DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n >= 1 && n <= MaxLimit {
			e.defaultLimit = n
		}
	}
}

// NewEngine creates a search engine over store.
func NewEngine(store dex.Store, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{store: store, logger: logger, defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns matches in roster order, capped at the criteria limit.
func (e *Engine) Search(ctx context.Context, c Criteria) ([]Summary, error) {
	if c.Limit == 0 {
		c.Limit = e.defaultLimit
	}
	f, err := compile(c)
	if err != nil {
		return nil, err
	}
	all, err := e.store.Bulk(ctx)
	if err != nil {
		return nil, err
	}

	out := []Summary{}
	matched := 0
	for _, p := range all {
		if !f.match(p) {
			continue
		}
		matched++
		if len(out) < f.limit {
			out = append(out, project(p))
		}
	}
	e.logger.Debug("search",
		zap.Int("roster", len(all)),
		zap.Int("matched", matched),
		zap.Int("returned", len(out)))
	return out, nil
}

func project(p *types.CreatureProfile) Summary {
	return Summary{
		Name:            p.Key(),
		Types:           p.Identity.Types,
		SpeedTier:       p.Tiers.SpeedTier,
		AttackFocus:     p.Tiers.AttackFocus,
		DefenseCategory: p.Tiers.DefenseCategory,
		BSTTier:         p.Tiers.BSTTier,
	}
}

// FormatTable renders results as an aligned plain-text table.
func FormatTable(rows []Summary) string {
	if len(rows) == 0 {
		return "no matches"
	}
	header := []string{"name", "types", "speed_tier", "attack_focus", "defense_category", "bst_tier"}
	cells := [][]string{header}
	for _, r := range rows {
		ts := make([]string, len(r.Types))
		for i, t := range r.Types {
			ts[i] = string(t)
		}
		cells = append(cells, []string{
			r.Name, strings.Join(ts, "/"), r.SpeedTier, r.AttackFocus, r.DefenseCategory, r.BSTTier,
		})
	}
	widths := make([]int, len(header))
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], len(c))
		}
	}
	var b strings.Builder
	for _, row := range cells {
		for i, c := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(row)-1 {
				b.WriteString(c)
			} else {
				fmt.Fprintf(&b, "%-*s", widths[i], c)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func contains(set []string, v string) bool {
	return slices.Contains(set, v)
}
