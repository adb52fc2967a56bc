// Package typechart holds the attacking/defending multiplier table.
package typechart

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cpunion/dexbot/pkg/types"
)

// Canonical multipliers. All are exact binary fractions, so products of two
// of them classify exactly at 0, 0.25, 0.5, 1, 2 and 4.
const (
	NoEffect         = 0.0
	NotVeryEffective = 0.5
	Neutral          = 1.0
	SuperEffective   = 2.0
)

// InvalidTypeError reports a type outside the closed universe.
type InvalidTypeError struct {
	Type types.Type
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type %q", string(e.Type))
}

// Chart maps (attacking, defending) to a multiplier. Immutable once built.
type Chart struct {
	m [][]float64
}

// relations lists, per attacking type, the defending types hit for 2x, 0.5x and 0x.
type relations struct {
	double, half, none []types.Type
}

var standard = map[types.Type]relations{
	types.Normal: {
		half: []types.Type{types.Rock, types.Steel},
		none: []types.Type{types.Ghost},
	},
	types.Fire: {
		double: []types.Type{types.Grass, types.Ice, types.Bug, types.Steel},
		half:   []types.Type{types.Fire, types.Water, types.Rock, types.Dragon},
	},
	types.Water: {
		double: []types.Type{types.Fire, types.Ground, types.Rock},
		half:   []types.Type{types.Water, types.Grass, types.Dragon},
	},
	types.Electric: {
		double: []types.Type{types.Water, types.Flying},
		half:   []types.Type{types.Electric, types.Grass, types.Dragon},
		none:   []types.Type{types.Ground},
	},
	types.Grass: {
		double: []types.Type{types.Water, types.Ground, types.Rock},
		half:   []types.Type{types.Fire, types.Grass, types.Poison, types.Flying, types.Bug, types.Dragon, types.Steel},
	},
	types.Ice: {
		double: []types.Type{types.Grass, types.Ground, types.Flying, types.Dragon},
		half:   []types.Type{types.Fire, types.Water, types.Ice, types.Steel},
	},
	types.Fighting: {
		double: []types.Type{types.Normal, types.Ice, types.Rock, types.Dark, types.Steel},
		half:   []types.Type{types.Poison, types.Flying, types.Psychic, types.Bug, types.Fairy},
		none:   []types.Type{types.Ghost},
	},
	types.Poison: {
		double: []types.Type{types.Grass, types.Fairy},
		half:   []types.Type{types.Poison, types.Ground, types.Rock, types.Ghost},
		none:   []types.Type{types.Steel},
	},
	types.Ground: {
		double: []types.Type{types.Fire, types.Electric, types.Poison, types.Rock, types.Steel},
		half:   []types.Type{types.Grass, types.Bug},
		none:   []types.Type{types.Flying},
	},
	types.Flying: {
		double: []types.Type{types.Grass, types.Fighting, types.Bug},
		half:   []types.Type{types.Electric, types.Rock, types.Steel},
	},
	types.Psychic: {
		double: []types.Type{types.Fighting, types.Poison},
		half:   []types.Type{types.Psychic, types.Steel},
		none:   []types.Type{types.Dark},
	},
	types.Bug: {
		double: []types.Type{types.Grass, types.Psychic, types.Dark},
		half:   []types.Type{types.Fire, types.Fighting, types.Poison, types.Flying, types.Ghost, types.Steel, types.Fairy},
	},
	types.Rock: {
		double: []types.Type{types.Fire, types.Ice, types.Flying, types.Bug},
		half:   []types.Type{types.Fighting, types.Ground, types.Steel},
	},
	types.Ghost: {
		double: []types.Type{types.Psychic, types.Ghost},
		half:   []types.Type{types.Dark},
		none:   []types.Type{types.Normal},
	},
	types.Dragon: {
		double: []types.Type{types.Dragon},
		half:   []types.Type{types.Steel},
		none:   []types.Type{types.Fairy},
	},
	types.Dark: {
		double: []types.Type{types.Psychic, types.Ghost},
		half:   []types.Type{types.Fighting, types.Dark, types.Fairy},
	},
	types.Steel: {
		double: []types.Type{types.Ice, types.Rock, types.Fairy},
		half:   []types.Type{types.Fire, types.Water, types.Electric, types.Steel},
	},
	types.Fairy: {
		double: []types.Type{types.Fighting, types.Dragon, types.Dark},
		half:   []types.Type{types.Fire, types.Poison, types.Steel},
	},
}

var (
	defaultOnce  sync.Once
	defaultChart *Chart
)

// Default returns the standard chart. It is built once and shared.
func Default() *Chart {
	defaultOnce.Do(func() {
		defaultChart = build(standard)
	})
	return defaultChart
}

func newNeutral() *Chart {
	n := len(types.AllTypes())
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = Neutral
		}
	}
	return &Chart{m: m}
}

func build(rel map[types.Type]relations) *Chart {
	c := newNeutral()
	for atk, r := range rel {
		a := atk.Index()
		for _, d := range r.double {
			c.m[a][d.Index()] = SuperEffective
		}
		for _, d := range r.half {
			c.m[a][d.Index()] = NotVeryEffective
		}
		for _, d := range r.none {
			c.m[a][d.Index()] = NoEffect
		}
	}
	return c
}

// Effectiveness returns the multiplier of attacking against a single defending type.
func (c *Chart) Effectiveness(attacking, defending types.Type) (float64, error) {
	a := attacking.Index()
	if a < 0 {
		return 0, &InvalidTypeError{Type: attacking}
	}
	d := defending.Index()
	if d < 0 {
		return 0, &InvalidTypeError{Type: defending}
	}
	return c.m[a][d], nil
}

// MustEffectiveness is Effectiveness for callers that already validated their types.
func (c *Chart) MustEffectiveness(attacking, defending types.Type) float64 {
	v, err := c.Effectiveness(attacking, defending)
	if err != nil {
		panic(err)
	}
	return v
}

// CombinedDefenseMultiplier is the product of attacking's multiplier against
// every type in defending.
func (c *Chart) CombinedDefenseMultiplier(attacking types.Type, defending []types.Type) (float64, error) {
	if !attacking.Valid() {
		return 0, &InvalidTypeError{Type: attacking}
	}
	product := 1.0
	for _, dt := range defending {
		v, err := c.Effectiveness(attacking, dt)
		if err != nil {
			return 0, err
		}
		product *= v
	}
	return product, nil
}

// chartFile is the on-disk format: per type, its offense row and defense column.
type chartFile map[string]struct {
	Offense map[string]float64 `json:"offense"`
	Defense map[string]float64 `json:"defense"`
}

// Load reads a chart in the dataset's JSON format. Every pair of the type
// universe must be present and every multiplier must be canonical.
func Load(r io.Reader) (*Chart, error) {
	var raw chartFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode type chart: %w", err)
	}

	c := newNeutral()
	for _, atk := range types.AllTypes() {
		entry, ok := raw[string(atk)]
		if !ok {
			return nil, fmt.Errorf("type chart missing attacking type %q", atk)
		}
		for _, def := range types.AllTypes() {
			v, ok := entry.Offense[string(def)]
			if !ok {
				return nil, fmt.Errorf("type chart missing pair %s->%s", atk, def)
			}
			if !canonical(v) {
				return nil, fmt.Errorf("type chart pair %s->%s has non-canonical multiplier %v", atk, def, v)
			}
			c.m[atk.Index()][def.Index()] = v
		}
	}
	for name := range raw {
		if !types.Type(name).Valid() {
			return nil, &InvalidTypeError{Type: types.Type(name)}
		}
	}
	return c, nil
}

// LoadFile reads a chart from a JSON file.
func LoadFile(path string) (*Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Write encodes the chart in the same format Load accepts.
func (c *Chart) Write(w io.Writer) error {
	out := make(chartFile, len(c.m))
	all := types.AllTypes()
	for _, t := range all {
		entry := out[string(t)]
		entry.Offense = make(map[string]float64, len(all))
		entry.Defense = make(map[string]float64, len(all))
		for _, other := range all {
			entry.Offense[string(other)] = c.m[t.Index()][other.Index()]
			entry.Defense[string(other)] = c.m[other.Index()][t.Index()]
		}
		out[string(t)] = entry
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func canonical(v float64) bool {
	return v == NoEffect || v == NotVeryEffective || v == Neutral || v == SuperEffective
}
