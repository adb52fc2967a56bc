package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/search"
	"github.com/cpunion/dexbot/pkg/team"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) lookupCmd() *cobra.Command {
	var (
		groups  []string
		version string
	)
	cmd := &cobra.Command{
		Use:   "lookup <name>...",
		Short: "Print roster profiles for named creatures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := dex.LookupOptions{GameVersion: version}
			for _, g := range groups {
				group, ok := dex.ParseGroup(g)
				if !ok {
					return fmt.Errorf("unknown data group %q (valid: %v)", g, dex.AllGroups())
				}
				opts.Groups = append(opts.Groups, group)
			}
			entries, err := dex.Lookup(ctx, store, args, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringSliceVarP(&groups, "groups", "g", nil, "Data groups: summary, battle_profile, moves, ecology, lore, evolution")
	cmd.Flags().StringVar(&version, "version", "", "Game version group for moves and locations")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var (
		c                         search.Criteria
		legendary, mythical, baby bool
		asJSON                    bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find creatures matching criteria",
		Example: `  dexbot search --include-type fire --speed-tier fast
  dexbot search --required-immunity ground --exclude-weakness ice --role physical-wall
  dexbot search --tag hazard-setter --game-version scarlet-violet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()
			if flags.Changed("legendary") {
				c.IsLegendary = &legendary
			}
			if flags.Changed("mythical") {
				c.IsMythical = &mythical
			}
			if flags.Changed("baby") {
				c.IsBaby = &baby
			}

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			rows, err := search.NewEngine(store, a.logger, a.searchOptions()...).Search(ctx, c)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), search.FormatTable(rows))
			return err
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&c.IncludeTypes, "include-type", nil, "Has at least one of these types")
	f.StringSliceVar(&c.ExcludeTypes, "exclude-type", nil, "Has none of these types")
	f.StringSliceVar(&c.IncludeRoles, "role", nil, "Battle roles (slug or display name)")
	f.StringSliceVar(&c.SpeedTiers, "speed-tier", nil, "fast, medium, slow")
	f.StringSliceVar(&c.AttackFocus, "attack-focus", nil, "physical, special, balanced")
	f.StringSliceVar(&c.DefenseCategories, "defense-category", nil, "bulky, average, fragile")
	f.StringSliceVar(&c.BSTTiers, "bst-tier", nil, "very_high, high, medium, low, very_low")
	f.StringSliceVar(&c.StrategicTags, "tag", nil, "Strategic move tags (needs --game-version)")
	f.StringVar(&c.GameVersion, "game-version", "", "Version group for strategic tags")
	f.StringSliceVar(&c.RequiredResists, "required-resist", nil, "Must resist each of these types")
	f.StringSliceVar(&c.RequiredImmunities, "required-immunity", nil, "Must be immune to each of these types")
	f.StringSliceVar(&c.ExcludeWeaknesses, "exclude-weakness", nil, "Must not be weak to any of these types")
	f.BoolVar(&legendary, "legendary", false, "Legendary status")
	f.BoolVar(&mythical, "mythical", false, "Mythical status")
	f.BoolVar(&baby, "baby", false, "Baby status")
	f.StringSliceVar(&c.Shapes, "shape", nil, "Body shapes")
	f.StringSliceVar(&c.Colors, "color", nil, "Colors")
	f.StringSliceVar(&c.Habitats, "habitat", nil, "Habitats")
	f.IntVar(&c.Limit, "limit", 0, fmt.Sprintf("Max results (max %d)", search.MaxLimit))
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func (a *app) teamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "team <name>...",
		Short: "Analyze a team's coverage, weaknesses and threats",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			analysis, err := team.New(store, a.logger).Analyze(ctx, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
}
