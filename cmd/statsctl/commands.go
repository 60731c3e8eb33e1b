package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"salmon-stats/internal/domain"
	fxmodules "salmon-stats/internal/fx"
	"salmon-stats/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type services struct {
	db          *sql.DB
	stats       *service.StatsService
	leaderboard *service.LeaderboardService
	records     *service.WaveRecordService
	weapons     *service.WeaponService
}

// withServices builds the core graph, runs fn and tears the graph down.
func withServices(ctx context.Context, fn func(*services) error) error {
	var svc services
	app := fx.New(
		fxmodules.Core,
		fx.NopLogger,
		fx.Populate(&svc.db, &svc.stats, &svc.leaderboard, &svc.records, &svc.weapons),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	return fn(&svc)
}

func newReportCommand() *cobra.Command {
	var (
		shiftID  int64
		playerID string
		clearArg string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the full stats bundle of a shift as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := service.StatsRequest{ShiftID: shiftID, PlayerID: playerID}
			if clearArg != "" {
				v, err := strconv.ParseBool(clearArg)
				if err != nil {
					return fmt.Errorf("invalid --clear %q: %w", clearArg, err)
				}
				req.IsClear = &v
			}
			if err := req.Validate(); err != nil {
				return err
			}

			return withServices(cmd.Context(), func(s *services) error {
				out, err := s.stats.Build(cmd.Context(), req)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}

	cmd.Flags().Int64Var(&shiftID, "shift", 0, "shift id (unix start time)")
	cmd.Flags().StringVar(&playerID, "player", "", "player id for player-scoped facets")
	cmd.Flags().StringVar(&clearArg, "clear", "", "restrict totals to cleared (true) or failed (false) jobs")
	_ = cmd.MarkFlagRequired("shift")
	return cmd
}

func newLeaderboardCommand() *cobra.Command {
	var shiftID int64

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top teams of a shift",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(s *services) error {
				lb, err := s.leaderboard.Leaderboard(cmd.Context(), shiftID)
				if err != nil {
					return err
				}
				renderLeaderboard(os.Stdout, lb)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&shiftID, "shift", 0, "shift id (unix start time)")
	_ = cmd.MarkFlagRequired("shift")
	return cmd
}

func newRecordsCommand() *cobra.Command {
	var (
		shiftID int64
		tide    string
		event   string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Show the best single waves of a shift for one tide and event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := domain.ParseTideLevel(tide)
			if err != nil {
				return err
			}
			e, err := domain.ParseEventType(event)
			if err != nil {
				return err
			}

			return withServices(cmd.Context(), func(s *services) error {
				records, err := s.records.Records(cmd.Context(), shiftID, t, e, limit)
				if err != nil {
					return err
				}
				renderRecords(os.Stdout, records.Tide+" / "+records.Event, records.Records)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&shiftID, "shift", 0, "shift id (unix start time)")
	cmd.Flags().StringVar(&tide, "tide", "normal", "tide level: low, normal or high")
	cmd.Flags().StringVar(&event, "event", "water-levels", "wave event")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of teams (default 25)")
	_ = cmd.MarkFlagRequired("shift")
	return cmd
}

func newTotalsCommand() *cobra.Command {
	var (
		shiftID int64
		night   bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show the best whole-match golden egg totals of a shift per team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(s *services) error {
				records, err := s.records.TotalRecords(cmd.Context(), shiftID, !night, limit)
				if err != nil {
					return err
				}
				title := "Nightless"
				if night {
					title = "Night"
				}
				renderRecords(os.Stdout, title, records.Records)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&shiftID, "shift", 0, "shift id (unix start time)")
	cmd.Flags().BoolVar(&night, "night", false, "rank matches that had night waves")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of teams (default 25)")
	_ = cmd.MarkFlagRequired("shift")
	return cmd
}

func newWeaponsCommand() *cobra.Command {
	var shiftID int64

	cmd := &cobra.Command{
		Use:   "weapons",
		Short: "Rank uploaders by distinct weapons supplied in a random rotation shift",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(s *services) error {
				rows, err := s.weapons.Ranking(cmd.Context(), shiftID)
				if err != nil {
					return err
				}
				renderWeapons(os.Stdout, rows)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&shiftID, "shift", 0, "shift id (unix start time)")
	_ = cmd.MarkFlagRequired("shift")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(s *services) error {
				if err := s.db.PingContext(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, "migrations applied")
				return nil
			})
		},
	}
}
