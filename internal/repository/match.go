package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"salmon-stats/internal/domain"

	"github.com/rs/zerolog"
)

// MatchRepository is the SQLite-backed result store.
type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const matchColumns = `m.id, m.shift_id, m.play_time, m.nightless, m.members, m.golden_eggs, m.red_eggs,
	m.danger_rate, m.is_clear, m.failure_wave, m.failure_reason, m.boss_appearances, m.boss_defeats`

func (r *MatchRepository) GetShift(ctx context.Context, shiftID int64) (*domain.Shift, error) {
	var (
		shift    domain.Shift
		endTime  int64
		created  int64
		rotation string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, end_time, stage_id, weapon_rotation, wave_count, created_at FROM shifts WHERE id = ?`,
		shiftID,
	).Scan(&shift.ID, &endTime, &shift.StageID, &rotation, &shift.WaveCount, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrShiftNotFound, shiftID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift %d: %w", shiftID, err)
	}

	if err := json.Unmarshal([]byte(rotation), &shift.WeaponRotation); err != nil {
		return nil, fmt.Errorf("failed to decode weapon rotation of shift %d: %w", shiftID, err)
	}
	shift.EndTime = time.Unix(endTime, 0)
	shift.CreatedAt = time.Unix(created, 0)
	return &shift, nil
}

func (r *MatchRepository) QueryMatches(ctx context.Context, shiftID int64, filter domain.MatchFilter) ([]domain.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	where, args := matchWhere(shiftID, filter)

	rows, err := r.db.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches m WHERE `+where+` ORDER BY m.play_time, m.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	matches, err := scanMatches(rows)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []domain.MatchResult{}, nil
	}

	index := make(map[string]int, len(matches))
	for i := range matches {
		index[matches[i].ID] = i
	}

	if err := r.loadWaves(ctx, where, args, matches, index); err != nil {
		return nil, err
	}
	if err := r.loadPlayers(ctx, where, args, matches, index); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Int64("shift_id", shiftID).
		Int("match_count", len(matches)).
		Msg("matches loaded")

	return matches, nil
}

func (r *MatchRepository) AggregateMatches(ctx context.Context, shiftID int64, filter domain.MatchFilter, groupByNightless bool) ([]domain.MatchAggregate, error) {
	where, args := matchWhere(shiftID, filter)

	cols := `COUNT(*),
		COALESCE(MAX(m.golden_eggs), 0), COALESCE(MIN(m.golden_eggs), 0), COALESCE(AVG(m.golden_eggs), 0),
		COALESCE(MAX(m.red_eggs), 0), COALESCE(MIN(m.red_eggs), 0), COALESCE(AVG(m.red_eggs), 0)`
	query := `SELECT ` + cols + ` FROM matches m WHERE ` + where
	if groupByNightless {
		query = `SELECT m.nightless, ` + cols + ` FROM matches m WHERE ` + where + ` GROUP BY m.nightless ORDER BY m.nightless`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate matches: %w", err)
	}
	defer rows.Close()

	var out []domain.MatchAggregate
	for rows.Next() {
		var (
			agg       domain.MatchAggregate
			nightless bool
		)
		dest := []any{
			&agg.Count,
			&agg.GoldenEggs.Max, &agg.GoldenEggs.Min, &agg.GoldenEggs.Avg,
			&agg.RedEggs.Max, &agg.RedEggs.Min, &agg.RedEggs.Avg,
		}
		if groupByNightless {
			dest = append([]any{&nightless}, dest...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		if groupByNightless {
			agg.Nightless = &nightless
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

// ListDistinctTeams returns the best match of each member set by metric. Ties
// inside a team go to the earliest match. Waves and players are not loaded.
func (r *MatchRepository) ListDistinctTeams(ctx context.Context, shiftID int64, nightless bool, metric domain.Metric, limit int) ([]domain.MatchResult, error) {
	col, err := metricColumn(metric)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + matchColumns + ` FROM (
			SELECT m.*, ROW_NUMBER() OVER (PARTITION BY m.members ORDER BY m.` + col + ` DESC, m.play_time, m.id) AS rn
			FROM matches m
			WHERE m.shift_id = ? AND m.nightless = ?
		) AS m
		WHERE m.rn = 1
		ORDER BY m.` + col + ` DESC, m.play_time, m.id
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, shiftID, nightless, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct teams: %w", err)
	}
	return scanMatches(rows)
}

func (r *MatchRepository) loadWaves(ctx context.Context, where string, args []any, matches []domain.MatchResult, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT w.match_id, w.wave_index, w.event_type, w.tide_level, w.golden_eggs,
			w.golden_egg_quota, w.golden_egg_popped, w.red_eggs, w.is_clear
		FROM waves w JOIN matches m ON m.id = w.match_id
		WHERE `+where+` ORDER BY w.match_id, w.wave_index`, args...)
	if err != nil {
		return fmt.Errorf("failed to query waves: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.WaveRecord
		if err := rows.Scan(&w.MatchID, &w.WaveIndex, &w.EventType, &w.TideLevel, &w.GoldenEggs,
			&w.GoldenEggQuota, &w.GoldenEggPopped, &w.RedEggs, &w.IsClear); err != nil {
			return fmt.Errorf("failed to scan wave: %w", err)
		}
		if i, ok := index[w.MatchID]; ok {
			matches[i].Waves = append(matches[i].Waves, w)
		}
	}
	return rows.Err()
}

func (r *MatchRepository) loadPlayers(ctx context.Context, where string, args []any, matches []domain.MatchResult, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT p.match_id, p.player_id, p.boss_defeats, p.rescues, p.rescued,
			p.golden_eggs, p.red_eggs, p.supplied_weapons, p.supplied_special, p.special_use_counts,
			p.job_id, p.job_score, p.job_rate, p.kuma_point, p.grade_id, p.grade_point, p.grade_point_delta
		FROM players p JOIN matches m ON m.id = p.match_id
		WHERE `+where+` ORDER BY p.match_id, p.player_id`, args...)
	if err != nil {
		return fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                                    domain.PlayerRecord
			bossDefeats, weapons, specials       string
			jobID, jobScore, jobRate, kumaPoint  sql.NullInt64
			gradeID, gradePoint, gradePointDelta sql.NullInt64
		)
		if err := rows.Scan(&p.MatchID, &p.PlayerID, &bossDefeats, &p.Rescues, &p.Rescued,
			&p.GoldenEggs, &p.RedEggs, &weapons, &p.SuppliedSpecial, &specials,
			&jobID, &jobScore, &jobRate, &kumaPoint, &gradeID, &gradePoint, &gradePointDelta); err != nil {
			return fmt.Errorf("failed to scan player: %w", err)
		}
		if err := decodeBossArray(bossDefeats, &p.BossDefeats); err != nil {
			return fmt.Errorf("player %s/%s boss defeats: %w", p.MatchID, p.PlayerID, err)
		}
		if err := decodeInts(weapons, &p.SuppliedWeapons); err != nil {
			return fmt.Errorf("player %s/%s supplied weapons: %w", p.MatchID, p.PlayerID, err)
		}
		if err := decodeInts(specials, &p.SpecialUseCounts); err != nil {
			return fmt.Errorf("player %s/%s special use counts: %w", p.MatchID, p.PlayerID, err)
		}
		if jobID.Valid {
			p.Uploader = &domain.UploaderFields{
				JobID:           int(jobID.Int64),
				JobScore:        int(jobScore.Int64),
				JobRate:         int(jobRate.Int64),
				KumaPoint:       int(kumaPoint.Int64),
				GradeID:         int(gradeID.Int64),
				GradePoint:      int(gradePoint.Int64),
				GradePointDelta: int(gradePointDelta.Int64),
			}
		}
		if i, ok := index[p.MatchID]; ok {
			matches[i].Players = append(matches[i].Players, p)
		}
	}
	return rows.Err()
}

func scanMatches(rows *sql.Rows) ([]domain.MatchResult, error) {
	defer rows.Close()

	var out []domain.MatchResult
	for rows.Next() {
		var (
			m                    domain.MatchResult
			playTime             int64
			members              string
			failureWave          sql.NullInt64
			failureReason        sql.NullString
			appearances, defeats string
		)
		if err := rows.Scan(&m.ID, &m.ShiftID, &playTime, &m.Nightless, &members, &m.GoldenEggs, &m.RedEggs,
			&m.DangerRate, &m.Outcome.IsClear, &failureWave, &failureReason, &appearances, &defeats); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}

		m.PlayTime = time.Unix(playTime, 0)
		ids, err := domain.ParseTeamKey(members)
		if err != nil {
			return nil, fmt.Errorf("match %s members: %w", m.ID, err)
		}
		m.MemberIDs = ids

		if !m.Outcome.IsClear {
			m.Outcome.FailedWave = int(failureWave.Int64)
			reason, err := domain.ParseFailureReason(failureReason.String)
			if err != nil {
				return nil, fmt.Errorf("match %s: %w", m.ID, err)
			}
			m.Outcome.FailureReason = reason
		}
		if err := decodeBossArray(appearances, &m.BossAppearances); err != nil {
			return nil, fmt.Errorf("match %s boss appearances: %w", m.ID, err)
		}
		if err := decodeBossArray(defeats, &m.BossDefeats); err != nil {
			return nil, fmt.Errorf("match %s boss defeats: %w", m.ID, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.MatchResult{}
	}
	return out, nil
}

func matchWhere(shiftID int64, f domain.MatchFilter) (string, []any) {
	clauses := []string{"m.shift_id = ?"}
	args := []any{shiftID}

	if f.Nightless != nil {
		clauses = append(clauses, "m.nightless = ?")
		args = append(args, *f.Nightless)
	}
	if f.IsClear != nil {
		clauses = append(clauses, "m.is_clear = ?")
		args = append(args, *f.IsClear)
	}
	if f.MemberID != nil {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM match_members mm WHERE mm.match_id = m.id AND mm.player_id = ?)")
		args = append(args, *f.MemberID)
	}
	return strings.Join(clauses, " AND "), args
}

func metricColumn(metric domain.Metric) (string, error) {
	switch metric {
	case domain.MetricGoldenEggs:
		return "golden_eggs", nil
	case domain.MetricRedEggs:
		return "red_eggs", nil
	}
	return "", fmt.Errorf("%w: unknown metric %d", domain.ErrInvalidRequest, int(metric))
}

func decodeBossArray(s string, dst *[domain.BossTypeCount]int) error {
	var vals []int
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return err
	}
	if len(vals) != domain.BossTypeCount {
		return fmt.Errorf("expected %d boss counts, got %d", domain.BossTypeCount, len(vals))
	}
	copy(dst[:], vals)
	return nil
}

func decodeInts(s string, dst *[]int) error {
	return json.Unmarshal([]byte(s), dst)
}
