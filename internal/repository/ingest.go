package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salmon-stats/internal/dimension"
	"salmon-stats/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

func (r *MatchRepository) InsertShift(ctx context.Context, shift *domain.Shift) error {
	rotation, err := json.Marshal(shift.WeaponRotation)
	if err != nil {
		return fmt.Errorf("failed to encode weapon rotation: %w", err)
	}

	waveCount := shift.WaveCount
	if waveCount <= 0 {
		waveCount = domain.DefaultWaves
	}
	created := shift.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shifts (id, end_time, stage_id, weapon_rotation, wave_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			end_time = excluded.end_time,
			stage_id = excluded.stage_id,
			weapon_rotation = excluded.weapon_rotation,
			wave_count = excluded.wave_count`,
		shift.ID, shift.EndTime.Unix(), shift.StageID, string(rotation), waveCount, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert shift %d: %w", shift.ID, err)
	}
	return nil
}

// InsertMatch commits a complete match with its waves and players. Nightless
// and the per-wave clear flags are derived from the record before writing.
// An empty match id is replaced by a generated one, which is returned.
func (r *MatchRepository) InsertMatch(ctx context.Context, match domain.MatchResult) (string, error) {
	shift, err := r.GetShift(ctx, match.ShiftID)
	if err != nil {
		return "", err
	}

	if match.ID == "" {
		match.ID, err = gonanoid.New()
		if err != nil {
			return "", fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}
	match.MemberIDs = domain.NormalizeMembers(match.MemberIDs)
	match.Waves = deriveWaves(match)
	match.Nightless = true
	for _, w := range match.Waves {
		if w.EventType.IsNight() {
			match.Nightless = false
		}
	}

	if err := match.Validate(shift.WaveCount); err != nil {
		return "", err
	}
	if err := dimension.Validate(match.Waves); err != nil {
		return "", err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMatchRow(ctx, tx, &match); err != nil {
		return "", err
	}
	for _, id := range match.MemberIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO match_members (match_id, player_id) VALUES (?, ?)`, match.ID, id); err != nil {
			return "", fmt.Errorf("failed to insert member %s: %w", id, err)
		}
	}
	for _, w := range match.Waves {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO waves (match_id, wave_index, event_type, tide_level, golden_eggs,
				golden_egg_quota, golden_egg_popped, red_eggs, is_clear)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			match.ID, w.WaveIndex, int(w.EventType), int(w.TideLevel), w.GoldenEggs,
			w.GoldenEggQuota, w.GoldenEggPopped, w.RedEggs, w.IsClear,
		); err != nil {
			return "", fmt.Errorf("failed to insert wave %d: %w", w.WaveIndex, err)
		}
	}
	for i := range match.Players {
		if err := insertPlayerRow(ctx, tx, match.ID, &match.Players[i]); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit match %s: %w", match.ID, err)
	}

	r.logger.Debug().
		Str("match_id", match.ID).
		Int64("shift_id", match.ShiftID).
		Int("member_count", len(match.MemberIDs)).
		Msg("match inserted")
	return match.ID, nil
}

// FillUploaderFields sets the uploader-only fields of one player row. The
// first writer wins: it reports false when the fields were already present.
func (r *MatchRepository) FillUploaderFields(ctx context.Context, matchID, playerID string, f domain.UploaderFields) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE players SET
			job_id = ?, job_score = ?, job_rate = ?, kuma_point = ?,
			grade_id = ?, grade_point = ?, grade_point_delta = ?
		WHERE match_id = ? AND player_id = ? AND job_id IS NULL`,
		f.JobID, f.JobScore, f.JobRate, f.KumaPoint, f.GradeID, f.GradePoint, f.GradePointDelta,
		matchID, playerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to fill uploader fields: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE match_id = ? AND player_id = ?`, matchID, playerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: player %s not in match %s", domain.ErrInvalidRequest, playerID, matchID)
	}
	if err != nil {
		return false, err
	}

	r.logger.Debug().Str("match_id", matchID).Str("player_id", playerID).Msg("uploader fields already set")
	return false, nil
}

// deriveWaves stamps the match id on every wave and marks each wave cleared
// unless the job failed on it.
func deriveWaves(m domain.MatchResult) []domain.WaveRecord {
	out := make([]domain.WaveRecord, len(m.Waves))
	for i, w := range m.Waves {
		w.MatchID = m.ID
		w.IsClear = m.Outcome.IsClear || w.WaveIndex != m.Outcome.FailedWave
		out[i] = w
	}
	return out
}

func insertMatchRow(ctx context.Context, tx *sql.Tx, m *domain.MatchResult) error {
	appearances, err := json.Marshal(m.BossAppearances[:])
	if err != nil {
		return err
	}
	defeats, err := json.Marshal(m.BossDefeats[:])
	if err != nil {
		return err
	}

	var failureWave sql.NullInt64
	var failureReason sql.NullString
	if !m.Outcome.IsClear {
		failureWave = sql.NullInt64{Int64: int64(m.Outcome.FailedWave), Valid: true}
		failureReason = sql.NullString{String: m.Outcome.FailureReason.String(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO matches (id, shift_id, play_time, nightless, members, golden_eggs, red_eggs,
			danger_rate, is_clear, failure_wave, failure_reason, boss_appearances, boss_defeats)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ShiftID, m.PlayTime.Unix(), m.Nightless, m.TeamKey(), m.GoldenEggs, m.RedEggs,
		m.DangerRate, m.Outcome.IsClear, failureWave, failureReason, string(appearances), string(defeats),
	)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.ID, err)
	}
	return nil
}

func insertPlayerRow(ctx context.Context, tx *sql.Tx, matchID string, p *domain.PlayerRecord) error {
	defeats, err := json.Marshal(p.BossDefeats[:])
	if err != nil {
		return err
	}
	weapons, err := json.Marshal(nonNil(p.SuppliedWeapons))
	if err != nil {
		return err
	}
	specials, err := json.Marshal(nonNil(p.SpecialUseCounts))
	if err != nil {
		return err
	}

	var job [7]sql.NullInt64
	if u := p.Uploader; u != nil {
		for i, v := range []int{u.JobID, u.JobScore, u.JobRate, u.KumaPoint, u.GradeID, u.GradePoint, u.GradePointDelta} {
			job[i] = sql.NullInt64{Int64: int64(v), Valid: true}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (match_id, player_id, boss_defeats, rescues, rescued, golden_eggs, red_eggs,
			supplied_weapons, supplied_special, special_use_counts,
			job_id, job_score, job_rate, kuma_point, grade_id, grade_point, grade_point_delta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		matchID, p.PlayerID, string(defeats), p.Rescues, p.Rescued, p.GoldenEggs, p.RedEggs,
		string(weapons), p.SuppliedSpecial, string(specials),
		job[0], job[1], job[2], job[3], job[4], job[5], job[6],
	)
	if err != nil {
		return fmt.Errorf("failed to insert player %s: %w", p.PlayerID, err)
	}
	return nil
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
