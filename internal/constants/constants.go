package constants

import "time"

const (
	NicknameAPITimeout = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	LeaderboardSize      = 10
	WaveRecordLimit      = 25
	WaveRecordThreshold  = 40
	TotalRecordLimit     = 25
	TotalRecordThreshold = 130
	WeaponRankingLimit   = 100
	NicknameBatchSize    = 200
)
