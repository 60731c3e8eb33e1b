package service

import (
	"context"

	"salmon-stats/internal/domain"

	"github.com/rs/zerolog"
)

// lookupNicknames resolves ids for display. Failures only cost the names, so
// they are logged and bare ids are returned.
func lookupNicknames(ctx context.Context, resolver NicknameResolver, logger zerolog.Logger, ids []string) map[string]domain.Nickname {
	if resolver == nil || len(ids) == 0 {
		return nil
	}
	names, err := resolver.Resolve(ctx, domain.NormalizeMembers(ids))
	if err != nil {
		logger.Warn().Err(err).Int("player_count", len(ids)).Msg("failed to resolve nicknames")
		return nil
	}
	return names
}

func decorateMembers(ids []string, names map[string]domain.Nickname) []domain.Nickname {
	out := make([]domain.Nickname, 0, len(ids))
	for _, id := range ids {
		n, ok := names[id]
		if !ok {
			n = domain.Nickname{PlayerID: id}
		}
		n.PlayerID = id
		out = append(out, n)
	}
	return out
}
