package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salmon-stats/internal/config"
	"salmon-stats/internal/constants"
	"salmon-stats/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const sessionCookie = "iksm_session"

// NicknameClient resolves player ids to display names over the nickname
// endpoint. With no endpoint configured every id resolves to itself.
type NicknameClient struct {
	baseURL string
	token   string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewNicknameClient(cfg *config.Config, logger zerolog.Logger) *NicknameClient {
	return &NicknameClient{
		baseURL: cfg.NicknameAPIURL,
		token:   cfg.NicknameAPIToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type NicknamesResponse struct {
	NicknameAndIcons []NicknameAndIcon `json:"nickname_and_icons"`
}

type NicknameAndIcon struct {
	NsaID        string `json:"nsa_id"`
	Nickname     string `json:"nickname"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (c *NicknameClient) Resolve(ctx context.Context, playerIDs []string) (map[string]domain.Nickname, error) {
	out := make(map[string]domain.Nickname, len(playerIDs))
	if c.baseURL == "" {
		for _, id := range playerIDs {
			out[id] = domain.Nickname{PlayerID: id}
		}
		return out, nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, constants.NicknameAPITimeout)
		defer cancel()
	}

	for start := 0; start < len(playerIDs); start += constants.NicknameBatchSize {
		batch := playerIDs[start:min(start+constants.NicknameBatchSize, len(playerIDs))]

		resp, err := doRequest[NicknamesResponse](ctx, c, c.batchURL(batch))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch nicknames: %w", err)
		}
		for _, n := range resp.NicknameAndIcons {
			out[n.NsaID] = domain.Nickname{
				PlayerID:    n.NsaID,
				DisplayName: n.Nickname,
				AvatarURL:   n.ThumbnailURL,
			}
		}
	}

	c.logger.Debug().
		Int("requested", len(playerIDs)).
		Int("resolved", len(out)).
		Msg("nicknames fetched")
	return out, nil
}

func (c *NicknameClient) batchURL(ids []string) string {
	uri := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(uri)

	if err := uri.Parse(nil, []byte(c.baseURL)); err != nil {
		return c.baseURL
	}
	args := uri.QueryArgs()
	for _, id := range ids {
		args.Add("id", id)
	}
	return uri.String()
}

func doRequest[T any](ctx context.Context, client *NicknameClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if client.token != "" {
		req.Header.SetCookie(sessionCookie, client.token)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
