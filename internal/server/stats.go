package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"salmon-stats/internal/domain"
	"salmon-stats/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	StatsServiceName = "salmonstats.v1.StatsService"

	GetShiftStatsProcedure      = "/" + StatsServiceName + "/GetShiftStats"
	GetWaveRecordsProcedure     = "/" + StatsServiceName + "/GetWaveRecords"
	GetTotalRecordsProcedure    = "/" + StatsServiceName + "/GetTotalRecords"
	GetSuppliedWeaponsProcedure = "/" + StatsServiceName + "/GetSuppliedWeapons"
)

// StatsServer exposes the stats engines as connect procedures. Messages are
// google.protobuf.Struct values mirroring the engines' JSON shape.
type StatsServer struct {
	stats   *service.StatsService
	records *service.WaveRecordService
	weapons *service.WeaponService
}

func NewStatsServer(stats *service.StatsService, records *service.WaveRecordService, weapons *service.WeaponService) *StatsServer {
	return &StatsServer{stats: stats, records: records, weapons: weapons}
}

// Handler returns the path prefix the service is mounted on and its handler.
func (s *StatsServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetShiftStatsProcedure, connect.NewUnaryHandler(GetShiftStatsProcedure, s.GetShiftStats, opts...))
	mux.Handle(GetWaveRecordsProcedure, connect.NewUnaryHandler(GetWaveRecordsProcedure, s.GetWaveRecords, opts...))
	mux.Handle(GetTotalRecordsProcedure, connect.NewUnaryHandler(GetTotalRecordsProcedure, s.GetTotalRecords, opts...))
	mux.Handle(GetSuppliedWeaponsProcedure, connect.NewUnaryHandler(GetSuppliedWeaponsProcedure, s.GetSuppliedWeapons, opts...))
	return "/" + StatsServiceName + "/", mux
}

func (s *StatsServer) GetShiftStats(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	start := time.Now()
	fields := req.Msg.GetFields()

	shiftID, err := requiredInt(fields, "shift_id")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	playerID, err := optionalString(fields, "player_id")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	isClear, err := optionalBool(fields, "is_clear")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	statsReq := service.StatsRequest{ShiftID: shiftID, PlayerID: playerID, IsClear: isClear}
	if err := statsReq.Validate(); err != nil {
		return nil, connectError(err)
	}

	out, err := s.stats.Build(ctx, statsReq)
	if err != nil {
		return nil, connectError(err)
	}

	zerolog.Ctx(ctx).Debug().
		Int64("shift_id", shiftID).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("GetShiftStats served")
	return respond(out)
}

func (s *StatsServer) GetWaveRecords(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()

	shiftID, err := requiredInt(fields, "shift_id")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	tideName, err := optionalString(fields, "tide")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	eventName, err := optionalString(fields, "event")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	tide, err := domain.ParseTideLevel(tideName)
	if err != nil {
		return nil, connectError(err)
	}
	event, err := domain.ParseEventType(eventName)
	if err != nil {
		return nil, connectError(err)
	}

	limit, err := optionalInt(fields, "limit")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	out, err := s.records.Records(ctx, shiftID, tide, event, int(limit))
	if err != nil {
		return nil, connectError(err)
	}
	return respond(out)
}

// GetTotalRecords defaults to nightless matches when nightless is omitted.
func (s *StatsServer) GetTotalRecords(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()

	shiftID, err := requiredInt(fields, "shift_id")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	nightless, err := optionalBool(fields, "nightless")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if nightless == nil {
		t := true
		nightless = &t
	}
	limit, err := optionalInt(fields, "limit")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	out, err := s.records.TotalRecords(ctx, shiftID, *nightless, int(limit))
	if err != nil {
		return nil, connectError(err)
	}
	return respond(out)
}

func (s *StatsServer) GetSuppliedWeapons(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	shiftID, err := requiredInt(req.Msg.GetFields(), "shift_id")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	rows, err := s.weapons.Ranking(ctx, shiftID)
	if err != nil {
		return nil, connectError(err)
	}
	return respond(map[string]any{"shift_id": shiftID, "players": rows})
}

func respond(v any) (*connect.Response[structpb.Struct], error) {
	msg, err := toStruct(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	var msg structpb.Struct
	if err := protojson.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to convert response: %w", err)
	}
	return &msg, nil
}

func connectError(err error) error {
	switch {
	case errors.Is(err, domain.ErrShiftNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrNoRandomWeapon):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func requiredInt(fields map[string]*structpb.Value, name string) (int64, error) {
	v, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if n.NumberValue != float64(int64(n.NumberValue)) {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return int64(n.NumberValue), nil
}

func optionalInt(fields map[string]*structpb.Value, name string) (int64, error) {
	v, ok := fields[name]
	if !ok {
		return 0, nil
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return 0, nil
	}
	return requiredInt(fields, name)
}

func optionalString(fields map[string]*structpb.Value, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NullValue:
		return "", nil
	}
	return "", fmt.Errorf("%s must be a string", name)
}

func optionalBool(fields map[string]*structpb.Value, name string) (*bool, error) {
	v, ok := fields[name]
	if !ok {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return &k.BoolValue, nil
	case *structpb.Value_NullValue:
		return nil, nil
	}
	return nil, fmt.Errorf("%s must be a boolean", name)
}
