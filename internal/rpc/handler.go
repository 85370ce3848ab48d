// Package rpc exposes the chat service over Connect with a JSON codec.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/clawback/internal/auth"
	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/middleware"
	"github.com/mmynk/clawback/internal/render"
	"github.com/mmynk/clawback/internal/service"
)

const ServiceName = "clawback.v1.ChatService"

const (
	HandleMessageProcedure = "/" + ServiceName + "/HandleMessage"
	BalancesProcedure      = "/" + ServiceName + "/Balances"
	SummaryProcedure       = "/" + ServiceName + "/Summary"
	WhoProcedure           = "/" + ServiceName + "/Who"
	TripsProcedure         = "/" + ServiceName + "/Trips"
)

// Options tune the Connect server.
type Options struct {
	// RatePerSecond limits messages per chat. Zero disables the limit.
	RatePerSecond float64
	Burst         int
}

// Server implements the ChatService procedures.
type Server struct {
	svc     *service.ChatService
	limiter *chatLimiter
}

// NewServer creates a Server for svc.
func NewServer(svc *service.ChatService, opts Options) *Server {
	return &Server{svc: svc, limiter: newChatLimiter(opts.RatePerSecond, opts.Burst)}
}

// NewChatServiceHandler builds an http.Handler serving every procedure under
// the returned path prefix.
func NewChatServiceHandler(s *Server, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(HandleMessageProcedure, connect.NewUnaryHandler(HandleMessageProcedure, s.HandleMessage, opts...))
	mux.Handle(BalancesProcedure, connect.NewUnaryHandler(BalancesProcedure, s.Balances, opts...))
	mux.Handle(SummaryProcedure, connect.NewUnaryHandler(SummaryProcedure, s.Summary, opts...))
	mux.Handle(WhoProcedure, connect.NewUnaryHandler(WhoProcedure, s.Who, opts...))
	mux.Handle(TripsProcedure, connect.NewUnaryHandler(TripsProcedure, s.Trips, opts...))
	return "/" + ServiceName + "/", mux
}

// HandleMessage handles one chat message.
func (s *Server) HandleMessage(ctx context.Context, req *connect.Request[HandleMessageRequest]) (*connect.Response[HandleMessageResponse], error) {
	chatID := strings.TrimSpace(req.Msg.ChatID)
	if chatID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("chat_id is required"))
	}
	if claims := middleware.GetClaims(ctx); claims != nil && !claims.AllowsChat(chatID) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrChatNotAllowed)
	}
	if !s.limiter.allow(chatID) {
		return nil, connect.NewError(connect.CodeResourceExhausted, errors.New("too many messages, slow down"))
	}

	ev, err := s.svc.HandleMessage(ctx, chatID, req.Msg.Text)
	if err != nil {
		slog.Error("HandleMessage failed", "chat_id", chatID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&HandleMessageResponse{Event: ev, Reply: render.Render(ev)}), nil
}

// Balances returns a trip's balances.
func (s *Server) Balances(ctx context.Context, req *connect.Request[TripRequest]) (*connect.Response[BalancesResponse], error) {
	report, err := s.svc.Balances(ctx, req.Msg.Trip, req.Msg.In)
	if err != nil {
		return nil, queryError(err)
	}
	return connect.NewResponse(&BalancesResponse{Report: report, Reply: render.Balances(report)}), nil
}

// Summary returns a trip overview.
func (s *Server) Summary(ctx context.Context, req *connect.Request[TripRequest]) (*connect.Response[SummaryResponse], error) {
	sum, err := s.svc.Summary(ctx, req.Msg.Trip)
	if err != nil {
		return nil, queryError(err)
	}
	report, err := s.svc.Balances(ctx, req.Msg.Trip, "")
	if err != nil {
		return nil, queryError(err)
	}
	return connect.NewResponse(&SummaryResponse{Summary: sum, Reply: render.Summary(sum, report)}), nil
}

// Who lists a trip's participants.
func (s *Server) Who(ctx context.Context, req *connect.Request[TripRequest]) (*connect.Response[WhoResponse], error) {
	who, err := s.svc.Who(ctx, req.Msg.Trip)
	if err != nil {
		return nil, queryError(err)
	}
	return connect.NewResponse(&WhoResponse{Participants: who}), nil
}

// Trips lists every trip.
func (s *Server) Trips(ctx context.Context, _ *connect.Request[TripsRequest]) (*connect.Response[TripsResponse], error) {
	trips, err := s.svc.Trips(ctx)
	if err != nil {
		slog.Error("Trips failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&TripsResponse{Trips: trips}), nil
}

// queryError maps a query failure to a Connect code.
func queryError(err error) error {
	if errors.Is(err, ledger.ErrNoActiveTrip) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	if _, ok := ledger.IsDomainError(err); ok {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	slog.Error("Query failed", "error", err)
	return connect.NewError(connect.CodeInternal, err)
}
