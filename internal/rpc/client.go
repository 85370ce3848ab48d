package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/clawback/internal/money"
)

// Client calls a ChatService server.
type Client struct {
	handleMessage *connect.Client[HandleMessageRequest, HandleMessageResponse]
	balances      *connect.Client[TripRequest, BalancesResponse]
	summary       *connect.Client[TripRequest, SummaryResponse]
	who           *connect.Client[TripRequest, WhoResponse]
	trips         *connect.Client[TripsRequest, TripsResponse]
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		handleMessage: connect.NewClient[HandleMessageRequest, HandleMessageResponse](httpClient, baseURL+HandleMessageProcedure, opts...),
		balances:      connect.NewClient[TripRequest, BalancesResponse](httpClient, baseURL+BalancesProcedure, opts...),
		summary:       connect.NewClient[TripRequest, SummaryResponse](httpClient, baseURL+SummaryProcedure, opts...),
		who:           connect.NewClient[TripRequest, WhoResponse](httpClient, baseURL+WhoProcedure, opts...),
		trips:         connect.NewClient[TripsRequest, TripsResponse](httpClient, baseURL+TripsProcedure, opts...),
	}
}

// WithBearerToken adds an Authorization header to every call.
func WithBearerToken(token string) connect.ClientOption {
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}))
}

func (c *Client) HandleMessage(ctx context.Context, chatID, text string) (*HandleMessageResponse, error) {
	resp, err := c.handleMessage.CallUnary(ctx, connect.NewRequest(&HandleMessageRequest{ChatID: chatID, Text: text}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Balances(ctx context.Context, trip string, in money.Currency) (*BalancesResponse, error) {
	resp, err := c.balances.CallUnary(ctx, connect.NewRequest(&TripRequest{Trip: trip, In: in}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Summary(ctx context.Context, trip string) (*SummaryResponse, error) {
	resp, err := c.summary.CallUnary(ctx, connect.NewRequest(&TripRequest{Trip: trip}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Who(ctx context.Context, trip string) ([]string, error) {
	resp, err := c.who.CallUnary(ctx, connect.NewRequest(&TripRequest{Trip: trip}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Participants, nil
}

func (c *Client) Trips(ctx context.Context) ([]string, error) {
	resp, err := c.trips.CallUnary(ctx, connect.NewRequest(&TripsRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Trips, nil
}
