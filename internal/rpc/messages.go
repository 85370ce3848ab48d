package rpc

import (
	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/service"
)

// HandleMessageRequest carries one chat message from a bridge.
type HandleMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (r *HandleMessageRequest) GetChatID() string { return r.ChatID }

// HandleMessageResponse is the structured event plus its rendered reply.
type HandleMessageResponse struct {
	Event *service.Event `json:"event"`
	Reply string         `json:"reply"`
}

// TripRequest names a trip for the read-only queries.
type TripRequest struct {
	Trip string `json:"trip"`
	// In is the balances currency; empty means the trip base.
	In money.Currency `json:"in,omitempty"`
}

type BalancesResponse struct {
	Report *service.Report `json:"report"`
	Reply  string          `json:"reply"`
}

type SummaryResponse struct {
	Summary *ledger.Summary `json:"summary"`
	Reply   string          `json:"reply"`
}

type WhoResponse struct {
	Participants []string `json:"participants"`
}

type TripsRequest struct{}

type TripsResponse struct {
	Trips []string `json:"trips"`
}
