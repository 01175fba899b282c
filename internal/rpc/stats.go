package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"

	"github.com/rahat-c2c/disburse/internal/service"
)

// StatsService procedures.
const (
	StatsServicePath = "/c2c.disburse.v1.StatsService/"

	BeneficiaryHistoriesProcedure = StatsServicePath + "BeneficiaryHistories"
	DisbursementTotalsProcedure   = StatsServicePath + "DisbursementTotals"
	SaveAllStatsProcedure         = StatsServicePath + "SaveAllStats"
	ListStatsProcedure            = StatsServicePath + "ListStats"
)

// HistoriesRequest asks for merged histories of the given wallets.
type HistoriesRequest struct {
	Wallets []string `json:"wallets"`
}

// HistoriesResponse carries one history per requested wallet.
type HistoriesResponse struct {
	Data []service.BeneficiaryHistory `json:"data"`
}

// TotalsResponse carries disbursement counts by type.
type TotalsResponse struct {
	Data []service.TypeCount `json:"data"`
}

// StatView is one stored stat row with its JSON payload inlined.
type StatView struct {
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt int64           `json:"updatedAt"`
}

// StatsResponse lists all stored stat rows.
type StatsResponse struct {
	Data []StatView `json:"data"`
}

// NewStatsServiceHandler mounts the reconciliation and stats procedures.
func NewStatsServiceHandler(svc *service.ReconcileService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(BeneficiaryHistoriesProcedure, connect.NewUnaryHandler(
		BeneficiaryHistoriesProcedure,
		func(ctx context.Context, req *connect.Request[HistoriesRequest]) (*connect.Response[HistoriesResponse], error) {
			histories, err := svc.BeneficiaryHistories(ctx, req.Msg.Wallets)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(&HistoriesResponse{Data: histories}), nil
		},
		opts...,
	))
	mux.Handle(DisbursementTotalsProcedure, connect.NewUnaryHandler(
		DisbursementTotalsProcedure,
		func(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[TotalsResponse], error) {
			totals, err := svc.DisbursementTotals(ctx)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(&TotalsResponse{Data: totals}), nil
		},
		opts...,
	))
	mux.Handle(SaveAllStatsProcedure, connect.NewUnaryHandler(
		SaveAllStatsProcedure,
		func(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[Empty], error) {
			if err := svc.SaveAllStats(ctx); err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(&Empty{}), nil
		},
		opts...,
	))
	mux.Handle(ListStatsProcedure, connect.NewUnaryHandler(
		ListStatsProcedure,
		func(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StatsResponse], error) {
			stats, err := svc.Stats(ctx)
			if err != nil {
				return nil, connectError(err)
			}
			views := make([]StatView, 0, len(stats))
			for _, s := range stats {
				views = append(views, StatView{
					Name:      s.Name,
					Data:      json.RawMessage(s.Data),
					UpdatedAt: s.UpdatedAt,
				})
			}
			return connect.NewResponse(&StatsResponse{Data: views}), nil
		},
		opts...,
	))
	return StatsServicePath, mux
}
