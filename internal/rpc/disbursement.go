package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/service"
	"github.com/rahat-c2c/disburse/internal/storage"
)

// DisbursementService procedures.
const (
	DisbursementServicePath = "/c2c.disburse.v1.DisbursementService/"

	CreateDisbursementProcedure       = DisbursementServicePath + "CreateDisbursement"
	GetDisbursementProcedure          = DisbursementServicePath + "GetDisbursement"
	ListDisbursementsProcedure        = DisbursementServicePath + "ListDisbursements"
	UpdateDisbursementProcedure       = DisbursementServicePath + "UpdateDisbursement"
	ListTransactionsProcedure         = DisbursementServicePath + "ListTransactions"
	ListApprovedTransactionsProcedure = DisbursementServicePath + "ListApprovedTransactions"
)

// GetDisbursementRequest selects one disbursement by uuid.
type GetDisbursementRequest struct {
	UUID string `json:"uuid"`
}

// PageRequest selects a window of a list result.
type PageRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

func (p PageRequest) page() storage.Page {
	return storage.Page{Page: p.Page, PerPage: p.PerPage}
}

// TransactionsRequest selects a page of one disbursement's beneficiary rows.
type TransactionsRequest struct {
	UUID string `json:"uuid"`
	PageRequest
}

// NewDisbursementServiceHandler mounts the ledger procedures and returns the
// path prefix to register them under.
func NewDisbursementServiceHandler(svc *service.DisbursementService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateDisbursementProcedure, connect.NewUnaryHandler(
		CreateDisbursementProcedure,
		func(ctx context.Context, req *connect.Request[service.CreateDisbursementRequest]) (*connect.Response[models.Disbursement], error) {
			d, err := svc.Create(ctx, *req.Msg)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(d), nil
		},
		opts...,
	))
	mux.Handle(GetDisbursementProcedure, connect.NewUnaryHandler(
		GetDisbursementProcedure,
		func(ctx context.Context, req *connect.Request[GetDisbursementRequest]) (*connect.Response[service.DisbursementDetail], error) {
			d, err := svc.Get(ctx, req.Msg.UUID)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(d), nil
		},
		opts...,
	))
	mux.Handle(ListDisbursementsProcedure, connect.NewUnaryHandler(
		ListDisbursementsProcedure,
		func(ctx context.Context, req *connect.Request[PageRequest]) (*connect.Response[service.DisbursementList], error) {
			list, err := svc.List(ctx, req.Msg.page())
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(list), nil
		},
		opts...,
	))
	mux.Handle(UpdateDisbursementProcedure, connect.NewUnaryHandler(
		UpdateDisbursementProcedure,
		func(ctx context.Context, req *connect.Request[service.UpdateDisbursementRequest]) (*connect.Response[models.Disbursement], error) {
			d, err := svc.Update(ctx, *req.Msg)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(d), nil
		},
		opts...,
	))
	mux.Handle(ListTransactionsProcedure, connect.NewUnaryHandler(
		ListTransactionsProcedure,
		func(ctx context.Context, req *connect.Request[TransactionsRequest]) (*connect.Response[service.TransactionList], error) {
			list, err := svc.ListTransactions(ctx, req.Msg.UUID, req.Msg.page())
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(list), nil
		},
		opts...,
	))
	mux.Handle(ListApprovedTransactionsProcedure, connect.NewUnaryHandler(
		ListApprovedTransactionsProcedure,
		func(ctx context.Context, req *connect.Request[TransactionsRequest]) (*connect.Response[service.TransactionList], error) {
			list, err := svc.ListApprovedTransactions(ctx, req.Msg.UUID, req.Msg.page())
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(list), nil
		},
		opts...,
	))
	return DisbursementServicePath, mux
}
