package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/rahat-c2c/disburse/internal/safe"
	"github.com/rahat-c2c/disburse/internal/service"
)

// MultisigService procedures.
const (
	MultisigServicePath = "/c2c.disburse.v1.MultisigService/"

	CreateSafeTransactionProcedure      = MultisigServicePath + "CreateSafeTransaction"
	GetSafeTransactionProcedure         = MultisigServicePath + "GetSafeTransaction"
	GetSafePendingTransactionsProcedure = MultisigServicePath + "GetSafePendingTransactions"
	GetTransactionApprovalsProcedure    = MultisigServicePath + "GetTransactionApprovals"
	GetOwnersListProcedure              = MultisigServicePath + "GetOwnersList"
	GetBalanceChartProcedure            = MultisigServicePath + "GetDisbursementSafeBalanceChart"
)

// CreateSafeTransactionRequest proposes a token approval for the amount.
type CreateSafeTransactionRequest struct {
	Amount string `json:"amount"`
}

// SafeTransactionRequest selects one transaction by its safe hash.
type SafeTransactionRequest struct {
	SafeTxHash string `json:"safeTxHash"`
}

// Empty is the message for procedures that take or return nothing.
type Empty struct{}

// NewMultisigServiceHandler mounts the multisig coordination procedures.
func NewMultisigServiceHandler(svc *service.MultisigService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSafeTransactionProcedure, connect.NewUnaryHandler(
		CreateSafeTransactionProcedure,
		func(ctx context.Context, req *connect.Request[CreateSafeTransactionRequest]) (*connect.Response[safe.TransactionHandle], error) {
			handle, err := svc.CreateSafeTransaction(ctx, req.Msg.Amount)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(handle), nil
		},
		opts...,
	))
	mux.Handle(GetSafeTransactionProcedure, connect.NewUnaryHandler(
		GetSafeTransactionProcedure,
		func(ctx context.Context, req *connect.Request[SafeTransactionRequest]) (*connect.Response[safe.MultisigTransaction], error) {
			tx, err := svc.GetSafeTransaction(ctx, req.Msg.SafeTxHash)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(tx), nil
		},
		opts...,
	))
	mux.Handle(GetSafePendingTransactionsProcedure, connect.NewUnaryHandler(
		GetSafePendingTransactionsProcedure,
		func(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[safe.PendingTransactions], error) {
			page, err := svc.GetSafePendingTransactions(ctx)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(page), nil
		},
		opts...,
	))
	mux.Handle(GetTransactionApprovalsProcedure, connect.NewUnaryHandler(
		GetTransactionApprovalsProcedure,
		func(ctx context.Context, req *connect.Request[SafeTransactionRequest]) (*connect.Response[service.ApprovalsView], error) {
			view, err := svc.GetTransactionApprovals(ctx, req.Msg.SafeTxHash)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(view), nil
		},
		opts...,
	))
	mux.Handle(GetOwnersListProcedure, connect.NewUnaryHandler(
		GetOwnersListProcedure,
		func(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[service.OwnersInfo], error) {
			info, err := svc.GetOwnersList(ctx)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(info), nil
		},
		opts...,
	))
	mux.Handle(GetBalanceChartProcedure, connect.NewUnaryHandler(
		GetBalanceChartProcedure,
		func(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[service.BalanceChart], error) {
			chart, err := svc.GetDisbursementSafeBalanceChart(ctx)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(chart), nil
		},
		opts...,
	))
	return MultisigServicePath, mux
}
