package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/service"
)

// BeneficiaryService procedures.
const (
	BeneficiaryServicePath = "/c2c.disburse.v1.BeneficiaryService/"

	RegisterBeneficiaryProcedure    = BeneficiaryServicePath + "RegisterBeneficiary"
	GetBeneficiaryProcedure         = BeneficiaryServicePath + "GetBeneficiary"
	VerifyWalletProcedure           = BeneficiaryServicePath + "VerifyWallet"
	CreateBeneficiaryGroupProcedure = BeneficiaryServicePath + "CreateBeneficiaryGroup"
	GetBeneficiaryGroupProcedure    = BeneficiaryServicePath + "GetBeneficiaryGroup"
)

// WalletRequest selects one beneficiary by wallet address.
type WalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// GroupRequest selects one beneficiary group by uuid.
type GroupRequest struct {
	UUID string `json:"uuid"`
}

// NewBeneficiaryServiceHandler mounts the beneficiary mirror procedures.
func NewBeneficiaryServiceHandler(svc *service.BeneficiaryService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(RegisterBeneficiaryProcedure, connect.NewUnaryHandler(
		RegisterBeneficiaryProcedure,
		func(ctx context.Context, req *connect.Request[service.RegisterBeneficiaryRequest]) (*connect.Response[models.Beneficiary], error) {
			b, err := svc.Register(ctx, *req.Msg)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(b), nil
		},
		opts...,
	))
	mux.Handle(GetBeneficiaryProcedure, connect.NewUnaryHandler(
		GetBeneficiaryProcedure,
		func(ctx context.Context, req *connect.Request[WalletRequest]) (*connect.Response[models.Beneficiary], error) {
			b, err := svc.Get(ctx, req.Msg.WalletAddress)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(b), nil
		},
		opts...,
	))
	mux.Handle(VerifyWalletProcedure, connect.NewUnaryHandler(
		VerifyWalletProcedure,
		func(ctx context.Context, req *connect.Request[WalletRequest]) (*connect.Response[Empty], error) {
			if err := svc.VerifyWallet(ctx, req.Msg.WalletAddress); err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(&Empty{}), nil
		},
		opts...,
	))
	mux.Handle(CreateBeneficiaryGroupProcedure, connect.NewUnaryHandler(
		CreateBeneficiaryGroupProcedure,
		func(ctx context.Context, req *connect.Request[service.CreateGroupRequest]) (*connect.Response[models.BeneficiaryGroup], error) {
			g, err := svc.CreateGroup(ctx, *req.Msg)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(g), nil
		},
		opts...,
	))
	mux.Handle(GetBeneficiaryGroupProcedure, connect.NewUnaryHandler(
		GetBeneficiaryGroupProcedure,
		func(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[service.GroupView], error) {
			g, err := svc.GetGroup(ctx, req.Msg.UUID)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(g), nil
		},
		opts...,
	))
	return BeneficiaryServicePath, mux
}
