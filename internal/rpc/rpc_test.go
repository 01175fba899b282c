package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/rahat-c2c/disburse/internal/auth"
	"github.com/rahat-c2c/disburse/internal/events"
	"github.com/rahat-c2c/disburse/internal/middleware"
	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/service"
	"github.com/rahat-c2c/disburse/internal/storage/sqlite"
)

func setupServer(t *testing.T, opts ...connect.HandlerOption) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	emitter := events.NewEmitter(16)
	t.Cleanup(func() {
		emitter.Close()
		store.Close()
	})

	mux := http.NewServeMux()
	path, handler := NewDisbursementServiceHandler(service.NewDisbursementService(store, emitter, nil), opts...)
	mux.Handle(path, handler)
	benPath, benHandler := NewBeneficiaryServiceHandler(service.NewBeneficiaryService(store), opts...)
	mux.Handle(benPath, benHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// call posts a plain JSON unary request, the way Connect and curl clients do.
func call(t *testing.T, server *httptest.Server, procedure string, req, resp any, header http.Header) int {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL+procedure, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer httpResp.Body.Close()

	if resp != nil && httpResp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return httpResp.StatusCode
}

func TestCreateAndGetDisbursement_RoundTrip(t *testing.T) {
	server := setupServer(t)

	var created models.Disbursement
	status := call(t, server, CreateDisbursementProcedure, service.CreateDisbursementRequest{
		Status:     models.StatusPending,
		Type:       models.TypeMultisig,
		TargetType: models.TargetIndividual,
		Beneficiaries: []service.BeneficiaryInput{
			{WalletAddress: "0xaaa", Amount: "10"},
			{WalletAddress: "0xbbb", Amount: "20"},
		},
	}, &created, nil)
	if status != http.StatusOK {
		t.Fatalf("create: expected 200, got %d", status)
	}
	if created.Amount != "30" {
		t.Errorf("amount: expected '30', got '%s'", created.Amount)
	}

	var detail service.DisbursementDetail
	status = call(t, server, GetDisbursementProcedure, GetDisbursementRequest{UUID: created.UUID}, &detail, nil)
	if status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}
	if len(detail.Beneficiaries) != 2 {
		t.Errorf("expected 2 beneficiaries, got %d", len(detail.Beneficiaries))
	}
}

func TestErrorCodeMapping(t *testing.T) {
	server := setupServer(t)

	// Unknown disbursement maps onto not found.
	status := call(t, server, GetDisbursementProcedure, GetDisbursementRequest{UUID: "missing"}, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("not found: expected 404, got %d", status)
	}

	// A malformed create maps onto invalid argument.
	status = call(t, server, CreateDisbursementProcedure, service.CreateDisbursementRequest{
		Status:     models.StatusPending,
		Type:       models.TypeMultisig,
		TargetType: models.TargetIndividual,
	}, nil, nil)
	if status != http.StatusBadRequest {
		t.Errorf("invalid input: expected 400, got %d", status)
	}

	// A duplicate registration maps onto already exists (409).
	status = call(t, server, RegisterBeneficiaryProcedure, service.RegisterBeneficiaryRequest{WalletAddress: "0xaaa"}, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("register: expected 200, got %d", status)
	}
	status = call(t, server, RegisterBeneficiaryProcedure, service.RegisterBeneficiaryRequest{WalletAddress: "0xaaa"}, nil, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", status)
	}
}

func TestAuthInterceptor(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", 24*time.Hour)
	server := setupServer(t, connect.WithInterceptors(middleware.RequireAuth(jwtManager)))

	req := GetDisbursementRequest{UUID: "anything"}

	// No token: rejected before the handler runs.
	status := call(t, server, GetDisbursementProcedure, req, nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", status)
	}

	// Garbage token: rejected.
	header := http.Header{"Authorization": []string{"Bearer garbage"}}
	status = call(t, server, GetDisbursementProcedure, req, nil, header)
	if status != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", status)
	}

	// Valid token: the request reaches the handler (and 404s on the uuid).
	token, err := jwtManager.Generate("dashboard")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	header = http.Header{"Authorization": []string{"Bearer " + token}}
	status = call(t, server, GetDisbursementProcedure, req, nil, header)
	if status != http.StatusNotFound {
		t.Errorf("valid token: expected 404 from handler, got %d", status)
	}
}
