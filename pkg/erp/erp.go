// Package erp is the boundary to the downstream ERP system. Approval of an
// inventory related process ends with a deduction call against it.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

type DeductionRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type Service interface {
	// DeductInventory reduces stock for the given SKU. An error means the
	// deduction did not happen and the caller must not treat the approval as
	// finalized.
	DeductInventory(ctx context.Context, request DeductionRequest) error
}

// HTTPService calls a real ERP endpoint.
type HTTPService struct {
	endpoint string
	client   *http.Client
	logger   hclog.Logger
}

var _ Service = &HTTPService{}

func NewHTTPService(endpoint string) *HTTPService {
	return &HTTPService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   hclog.Default().Named("erp-client"),
	}
}

func (s *HTTPService) DeductInventory(ctx context.Context, request DeductionRequest) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode deduction request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/api/inventory/deduct", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build deduction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erp deduction call failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("erp deduction returned %d: %s", resp.StatusCode, string(body))
	}
	s.logger.Info("deducted inventory", "sku", request.SKU, "quantity", request.Quantity)
	return nil
}

// Mock logs deductions instead of calling an ERP system. Used in every
// environment without one.
type Mock struct {
	mu         sync.Mutex
	logger     hclog.Logger
	Deductions []DeductionRequest
	// FailWith makes every deduction fail, for tests of the rollback path
	FailWith error
}

var _ Service = &Mock{}

func NewMock() *Mock {
	return &Mock{logger: hclog.Default().Named("erp-mock")}
}

func (m *Mock) DeductInventory(ctx context.Context, request DeductionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Deductions = append(m.Deductions, request)
	m.logger.Info("mock inventory deduction", "sku", request.SKU, "quantity", request.Quantity)
	return nil
}
