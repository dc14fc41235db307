package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "scanpay/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// HTTPVerifier calls POST /api/receipts/{receiptId}/verify.
type HTTPVerifier struct {
	baseURL string
	token   string
	timeout time.Duration
}

func NewHTTPVerifier(baseURL, token string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
	}
}

type verifyResponse struct {
	Data  *Verdict `json:"data"`
	Error string   `json:"error"`
	Code  string   `json:"code"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, receiptID string) (*Verdict, error) {
	timeout := v.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	if timeout <= 0 {
		return nil, apperrors.ErrTimeout
	}

	agent := fiber.Post(fmt.Sprintf("%s/api/receipts/%s/verify", v.baseURL, url.PathEscape(receiptID)))
	agent.Set(fiber.HeaderAuthorization, "Bearer "+v.token)
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		if apperrors.IsTimeout(errs[0]) {
			return nil, apperrors.ErrTimeout
		}
		return nil, fmt.Errorf("verify request: %w", errs[0])
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode verify response (status %d): %w", status, err)
	}

	switch {
	case resp.Data != nil && resp.Data.Outcome != "":
		return resp.Data, nil
	case status == fiber.StatusGatewayTimeout || resp.Code == apperrors.ErrTimeout.Code:
		return nil, apperrors.ErrTimeout
	case resp.Code != "":
		return nil, apperrors.New(resp.Code, resp.Error)
	}
	return nil, fmt.Errorf("unexpected verify response status %d", status)
}
