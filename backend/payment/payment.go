// Package payment is the client of the payment service. Generation handlers
// call CheckBalance before spending money on an operation.
package payment

import (
	"context"
	"net/http"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/apiclient"
)

// OperationKind names a priced AI operation.
type OperationKind string

const (
	OpGenerateText  OperationKind = "generate_text"
	OpGenerateImage OperationKind = "generate_image"
	OpEditImage     OperationKind = "edit_image"
)

type BalanceCheck struct {
	OK        bool    `json:"ok"`
	Required  float64 `json:"required"`
	Available float64 `json:"available"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    apiclient.NewHTTPClient(0),
	}
}

// CheckBalance reports whether organizationID can afford one operation of the
// given kind.
func (c *Client) CheckBalance(ctx context.Context, organizationID string, op OperationKind) (BalanceCheck, error) {
	var out BalanceCheck
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/payment/balance/check"),
		map[string]string{"organization_id": organizationID, "operation": string(op)},
		&out)
	return out, err
}
