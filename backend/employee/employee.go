// Package employee is the client of the employee service; the bot uses it for
// role checks and for creating the first admin of a new organization.
package employee

import (
	"context"
	"net/http"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/apiclient"
)

type Role string

const (
	RoleEmployee  Role = "employee"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// CanModerate reports whether the role may enter moderation screens.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

type Employee struct {
	AccountID      string `json:"account_id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name,omitempty"`
	Role           Role   `json:"role"`
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

func (c *Client) Get(ctx context.Context, accountID string) (Employee, error) {
	var out Employee
	err := apiclient.DoJSON(ctx, c.http, http.MethodGet,
		apiclient.JoinURL(c.baseURL, "api/employee", accountID), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, e Employee) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/employee/create"), e, nil)
}
