// Package organization is the client of the organization service.
package organization

import (
	"context"
	"net/http"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/apiclient"
)

type Organization struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Audience    string   `json:"audience,omitempty"`
	ToneOfVoice []string `json:"tone_of_voice,omitempty"`
	Products    []string `json:"products,omitempty"`
	Locale      string   `json:"locale,omitempty"`
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

type createResponse struct {
	ID string `json:"id"`
}

func (c *Client) Create(ctx context.Context, org Organization) (string, error) {
	var out createResponse
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/organization/create"), org, &out)
	return out.ID, err
}

func (c *Client) Get(ctx context.Context, id string) (Organization, error) {
	var out Organization
	err := apiclient.DoJSON(ctx, c.http, http.MethodGet,
		apiclient.JoinURL(c.baseURL, "api/organization", id), nil, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, org Organization) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPut,
		apiclient.JoinURL(c.baseURL, "api/organization", org.ID), org, nil)
}
