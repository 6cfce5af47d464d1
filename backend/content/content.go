// Package content is the client of the content service: publication and
// video-cut storage, AI text/image generation, and moderation transitions.
package content

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/apiclient"
)

type PublicationStatus string

const (
	StatusDraft      PublicationStatus = "draft"
	StatusModeration PublicationStatus = "moderation"
	StatusApproved   PublicationStatus = "approved"
	StatusRejected   PublicationStatus = "rejected"
	StatusPublished  PublicationStatus = "published"
)

type Publication struct {
	ID                string            `json:"id"`
	OrganizationID    string            `json:"organization_id"`
	CategoryID        string            `json:"category_id"`
	CreatorID         string            `json:"creator_id"`
	Text              string            `json:"text"`
	ImageURL          string            `json:"image_url,omitempty"`
	ImageName         string            `json:"image_name,omitempty"`
	TgSource          bool              `json:"tg_source"`
	VkSource          bool              `json:"vk_source"`
	Status            PublicationStatus `json:"status"`
	ModerationComment string            `json:"moderation_comment,omitempty"`
	TelegramLink      string            `json:"telegram_link,omitempty"`
	VkontakteLink     string            `json:"vkontakte_link,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

type Category struct {
	ID               string `json:"id"`
	OrganizationID   string `json:"organization_id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	TextStylePrompt  string `json:"text_style_prompt,omitempty"`
	ImageStylePrompt string `json:"image_style_prompt,omitempty"`
}

type VideoCut struct {
	ID                string            `json:"id"`
	OrganizationID    string            `json:"organization_id"`
	CreatorID         string            `json:"creator_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Tags              []string          `json:"tags,omitempty"`
	YouTubeSource     bool              `json:"youtube_source"`
	InstagramSource   bool              `json:"instagram_source"`
	VideoFID          string            `json:"video_fid,omitempty"`
	VideoName         string            `json:"video_name,omitempty"`
	Status            PublicationStatus `json:"status"`
	ModerationComment string            `json:"moderation_comment,omitempty"`
	YouTubeLink       string            `json:"youtube_link,omitempty"`
}

type SocialNetwork struct {
	Type    string `json:"type"` // telegram | vkontakte | youtube | instagram
	Link    string `json:"link,omitempty"`
	Enabled bool   `json:"enabled"`
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

// --- Text generation ---

type textResponse struct {
	Text string `json:"text"`
}

func (c *Client) GenerateText(ctx context.Context, categoryID, textReference string) (string, error) {
	var out textResponse
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/content/text/generate"),
		map[string]string{"category_id": categoryID, "text_reference": textReference},
		&out)
	return out.Text, err
}

func (c *Client) RegenerateText(ctx context.Context, categoryID, text, prompt string) (string, error) {
	var out textResponse
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/content/text/regenerate"),
		map[string]string{"category_id": categoryID, "text": text, "prompt": prompt},
		&out)
	return out.Text, err
}

// GeneratePreviewText renders a sample post from an ad-hoc category profile
// that has not been persisted yet. The brief flow uses it for test
// publications.
func (c *Client) GeneratePreviewText(ctx context.Context, organizationID string, category map[string]any, textReference string) (string, error) {
	var out textResponse
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/content/text/generate-preview"),
		map[string]any{
			"organization_id": organizationID,
			"category":        category,
			"text_reference":  textReference,
		},
		&out)
	return out.Text, err
}

func (c *Client) CompressText(ctx context.Context, categoryID, text string, targetLen int) (string, error) {
	var out textResponse
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/content/text/compress"),
		map[string]any{"category_id": categoryID, "text": text, "target_len": targetLen},
		&out)
	return out.Text, err
}

// --- Image generation ---

type imagesResponse struct {
	URLs []string `json:"urls"`
}

// GenerateImage produces up to three variants. reference and extra images are
// optional; when present they guide the generation.
func (c *Client) GenerateImage(ctx context.Context, categoryID, text, prompt string, reference *apiclient.FilePart) ([]string, error) {
	fields := map[string]string{"category_id": categoryID, "text": text}
	if prompt != "" {
		fields["prompt"] = prompt
	}
	var files []apiclient.FilePart
	if reference != nil {
		ref := *reference
		ref.Field = "reference"
		files = append(files, ref)
	}
	var out imagesResponse
	err := apiclient.DoMultipart(ctx, c.http,
		apiclient.JoinURL(c.baseURL, "api/content/image/generate"),
		fields, files, &out)
	return out.URLs, err
}

func (c *Client) EditImage(ctx context.Context, organizationID, prompt string, image []byte, filename string) ([]string, error) {
	var out imagesResponse
	err := apiclient.DoMultipart(ctx, c.http,
		apiclient.JoinURL(c.baseURL, "api/content/image/edit"),
		map[string]string{"organization_id": organizationID, "prompt": prompt},
		[]apiclient.FilePart{{Field: "image", Filename: filename, Data: image}},
		&out)
	return out.URLs, err
}

func (c *Client) CombineImages(ctx context.Context, organizationID, categoryID string, images [][]byte, filenames []string, prompt string) ([]string, error) {
	files := make([]apiclient.FilePart, 0, len(images))
	for i, data := range images {
		name := "image_" + strconv.Itoa(i) + ".jpg"
		if i < len(filenames) && filenames[i] != "" {
			name = filenames[i]
		}
		files = append(files, apiclient.FilePart{Field: "images", Filename: name, Data: data})
	}
	var out imagesResponse
	err := apiclient.DoMultipart(ctx, c.http,
		apiclient.JoinURL(c.baseURL, "api/content/image/combine"),
		map[string]string{"organization_id": organizationID, "category_id": categoryID, "prompt": prompt},
		files, &out)
	return out.URLs, err
}

func (c *Client) TranscribeAudio(ctx context.Context, organizationID string, audio []byte, filename string) (string, error) {
	var out textResponse
	err := apiclient.DoMultipart(ctx, c.http,
		apiclient.JoinURL(c.baseURL, "api/content/audio/transcribe"),
		map[string]string{"organization_id": organizationID},
		[]apiclient.FilePart{{Field: "audio", Filename: filename, Data: audio}},
		&out)
	return out.Text, err
}

// --- Publications ---

type createResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreatePublication(ctx context.Context, pub Publication) (string, error) {
	var out createResponse
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/publication/create"), pub, &out)
	return out.ID, err
}

func (c *Client) UpdatePublication(ctx context.Context, pub Publication) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPut,
		apiclient.JoinURL(c.baseURL, "api/publication", pub.ID), pub, nil)
}

func (c *Client) PublishPublication(ctx context.Context, id string) (Publication, error) {
	var out Publication
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/publication", id, "publish"), nil, &out)
	return out, err
}

// ModeratePublication records a moderation decision. comment is required for
// rejections.
func (c *Client) ModeratePublication(ctx context.Context, id string, status PublicationStatus, comment string) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/publication", id, "moderate"),
		map[string]string{"status": string(status), "moderation_comment": comment}, nil)
}

func (c *Client) DeletePublicationImage(ctx context.Context, id string) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodDelete,
		apiclient.JoinURL(c.baseURL, "api/publication", id, "image"), nil, nil)
}

func (c *Client) UploadPublicationImage(ctx context.Context, id string, image []byte, filename string) error {
	return apiclient.DoMultipart(ctx, c.http,
		apiclient.JoinURL(c.baseURL, "api/publication", id, "image"),
		nil,
		[]apiclient.FilePart{{Field: "image", Filename: filename, Data: image}},
		nil)
}

func (c *Client) Publications(ctx context.Context, organizationID string) ([]Publication, error) {
	var out []Publication
	err := apiclient.DoJSON(ctx, c.http, http.MethodGet,
		apiclient.JoinURL(c.baseURL, "api/publication/organization", organizationID, "publications"), nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context, organizationID string) ([]Category, error) {
	var out []Category
	err := apiclient.DoJSON(ctx, c.http, http.MethodGet,
		apiclient.JoinURL(c.baseURL, "api/publication/organization", organizationID, "categories"), nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, cat Category) (string, error) {
	var out createResponse
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/content/category"), cat, &out)
	return out.ID, err
}

func (c *Client) UpdateCategory(ctx context.Context, cat Category) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPut,
		apiclient.JoinURL(c.baseURL, "api/content/category", cat.ID), cat, nil)
}

func (c *Client) SocialNetworks(ctx context.Context, organizationID string) ([]SocialNetwork, error) {
	var out []SocialNetwork
	err := apiclient.DoJSON(ctx, c.http, http.MethodGet,
		apiclient.JoinURL(c.baseURL, "api/publication/organization", organizationID, "social-networks"), nil, &out)
	return out, err
}

// --- Video cuts ---

func (c *Client) GenerateVideoCut(ctx context.Context, organizationID, creatorID, youtubeURL string) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/video-cut/generate"),
		map[string]string{
			"organization_id": organizationID,
			"creator_id":      creatorID,
			"youtube_url":     youtubeURL,
		}, nil)
}

func (c *Client) VideoCuts(ctx context.Context, organizationID string) ([]VideoCut, error) {
	var out []VideoCut
	err := apiclient.DoJSON(ctx, c.http, http.MethodGet,
		apiclient.JoinURL(c.baseURL, "api/publication/organization", organizationID, "video-cuts"), nil, &out)
	return out, err
}

func (c *Client) UpdateVideoCut(ctx context.Context, cut VideoCut) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPut,
		apiclient.JoinURL(c.baseURL, "api/video-cut", cut.ID), cut, nil)
}

func (c *Client) PublishVideoCut(ctx context.Context, id string) (VideoCut, error) {
	var out VideoCut
	err := apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/video-cut", id, "publish"), nil, &out)
	return out, err
}

func (c *Client) ModerateVideoCut(ctx context.Context, id string, status PublicationStatus, comment string) error {
	return apiclient.DoJSON(ctx, c.http, http.MethodPost,
		apiclient.JoinURL(c.baseURL, "api/video-cut", id, "moderate"),
		map[string]string{"status": string(status), "moderation_comment": comment}, nil)
}
