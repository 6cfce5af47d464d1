package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/apiclient"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/payment"
)

// ErrInsufficientBalance is returned by generation methods when the
// organization cannot afford the operation. Handlers map it to the
// InsufficientBalance flag instead of the generic failure message.
var ErrInsufficientBalance = errors.New("editor: insufficient balance")

// ContentAPI is the slice of the content service the editor calls.
type ContentAPI interface {
	GenerateText(ctx context.Context, categoryID, textReference string) (string, error)
	RegenerateText(ctx context.Context, categoryID, text, prompt string) (string, error)
	CompressText(ctx context.Context, categoryID, text string, targetLen int) (string, error)
	GenerateImage(ctx context.Context, categoryID, text, prompt string, reference *apiclient.FilePart) ([]string, error)
	EditImage(ctx context.Context, organizationID, prompt string, image []byte, filename string) ([]string, error)
	CombineImages(ctx context.Context, organizationID, categoryID string, images [][]byte, filenames []string, prompt string) ([]string, error)
	TranscribeAudio(ctx context.Context, organizationID string, audio []byte, filename string) (string, error)
}

// PaymentAPI gates priced operations on the organization balance.
type PaymentAPI interface {
	CheckBalance(ctx context.Context, organizationID string, op payment.OperationKind) (payment.BalanceCheck, error)
}

// Service wraps the priced generation operations with the balance gate. All
// methods block; dialog handlers run them behind a typing action.
type Service struct {
	Content ContentAPI
	Payment PaymentAPI
	Logger  *slog.Logger

	// HTTP is used for direct CDN downloads in FetchImage.
	HTTP *http.Client
}

func NewService(contentAPI ContentAPI, paymentAPI PaymentAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Content: contentAPI, Payment: paymentAPI, Logger: logger}
}

func (s *Service) gate(ctx context.Context, organizationID string, op payment.OperationKind) error {
	check, err := s.Payment.CheckBalance(ctx, organizationID, op)
	if err != nil {
		return err
	}
	if !check.OK {
		s.Logger.Warn("balance_gate_rejected",
			"organization_id", organizationID,
			"operation", string(op),
			"required", check.Required,
			"available", check.Available)
		return ErrInsufficientBalance
	}
	return nil
}

func (s *Service) GenerateText(ctx context.Context, organizationID, categoryID, textReference string) (string, error) {
	if err := s.gate(ctx, organizationID, payment.OpGenerateText); err != nil {
		return "", err
	}
	return s.Content.GenerateText(ctx, categoryID, textReference)
}

func (s *Service) RegenerateText(ctx context.Context, organizationID, categoryID, text, prompt string) (string, error) {
	if err := s.gate(ctx, organizationID, payment.OpGenerateText); err != nil {
		return "", err
	}
	return s.Content.RegenerateText(ctx, categoryID, text, prompt)
}

// CompressText asks the content service to shorten text to the target that
// matches the image state of the publication.
func (s *Service) CompressText(ctx context.Context, organizationID, categoryID, text string, hasImage bool) (string, error) {
	if err := s.gate(ctx, organizationID, payment.OpGenerateText); err != nil {
		return "", err
	}
	return s.Content.CompressText(ctx, categoryID, text, CompressTarget(hasImage))
}

// GenerateImage produces a set of image variants. A non-nil reference turns
// the call into reference-guided generation.
func (s *Service) GenerateImage(ctx context.Context, organizationID, categoryID, text, prompt string, reference *UploadedImage) ([]string, error) {
	if err := s.gate(ctx, organizationID, payment.OpGenerateImage); err != nil {
		return nil, err
	}
	var part *apiclient.FilePart
	if reference != nil {
		part = &apiclient.FilePart{Field: "reference", Filename: reference.Name, Data: reference.Data}
	}
	return s.Content.GenerateImage(ctx, categoryID, text, prompt, part)
}

func (s *Service) EditImage(ctx context.Context, organizationID, prompt string, image UploadedImage) ([]string, error) {
	if err := s.gate(ctx, organizationID, payment.OpEditImage); err != nil {
		return nil, err
	}
	return s.Content.EditImage(ctx, organizationID, prompt, image.Data, image.Name)
}

// CombineImages merges the staged buffer into one composition. The caller
// checks CanCombine first; the buffer is not cleared here so a failed call
// can be retried.
func (s *Service) CombineImages(ctx context.Context, organizationID, categoryID string, buf *CombineBuffer) ([]string, error) {
	if err := s.gate(ctx, organizationID, payment.OpEditImage); err != nil {
		return nil, err
	}
	images := make([][]byte, 0, len(buf.Images))
	names := make([]string, 0, len(buf.Images))
	for _, img := range buf.Images {
		images = append(images, img.Data)
		names = append(names, img.Name)
	}
	return s.Content.CombineImages(ctx, organizationID, categoryID, images, names, buf.EffectivePrompt())
}

// TranscribeAudio is not balance-gated; voice input is free.
func (s *Service) TranscribeAudio(ctx context.Context, organizationID string, audio []byte, filename string) (string, error) {
	return s.Content.TranscribeAudio(ctx, organizationID, audio, filename)
}

// FetchImage downloads a CDN image so it can be staged into a combine or
// edit call. Used when the user combines "with the current photo" and the
// current photo is a generated URL.
func (s *Service) FetchImage(ctx context.Context, url string) (UploadedImage, error) {
	httpClient := s.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UploadedImage{}, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return UploadedImage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return UploadedImage{}, fmt.Errorf("editor: fetch image http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, ImageMaxBytes+1))
	if err != nil {
		return UploadedImage{}, err
	}
	if len(data) > ImageMaxBytes {
		return UploadedImage{}, fmt.Errorf("editor: fetched image exceeds size limit")
	}
	name := path.Base(url)
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	return UploadedImage{Data: data, Name: name}, nil
}
