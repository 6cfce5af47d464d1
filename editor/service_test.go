package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/apiclient"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/payment"
)

type fakeContent struct {
	lastTarget  int
	lastPrompt  string
	lastImages  int
	gotRefPart  bool
	transcribed string
}

func (f *fakeContent) GenerateText(ctx context.Context, categoryID, ref string) (string, error) {
	return "сгенерированный текст", nil
}

func (f *fakeContent) RegenerateText(ctx context.Context, categoryID, text, prompt string) (string, error) {
	f.lastPrompt = prompt
	return "перегенерированный текст", nil
}

func (f *fakeContent) CompressText(ctx context.Context, categoryID, text string, targetLen int) (string, error) {
	f.lastTarget = targetLen
	return "сжатый текст", nil
}

func (f *fakeContent) GenerateImage(ctx context.Context, categoryID, text, prompt string, reference *apiclient.FilePart) ([]string, error) {
	f.gotRefPart = reference != nil
	return []string{"https://cdn/1.jpg", "https://cdn/2.jpg"}, nil
}

func (f *fakeContent) EditImage(ctx context.Context, organizationID, prompt string, image []byte, filename string) ([]string, error) {
	f.lastPrompt = prompt
	return []string{"https://cdn/edited.jpg"}, nil
}

func (f *fakeContent) CombineImages(ctx context.Context, organizationID, categoryID string, images [][]byte, filenames []string, prompt string) ([]string, error) {
	f.lastImages = len(images)
	f.lastPrompt = prompt
	return []string{"https://cdn/combined.jpg"}, nil
}

func (f *fakeContent) TranscribeAudio(ctx context.Context, organizationID string, audio []byte, filename string) (string, error) {
	return f.transcribed, nil
}

type fakePayment struct {
	ok     bool
	err    error
	checks int
	lastOp payment.OperationKind
}

func (f *fakePayment) CheckBalance(ctx context.Context, organizationID string, op payment.OperationKind) (payment.BalanceCheck, error) {
	f.checks++
	f.lastOp = op
	return payment.BalanceCheck{OK: f.ok, Required: 10, Available: 3}, f.err
}

func TestGenerateTextGatedByBalance(t *testing.T) {
	fc := &fakeContent{}
	fp := &fakePayment{ok: false}
	svc := NewService(fc, fp, nil)

	_, err := svc.GenerateText(context.Background(), "org-1", "cat-1", "о запуске")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if fp.lastOp != payment.OpGenerateText {
		t.Fatalf("operation = %q", fp.lastOp)
	}

	fp.ok = true
	text, err := svc.GenerateText(context.Background(), "org-1", "cat-1", "о запуске")
	if err != nil || text == "" {
		t.Fatalf("GenerateText() = %q, %v", text, err)
	}
	if fp.checks != 2 {
		t.Fatalf("balance checks = %d", fp.checks)
	}
}

func TestCompressTextPicksTargetByImageState(t *testing.T) {
	fc := &fakeContent{}
	svc := NewService(fc, &fakePayment{ok: true}, nil)

	if _, err := svc.CompressText(context.Background(), "org-1", "cat-1", "текст", true); err != nil {
		t.Fatalf("CompressText() error = %v", err)
	}
	if fc.lastTarget != CompressTargetWithImage {
		t.Fatalf("target with image = %d", fc.lastTarget)
	}
	if _, err := svc.CompressText(context.Background(), "org-1", "cat-1", "текст", false); err != nil {
		t.Fatalf("CompressText() error = %v", err)
	}
	if fc.lastTarget != CompressTargetWithoutImage {
		t.Fatalf("target without image = %d", fc.lastTarget)
	}
}

func TestGenerateImagePassesReference(t *testing.T) {
	fc := &fakeContent{}
	fp := &fakePayment{ok: true}
	svc := NewService(fc, fp, nil)

	urls, err := svc.GenerateImage(context.Background(), "org-1", "cat-1", "текст", "яркий стиль, минимализм",
		&UploadedImage{Data: []byte("img"), Name: "ref.jpg"})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if !fc.gotRefPart {
		t.Fatalf("reference part not forwarded")
	}
	if len(urls) != 2 {
		t.Fatalf("urls = %v", urls)
	}
	if fp.lastOp != payment.OpGenerateImage {
		t.Fatalf("operation = %q", fp.lastOp)
	}
}

func TestCombineImagesUsesBufferAndDefaultPrompt(t *testing.T) {
	fc := &fakeContent{}
	svc := NewService(fc, &fakePayment{ok: true}, nil)

	var buf CombineBuffer
	buf.Add(UploadedImage{Data: []byte("a"), Name: "a.jpg"})
	buf.Add(UploadedImage{Data: []byte("b"), Name: "b.jpg"})

	if _, err := svc.CombineImages(context.Background(), "org-1", "cat-1", &buf); err != nil {
		t.Fatalf("CombineImages() error = %v", err)
	}
	if fc.lastImages != 2 {
		t.Fatalf("images sent = %d", fc.lastImages)
	}
	if fc.lastPrompt != DefaultCombinePrompt {
		t.Fatalf("prompt = %q", fc.lastPrompt)
	}
	if len(buf.Images) != 2 {
		t.Fatalf("buffer cleared by service")
	}
}

func TestBalanceCheckErrorSurfaced(t *testing.T) {
	svc := NewService(&fakeContent{}, &fakePayment{err: errors.New("payment down")}, nil)
	_, err := svc.GenerateText(context.Background(), "org-1", "cat-1", "")
	if err == nil || errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want transport error", err)
	}
}
