package content

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestModeratePublicationSendsDecision(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.ModeratePublication(context.Background(), "pub-1", StatusRejected, "Не по теме")
	if err != nil {
		t.Fatalf("ModeratePublication() error = %v", err)
	}
	if gotPath != "/api/publication/pub-1/moderate" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["status"] != "rejected" || gotBody["moderation_comment"] != "Не по теме" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestCombineImagesUploadsAllParts(t *testing.T) {
	var partCount int
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "multipart/form-data" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		_ = params
		gotPrompt = r.FormValue("prompt")
		partCount = len(r.MultipartForm.File["images"])
		_ = json.NewEncoder(w).Encode(map[string][]string{"urls": {"https://cdn/1.jpg"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	urls, err := c.CombineImages(context.Background(), "org-1", "cat-1",
		[][]byte{[]byte("a"), []byte("b")}, []string{"one.jpg", "two.jpg"},
		"Объедини эти фотографии в одну композицию")
	if err != nil {
		t.Fatalf("CombineImages() error = %v", err)
	}
	if partCount != 2 {
		t.Fatalf("uploaded parts = %d, want 2", partCount)
	}
	if gotPrompt != "Объедини эти фотографии в одну композицию" {
		t.Fatalf("prompt = %q", gotPrompt)
	}
	if len(urls) != 1 || urls[0] != "https://cdn/1.jpg" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestAPIErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "insufficient balance"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GenerateText(context.Background(), "cat-1", "ref")
	if err == nil {
		t.Fatalf("GenerateText() expected error")
	}
	if got := err.Error(); got != "api http 402: insufficient balance" {
		t.Fatalf("error = %q", got)
	}
}
