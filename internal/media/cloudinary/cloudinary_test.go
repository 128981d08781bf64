package cloudinary_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/webtrio/webfolio/internal/krypto"
	"github.com/webtrio/webfolio/internal/media/cloudinary"
)

func Test_Uploader_Upload(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ok", func(t *testing.T) {
		var gotPath string
		var gotForm map[string]string
		var gotFile []byte

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path

			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart form: %v", err)
			}

			gotForm = make(map[string]string)
			for k, vs := range r.MultipartForm.Value {
				gotForm[k] = vs[0]
			}

			f, _, err := r.FormFile("file")
			if err != nil {
				t.Errorf("failed to read form file: %v", err)
			} else {
				gotFile, _ = io.ReadAll(f)
				f.Close()
			}

			fmt.Fprint(w, `{"secure_url":"https://res.example.com/demo/abc.jpg","public_id":"web/abc"}`)
		}))
		defer srv.Close()

		u := cloudinary.NewUploader(srv.Client(), cloudinary.Settings{
			CloudName: "demo",
			APIKey:    "key123",
			APISecret: krypto.NewSecret("shhh"),
			Folder:    "web",
			BaseURL:   srv.URL,
		})
		u.NowFunc = func() time.Time {
			return now
		}

		got, err := u.Upload(context.Background(), "photo.jpg", strings.NewReader("fake image bytes"))
		if err != nil {
			t.Fatalf("failed to upload: %v", err)
		}

		if got.URL != "https://res.example.com/demo/abc.jpg" {
			t.Errorf("got url %q", got.URL)
		}
		if got.PublicID != "web/abc" {
			t.Errorf("got public id %q", got.PublicID)
		}

		if gotPath != "/v1_1/demo/auto/upload" {
			t.Errorf("got path %q", gotPath)
		}
		if string(gotFile) != "fake image bytes" {
			t.Errorf("got file %q", gotFile)
		}
		if gotForm["api_key"] != "key123" {
			t.Errorf("got api_key %q", gotForm["api_key"])
		}
		if gotForm["folder"] != "web" {
			t.Errorf("got folder %q", gotForm["folder"])
		}
		if gotForm["timestamp"] != "1740830400" {
			t.Errorf("got timestamp %q", gotForm["timestamp"])
		}
		if gotForm["public_id"] == "" {
			t.Errorf("wanted non-empty public_id")
		}

		// Recompute the signature over the signed params.
		signed := fmt.Sprintf("folder=%s&public_id=%s&timestamp=%s",
			gotForm["folder"], gotForm["public_id"], gotForm["timestamp"])
		sum := sha1.Sum([]byte(signed + "shhh"))
		if want := hex.EncodeToString(sum[:]); gotForm["signature"] != want {
			t.Errorf("got signature %q, want %q", gotForm["signature"], want)
		}
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"Invalid signature"}}`)
		}))
		defer srv.Close()

		u := cloudinary.NewUploader(srv.Client(), cloudinary.Settings{
			CloudName: "demo",
			APIKey:    "key123",
			APISecret: krypto.NewSecret("shhh"),
			BaseURL:   srv.URL,
		})

		_, err := u.Upload(context.Background(), "photo.jpg", strings.NewReader("x"))
		if err == nil || !strings.Contains(err.Error(), "Invalid signature") {
			t.Fatalf("wanted upload rejected error, got %v", err)
		}
	})
}
