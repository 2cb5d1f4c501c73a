package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"barber-booking/internal/models"
)

func TestNewBrevoClientDisabledWithoutKey(t *testing.T) {
	if c := NewBrevoClient("", "shop@example.com", "Shop", "Shop", false); c != nil {
		t.Fatalf("expected nil client without api key")
	}
	if c := NewBrevoClient("key", "", "Shop", "Shop", false); c != nil {
		t.Fatalf("expected nil client without sender")
	}
}

func TestSendVerificationCode(t *testing.T) {
	var got brevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc@brevo>"}`))
	}))
	defer srv.Close()

	c := NewBrevoClient("secret", "shop@example.com", "Shop", "Barber Shop", true).WithEndpoint(srv.URL)
	id, err := c.SendVerificationCode(context.Background(), models.ClientSnapshot{Name: "Ana", Email: "ana@example.com"}, "123456", "b1")
	if err != nil {
		t.Fatalf("SendVerificationCode error: %v", err)
	}
	if id != "<abc@brevo>" {
		t.Fatalf("unexpected message id %q", id)
	}
	if apiKey != "secret" {
		t.Fatalf("expected api-key header")
	}
	if len(got.To) != 1 || got.To[0].Email != "ana@example.com" {
		t.Fatalf("unexpected recipients: %+v", got.To)
	}
	if !strings.Contains(got.HtmlContent, "123456") || !strings.Contains(got.HtmlContent, "Barber Shop") {
		t.Fatalf("code or shop missing from body: %s", got.HtmlContent)
	}
	if got.Headers["X-Sib-Sandbox"] != "drop" {
		t.Fatalf("expected sandbox header")
	}
}

func TestSendConfirmationFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter"}`))
	}))
	defer srv.Close()

	c := NewBrevoClient("secret", "shop@example.com", "Shop", "Shop", false).WithEndpoint(srv.URL)
	_, err := c.SendConfirmation(context.Background(), models.Booking{ID: "b1", Client: models.ClientSnapshot{Email: "ana@example.com"}})
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestRenderRejectionEscapesReason(t *testing.T) {
	body, err := renderRejection("Shop", models.Booking{ServiceName: "Tuns", Date: "2026-03-03", Time: "14:00"}, "<script>x</script>")
	if err != nil {
		t.Fatalf("renderRejection error: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("reason must be html escaped: %s", body)
	}
	if !strings.Contains(body, "Tuns") {
		t.Fatalf("service name missing: %s", body)
	}
}
