package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/playtube/backend/internal/auth"
	"github.com/playtube/backend/internal/models"
)

func authedRequest(method, target string, body *bytes.Reader, user models.User) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	sanitized := user
	sanitized.Password = ""
	sanitized.RefreshToken = ""
	return req.WithContext(auth.WithUser(req.Context(), sanitized))
}

func TestCurrentUser(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store}

	req := authedRequest(http.MethodGet, "/api/v1/users/getuser", nil, user)
	rec := httptest.NewRecorder()

	handler.CurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	envelope := decodeEnvelope(t, rec)
	data, _ := envelope["data"].(map[string]any)
	if data["username"] != "alice" {
		t.Fatalf("expected current user alice, got %v", data["username"])
	}
	if _, exists := data["password"]; exists {
		t.Fatal("current user payload must not contain a password field")
	}
}

func TestChangePasswordRequiresBothFields(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store}

	for _, payload := range []string{
		`{}`,
		`{"oldPassword":"password123"}`,
		`{"newPassword":"fresh-pass"}`,
	} {
		body := bytes.NewReader([]byte(payload))
		req := authedRequest(http.MethodPost, "/api/v1/users/change-password", body, user)
		rec := httptest.NewRecorder()

		handler.ChangePassword(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %s: expected status %d got %d", payload, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store}

	body, _ := json.Marshal(changePasswordRequest{OldPassword: "wrong", NewPassword: "fresh-pass"})
	req := authedRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body), user)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestChangePasswordSuccess(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store}

	body, _ := json.Marshal(changePasswordRequest{OldPassword: "password123", NewPassword: "fresh-pass"})
	req := authedRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body), user)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("fresh-pass")) != nil {
		t.Fatal("expected new password to be stored hashed")
	}
}

func TestUpdateDetailsRequiresPassword(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store}

	body, _ := json.Marshal(updateDetailsRequest{FullName: "Alice Cooper"})
	req := authedRequest(http.MethodPatch, "/api/v1/users/update-details", bytes.NewReader(body), user)
	rec := httptest.NewRecorder()

	handler.UpdateDetails(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateDetailsPartialUpdate(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store}

	body, _ := json.Marshal(updateDetailsRequest{FullName: "Alice Cooper", OldPassword: "password123"})
	req := authedRequest(http.MethodPatch, "/api/v1/users/update-details", bytes.NewReader(body), user)
	rec := httptest.NewRecorder()

	handler.UpdateDetails(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.FullName != "Alice Cooper" {
		t.Fatalf("expected full name update, got %q", stored.FullName)
	}
	if stored.Email != "a@x.com" {
		t.Fatalf("email must be unchanged, got %q", stored.Email)
	}
}

func TestUpdateDetailsWrongPassword(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store}

	body, _ := json.Marshal(updateDetailsRequest{Email: "new@x.com", OldPassword: "wrong"})
	req := authedRequest(http.MethodPatch, "/api/v1/users/update-details", bytes.NewReader(body), user)
	rec := httptest.NewRecorder()

	handler.UpdateDetails(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestUpdateAvatar(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	media := &fakeMedia{}
	handler := UserHandler{Users: store, Media: media}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("avatar", "new-face.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("new image")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	writer.Close()

	req := authedRequest(http.MethodPatch, "/api/v1/users/update-avatar", bytes.NewReader(body.Bytes()), user)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.Avatar != "https://media.test/avatars/new-face.png" {
		t.Fatalf("expected avatar URL to be updated, got %q", stored.Avatar)
	}
}

func TestUpdateAvatarMissingFile(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store, Media: &fakeMedia{}}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.Close()

	req := authedRequest(http.MethodPatch, "/api/v1/users/update-avatar", bytes.NewReader(body.Bytes()), user)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateCoverImageUploadFailure(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "alice", "a@x.com", "password123")
	handler := UserHandler{Users: store, Media: &fakeMedia{fail: true}}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("coverImage", "cover.png")
	part.Write([]byte("cover bytes"))
	writer.Close()

	req := authedRequest(http.MethodPatch, "/api/v1/users/update-coverimage", bytes.NewReader(body.Bytes()), user)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.UpdateCoverImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.CoverImage != "" {
		t.Fatal("cover image must be unchanged after a failed upload")
	}
}
