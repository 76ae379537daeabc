package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/devicehub/internal/domain/user"
	"github.com/geocoder89/devicehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// a minimal endpoint that only binds, so the error envelope can be
// asserted in isolation
func bindOnlyRouter() *gin.Engine {
	r := gin.New()

	r.POST("/bind", func(c *gin.Context) {
		var req user.CreateUserRequest
		if !handlers.BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	return r
}

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string `json:"json"`
			Fields []struct {
				Field   string `json:"field"`
				Rule    string `json:"rule"`
				Message string `json:"message"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func postBind(t *testing.T, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	t.Helper()

	r := bindOnlyRouter()

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if w.Code != http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v (%s)", err, w.Body.String())
		}
	}

	return w, resp
}

func TestBindJSONValid(t *testing.T) {
	w, _ := postBind(t, `{"name": "Alice", "email": "alice@example.com", "password": "supersecret"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestBindJSONReportsJSONFieldNames(t *testing.T) {
	w, resp := postBind(t, `{"name": "Alice", "email": "nope", "password": "supersecret"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("got code %q, want %q", resp.Error.Code, "invalid_request")
	}

	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("got %d field errors, want 1: %+v", len(resp.Error.Details.Fields), resp.Error.Details.Fields)
	}

	fe := resp.Error.Details.Fields[0]

	// the client sent "email", not "Email"
	if fe.Field != "email" {
		t.Fatalf("got field %q, want %q", fe.Field, "email")
	}
	if fe.Rule != "email" {
		t.Fatalf("got rule %q, want %q", fe.Rule, "email")
	}
	if fe.Message != "must be a valid email address" {
		t.Fatalf("got message %q", fe.Message)
	}
}

func TestBindJSONCollectsAllViolations(t *testing.T) {
	w, resp := postBind(t, `{"name": "A", "email": "nope", "password": "short"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}

	if len(resp.Error.Details.Fields) != 3 {
		t.Fatalf("got %d field errors, want 3: %+v", len(resp.Error.Details.Fields), resp.Error.Details.Fields)
	}
}

func TestBindJSONSyntaxError(t *testing.T) {
	w, resp := postBind(t, `{"name": "Alice",`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
	if resp.Error.Details.JSON != "invalid_json_syntax" {
		t.Fatalf("got json detail %q, want %q", resp.Error.Details.JSON, "invalid_json_syntax")
	}
}

func TestBindJSONTypeMismatch(t *testing.T) {
	w, resp := postBind(t, `{"name": 42, "email": "alice@example.com", "password": "supersecret"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("got json detail %q, want %q", resp.Error.Details.JSON, "invalid_json_type")
	}
	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "name" {
		t.Fatalf("unexpected fields: %+v", resp.Error.Details.Fields)
	}
}
