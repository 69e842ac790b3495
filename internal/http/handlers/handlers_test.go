package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taxibot/internal/domain"
	"taxibot/internal/http/middleware"
	"taxibot/internal/repositories"
	"taxibot/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newAdmin(t *testing.T) (services.AdminService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return services.AdminService{
		Trips:    repositories.TripRepository{DB: db},
		Bookings: repositories.BookingRepository{DB: db},
		Users:    repositories.UserRepository{DB: db},
		Capacity: 4,
	}, mock
}

func TestRespondDomainErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ValidationError{Field: "date"}, http.StatusBadRequest},
		{domain.NotFoundError{Resource: "trip"}, http.StatusNotFound},
		{domain.ErrSeatsExhausted, http.StatusConflict},
		{domain.StoreError("list trips", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := gin.New()
		r.Use(middleware.RequestID())
		r.GET("/x", func(c *gin.Context) { RespondDomainError(c, tc.err) })
		if w := perform(r, http.MethodGet, "/x", "", nil); w.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, w.Code)
		}
	}
}

func TestCreateTripValidatesPayload(t *testing.T) {
	admin, mock := newAdmin(t)
	r := gin.New()
	r.POST("/trips", CreateTrip(admin))

	if w := perform(r, http.MethodPost, "/trips", `{"direction":"to_moscow","date":"2024-05-01"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad direction: expected 400, got %d", w.Code)
	}
	if w := perform(r, http.MethodPost, "/trips", `{"direction":"to_ufa","date":"01.05.2024"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", w.Code)
	}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM trips").WithArgs("to_ufa", "2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	if w := perform(r, http.MethodPost, "/trips", `{"direction":"to_ufa","date":"2024-05-01"}`, nil); w.Code != http.StatusConflict {
		t.Fatalf("duplicate trip: expected 409, got %d", w.Code)
	}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM trips").WithArgs("to_ufa", "2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("INSERT INTO trips").WithArgs("to_ufa", "2024-05-01").WillReturnResult(sqlmock.NewResult(42, 1))
	w := perform(r, http.MethodPost, "/trips", `{"direction":"to_ufa","date":"2024-05-01"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var got tripResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 42 || got.Available != 4 || got.Label != "В Уфу" {
		t.Fatalf("unexpected trip %+v", got)
	}
}

func TestListTripsShowsAvailability(t *testing.T) {
	admin, mock := newAdmin(t)
	r := gin.New()
	r.GET("/trips", ListTrips(admin))

	mock.ExpectQuery("FROM trips ORDER BY trip_date").
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_type", "trip_date", "passengers"}).
			AddRow(42, "to_ufa", "2024-05-01", "1,2"))
	w := perform(r, http.MethodGet, "/trips", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Trips []tripResponse `json:"trips"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Trips) != 1 || body.Trips[0].Available != 2 {
		t.Fatalf("unexpected trips %+v", body.Trips)
	}
}

func TestDeleteTripNotFound(t *testing.T) {
	admin, mock := newAdmin(t)
	r := gin.New()
	r.DELETE("/trips/:id", DeleteTrip(admin))

	if w := perform(r, http.MethodDelete, "/trips/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
	mock.ExpectExec("DELETE FROM trips").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	if w := perform(r, http.MethodDelete, "/trips/5", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	secret := []byte("jwt-secret")
	r := gin.New()
	r.POST("/login", Login(string(hash), secret))

	if w := perform(r, http.MethodPost, "/login", `{"password":"wrong"}`, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", w.Code)
	}
	w := perform(r, http.MethodPost, "/login", `{"password":"s3cret"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := middleware.ParseToken(secret, body.Token)
	if err != nil || claims.Role != middleware.RoleAdmin {
		t.Fatalf("issued token invalid: %+v, %v", claims, err)
	}
}

type recordingQueue struct {
	updates []tgbotapi.Update
	full    bool
}

func (q *recordingQueue) Submit(u tgbotapi.Update) bool {
	if q.full {
		return false
	}
	q.updates = append(q.updates, u)
	return true
}

func TestTelegramWebhookChecksSecret(t *testing.T) {
	rec := &recordingQueue{}
	r := gin.New()
	r.POST("/webhook", TelegramWebhook("hook-secret", rec))
	body := `{"update_id":10,"message":{"message_id":1,"date":0,"chat":{"id":7,"type":"private"},"from":{"id":7,"is_bot":false,"first_name":"A"},"text":"Main St 5"}}`

	if w := perform(r, http.MethodPost, "/webhook", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret: expected 401, got %d", w.Code)
	}
	if w := perform(r, http.MethodPost, "/webhook", body, map[string]string{TelegramSecretHeader: "nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected 401, got %d", w.Code)
	}
	if len(rec.updates) != 0 {
		t.Fatalf("rejected updates must not be handled")
	}

	w := perform(r, http.MethodPost, "/webhook", body, map[string]string{TelegramSecretHeader: "hook-secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(rec.updates) != 1 || rec.updates[0].UpdateID != 10 || rec.updates[0].Message.Text != "Main St 5" {
		t.Fatalf("unexpected handled updates %+v", rec.updates)
	}

	rec.full = true
	if w := perform(r, http.MethodPost, "/webhook", body, map[string]string{TelegramSecretHeader: "hook-secret"}); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("full queue: expected 503, got %d", w.Code)
	}
}
