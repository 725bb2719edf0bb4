package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/cache"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/config"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/payment"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository/repotest"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/ws"
)

const surveyBody = `{
	"title": "Team Health",
	"maxRating": 4,
	"published": true,
	"cost": "0",
	"completedMessage": "Thanks!",
	"categories": [{
		"id": "c1", "title": "Delivery",
		"subcategories": [{
			"id": "s1", "title": "Pace",
			"questions": [
				{"id": "q1", "type": "rating", "prompt": "We ship often", "required": true},
				{"id": "q2", "type": "rating", "prompt": "We are rushed", "invertRating": true},
				{"id": "q3", "type": "text", "prompt": "Anything else?"}
			]
		}]
	}]
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.Discard()
	purchaseRepo := repotest.NewPurchaseRepo()
	responseRepo := repotest.NewResponseRepo(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	authSvc := service.NewAuthService(&config.Config{StaffUsername: "staff", StaffPassword: "secret", JWTSecret: "test-secret"})
	surveySvc := service.NewSurveyService(repotest.NewSurveyRepo(), purchaseRepo, cache.NewSurveyCache(rdb, time.Minute), log)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, repotest.NewPurchaseCodeRepo(), surveySvc, payment.Complimentary{}, log)
	responseSvc := service.NewResponseService(purchaseSvc, surveySvc, responseRepo, log)
	reportSvc := service.NewReportService(purchaseSvc, surveySvc, responseRepo, repotest.NewReportRepo(purchaseRepo),
		cache.NewReportCache(rdb, time.Minute), log)

	hub := ws.NewHub(log)
	responseSvc.SetBroadcaster(hub)
	reportSvc.SetBroadcaster(hub)

	return NewRouter(&Container{
		AuthService:     authSvc,
		SurveyService:   surveySvc,
		PurchaseService: purchaseSvc,
		ResponseService: responseSvc,
		ReportService:   reportSvc,
		WSHub:           hub,
		AllowedOrigins:  []string{"*"},
		Logger:          log,
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

func staffToken(t *testing.T, h http.Handler) string {
	rec := do(t, h, "POST", "/v1/auth/login", "", `{"username":"staff","password":"secret"}`)
	expectStatus(t, rec, http.StatusOK)
	var resp struct{ Token string }
	decode(t, rec, &resp)
	return resp.Token
}

func guestToken(t *testing.T, h http.Handler, email string) string {
	rec := do(t, h, "POST", "/v1/auth/guest", "", `{"email":"`+email+`","firstName":"Ada"}`)
	expectStatus(t, rec, http.StatusCreated)
	var resp struct{ Token string }
	decode(t, rec, &resp)
	return resp.Token
}

// setup creates the test survey and buys it as a fresh guest
func setup(t *testing.T, h http.Handler) (user, publicID string) {
	t.Helper()
	staff := staffToken(t, h)
	expectStatus(t, do(t, h, "POST", "/v1/surveys", staff, surveyBody), http.StatusCreated)

	user = guestToken(t, h, "ada@example.com")
	rec := do(t, h, "POST", "/v1/catalog/team-health/purchase", user, `{}`)
	expectStatus(t, rec, http.StatusCreated)
	var p struct{ PublicID string }
	decode(t, rec, &p)
	return user, p.PublicID
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)
	expectStatus(t, do(t, h, "GET", "/health", "", ""), http.StatusOK)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestRouter(t)
	expectStatus(t, do(t, h, "POST", "/v1/auth/login", "", `{"username":"staff","password":"nope"}`), http.StatusUnauthorized)
	expectStatus(t, do(t, h, "POST", "/v1/auth/login", "", `not json`), http.StatusBadRequest)
}

func TestStaffRoutesRequireStaffToken(t *testing.T) {
	h := newTestRouter(t)
	expectStatus(t, do(t, h, "GET", "/v1/surveys", "", ""), http.StatusUnauthorized)

	user := guestToken(t, h, "ada@example.com")
	expectStatus(t, do(t, h, "GET", "/v1/surveys", user, ""), http.StatusUnauthorized)

	staff := staffToken(t, h)
	expectStatus(t, do(t, h, "GET", "/v1/surveys", staff, ""), http.StatusOK)
	expectStatus(t, do(t, h, "GET", "/v1/purchases", staff, ""), http.StatusUnauthorized)
}

func TestCreateSurveyValidationErrors(t *testing.T) {
	h := newTestRouter(t)
	staff := staffToken(t, h)

	rec := do(t, h, "POST", "/v1/surveys", staff, `{"title":"","maxRating":20}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	decode(t, rec, &body)
	if len(body.Errors["title"]) != 1 || len(body.Errors["maxRating"]) != 1 {
		t.Fatalf("errors = %v", body.Errors)
	}
}

func TestCatalog(t *testing.T) {
	h := newTestRouter(t)
	staff := staffToken(t, h)
	draft := strings.Replace(surveyBody, `"published": true`, `"published": false`, 1)
	expectStatus(t, do(t, h, "POST", "/v1/surveys", staff, draft), http.StatusCreated)

	expectStatus(t, do(t, h, "GET", "/v1/catalog/team-health", "", ""), http.StatusNotFound)
	expectStatus(t, do(t, h, "GET", "/v1/catalog/team-health", staff, ""), http.StatusOK)

	var list struct{ Surveys []interface{} }
	decode(t, do(t, h, "GET", "/v1/catalog", "", ""), &list)
	if len(list.Surveys) != 0 {
		t.Fatalf("catalog lists %d unpublished surveys", len(list.Surveys))
	}
}

func TestPurchaseCodes(t *testing.T) {
	h := newTestRouter(t)
	staff := staffToken(t, h)
	rec := do(t, h, "POST", "/v1/surveys", staff, surveyBody)
	expectStatus(t, rec, http.StatusCreated)
	var survey struct{ ID string }
	decode(t, rec, &survey)

	expectStatus(t, do(t, h, "POST", "/v1/surveys/"+survey.ID+"/codes", staff, `{"code":"TEAM","usesRemaining":1}`), http.StatusCreated)

	user := guestToken(t, h, "ada@example.com")
	expectStatus(t, do(t, h, "POST", "/v1/catalog/team-health/purchase", user, `{"purchaseCode":"TEAM"}`), http.StatusCreated)

	rec = do(t, h, "POST", "/v1/catalog/team-health/purchase", user, `{"purchaseCode":"TEAM"}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	decode(t, rec, &body)
	if body.Errors[""][0] != service.MsgCodeInvalid {
		t.Fatalf("errors = %v", body.Errors)
	}
}

func TestTakeAndReport(t *testing.T) {
	h := newTestRouter(t)
	user, publicID := setup(t, h)

	rec := do(t, h, "GET", "/v1/take/"+publicID, "", "")
	expectStatus(t, rec, http.StatusOK)
	var form struct {
		Fields []struct{ Key string }
	}
	decode(t, rec, &form)
	if len(form.Fields) != 3 {
		t.Fatalf("fields = %+v", form.Fields)
	}

	expectStatus(t, do(t, h, "POST", "/v1/take/"+publicID, "", `{"question_q1":""}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, h, "POST", "/v1/take/"+publicID, "", `{"question_q1":4,"question_q2":"4","question_q3":"Good"}`), http.StatusCreated)

	form2 := url.Values{"question_q1": {"2"}, "question_q2": {"1"}, "question_q3": {""}}
	req := httptest.NewRequest("POST", "/v1/take/"+publicID, strings.NewReader(form2.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated)

	var done struct{ Message string }
	decode(t, do(t, h, "GET", "/v1/take/"+publicID+"/complete", "", ""), &done)
	if done.Message != "Thanks!" {
		t.Fatalf("complete message = %q", done.Message)
	}

	// Nothing generated yet
	rec = do(t, h, "GET", "/v1/reports/"+publicID, user, "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"report":null`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
	expectStatus(t, do(t, h, "GET", "/v1/reports/"+publicID+"/export.xlsx", user, ""), http.StatusConflict)

	rec = do(t, h, "POST", "/v1/reports/"+publicID, user, "")
	expectStatus(t, rec, http.StatusOK)
	var envelope struct {
		Report struct {
			Rating struct {
				Count   int
				Average float64
			}
			TextQuestions []struct{ Responses []string } `json:"text_questions"`
		}
	}
	decode(t, rec, &envelope)
	// q1: 4, 2; q2 inverted: 4->1, 1->4
	if envelope.Report.Rating.Count != 4 || envelope.Report.Rating.Average != 2.75 {
		t.Fatalf("rating = %+v", envelope.Report.Rating)
	}
	if got := envelope.Report.TextQuestions[0].Responses; len(got) != 2 || got[0] != "Good" || got[1] != "" {
		t.Fatalf("text responses = %q", got)
	}

	rec = do(t, h, "GET", "/v1/reports/"+publicID+"/export.xlsx", user, "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %s", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatal("export is not a zip container")
	}

	var list struct {
		Purchases []struct{ PublicID string }
	}
	decode(t, do(t, h, "GET", "/v1/purchases?status=closed", user, ""), &list)
	if len(list.Purchases) != 1 || list.Purchases[0].PublicID != publicID {
		t.Fatalf("closed purchases = %+v", list.Purchases)
	}
}

func TestReportOwnerOnly(t *testing.T) {
	h := newTestRouter(t)
	_, publicID := setup(t, h)
	stranger := guestToken(t, h, "eve@example.com")

	expectStatus(t, do(t, h, "GET", "/v1/reports/"+publicID, stranger, ""), http.StatusForbidden)
	expectStatus(t, do(t, h, "POST", "/v1/reports/"+publicID, stranger, ""), http.StatusForbidden)
	expectStatus(t, do(t, h, "GET", "/v1/purchases/"+publicID, stranger, ""), http.StatusForbidden)
	expectStatus(t, do(t, h, "GET", "/v1/reports/missing", stranger, ""), http.StatusNotFound)
	expectStatus(t, do(t, h, "GET", "/v1/purchases?status=pending", stranger, ""), http.StatusUnprocessableEntity)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest("OPTIONS", "/v1/surveys", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("headers = %v", rec.Header())
	}
}

func TestPurchaseFeed(t *testing.T) {
	h := newTestRouter(t)
	user, publicID := setup(t, h)
	stranger := guestToken(t, h, "eve@example.com")

	srv := httptest.NewServer(h)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/purchases/" + publicID

	if _, resp, err := websocket.DefaultDialer.Dial(base+"?token="+stranger, nil); err == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger dial: err = %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+user, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != ws.MsgConnected {
		t.Fatalf("first message = %+v, err = %v", msg, err)
	}

	expectStatus(t, do(t, h, "POST", "/v1/take/"+publicID, "", `{"question_q1":"3"}`), http.StatusCreated)

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != service.EventResponseSubmitted {
		t.Fatalf("event = %s", msg.Type)
	}
	var payload struct{ Responses int }
	json.Unmarshal(msg.Payload, &payload)
	if payload.Responses != 1 {
		t.Fatalf("payload = %s", msg.Payload)
	}
}
