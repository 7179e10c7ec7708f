package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bloomelein/m/domain"
	"bloomelein/m/internal/api"
	"bloomelein/m/internal/catalog"
	"bloomelein/m/internal/database"
	"bloomelein/m/internal/draft"
	"bloomelein/m/internal/migrations"
	"bloomelein/m/internal/receipt"
)

var (
	myt      = time.FixedZone("MYT", 8*60*60)
	fixedNow = time.Date(2025, 5, 1, 11, 0, 0, 0, myt)
)

type testEnv struct {
	srv     *httptest.Server
	counter *receipt.Counter
}

func setup(t *testing.T, limiter *api.StaffRateLimiter) *testEnv {
	t.Helper()
	profile, err := catalog.Load("")
	require.NoError(t, err)
	return setupWithProfile(t, limiter, profile)
}

func setupWithProfile(t *testing.T, limiter *api.StaffRateLimiter, profile *catalog.Profile) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	store := database.NewStore(db)
	for _, s := range []domain.Staff{
		{Username: "karen", DisplayName: "KAREN KONG KAR YAN"},
		{Username: "junchee", DisplayName: "YEW JUN CHEE"},
	} {
		hashed, err := bcrypt.GenerateFromPassword([]byte("petals"), bcrypt.MinCost)
		require.NoError(t, err)
		s.Password = string(hashed)
		_, err = store.CreateStaff(context.Background(), s)
		require.NoError(t, err)
	}

	counter := receipt.NewCounter(myt, store)

	h := api.New(api.Deps{
		Staff:    store,
		Secret:   "test-secret",
		Profile:  profile,
		Composer: receipt.NewComposer(counter, profile.Layout()),
		Drafts:   draft.NewMemoryStore(time.Hour),
		Limiter:  limiter,
		Now:      func() time.Time { return fixedNow },
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, counter: counter}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	status, body := e.do(t, "POST", "/auth/login", "", map[string]string{"username": username, "password": "petals"})
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func sampleOrder() map[string]any {
	return map[string]any{
		"customer_name":    "Aisyah",
		"customer_address": "12 Jalan Bunga",
		"customer_phone":   "012-3456789",
		"items": []map[string]any{
			{"description": "Rose", "price": "10.00"},
			{"description": "Vase", "price": 5.5},
		},
		"delivery": "FOC Delivery",
	}
}

func TestHealth(t *testing.T) {
	env := setup(t, nil)
	status, body := env.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestProfile(t *testing.T) {
	env := setup(t, nil)
	status, body := env.do(t, "GET", "/profile", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bloomelein", body["shop_name"])
}

func TestLogin(t *testing.T) {
	env := setup(t, nil)

	status, _ := env.do(t, "POST", "/auth/login", "", map[string]string{"username": "karen", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, "POST", "/auth/login", "", map[string]string{"username": "nobody", "password": "petals"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, "POST", "/auth/login", "", map[string]string{"username": "karen"})
	assert.Equal(t, http.StatusBadRequest, status)

	token := env.login(t, "KAREN")
	status, body := env.do(t, "GET", "/staff", token, nil)
	assert.Equal(t, http.StatusOK, status, body)
}

func TestReceiptsRequireAuth(t *testing.T) {
	env := setup(t, nil)
	status, _ := env.do(t, "POST", "/receipts", "", sampleOrder())
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, "POST", "/receipts", "not-a-token", sampleOrder())
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateReceipt(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	status, body := env.do(t, "POST", "/receipts", token, sampleOrder())
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "250501-001", body["receipt_no"])
	totals := body["totals"].(map[string]any)
	assert.Equal(t, "15.50", totals["subtotal"])
	assert.Equal(t, "0.00", totals["delivery"])
	assert.Equal(t, "15.50", totals["total"])

	text := body["text"].(string)
	assert.Contains(t, text, "*Date:* May 01, 2025\n")
	assert.Contains(t, text, "WhatsApp Contact: https://wa.me/60123456789\n")
	assert.Contains(t, text, "Delivery Charges: FOC\n")
	assert.Contains(t, text, "*Total:* RM 15.50\n")
	assert.Contains(t, text, "*Payment Method:* TnG\n")
	assert.Contains(t, text, "*Paid to:* KAREN KONG KAR YAN\n")
	assert.Empty(t, body["warnings"])

	status, body = env.do(t, "POST", "/receipts", token, sampleOrder())
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "250501-002", body["receipt_no"])
}

func TestCreateReceiptValidation(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	order := sampleOrder()
	order["customer_name"] = ""
	order["customer_address"] = ""
	order["customer_phone"] = "12"
	order["items"] = []map[string]any{}

	status, body := env.do(t, "POST", "/receipts", token, order)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid order", body["error"])
	assert.Len(t, body["details"], 4)

	state, err := env.counter.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, receipt.CounterState{}, state)

	status, body = env.do(t, "POST", "/receipts", token, sampleOrder())
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "250501-001", body["receipt_no"])
}

func TestCreateReceiptRecoversBadInputs(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	order := sampleOrder()
	order["delivery"] = "Delivery"
	order["delivery_charge"] = "-5"
	order["items"] = []map[string]any{
		{"description": "Rose", "price": "N/A"},
		{"description": "Vase", "price": "5.50"},
	}
	order["payment"] = "Others"
	order["payment_other"] = "DuitNow"
	order["pic"] = "YEW JUN CHEE"

	status, body := env.do(t, "POST", "/receipts", token, order)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Len(t, body["warnings"], 2)

	text := body["text"].(string)
	assert.Contains(t, text, "•  Rose\n   Price: Error - Invalid Price (N/A)\n")
	assert.Contains(t, text, "*Delivery Method:* Delivery\nDelivery Charges: FOC\n")
	assert.Contains(t, text, "*Total:* RM 5.50\n")
	assert.Contains(t, text, "*Payment Method:* DuitNow\n")
	assert.Contains(t, text, "*Paid to:* YEW JUN CHEE\n")
}

func TestCreateReceiptChargedDelivery(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	order := sampleOrder()
	order["delivery"] = "Delivery (Grab/Lalamove)"
	order["delivery_charge"] = 12

	status, body := env.do(t, "POST", "/receipts", token, order)
	require.Equal(t, http.StatusCreated, status, body)
	text := body["text"].(string)
	assert.Contains(t, text, "Delivery Charges: RM12.00\n")
	assert.Contains(t, text, "*Total:* RM 27.50\n")
}

func TestCreateReceiptRejectsUnknownOptions(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	for field, value := range map[string]string{"delivery": "Drone", "payment": "Bitcoin", "pic": "Stranger"} {
		order := sampleOrder()
		order[field] = value
		status, _ := env.do(t, "POST", "/receipts", token, order)
		assert.Equal(t, http.StatusBadRequest, status, field)
	}

	order := sampleOrder()
	order["surprise"] = true
	status, _ := env.do(t, "POST", "/receipts", token, order)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDraftFlow(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	status, body := env.do(t, "POST", "/drafts", token, nil)
	require.Equal(t, http.StatusCreated, status, body)
	id := body["id"].(string)
	assert.Equal(t, "FOC Delivery", body["delivery"])
	assert.Nil(t, body["pic"])
	base := "/drafts/" + id

	status, body = env.do(t, "PUT", base, token, map[string]any{
		"customer_name":    "Aisyah",
		"customer_address": "12 Jalan Bunga",
		"customer_phone":   "0123456789",
		"delivery":         "Delivery",
		"delivery_charge":  "8",
		"payment":          "Bank Account",
		"pic":              "KAREN KONG KAR YAN",
	})
	require.Equal(t, http.StatusOK, status, body)

	for _, item := range []map[string]any{
		{"description": "Rose", "price": 10},
		{"description": "Vase", "price": "5.50"},
		{"description": "Mistake", "price": "1"},
	} {
		status, body = env.do(t, "POST", base+"/items", token, item)
		require.Equal(t, http.StatusCreated, status, body)
	}
	assert.Len(t, body["items"], 3)

	status, body = env.do(t, "POST", base+"/items", token, map[string]any{"description": "Bad", "price": "abc"})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, body = env.do(t, "DELETE", base+"/items/last", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["items"], 2)

	status, body = env.do(t, "POST", base+"/receipt", token, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "250501-001", body["receipt_no"])
	text := body["text"].(string)
	assert.Contains(t, text, "Delivery Charges: RM8.00\n")
	assert.Contains(t, text, "*Total:* RM 23.50\n")
	assert.Contains(t, text, "*Payment Method:* Bank Account (19851039946 Yew Jun Chee)\n")
	assert.NotContains(t, text, "Mistake")

	status, body = env.do(t, "DELETE", base+"/items", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Empty(t, body["items"])

	status, _ = env.do(t, "DELETE", base+"/items/last", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, "POST", base+"/receipt", token, nil)
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, _ = env.do(t, "DELETE", base, token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, "GET", base, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDraftAndDirectReceiptsShareStaffFallback(t *testing.T) {
	profile, err := catalog.Load("")
	require.NoError(t, err)
	profile.PICs = []string{"LEE JIA YIN"}
	env := setupWithProfile(t, nil, profile)
	token := env.login(t, "karen")

	status, body := env.do(t, "POST", "/receipts", token, sampleOrder())
	require.Equal(t, http.StatusCreated, status, body)
	assert.Contains(t, body["text"].(string), "*Paid to:* KAREN KONG KAR YAN\n")

	status, body = env.do(t, "POST", "/drafts", token, nil)
	require.Equal(t, http.StatusCreated, status, body)
	base := "/drafts/" + body["id"].(string)

	order := sampleOrder()
	delete(order, "items")
	status, body = env.do(t, "PUT", base, token, order)
	require.Equal(t, http.StatusOK, status, body)
	status, body = env.do(t, "POST", base+"/items", token, map[string]any{"description": "Rose", "price": "10"})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = env.do(t, "POST", base+"/receipt", token, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "250501-002", body["receipt_no"])
	assert.Contains(t, body["text"].(string), "*Paid to:* KAREN KONG KAR YAN\n")
}

func TestAddDraftItemRejectsExponentPrice(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	status, body := env.do(t, "POST", "/drafts", token, nil)
	require.Equal(t, http.StatusCreated, status, body)
	base := "/drafts/" + body["id"].(string)

	status, body = env.do(t, "POST", base+"/items", token, map[string]any{"description": "Rose", "price": "1e50000000"})
	assert.Equal(t, http.StatusBadRequest, status, body)
	status, body = env.do(t, "POST", base+"/items", token, map[string]any{"description": "Rose", "price": 1e300})
	assert.Equal(t, http.StatusBadRequest, status, body)
}

func TestDraftsAreScopedToOwner(t *testing.T) {
	env := setup(t, nil)
	karen := env.login(t, "karen")
	junchee := env.login(t, "junchee")

	status, body := env.do(t, "POST", "/drafts", karen, nil)
	require.Equal(t, http.StatusCreated, status)
	path := "/drafts/" + body["id"].(string)

	status, _ = env.do(t, "GET", path, junchee, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, "GET", path, karen, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, "GET", "/drafts/not-a-uuid", karen, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCounterEndpoints(t *testing.T) {
	env := setup(t, nil)
	token := env.login(t, "karen")

	status, _ := env.do(t, "POST", "/receipts", token, sampleOrder())
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(t, "GET", "/counter", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2025-05-01", body["last_reset_date"])
	assert.Equal(t, float64(1), body["sequence"])

	status, _ = env.do(t, "POST", "/counter/reset", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, "POST", "/receipts", token, sampleOrder())
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "250501-001", body["receipt_no"])
}

func TestRateLimit(t *testing.T) {
	env := setup(t, api.NewStaffRateLimiter(0.001, 1))
	token := env.login(t, "karen")

	status, _ := env.do(t, "POST", "/receipts", token, sampleOrder())
	assert.Equal(t, http.StatusCreated, status)
	status, body := env.do(t, "POST", "/receipts", token, sampleOrder())
	assert.Equal(t, http.StatusTooManyRequests, status, body)

	other := env.login(t, "junchee")
	status, _ = env.do(t, "POST", "/receipts", other, sampleOrder())
	assert.Equal(t, http.StatusCreated, status)
}
