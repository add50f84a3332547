package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/services"
	"github.com/javajoker/jingjai-backend/internal/testutil"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := i18n.Initialize(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubIdentity struct{}

func (stubIdentity) VerifyAccessToken(ctx context.Context, accessToken string) (*services.GoogleUserInfo, error) {
	return nil, services.ErrInvalidIdentityToken
}

func (stubIdentity) RevokeToken(ctx context.Context, accessToken string) error {
	return nil
}

type apiEnvelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *utils.APIError        `json:"error"`
}

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	server *Server
}

type unavailableGateway struct{}

func (unavailableGateway) Authorize(ctx context.Context, req services.AuthorizeRequest) (*services.AuthorizeResult, error) {
	return nil, services.ErrGatewayUnavailable
}

func (unavailableGateway) Refund(ctx context.Context, req services.GatewayRefundRequest) (*services.GatewayRefundResult, error) {
	return nil, services.ErrGatewayUnavailable
}

func newTestAPI(t *testing.T) *testAPI {
	return newTestAPIWithGateway(t, services.NewSimulatedGateway())
}

func newTestAPIWithGateway(t *testing.T, gateway services.PaymentGateway) *testAPI {
	t.Helper()
	db := testutil.NewTestDB(t)

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "router-test-secret", AccessTokenTTL: 1, RefreshTokenTTL: 24},
		Payment: config.PaymentConfig{
			GatewayTimeout:       time.Second,
			RetryBackoff:         time.Millisecond,
			DefaultCurrency:      "USD",
			GooglePayEnvironment: "TEST",
			GooglePayGateway:     "stripe",
		},
		Catalog: config.CatalogConfig{DefaultPageSize: 50, MaxPageSize: 100},
		RateLimit: config.RateLimitConfig{
			GeneralPerSecond: 1000, GeneralBurst: 1000,
			AuthPerMinute: 60000, AuthBurst: 1000,
			UploadPerMinute: 60000, UploadBurst: 1000,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
		I18n: config.I18nConfig{DefaultLocale: "en"},
	}

	storage, err := services.NewStorageService(config.AWSConfig{}, t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	server := Initialize(Dependencies{
		DB:       db,
		Config:   cfg,
		Gateway:  gateway,
		Identity: stubIdentity{},
		Storage:  storage,
	})
	t.Cleanup(server.PaymentService.Wait)

	return &testAPI{t: t, db: db, server: server}
}

func (a *testAPI) user(email string, userType models.UserType) (*models.User, string) {
	a.t.Helper()
	user := testutil.CreateUser(a.t, a.db, email)
	if userType != models.UserTypeCustomer {
		require.NoError(a.t, a.db.Model(user).Update("user_type", userType).Error)
		user.UserType = userType
	}
	token, err := utils.GenerateJWT(user.ID, user.Email, string(user.UserType), 1)
	require.NoError(a.t, err)
	return user, token
}

func (a *testAPI) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiEnvelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.server.Engine.ServeHTTP(w, req)

	var envelope apiEnvelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	}
	return w, envelope
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	api.server.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestCatalogNotFoundResponses(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{
		"/v1/brands/not-a-uuid",
		"/v1/brands/" + uuid.NewString(),
		"/v1/brands/" + uuid.NewString() + "/products",
		"/v1/brands/not-a-uuid/categories",
		"/v1/products/" + uuid.NewString(),
		"/v1/products/42",
	} {
		t.Run(path, func(t *testing.T) {
			w, body := api.do(http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, "NOT_FOUND", body.Error.Code)
		})
	}
}

func TestNotFoundMessageIsLocalised(t *testing.T) {
	api := newTestAPI(t)
	path := "/v1/brands/" + uuid.NewString()

	_, en := api.do(http.MethodGet, path, "", nil)
	_, zh := api.do(http.MethodGet, path, "", nil, "Accept-Language", "zh-TW,zh;q=0.9")

	require.NotNil(t, en.Error)
	require.NotNil(t, zh.Error)
	assert.Equal(t, "Brand not found", en.Error.Message)
	assert.Equal(t, "找不到品牌", zh.Error.Message)
}

func TestSearchProducts(t *testing.T) {
	api := newTestAPI(t)
	brand := testutil.CreateBrand(t, api.db, "Maison Verre", "maison-verre", true)
	testutil.CreateProduct(t, api.db, brand, "Attica", testutil.WithPrice("1200"))
	testutil.CreateProduct(t, api.db, brand, "Rocco", testutil.WithPrice("900"))

	w, body := api.do(http.MethodGet, "/v1/products/search?q=ATTICA", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body.Data["total"])
	products := body.Data["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, "Attica", products[0].(map[string]interface{})["name"])

	w, body = api.do(http.MethodGet, "/v1/products/search?min_price=1000&max_price=5000&brand_id="+brand.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body.Data["total"])

	for _, query := range []string{"min_price=abc", "brand_id=nope", "limit=0", "sort=password_hash"} {
		w, _ := api.do(http.MethodGet, "/v1/products/search?"+query, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestBrandProductsIncludesBrand(t *testing.T) {
	api := newTestAPI(t)
	brand := testutil.CreateBrand(t, api.db, "Maison Verre", "maison-verre", true)
	bags := testutil.CreateCategory(t, api.db, brand, "bags")
	testutil.CreateProduct(t, api.db, brand, "Tote", testutil.WithCategory(bags))
	testutil.CreateProduct(t, api.db, brand, "Scarf")

	w, body := api.do(http.MethodGet, "/v1/brands/"+brand.ID.String()+"/products?category=Bags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body.Data["total"])
	assert.Equal(t, "Maison Verre", body.Data["brand"].(map[string]interface{})["name"])

	w, body = api.do(http.MethodGet, "/v1/brands/"+brand.ID.String()+"/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body.Data["total"])
}

func TestPaymentFlow(t *testing.T) {
	api := newTestAPI(t)
	owner, ownerToken := api.user("owner@example.com", models.UserTypeCustomer)
	_, strangerToken := api.user("stranger@example.com", models.UserTypeCustomer)

	payload := map[string]interface{}{
		"payment_data": "tok_visa",
		"amount":       250.75,
		"currency":     "USD",
		"order_id":     "order-1",
	}

	w, _ := api.do(http.MethodPost, "/v1/payments/google-pay/payment", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := api.do(http.MethodPost, "/v1/payments/google-pay/payment", ownerToken, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body.Data["success"])
	assert.Equal(t, "succeeded", body.Data["status"])
	assert.Equal(t, 250.75, body.Data["amount"])
	txn := body.Data["transaction_id"].(string)

	w, _ = api.do(http.MethodGet, "/v1/payments/payment/"+txn, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = api.do(http.MethodGet, "/v1/payments/payment/"+txn, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, owner.ID.String(), body.Data["user_id"])

	w, _ = api.do(http.MethodGet, "/v1/payments/payment/txn_missing", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = api.do(http.MethodPost, "/v1/payments/refund/"+txn+"?amount=50.75", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "partially_refunded", body.Data["status"])
	assert.Equal(t, 50.75, body.Data["amount_refunded"])

	w, body = api.do(http.MethodPost, "/v1/payments/refund/"+txn+"?amount=200.01", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)

	w, body = api.do(http.MethodPost, "/v1/payments/refund/"+txn, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "refunded", body.Data["status"])
	assert.Equal(t, 200.0, body.Data["amount_refunded"])

	w, _ = api.do(http.MethodPost, "/v1/payments/refund/"+txn, ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentDeclineIsReportedInBody(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user("owner@example.com", models.UserTypeCustomer)

	w, body := api.do(http.MethodPost, "/v1/payments/google-pay/payment", token, map[string]interface{}{
		"payment_data": map[string]interface{}{
			"paymentMethodData": map[string]interface{}{
				"tokenizationData": map[string]interface{}{"token": services.SimulatedDeclineToken},
			},
		},
		"amount":   "99.00",
		"order_id": "order-2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, body.Data["success"])
	assert.Equal(t, "failed", body.Data["status"])
	assert.Contains(t, body.Data["message"], "card_declined")
}

func TestPaymentForAnotherUserRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	other, _ := api.user("other@example.com", models.UserTypeCustomer)
	_, customerToken := api.user("customer@example.com", models.UserTypeCustomer)
	_, adminToken := api.user("admin@example.com", models.UserTypeAdmin)

	payload := map[string]interface{}{
		"payment_data": "tok_visa",
		"amount":       10,
		"order_id":     "order-3",
		"user_id":      other.ID.String(),
	}

	w, _ := api.do(http.MethodPost, "/v1/payments/google-pay/payment", customerToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := api.do(http.MethodPost, "/v1/payments/google-pay/payment", adminToken, payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body.Data["success"])
}

func TestGooglePayConfig(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(http.MethodGet, "/v1/payments/google-pay/config", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := api.do(http.MethodGet, "/v1/payments/google-pay/config?amount=25", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TEST", body.Data["environment"])
}

func TestProfileStatsForNewUser(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user("ada@example.com", models.UserTypeCustomer)

	w, body := api.do(http.MethodGet, "/v1/profile/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, body.Data["authentications_count"])
	assert.EqualValues(t, 0, body.Data["total_spent"])
}

func TestRoleProtectedRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, customerToken := api.user("customer@example.com", models.UserTypeCustomer)
	_, adminToken := api.user("admin@example.com", models.UserTypeAdmin)

	w, _ := api.do(http.MethodGet, "/v1/admin/dashboard/stats", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := api.do(http.MethodGet, "/v1/admin/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body.Data, "stats")

	w, _ = api.do(http.MethodPost, "/v1/authentications/"+uuid.NewString()+"/complete", customerToken,
		map[string]interface{}{"authentication_result": "AUTHENTIC"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodGet, "/v1/profile/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticationWorkflow(t *testing.T) {
	api := newTestAPI(t)
	_, customerToken := api.user("customer@example.com", models.UserTypeCustomer)
	_, authenticatorToken := api.user("expert@example.com", models.UserTypeAuthenticator)

	w, body := api.do(http.MethodPost, "/v1/profile/authentications", customerToken, map[string]interface{}{
		"brand_name":   "Maison Verre",
		"product_name": "Tote",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body.Data["id"].(string)

	w, body = api.do(http.MethodPost, "/v1/authentications/"+id+"/complete", authenticatorToken, map[string]interface{}{
		"authentication_result": "AUTHENTIC",
		"cost":                  "45.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "COMPLETED", body.Data["status"])

	w, _ = api.do(http.MethodPost, "/v1/authentications/"+id+"/cancel", authenticatorToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = api.do(http.MethodGet, "/v1/profile/stats", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body.Data["authentications_count"])
	assert.EqualValues(t, 45, body.Data["total_spent"])
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "Secret123!",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Bearer", body.Data["token_type"])
	token := body.Data["access_token"].(string)

	w, body = api.do(http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", body.Data["user"].(map[string]interface{})["email"])

	w, _ = api.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"name":     "Ada",
		"email":    "ADA@example.com",
		"password": "Secret123!",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = api.do(http.MethodPost, "/v1/auth/login", "", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(http.MethodPost, "/v1/auth/google", "", map[string]interface{}{
		"provider":    "google",
		"providerId":  "g-1",
		"email":       "ada@example.com",
		"name":        "Ada",
		"accessToken": "ya29.bad",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOversizedDecimalsAreRejected(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user("owner@example.com", models.UserTypeCustomer)

	for _, path := range []string{
		"/v1/payments/google-pay/config?amount=1e-200000000",
		"/v1/payments/google-pay/config?amount=1e99999999",
		"/v1/products/search?min_price=1e99999999",
		"/v1/products/search?min_price=1e-200000000&max_price=1e99999999",
		"/v1/products/search?max_price=" + strings.Repeat("9", 40),
	} {
		t.Run(path, func(t *testing.T) {
			w, body := api.do(http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		})
	}

	w, _ := api.do(http.MethodPost, "/v1/payments/google-pay/payment", token, map[string]interface{}{
		"payment_data": "tok_visa",
		"amount":       "1e-200000000",
		"order_id":     "order-huge",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPost, "/v1/payments/refund/txn_missing?amount=1e-200000000", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGatewayOutageReportsTransactionID(t *testing.T) {
	api := newTestAPIWithGateway(t, unavailableGateway{})
	_, token := api.user("owner@example.com", models.UserTypeCustomer)

	w, body := api.do(http.MethodPost, "/v1/payments/google-pay/payment", token, map[string]interface{}{
		"payment_data": "tok_visa",
		"amount":       "12.00",
		"order_id":     "order-outage",
	})
	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	require.NotNil(t, body.Error)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", body.Error.Code)

	details, ok := body.Error.Details.(map[string]interface{})
	require.True(t, ok, "details: %#v", body.Error.Details)
	assert.Equal(t, "failed", details["status"])
	txn, _ := details["transaction_id"].(string)
	require.NotEmpty(t, txn)

	w, body = api.do(http.MethodGet, "/v1/payments/payment/"+txn, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failed", body.Data["status"])
}
