package devserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"foodfront/internal/api"
	"foodfront/internal/devserver"
	"foodfront/internal/models"
	"foodfront/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newServer(t *testing.T) *devserver.Server {
	t.Helper()
	dsn := fmt.Sprintf("file:devserver_%p?mode=memory&cache=shared", t)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	srv, err := devserver.New(db, devserver.Config{JWTSecret: "test_jwt_secret"}, nil, nil)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestServer_AuthFlow(t *testing.T) {
	app := newServer(t).App()

	resp, body := doJSON(t, app, http.MethodPost, "/api/users/auth/register/", "", models.RegisterInput{
		Email: "john@example.com", Password: "password123", Password2: "password123",
		FirstName: "John", LastName: "Doe", Role: models.RoleCustomer,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully", body["message"])
	require.NotEmpty(t, body["access"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/users/auth/login/", "", models.LoginInput{Email: "john@example.com", Password: "bad-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password.", body["detail"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/users/auth/login/", "", models.LoginInput{Email: "john@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	access := body["access"].(string)
	refresh := body["refresh"].(string)

	resp, body = doJSON(t, app, http.MethodGet, "/api/users/profile/", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CUSTOMER", body["role"])
	assert.NotContains(t, body, "password_hash")

	resp, body = doJSON(t, app, http.MethodGet, "/api/users/profile/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication credentials were not provided.", body["detail"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/profile/", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/users/auth/token/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access"])
}

func TestServer_ValidationPayloads(t *testing.T) {
	app := newServer(t).App()

	resp, body := doJSON(t, app, http.MethodPost, "/api/users/auth/register/", "", map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{"Enter a valid email address."}, body["email"])
	assert.Contains(t, body, "password")
}

func TestServer_MyRestaurantNotFound(t *testing.T) {
	app := newServer(t).App()
	_, body := doJSON(t, app, http.MethodPost, "/api/users/auth/register/", "", models.RegisterInput{
		Email: "owner@example.com", Password: "password123", Password2: "password123",
		FirstName: "Sam", LastName: "Lee", Role: models.RoleRestaurantOwner,
	})
	access := body["access"].(string)

	resp, body := doJSON(t, app, http.MethodGet, "/api/restaurants/my_restaurant/", access, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "You do not have a restaurant yet.", body["detail"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/menu-items/my_menu/", access, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSeed_IsRepeatable(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	require.NoError(t, devserver.Seed(ctx, srv))
	require.NoError(t, devserver.Seed(ctx, srv))

	list, err := srv.Restaurants().List(ctx, models.RestaurantFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

// session logs in through the REST client against the served backend.
func session(t *testing.T, base string, email string) *api.Client {
	t.Helper()
	backend := api.NewBackend(api.Config{BaseURL: base + "/api"}, nil, nil)
	tokens := repositories.NewTokenStore(repositories.NewMemoryKeyValueStore())
	client := backend.Session(tokens, nil)
	resp, err := client.Login(context.Background(), models.LoginInput{Email: email, Password: devserver.SeedPassword})
	require.NoError(t, err)
	require.NoError(t, tokens.SetTokens(context.Background(), resp.AuthTokens))
	return client
}

func TestServer_ClientRoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	require.NoError(t, devserver.Seed(ctx, srv))
	ts := httptest.NewServer(adaptor.FiberApp(srv.App()))
	defer ts.Close()

	customer := session(t, ts.URL, "johndoe@gmail.com")
	owner := session(t, ts.URL, "malay_kitchen_owner@example.com")
	rider := session(t, ts.URL, "rider.ali@example.com")
	otherRider := session(t, ts.URL, "rider.mei@example.com")

	restaurant, err := owner.MyRestaurant(ctx)
	require.NoError(t, err)
	menu, err := customer.RestaurantMenu(ctx, restaurant.ID)
	require.NoError(t, err)
	require.NotEmpty(t, menu)

	order, err := customer.CreateOrder(ctx, models.CreateOrderInput{
		Restaurant:      restaurant.ID,
		DeliveryAddress: "7 Jalan Bukit Bintang",
		Items:           []models.OrderItemInput{{MenuItem: menu[0].ID, Quantity: 2}},
	}, "attempt-1")
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(menu[0].Price.Mul(decimal.NewFromInt(2))))

	_, err = owner.UpdateOrderStatus(ctx, order.ID, models.StatusUpdate{Status: models.StatusOutForDelivery})
	assert.True(t, api.IsKind(err, api.KindForbidden))

	_, err = owner.UpdateOrderStatus(ctx, order.ID, models.StatusUpdate{Status: models.StatusPreparing})
	require.NoError(t, err)
	_, err = owner.UpdateOrderStatus(ctx, order.ID, models.StatusUpdate{Status: models.StatusPending})
	assert.True(t, api.IsKind(err, api.KindForbidden))
	_, err = owner.UpdateOrderStatus(ctx, order.ID, models.StatusUpdate{Status: models.StatusReadyForPickup})
	require.NoError(t, err)
	_, err = owner.UpdateOrderStatus(ctx, order.ID, models.StatusUpdate{Status: models.StatusCancelled, CancellationReason: "closing"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Cannot transition from Ready for Pickup to Cancelled.", apiErr.Message())

	claimed, err := rider.AssignRider(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.Rider)

	_, err = otherRider.AssignRider(ctx, order.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Order already assigned to another rider.", apiErr.Message())

	_, err = rider.UpdateOrderStatus(ctx, order.ID, models.StatusUpdate{Status: models.StatusOutForDelivery})
	require.NoError(t, err)
	delivered, err := rider.UpdateOrderStatus(ctx, order.ID, models.StatusUpdate{Status: models.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)

	tracking, err := customer.TrackOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, tracking.Status)
	require.NotNil(t, tracking.Rider)
	assert.Equal(t, "Ali Hassan", tracking.Rider.Name)
}
