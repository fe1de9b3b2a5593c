package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"annonces/internal/apierror"
	"annonces/internal/handlers"
	"annonces/internal/middleware"
	"annonces/internal/models"
	"annonces/internal/repositories"
	"annonces/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupApp wires the full application against an in-memory SQLite database,
// one database per test.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Category{}, &models.Annonce{}))

	userRepo := repositories.NewGORMUserRepository(db)
	annonceRepo := repositories.NewGORMAnnonceRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	annonceService := services.NewAnnonceService(annonceRepo, nil, "", zerolog.Nop())
	categoryService := services.NewCategoryService(categoryRepo)
	userService := services.NewUserService(userRepo)

	app := fiber.New(fiber.Config{
		ErrorHandler: apierror.Handler(zerolog.Nop(), false),
	})

	auth := middleware.AuthRequired(authService)
	admin := middleware.AdminRequired()
	owner := middleware.AnnonceOwnership(annonceRepo)

	handlers.NewAuthHandler(authService).RegisterRoutes(app)
	handlers.NewAnnonceHandler(annonceService).RegisterRoutes(app, auth, admin, owner)
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(app, auth, admin)
	handlers.NewUserHandler(userService).RegisterRoutes(app, auth)
	app.Use(apierror.NotFoundHandler)

	return app, db
}

// doJSON performs one request and decodes the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func registerAndLogin(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()

	status, _ := doJSON(t, app, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := data(t, body)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// seedAdmin inserts an admin account directly and logs it in.
func seedAdmin(t *testing.T, app *fiber.App, db *gorm.DB) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("AdminPass1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		ID:       "admin-seed",
		Username: "admin",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}).Error)

	status, body := doJSON(t, app, http.MethodPost, "/login", "", map[string]string{
		"username": "admin",
		"password": "AdminPass1",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := data(t, body)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterValidation(t *testing.T) {
	app, _ := setupApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/register", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	details, ok := body["details"].([]any)
	require.True(t, ok, "expected field violations, got %v", body)
	var fields []string
	for _, d := range details {
		entry := d.(map[string]any)
		fields = append(fields, entry["field"].(string))
		assert.NotEmpty(t, entry["message"])
	}
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")

	// Weak password is a field-level violation too.
	status, _ = doJSON(t, app, http.MethodPost, "/register", "", map[string]string{
		"username": "alice1990",
		"password": "password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegisterLoginCreateScenario(t *testing.T) {
	app, _ := setupApp(t)

	// Register.
	status, body := doJSON(t, app, http.MethodPost, "/register", "", map[string]string{
		"username": "alice1990",
		"password": "Password123",
	})
	require.Equal(t, http.StatusCreated, status)
	user := data(t, body)["user"].(map[string]any)
	assert.Equal(t, "alice1990", user["username"])
	_, leaked := user["password"]
	assert.False(t, leaked, "password must never be serialized")

	// Login.
	status, body = doJSON(t, app, http.MethodPost, "/login", "", map[string]string{
		"username": "alice1990",
		"password": "Password123",
	})
	require.Equal(t, http.StatusOK, status)
	token := data(t, body)["token"].(string)
	require.NotEmpty(t, token)

	// The admin listing is role guarded.
	status, _ = doJSON(t, app, http.MethodGet, "/annonces/all", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Create an annonce; status defaults to draft.
	status, body = doJSON(t, app, http.MethodPost, "/annonces", token, map[string]any{
		"title": "Bike",
	})
	require.Equal(t, http.StatusCreated, status)
	annonce := data(t, body)["annonce"].(map[string]any)
	assert.Equal(t, models.StatusDraft, annonce["status"])
	assert.Contains(t, data(t, body), "mail_notification")
}

func TestLoginNormalizesFailures(t *testing.T) {
	app, _ := setupApp(t)
	registerAndLogin(t, app, "alice1990", "Password123")

	// Unknown user and wrong password are indistinguishable.
	status, bodyNoUser := doJSON(t, app, http.MethodPost, "/login", "", map[string]string{
		"username": "ghost", "password": "Password123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, bodyBadPass := doJSON(t, app, http.MethodPost, "/login", "", map[string]string{
		"username": "alice1990", "password": "WrongPass1",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, bodyNoUser["message"], bodyBadPass["message"])
}

func TestLogoutInvalidatesToken(t *testing.T) {
	app, _ := setupApp(t)
	token := registerAndLogin(t, app, "alice1990", "Password123")

	// The token works before logout.
	status, body := doJSON(t, app, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice1990", data(t, body)["user"].(map[string]any)["username"])

	// Logout without a credential is 401.
	status, _ = doJSON(t, app, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Logout revokes.
	status, _ = doJSON(t, app, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	// The structurally valid token is now rejected.
	status, _ = doJSON(t, app, http.MethodGet, "/users/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Logging out twice fails too.
	status, _ = doJSON(t, app, http.MethodPost, "/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSingleSessionPerUser(t *testing.T) {
	app, _ := setupApp(t)
	first := registerAndLogin(t, app, "alice1990", "Password123")

	// A second login overwrites the stored token, killing the first session.
	status, body := doJSON(t, app, http.MethodPost, "/login", "", map[string]string{
		"username": "alice1990", "password": "Password123",
	})
	require.Equal(t, http.StatusOK, status)
	second := data(t, body)["token"].(string)

	status, _ = doJSON(t, app, http.MethodGet, "/users/profile", first, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doJSON(t, app, http.MethodGet, "/users/profile", second, nil)
	assert.Equal(t, http.StatusOK, status)
}

func createAnnonce(t *testing.T, app *fiber.App, token string, payload map[string]any) float64 {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/annonces", token, payload)
	require.Equal(t, http.StatusCreated, status)
	return data(t, body)["annonce"].(map[string]any)["id"].(float64)
}

func TestOwnershipGuard(t *testing.T) {
	app, db := setupApp(t)
	alice := registerAndLogin(t, app, "alice1990", "Password123")
	bob := registerAndLogin(t, app, "bob1985", "Password123")
	admin := seedAdmin(t, app, db)

	id := createAnnonce(t, app, alice, map[string]any{"title": "Bike"})
	path := fmt.Sprintf("/annonces/%d", int(id))

	// A stranger may neither update nor delete.
	status, _ := doJSON(t, app, http.MethodPut, path, bob, map[string]any{"title": "Stolen"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doJSON(t, app, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Unauthenticated update is 401.
	status, _ = doJSON(t, app, http.MethodPut, path, "", map[string]any{"title": "Nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	// The owner may update.
	status, body := doJSON(t, app, http.MethodPut, path, alice, map[string]any{"title": "Road bike"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Road bike", data(t, body)["annonce"].(map[string]any)["title"])

	// So may an admin.
	status, _ = doJSON(t, app, http.MethodPut, path, admin, map[string]any{"title": "Road bike (checked)"})
	assert.Equal(t, http.StatusOK, status)

	// Updating a missing annonce is 404.
	status, _ = doJSON(t, app, http.MethodPut, "/annonces/99999", alice, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, status)

	// The owner may delete.
	status, _ = doJSON(t, app, http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestModerationFieldsIgnoredForNonAdmins(t *testing.T) {
	app, db := setupApp(t)
	alice := registerAndLogin(t, app, "alice1990", "Password123")
	admin := seedAdmin(t, app, db)

	id := createAnnonce(t, app, alice, map[string]any{"title": "Bike"})
	path := fmt.Sprintf("/annonces/%d", int(id))

	// The owner's attempt to self-publish succeeds as a request but the
	// moderation fields keep their prior values.
	status, body := doJSON(t, app, http.MethodPut, path, alice, map[string]any{
		"title":         "Bike",
		"status":        models.StatusPublished,
		"admin_comment": "self-approved",
	})
	require.Equal(t, http.StatusOK, status)
	annonce := data(t, body)["annonce"].(map[string]any)
	assert.Equal(t, models.StatusDraft, annonce["status"])
	_, hasComment := annonce["admin_comment"]
	assert.False(t, hasComment)

	// An admin moderates for real.
	status, body = doJSON(t, app, http.MethodPut, path, admin, map[string]any{
		"status":        models.StatusSuspended,
		"admin_comment": "needs a photo",
	})
	require.Equal(t, http.StatusOK, status)
	annonce = data(t, body)["annonce"].(map[string]any)
	assert.Equal(t, models.StatusSuspended, annonce["status"])
	assert.Equal(t, "needs a photo", annonce["admin_comment"])

	// And the admin listing can filter on the new status.
	status, body = doJSON(t, app, http.MethodGet, "/annonces/all?status=suspended", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["annonces"].([]any), 1)
}

func TestSearchAndPagination(t *testing.T) {
	app, _ := setupApp(t)
	alice := registerAndLogin(t, app, "alice1990", "Password123")

	for i := 0; i < 12; i++ {
		createAnnonce(t, app, alice, map[string]any{
			"title":       fmt.Sprintf("Bike %d", i),
			"description": "city bike",
			"price":       100 + i,
		})
	}
	createAnnonce(t, app, alice, map[string]any{"title": "Sofa"})

	// Full middle page.
	status, body := doJSON(t, app, http.MethodGet, "/annonces?page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["annonces"].([]any), 5)
	pg := data(t, body)["pagination"].(map[string]any)
	assert.Equal(t, float64(13), pg["total"])
	assert.Equal(t, float64(3), pg["totalPages"])
	assert.Equal(t, true, pg["hasNextPage"])
	assert.Equal(t, true, pg["hasPrevPage"])

	// Short last page: returned count is total - offset.
	status, body = doJSON(t, app, http.MethodGet, "/annonces?page=3&limit=5", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["annonces"].([]any), 3)
	pg = data(t, body)["pagination"].(map[string]any)
	assert.Equal(t, false, pg["hasNextPage"])

	// Free-text search narrows to matching titles/descriptions.
	status, body = doJSON(t, app, http.MethodGet, "/annonces?search=Sofa", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["annonces"].([]any), 1)

	// Pagination bounds.
	status, _ = doJSON(t, app, http.MethodGet, "/annonces?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = doJSON(t, app, http.MethodGet, "/annonces?limit=101", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = doJSON(t, app, http.MethodGet, "/annonces?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAnnoncePriceValidation(t *testing.T) {
	app, _ := setupApp(t)
	alice := registerAndLogin(t, app, "alice1990", "Password123")

	// Missing title.
	status, _ := doJSON(t, app, http.MethodPost, "/annonces", alice, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	// Non-numeric price.
	status, _ = doJSON(t, app, http.MethodPost, "/annonces", alice, map[string]any{
		"title": "Bike", "price": "cheap",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// Numeric string price is coerced.
	status, body := doJSON(t, app, http.MethodPost, "/annonces", alice, map[string]any{
		"title": "Bike", "price": "99.5",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 99.5, data(t, body)["annonce"].(map[string]any)["price"])
}

func TestCategoryLifecycle(t *testing.T) {
	app, db := setupApp(t)
	alice := registerAndLogin(t, app, "alice1990", "Password123")
	admin := seedAdmin(t, app, db)

	// Writes are admin only.
	status, _ := doJSON(t, app, http.MethodPost, "/categories", "", map[string]string{"name": "Bikes", "slug": "bikes"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = doJSON(t, app, http.MethodPost, "/categories", alice, map[string]string{"name": "Bikes", "slug": "bikes"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doJSON(t, app, http.MethodPost, "/categories", admin, map[string]string{"name": "Bikes", "slug": "bikes"})
	require.Equal(t, http.StatusCreated, status)
	catID := data(t, body)["category"].(map[string]any)["id"].(float64)

	// Name and slug are unique: a duplicate is a conflict.
	status, _ = doJSON(t, app, http.MethodPost, "/categories", admin, map[string]string{"name": "Bikes", "slug": "bikes"})
	assert.Equal(t, http.StatusConflict, status)

	// Public reads.
	status, body = doJSON(t, app, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["categories"].([]any), 1)
	status, body = doJSON(t, app, http.MethodGet, "/categories/bikes", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bikes", data(t, body)["category"].(map[string]any)["name"])
	status, _ = doJSON(t, app, http.MethodGet, "/categories/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// An annonce in the category, findable through the category filter.
	annonceID := createAnnonce(t, app, alice, map[string]any{"title": "Bike", "category_id": catID})
	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/annonces?category_id=%d", int(catID)), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["annonces"].([]any), 1)

	// The detail embeds are reduced projections: the category carries only
	// id/name/slug, the owner only identity and name fields.
	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/annonces/%d", int(annonceID)), "", nil)
	require.Equal(t, http.StatusOK, status)
	detail := data(t, body)["annonce"].(map[string]any)
	category := detail["category"].(map[string]any)
	assert.Equal(t, "Bikes", category["name"])
	assert.Equal(t, "bikes", category["slug"])
	for key := range category {
		assert.Contains(t, []string{"id", "name", "slug"}, key)
	}
	owner := detail["user"].(map[string]any)
	assert.Equal(t, "alice1990", owner["username"])
	for key := range owner {
		assert.Contains(t, []string{"id", "username", "firstname", "lastname"}, key)
	}

	// Update.
	status, body = doJSON(t, app, http.MethodPut, fmt.Sprintf("/categories/%d", int(catID)), admin, map[string]string{"name": "City bikes"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "City bikes", data(t, body)["category"].(map[string]any)["name"])

	// Deleting the category detaches the annonce instead of deleting it.
	status, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/categories/%d", int(catID)), admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/annonces/%d", int(annonceID)), "", nil)
	require.Equal(t, http.StatusOK, status)
	annonce := data(t, body)["annonce"].(map[string]any)
	assert.Nil(t, annonce["category_id"])
}

func TestProfileManagement(t *testing.T) {
	app, _ := setupApp(t)
	token := registerAndLogin(t, app, "alice1990", "Password123")

	// Unauthenticated access is 401.
	status, _ := doJSON(t, app, http.MethodGet, "/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Partial profile update.
	status, body := doJSON(t, app, http.MethodPut, "/users/profile", token, map[string]string{
		"firstname": "Alice",
		"city":      "Paris",
	})
	require.Equal(t, http.StatusOK, status)
	user := data(t, body)["user"].(map[string]any)
	assert.Equal(t, "Alice", user["firstname"])
	assert.Equal(t, "Paris", user["city"])

	// Password change requires the current password.
	status, _ = doJSON(t, app, http.MethodPut, "/users/profile/password", token, map[string]string{
		"currentPassword": "WrongPass1", "newPassword": "NewPassword1",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = doJSON(t, app, http.MethodPut, "/users/profile/password", token, map[string]string{
		"currentPassword": "Password123", "newPassword": "NewPassword1",
	})
	require.Equal(t, http.StatusOK, status)

	// The new password works on the next login.
	status, _ = doJSON(t, app, http.MethodPost, "/login", "", map[string]string{
		"username": "alice1990", "password": "NewPassword1",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestUnmatchedRoute(t *testing.T) {
	app, _ := setupApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "GET")
	assert.Contains(t, body["message"], "/nope")
}
