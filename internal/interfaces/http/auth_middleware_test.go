package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	apphttp "github.com/jhoicas/stockwise-forecast/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockwise-forecast/pkg/jwt"
)

const (
	testJWTSecret = "clave-de-pruebas-stockwise"
	testUserID    = "gerente@stock.io"
	testIssuer    = "stockwise-test"
	testExpMin    = 60
)

// signed firma un token con el secreto de pruebas; expMin negativo produce un token vencido.
func signed(t *testing.T, secret, role string, expMin int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(secret, testUserID, role, testIssuer, expMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	return signed(t, testJWTSecret, role, testExpMin)
}

// guardedApp reproduce los dos conjuntos de roles del router:
// lectura para cualquier rol y gestión (entrenar, notificar) solo para admin o manager.
func guardedApp() *fiber.App {
	app := fiber.New()
	authn := apphttp.AuthMiddleware(testJWTSecret)
	echo := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
	}
	app.Get("/lectura", authn, apphttp.RequireRole(pkgjwt.RoleAdmin, pkgjwt.RoleManager, pkgjwt.RoleEmployee), echo)
	app.Post("/gestion", authn, apphttp.RequireRole(pkgjwt.RoleAdmin, pkgjwt.RoleManager), echo)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, authorization string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.ErrorResponse
	if resp.StatusCode != http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

// ─── Matriz de roles ──────────────────────────────────────────────────────────

func TestRequireRole_MatrizLecturaYGestion(t *testing.T) {
	app := guardedApp()

	cases := []struct {
		role   string
		method string
		path   string
		status int
		code   string
	}{
		{pkgjwt.RoleAdmin, http.MethodGet, "/lectura", http.StatusOK, ""},
		{pkgjwt.RoleManager, http.MethodGet, "/lectura", http.StatusOK, ""},
		{pkgjwt.RoleEmployee, http.MethodGet, "/lectura", http.StatusOK, ""},
		{pkgjwt.RoleAdmin, http.MethodPost, "/gestion", http.StatusOK, ""},
		{pkgjwt.RoleManager, http.MethodPost, "/gestion", http.StatusOK, ""},
		{pkgjwt.RoleEmployee, http.MethodPost, "/gestion", http.StatusForbidden, "FORBIDDEN"},
		{"proveedor", http.MethodGet, "/lectura", http.StatusForbidden, "FORBIDDEN"},
		{"", http.MethodGet, "/lectura", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.method+tc.path+"/"+tc.role, func(t *testing.T) {
			status, body := send(t, app, tc.method, tc.path, tokenForRole(t, tc.role))
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

// ─── Credenciales rechazadas ──────────────────────────────────────────────────

func TestAuthMiddleware_CredencialesRechazadas(t *testing.T) {
	app := guardedApp()

	cases := map[string]struct {
		authorization string
		code          string
	}{
		"sin cabecera":   {"", "MISSING_TOKEN"},
		"esquema basic":  {"Basic YWRtaW46YWRtaW4=", "INVALID_TOKEN"},
		"sin esquema":    {"abc.def.ghi", "INVALID_TOKEN"},
		"malformado":     {"Bearer no.es.jwt", "INVALID_TOKEN"},
		"otra firma":     {signed(t, "otra-clave", pkgjwt.RoleAdmin, testExpMin), "INVALID_TOKEN"},
		"vencido":        {signed(t, testJWTSecret, pkgjwt.RoleAdmin, -1), "INVALID_TOKEN"},
		"prefijo bearer": {"bearer no.es.jwt", "INVALID_TOKEN"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := send(t, app, http.MethodGet, "/lectura", tc.authorization)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAuthMiddleware_ClaimsDisponiblesParaHandlers(t *testing.T) {
	app := guardedApp()
	req := httptest.NewRequest(http.MethodPost, "/gestion", nil)
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleManager))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claims map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&claims))
	assert.Equal(t, testUserID, claims["user_id"])
	assert.Equal(t, pkgjwt.RoleManager, claims["role"])
}
