package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-ops-manager/internal/booking"
	"github.com/iliyamo/cinema-ops-manager/internal/catalog"
	"github.com/iliyamo/cinema-ops-manager/internal/concessions"
	"github.com/iliyamo/cinema-ops-manager/internal/config"
	"github.com/iliyamo/cinema-ops-manager/internal/handler"
	"github.com/iliyamo/cinema-ops-manager/internal/inventory"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/pricing"
	"github.com/iliyamo/cinema-ops-manager/internal/report"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
	"github.com/iliyamo/cinema-ops-manager/internal/utils"
)

const secret = "router-secret"

type api struct {
	t     *testing.T
	e     *echo.Echo
	admin string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	js, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	log, _ := test.NewNullLogger()

	rooms := repository.NewRoomRepo(js)
	showtimes := repository.NewShowtimeRepo(js)
	movies := repository.NewMovieRepo(js)
	users := repository.NewUserRepo(js)
	tickets := repository.NewTicketRepo(js)
	payments := repository.NewPaymentRepo(js)
	reservations := repository.NewReservationRepo(js)
	inv := inventory.New(rooms, showtimes, log)

	svc := booking.New(booking.Deps{
		Rooms: rooms, Showtimes: showtimes, Movies: movies, Users: users,
		Tickets: tickets, Payments: payments, Reservations: reservations,
		Inventory: inv, Pricing: pricing.New(), Log: log,
	})
	cat := catalog.New(rooms, movies, showtimes, inv, log).WithSettlement(svc.SeatSettled)
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost}

	admin := &model.User{Name: "admin", Email: "admin@example.com", BirthDate: "1980-01-01", Role: model.RoleAdmin}
	_, err = users.Create(context.Background(), admin)
	require.NoError(t, err)
	tok, err := utils.NewAccessToken(secret, admin.ID, string(admin.Role), 5)
	require.NoError(t, err)

	e := New(Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(js), log),
		Public:      handler.NewPublicHandler(cat, log),
		Customer:    handler.NewCustomerHandler(svc, log),
		Admin:       handler.NewAdminHandler(cat, svc, report.New(payments, tickets, reservations, movies, users), nil, log),
		Concessions: handler.NewConcessionHandler(concessions.New(repository.NewMenuRepo(js), repository.NewOrderRepo(js), payments, nil, log), log),
		JWTSecret:   secret,
	}, log)
	return &api{t: t, e: e, admin: tok.Token}
}

func (a *api) do(method, path, token, body string) (int, map[string]any) {
	a.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

// id renders a numeric JSON field for use in paths and bodies.
func id(m map[string]any, key string) string {
	return strconv.FormatFloat(m[key].(float64), 'f', 0, 64)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)
	code, _ := a.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	a := newAPI(t)

	code, room := a.do(http.MethodPost, "/v1/admin/rooms", a.admin, `{"name":"Sala 3D","format":"3D","standard_seats":10,"preferential_seats":4}`)
	require.Equal(t, http.StatusCreated, code)
	code, movie := a.do(http.MethodPost, "/v1/admin/movies", a.admin, `{"title":"Dune","duration_min":155,"format":"3D"}`)
	require.Equal(t, http.StatusCreated, code)

	date := time.Now().UTC().AddDate(0, 0, 3).Format(model.DateLayout)
	code, st := a.do(http.MethodPost, "/v1/admin/showtimes", a.admin,
		`{"movie_id":`+id(movie, "id")+`,"room_id":`+id(room, "id")+`,"date":"`+date+`","start_time":"20:00"}`)
	require.Equal(t, http.StatusCreated, code, st)

	code, reg := a.do(http.MethodPost, "/v1/auth/register", "", `{"name":"Ana","email":"ana@example.com","password":"longenough","birth_date":"1996-03-10"}`)
	require.Equal(t, http.StatusCreated, code)
	client := reg["access"].(map[string]any)["token"].(string)

	// clients cannot reach admin routes
	code, _ = a.do(http.MethodPost, "/v1/admin/rooms", client, `{"name":"x","format":"2D","standard_seats":1}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = a.do(http.MethodPost, "/v1/tickets", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	buy := `{"movie_id":` + id(movie, "id") + `,"room_id":` + id(room, "id") + `,"showtime_id":` + id(st, "id") + `,"seat_type":"preferential","seats":["P01"]}`
	code, bought := a.do(http.MethodPost, "/v1/tickets", client, buy)
	require.Equal(t, http.StatusCreated, code, bought)
	assert.EqualValues(t, 25000, bought["total"])

	code, _ = a.do(http.MethodPost, "/v1/tickets", client, buy)
	assert.Equal(t, http.StatusConflict, code)

	code, seats := a.do(http.MethodGet, "/v1/showtimes/"+id(st, "id")+"/seats", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, seats["showtime"].(map[string]any)["available_seats"].(map[string]any)["preferential"])

	code, avail := a.do(http.MethodGet, "/v1/rooms/"+id(room, "id")+"/availability", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, avail["available_seats"].(map[string]any)["preferential"])

	code, mine := a.do(http.MethodGet, "/v1/tickets", client, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, mine["items"], 1)

	today := time.Now().UTC().Format(model.DateLayout)
	code, sales := a.do(http.MethodGet, "/v1/admin/reports/sales?from="+today+"&to="+today, a.admin, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 25000, sales["total"])

	code, _ = a.do(http.MethodDelete, "/v1/admin/showtimes/"+id(st, "id"), a.admin, "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestReservationFlowOverHTTP(t *testing.T) {
	a := newAPI(t)
	_, room := a.do(http.MethodPost, "/v1/admin/rooms", a.admin, `{"name":"Sala 2D","format":"2D","standard_seats":5}`)
	_, movie := a.do(http.MethodPost, "/v1/admin/movies", a.admin, `{"title":"Up","duration_min":96,"format":"2D"}`)
	date := time.Now().UTC().AddDate(0, 0, 4).Format(model.DateLayout)
	code, st := a.do(http.MethodPost, "/v1/admin/showtimes", a.admin,
		`{"movie_id":`+id(movie, "id")+`,"room_id":`+id(room, "id")+`,"date":"`+date+`","start_time":"10:00"}`)
	require.Equal(t, http.StatusCreated, code, st)

	_, reg := a.do(http.MethodPost, "/v1/auth/register", "", `{"name":"Ana","email":"ana@example.com","password":"longenough","birth_date":"1996-03-10"}`)
	client := reg["access"].(map[string]any)["token"].(string)

	code, res := a.do(http.MethodPost, "/v1/reservations", client,
		`{"movie_id":`+id(movie, "id")+`,"room_id":`+id(room, "id")+`,"showtime_id":`+id(st, "id")+`,"seat_type":"standard","seats":["S01","S02"]}`)
	require.Equal(t, http.StatusCreated, code, res)
	assert.EqualValues(t, 36000, res["price"])

	code, found := a.do(http.MethodGet, "/v1/reservations/code/"+strings.ToLower(res["code"].(string)), client, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, res["id"], found["id"])

	code, tk := a.do(http.MethodPost, "/v1/reservations/"+id(res, "id")+"/convert", client, `{"payment_method":"cash"}`)
	require.Equal(t, http.StatusCreated, code, tk)
	assert.EqualValues(t, 36000, tk["price"])

	code, _ = a.do(http.MethodPost, "/v1/reservations/"+id(res, "id")+"/cancel", client, "")
	assert.Equal(t, http.StatusConflict, code)

	code, used := a.do(http.MethodPost, "/v1/admin/tickets/"+id(tk, "id")+"/use", a.admin, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "used", used["status"])

	code, _ = a.do(http.MethodPost, "/v1/tickets/"+id(tk, "id")+"/cancel", client, "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestConcessionsOverHTTP(t *testing.T) {
	a := newAPI(t)
	code, item := a.do(http.MethodPost, "/v1/admin/menu", a.admin, `{"name":"Popcorn","kind":"snack","price":9000,"stock":3}`)
	require.Equal(t, http.StatusCreated, code, item)

	_, reg := a.do(http.MethodPost, "/v1/auth/register", "", `{"name":"Ana","email":"ana@example.com","password":"longenough","birth_date":"1996-03-10"}`)
	client := reg["access"].(map[string]any)["token"].(string)

	code, _ = a.do(http.MethodPost, "/v1/admin/menu", client, `{"name":"x","kind":"snack","price":1}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, order := a.do(http.MethodPost, "/v1/orders", client, `{"items":[{"item_id":`+id(item, "id")+`,"quantity":2}]}`)
	require.Equal(t, http.StatusCreated, code, order)
	assert.EqualValues(t, 18000, order["total"])

	code, _ = a.do(http.MethodPost, "/v1/orders", client, `{"items":[{"item_id":`+id(item, "id")+`,"quantity":2}]}`)
	assert.Equal(t, http.StatusConflict, code)

	today := time.Now().UTC().Format(model.DateLayout)
	code, sales := a.do(http.MethodGet, "/v1/admin/reports/sales?from="+today+"&to="+today, a.admin, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 18000, sales["concessions"])

	code, cancelled := a.do(http.MethodPost, "/v1/orders/"+id(order, "id")+"/cancel", client, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", cancelled["status"])

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/menu", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var menu []model.MenuItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	require.Len(t, menu, 1)
	assert.Equal(t, 3, menu[0].Stock)
}
