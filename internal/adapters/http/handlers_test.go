package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yokyay/classhub/internal/adapters/signal"
	"github.com/yokyay/classhub/internal/app"
	"github.com/yokyay/classhub/internal/config"
	"github.com/yokyay/classhub/internal/core"
	"github.com/yokyay/classhub/internal/domain"
)

type testServer struct {
	router *gin.Engine
	coord  *core.Coordinator
	files  *app.FileStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Mode:        "release",
		StaticPath:  t.TempDir(),
		UploadLimit: 1024,
		Secret:      "test-secret",
		Teacher:     config.Teacher{Username: "yokyay", Password: "461225"},
		Media:       config.Media{URL: "wss://media.example", APIKey: "key", APISecret: "secret"},
	}
	hub := signal.NewHub()
	files := app.NewFileStore()
	coord := core.NewCoordinator(hub, files)
	creds := app.NewCredentialChecker(cfg.Teacher.Username, cfg.Teacher.Password)
	tokens := app.NewMediaTokenIssuer(cfg.Media.URL, cfg.Media.APIKey, cfg.Media.APISecret)
	metrics := app.NewMetrics(coord, hub)
	handlers := NewHandlers(coord, files, creds, tokens, cfg)
	ws := signal.NewController(hub, coord, cfg)

	return &testServer{
		router: SetupRouter(context.Background(), cfg, handlers, ws, metrics),
		coord:  coord,
		files:  files,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/login", gin.H{"username": "yokyay", "password": "461225"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		User domain.Identity `json:"user"`
	}](t, rec)
	require.Equal(t, "yokyay", resp.User.Name)
	require.Equal(t, domain.RoleTeacher, resp.User.Role)
	require.NotEmpty(t, rec.Result().Cookies(), "login sets a session cookie")

	rec = ts.do(t, http.MethodPost, "/api/login", gin.H{"username": "yokyay", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoomsCRUD(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/rooms", gin.H{"title": "", "teacherName": "Ann"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/rooms", gin.H{"title": "Math", "teacherName": "Ann"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[struct {
		Room domain.Room `json:"room"`
	}](t, rec)
	require.GreaterOrEqual(t, len(created.Room.ID), 8)

	rec = ts.do(t, http.MethodGet, "/api/rooms/"+string(created.Room.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/rooms/unknown", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Rooms []domain.Room `json:"rooms"`
	}](t, rec)
	require.Len(t, list.Rooms, 1)
}

func TestDeleteRoomRequiresLogin(t *testing.T) {
	ts := newTestServer(t)
	room, err := ts.coord.CreateRoom("Math", "Ann")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodDelete, "/api/rooms/"+string(room.ID), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	_, ok := ts.coord.GetRoom(room.ID)
	require.True(t, ok, "unauthorized delete must not remove the room")

	login := ts.do(t, http.MethodPost, "/api/login", gin.H{"username": "yokyay", "password": "461225"})
	require.Equal(t, http.StatusOK, login.Code)
	cookies := login.Result().Cookies()

	rec = ts.do(t, http.MethodDelete, "/api/rooms/"+string(room.ID), nil, cookies...)
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, ok = ts.coord.GetRoom(room.ID)
	require.False(t, ok)

	// Idempotent.
	rec = ts.do(t, http.MethodDelete, "/api/rooms/"+string(room.ID), nil, cookies...)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func uploadRequest(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestFileEndpoints(t *testing.T) {
	ts := newTestServer(t)
	room, err := ts.coord.CreateRoom("Math", "Ann")
	require.NoError(t, err)
	base := fmt.Sprintf("/api/rooms/%s/files", room.ID)

	rec := ts.do(t, http.MethodGet, "/api/rooms/unknown/files", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, uploadRequest(t, base, "notes.txt", "hello class"))
	require.Equal(t, http.StatusCreated, rec.Code)
	uploaded := decode[struct {
		File app.StoredFile `json:"file"`
	}](t, rec)
	require.Equal(t, "notes.txt", uploaded.File.Name)
	require.Equal(t, int64(11), uploaded.File.Size)

	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, uploadRequest(t, base, "big.bin", strings.Repeat("x", 2048)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, "upload limit enforced")

	rec = ts.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Files []app.StoredFile `json:"files"`
	}](t, rec)
	require.Len(t, list.Files, 1)

	rec = ts.do(t, http.MethodGet, base+"/"+uploaded.File.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello class", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Disposition"), `filename="notes.txt"`)

	rec = ts.do(t, http.MethodGet, base+"/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, base+"/"+uploaded.File.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, base+"/"+uploaded.File.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMediaTokenGating(t *testing.T) {
	ts := newTestServer(t)
	room, err := ts.coord.CreateRoom("Math", "Ann")
	require.NoError(t, err)

	bob := domain.Identity{Name: "Bob", Role: domain.RoleStudent}

	rec := ts.do(t, http.MethodPost, "/api/media/token", gin.H{"roomId": "", "user": bob})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/media/token", gin.H{"roomId": "unknown", "user": bob})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/media/token", gin.H{"roomId": room.ID, "user": bob})
	require.Equal(t, http.StatusForbidden, rec.Code, "unapproved student gets no token")

	// Run Bob through admission, then the token is granted.
	ann := domain.Identity{Name: "Ann", Role: domain.RoleTeacher}
	require.NoError(t, ts.coord.ConnectOwner(room.ID, "t1", ann))
	require.NoError(t, ts.coord.RequestJoin(room.ID, "s1", bob))
	ts.coord.ApproveJoin(room.ID, "t1", "s1")

	rec = ts.do(t, http.MethodPost, "/api/media/token", gin.H{"roomId": room.ID, "user": bob})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}](t, rec)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "wss://media.example", resp.URL)

	// Teachers of a live room are never gated on the allow-list.
	rec = ts.do(t, http.MethodPost, "/api/media/token", gin.H{"roomId": room.ID, "user": ann})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
