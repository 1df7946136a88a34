package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yokyay/classhub/internal/app"
	"github.com/yokyay/classhub/internal/config"
	"github.com/yokyay/classhub/internal/core"
	"github.com/yokyay/classhub/internal/domain"
)

const sessionUserKey = "teacher"

// Handlers carries the REST surface's collaborators. Constructed once in
// main and referenced from the router; nothing here is ambient state.
type Handlers struct {
	Coord  *core.Coordinator
	Files  *app.FileStore
	Creds  *app.CredentialChecker
	Tokens *app.MediaTokenIssuer
	cfg    *config.Config
}

func NewHandlers(coord *core.Coordinator, files *app.FileStore, creds *app.CredentialChecker, tokens *app.MediaTokenIssuer, cfg *config.Config) *Handlers {
	return &Handlers{Coord: coord, Files: files, Creds: creds, Tokens: tokens, cfg: cfg}
}

func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing credentials"})
		return
	}
	user, ok := h.Creds.Check(req.Username, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	session := sessions.Default(c)
	session.Set(sessionUserKey, user.Name)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Coord.ListRooms()})
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req struct {
		Title       string `json:"title"`
		TeacherName string `json:"teacherName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing room title or teacher name"})
		return
	}
	room, err := h.Coord.CreateRoom(req.Title, req.TeacherName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing room title or teacher name"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (h *Handlers) GetRoom(c *gin.Context) {
	room, ok := h.Coord.GetRoom(domain.RoomID(c.Param("roomId")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// DeleteRoom tears the room down out-of-band. Only a logged-in teacher
// session may call it; deleting an unknown room is still 204.
func (h *Handlers) DeleteRoom(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get(sessionUserKey) == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Login required"})
		return
	}
	h.Coord.DeleteRoom(domain.RoomID(c.Param("roomId")))
	c.Status(http.StatusNoContent)
}

func (h *Handlers) roomOr404(c *gin.Context) (domain.RoomID, bool) {
	id := domain.RoomID(c.Param("roomId"))
	if _, ok := h.Coord.GetRoom(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return "", false
	}
	return id, true
}

func (h *Handlers) ListFiles(c *gin.Context) {
	roomID, ok := h.roomOr404(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": h.Files.List(roomID)})
}

func (h *Handlers) UploadFile(c *gin.Context) {
	roomID, ok := h.roomOr404(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File is required"})
		return
	}
	if h.cfg.UploadLimit > 0 && header.Size > h.cfg.UploadLimit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large"})
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File is required"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Upload failed"})
		return
	}
	file := h.Files.Add(roomID, header.Filename, header.Header.Get("Content-Type"), data)
	c.JSON(http.StatusCreated, gin.H{"file": file})
}

func (h *Handlers) DownloadFile(c *gin.Context) {
	roomID, ok := h.roomOr404(c)
	if !ok {
		return
	}
	file, ok := h.Files.Get(roomID, c.Param("fileId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "File not found"})
		return
	}
	encoded := strings.ReplaceAll(url.PathEscape(file.Name), "'", "%27")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", file.Name, encoded))
	c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	c.Data(http.StatusOK, file.Mime, file.Data)
}

func (h *Handlers) DeleteFile(c *gin.Context) {
	roomID, ok := h.roomOr404(c)
	if !ok {
		return
	}
	if err := h.Files.Remove(roomID, c.Param("fileId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "File not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// MediaToken mints a media-router access token. Teachers get one for any
// live room they own; students only once their name is on the room's
// allow-list.
func (h *Handlers) MediaToken(c *gin.Context) {
	var req struct {
		RoomID domain.RoomID   `json:"roomId"`
		User   domain.Identity `json:"user"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" || req.User.Name == "" || req.User.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing room or user"})
		return
	}
	if _, ok := h.Coord.GetRoom(req.RoomID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	if req.User.Role == domain.RoleStudent && !h.Coord.IsApprovedName(req.RoomID, req.User) {
		c.JSON(http.StatusForbidden, gin.H{"message": "User not approved"})
		return
	}
	token, routerURL, err := h.Tokens.Issue(req.RoomID, req.User)
	if err != nil {
		if errors.Is(err, app.ErrMediaNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Media router not configured"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("media token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Token error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "url": routerURL})
}
