package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/biz"
	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
)

// ActorHeader carries the acting user's id. Authentication happens upstream.
const ActorHeader = "X-User-ID"

const maxFeedLimit = 200

// Server provides the HTTP JSON API
type Server struct {
	uc     *biz.Usecases
	logger *zap.Logger

	server *http.Server
	addr   string
}

// User is the API representation of an account
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is the API representation of a post
type Post struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Content     string    `json:"content"`
	Highlighted bool      `json:"highlighted"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// Preset is the API representation of a watch preset
type Preset struct {
	ID        string               `json:"id"`
	OwnerID   string               `json:"owner_id"`
	Name      string               `json:"name"`
	Members   []string             `json:"members"`
	Setting   domain.PresetSetting `json:"setting"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewServer creates a new API server
func NewServer(uc *biz.Usecases, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		uc:     uc,
		logger: logger.Named("api"),
		addr:   addr,
	}
}

// Handler builds the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Users
	mux.HandleFunc("/api/users", s.handleUsers)
	mux.HandleFunc("/api/users/{id}", s.handleUserItem)
	mux.HandleFunc("/api/users/{id}/posts", s.handleUserPosts)

	// Notification feed
	mux.HandleFunc("/api/users/{id}/notifications", s.handleNotifications)

	// Posts
	mux.HandleFunc("/api/posts", s.handlePosts)
	mux.HandleFunc("/api/posts/{id}", s.handlePostItem)
	mux.HandleFunc("/api/highlights", s.handleHighlights)

	// Presets
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/presets/{id}", s.handlePresetItem)

	// Digest subscription
	mux.HandleFunc("/api/digest", s.handleDigest)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============ User Handlers ============

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		users, err := s.uc.User.List(ctx)
		if err != nil {
			s.writeError(w, err)
			return
		}
		result := make([]User, len(users))
		for i, u := range users {
			result[i] = ConvertUser(u)
		}
		s.writeJSON(w, map[string]interface{}{"users": result})

	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		user, err := s.uc.User.Register(ctx, req.Name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSONStatus(w, http.StatusCreated, ConvertUser(user))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUserItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		user, err := s.uc.User.Get(ctx, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, ConvertUser(user))

	case http.MethodDelete:
		// Only the account holder may delete the account
		if r.Header.Get(ActorHeader) != id {
			s.writeError(w, domain.ErrForbidden)
			return
		}
		if err := s.uc.User.Delete(ctx, id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{"success": true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	highlighted := queryBool(r, "highlighted")
	posts, err := s.uc.Post.ListByAuthor(r.Context(), r.PathValue("id"), highlighted, queryInt(r, "limit", 0))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePosts(w, posts)
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	posts, err := s.uc.Post.ListHighlights(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePosts(w, posts)
}

func (s *Server) writePosts(w http.ResponseWriter, posts []*domain.Post) {
	result := make([]Post, len(posts))
	for i, p := range posts {
		result[i] = ConvertPost(p)
	}
	s.writeJSON(w, map[string]interface{}{"posts": result})
}

// ============ Notification Handlers ============

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	// A feed reveals who the user watches, so only its owner may read it
	id := r.PathValue("id")
	if actor != id {
		s.writeError(w, domain.ErrForbidden)
		return
	}

	limit := queryInt(r, "limit", 0)
	if limit <= 0 || limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	feed, err := s.uc.Notification.Feed(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"notifications": feed})
}

// ============ Post Handlers ============

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	var req struct {
		Content     string `json:"content"`
		Highlighted bool   `json:"highlighted"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	post, err := s.uc.Post.Create(r.Context(), actor, req.Content, req.Highlighted)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONStatus(w, http.StatusCreated, ConvertPost(post))
}

func (s *Server) handlePostItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		post, err := s.uc.Post.Get(ctx, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, ConvertPost(post))

	case http.MethodPatch:
		actor, ok := s.actor(w, r)
		if !ok {
			return
		}
		var req struct {
			Content     *string `json:"content"`
			Highlighted *bool   `json:"highlighted"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		post, err := s.uc.Post.Edit(ctx, actor, id, domain.PostPatch{Content: req.Content, Highlighted: req.Highlighted})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, ConvertPost(post))

	case http.MethodDelete:
		actor, ok := s.actor(w, r)
		if !ok {
			return
		}
		if err := s.uc.Post.Delete(ctx, actor, id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{"success": true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ============ Preset Handlers ============

type presetRequest struct {
	Name    *string              `json:"name"`
	Members *[]string            `json:"members"`
	Setting *domain.SettingPatch `json:"setting"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		presets, err := s.uc.Preset.List(ctx, actor)
		if err != nil {
			s.writeError(w, err)
			return
		}
		result := make([]Preset, len(presets))
		for i, p := range presets {
			result[i] = ConvertPreset(p)
		}
		s.writeJSON(w, map[string]interface{}{"presets": result})

	case http.MethodPost:
		var req presetRequest
		if !s.decode(w, r, &req) {
			return
		}
		in := domain.PresetInput{Setting: req.Setting}
		if req.Name != nil {
			in.Name = *req.Name
		}
		if req.Members != nil {
			in.Members = *req.Members
		}
		preset, err := s.uc.Preset.Create(ctx, actor, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSONStatus(w, http.StatusCreated, ConvertPreset(preset))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePresetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		preset, err := s.uc.Preset.Get(ctx, actor, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, ConvertPreset(preset))

	case http.MethodPatch:
		var req presetRequest
		if !s.decode(w, r, &req) {
			return
		}
		preset, err := s.uc.Preset.Update(ctx, actor, id, domain.PresetPatch{
			Name:    req.Name,
			Members: req.Members,
			Setting: req.Setting,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, ConvertPreset(preset))

	case http.MethodDelete:
		if err := s.uc.Preset.Delete(ctx, actor, id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{"success": true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ============ Digest Handlers ============

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		sub, err := s.uc.Digest.Get(ctx, actor)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{
			"chat_id":           sub.ChatID,
			"last_delivered_at": sub.LastDeliveredAt,
			"created_at":        sub.CreatedAt,
			"delivery_enabled":  s.uc.Digest.IsDeliveryEnabled(),
		})

	case http.MethodPut:
		var req struct {
			ChatID string `json:"chat_id"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		sub, err := s.uc.Digest.Subscribe(ctx, actor, req.ChatID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{
			"chat_id":          sub.ChatID,
			"delivery_enabled": s.uc.Digest.IsDeliveryEnabled(),
		})

	case http.MethodDelete:
		if err := s.uc.Digest.Unsubscribe(ctx, actor); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{"success": true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ============ Helper Functions ============

func (s *Server) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := r.Header.Get(ActorHeader)
	if actor == "" {
		http.Error(w, ActorHeader+" header is required", http.StatusUnauthorized)
		return "", false
	}
	return actor, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func queryBool(r *http.Request, key string) bool {
	parsed, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && parsed
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	s.writeJSONStatus(w, http.StatusOK, data)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	s.writeJSONStatus(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrPresetNotFound),
		errors.Is(err, domain.ErrNotSubscribed):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ConvertUser converts domain.User to api.User
func ConvertUser(u *domain.User) User {
	return User{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

// ConvertPost converts domain.Post to api.Post
func ConvertPost(p *domain.Post) Post {
	return Post{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Content:     p.Content,
		Highlighted: p.Highlighted,
		CreatedAt:   p.CreatedAt,
		ModifiedAt:  p.ModifiedAt,
	}
}

// ConvertPreset converts domain.Preset to api.Preset
func ConvertPreset(p *domain.Preset) Preset {
	members := p.Members
	if members == nil {
		members = []string{}
	}
	return Preset{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Members:   members,
		Setting:   p.Setting,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
