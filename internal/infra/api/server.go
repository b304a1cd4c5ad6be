package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/repository"
	"social-autopost/internal/usecase"
)

// Server exposes the admin surface: CRUD over categories, prompts, slots and
// posts, plus lifecycle actions (approve, retry) and operational endpoints.
type Server struct {
	categories *usecase.CategoryUseCase
	prompts    *usecase.PromptUseCase
	slots      *usecase.SlotUseCase
	posts      *usecase.PostUseCase
	auth       *AuthManager
	log        *zerolog.Logger
}

func NewServer(
	categories *usecase.CategoryUseCase,
	prompts *usecase.PromptUseCase,
	slots *usecase.SlotUseCase,
	posts *usecase.PostUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		categories: categories,
		prompts:    prompts,
		slots:      slots,
		posts:      posts,
		auth:       auth,
		log:        &l,
	}
}

// Router builds the chi mux with middleware and all routes attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(30*time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", s.auth.HandleToken)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require)
			s.mountAdminRoutes(r)
		})
	})
	return r
}

func (s *Server) mountAdminRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.listCategories)
		r.Post("/", s.createCategory)
		r.Get("/{id}", s.getCategory)
		r.Put("/{id}", s.updateCategory)
		r.Delete("/{id}", s.deleteCategory)
	})
	r.Route("/prompts", func(r chi.Router) {
		r.Get("/", s.listPrompts)
		r.Post("/", s.createPrompt)
		r.Get("/{id}", s.getPrompt)
		r.Put("/{id}", s.updatePrompt)
		r.Delete("/{id}", s.deletePrompt)
	})
	r.Route("/slots", func(r chi.Router) {
		r.Get("/", s.listSlots)
		r.Post("/", s.createSlot)
		r.Get("/{id}", s.getSlot)
		r.Put("/{id}", s.updateSlot)
		r.Delete("/{id}", s.deleteSlot)
	})
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", s.listPosts)
		r.Post("/", s.createPost)
		r.Get("/{id}", s.getPost)
		r.Delete("/{id}", s.deletePost)
		r.Post("/{id}/approve", s.approvePost)
		r.Post("/{id}/retry", s.retryPost)
	})
}

//
// ---------------- categories ----------------
//

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Active      *bool  `json:"active,omitempty"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.categories.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	category, err := s.categories.Create(r.Context(), req.Name, req.Description, req.Priority)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, category)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.categories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.categories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	category.Name = req.Name
	category.Description = req.Description
	category.Priority = req.Priority
	if req.Active != nil {
		category.Active = *req.Active
	}
	category.UpdatedAt = time.Now()
	if err := s.categories.Update(r.Context(), category); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//
// ---------------- prompts ----------------
//

type promptRequest struct {
	Name       string `json:"name"`
	Content    string `json:"content"`
	CategoryID string `json:"categoryId"`
	Weight     int    `json:"weight"`
	Active     *bool  `json:"active,omitempty"`
}

func (s *Server) listPrompts(w http.ResponseWriter, r *http.Request) {
	var (
		items []*model.Prompt
		err   error
	)
	if categoryID := r.URL.Query().Get("categoryId"); categoryID != "" {
		activeOnly := r.URL.Query().Get("active") == "true"
		items, err = s.prompts.ListByCategory(r.Context(), categoryID, activeOnly)
	} else {
		items, err = s.prompts.List(r.Context())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) createPrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	prompt, err := s.prompts.Create(r.Context(), req.Name, req.Content, req.CategoryID, req.Weight)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, prompt)
}

func (s *Server) getPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.prompts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, prompt)
}

func (s *Server) updatePrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.prompts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	prompt.Name = req.Name
	prompt.Content = req.Content
	prompt.CategoryID = req.CategoryID
	prompt.Weight = req.Weight
	if req.Active != nil {
		prompt.Active = *req.Active
	}
	prompt.UpdatedAt = time.Now()
	if err := s.prompts.Update(r.Context(), prompt); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, prompt)
}

func (s *Server) deletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.prompts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//
// ---------------- slots ----------------
//

type slotRequest struct {
	Time       string   `json:"time"`
	DaysOfWeek []string `json:"daysOfWeek"`
	CategoryID string   `json:"categoryId"`
	Timezone   string   `json:"timezone"`
	Active     *bool    `json:"active,omitempty"`
}

func (s *Server) listSlots(w http.ResponseWriter, r *http.Request) {
	items, err := s.slots.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) createSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	slot, err := s.slots.Create(r.Context(), req.Time, req.DaysOfWeek, req.CategoryID, req.Timezone)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, slot)
}

func (s *Server) getSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := s.slots.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, slot)
}

func (s *Server) updateSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := s.slots.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	// rebuild through the constructor so time/day/timezone validation applies
	updated, err := model.NewScheduleSlot(slot.ID, req.Time, req.DaysOfWeek, req.CategoryID, req.Timezone)
	if err != nil {
		s.writeError(w, err)
		return
	}
	updated.CreatedAt = slot.CreatedAt
	if req.Active != nil {
		updated.Active = *req.Active
	}
	if err := s.slots.Update(r.Context(), updated); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := s.slots.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//
// ---------------- posts ----------------
//

type postRequest struct {
	Content        string    `json:"content"`
	ScheduledTime  time.Time `json:"scheduledTime"`
	CategoryID     string    `json:"categoryId"`
	PromptID       string    `json:"promptId"`
	MediaURL       string    `json:"mediaUrl"`
	ParentPostID   string    `json:"parentPostId"`
	ThreadPosition int       `json:"threadPosition"`
	Draft          bool      `json:"draft"`
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PostFilter{
		Status:     model.PostStatus(q.Get("status")),
		CategoryID: q.Get("categoryId"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	items, err := s.posts.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	post, err := s.posts.Create(r.Context(), usecase.CreatePostInput{
		Content:        req.Content,
		ScheduledTime:  req.ScheduledTime,
		CategoryID:     req.CategoryID,
		PromptID:       req.PromptID,
		MediaURL:       req.MediaURL,
		ParentPostID:   req.ParentPostID,
		ThreadPosition: req.ThreadPosition,
		Draft:          req.Draft,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, post)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) approvePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) retryPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

//
// ---------------- helpers ----------------
//

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
