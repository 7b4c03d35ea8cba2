package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stillhq/still/internal/forum"
	"github.com/stillhq/still/internal/freshness"
)

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	threads, err := s.store.ListThreads(r.Context(), page, limit)
	if err != nil {
		// A listing failure renders to an empty page, not an error: the
		// forum being briefly unreachable should not break the front page.
		log.Printf("server: list threads: %v", err)
		threads = nil
	}
	if threads == nil {
		threads = []forum.Thread{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"threads": threads,
		"count":   len(threads),
	})
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" {
		http.Error(w, `{"error":"title and content are required"}`, http.StatusBadRequest)
		return
	}

	classification := s.classifier.Classify(r.Context(), req.Title, req.Content)

	thread, err := s.store.CreateThread(r.Context(), req.Title, req.Content, classification.ThreadMetadata())
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"thread":         thread,
		"classification": classification,
	})
}

// postView decorates a post with its freshness state as of this request.
type postView struct {
	forum.Post
	CurrentState forum.State `json:"currentState,omitempty"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	posts, err := s.store.RetrieveThreadPosts(r.Context(), threadID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	views := make([]postView, len(posts))
	for i := range posts {
		views[i] = postView{Post: posts[i], CurrentState: s.currentState(&posts[i])}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"posts": views,
		"stats": s.engine.ThreadStatistics(posts),
	})
}

// currentState answers "what is this post's state right now", going through
// the derived-state cache. The cache only skips recomputation; the metadata
// remains authoritative.
func (s *Server) currentState(post *forum.Post) forum.State {
	fm := post.Freshness()
	if fm == nil {
		return ""
	}
	if state, ok := s.cache.Get(post.ID); ok {
		return state
	}
	state := freshness.ComputeState(*fm, time.Now())
	s.cache.Set(post.ID, state)
	return state
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusBadRequest)
		return
	}

	thread, err := s.store.RetrieveThread(r.Context(), threadID)
	if errors.Is(err, forum.ErrNotFound) {
		http.Error(w, `{"error":"thread not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	meta := freshness.DefaultMetadata(thread.QuestionType(), time.Now())
	post, err := s.store.CreatePost(r.Context(), threadID, req.Content, meta)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"post": post})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	var req struct {
		ThreadID   string                `json:"thread_id"`
		Action     string                `json:"action"`
		Assessment *freshness.Assessment `json:"assessment,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	actionType := freshness.ActionType(req.Action)
	if actionType != freshness.ActionVerify && actionType != freshness.ActionReportOutdated {
		http.Error(w, `{"error":"invalid action"}`, http.StatusBadRequest)
		return
	}

	action := freshness.Action{
		Type:       actionType,
		Timestamp:  time.Now(),
		Assessment: req.Assessment,
	}

	post, err := s.store.RetrievePost(r.Context(), postID)
	if err != nil {
		// The verification gesture still counts from the requester's
		// perspective; the scheduler self-corrects state later.
		log.Printf("server: verify %s: retrieve post: %v", postID, err)
		fallback := forum.StateVerified
		if actionType == freshness.ActionReportOutdated {
			fallback = forum.StatePossiblyOutdated
		}
		s.verifyRecorded(w, fallback)
		return
	}

	fm := post.Freshness()
	if fm == nil {
		// Never-stamped post: seed a default record so the action lands on
		// the same baseline a fresh answer would have.
		fm = freshness.DefaultMetadata(s.questionTypeFor(r, req.ThreadID), post.CreatedAt).Freshness
	}

	updated, err := s.engine.ApplyVerification(*fm, action)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	meta := &forum.PostMetadata{Freshness: &updated}

	// Invalidate only after the write lands: dropping the entry first leaves a
	// window where a concurrent read re-caches the pre-write state.
	if _, err := s.store.UpdatePost(r.Context(), postID, meta); err != nil {
		log.Printf("server: verify %s: update post (non-fatal): %v", postID, err)
		s.cache.Invalidate(postID)
		s.verifyRecorded(w, updated.State)
		return
	}
	s.cache.Invalidate(postID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"state":    updated.State,
		"metadata": meta,
	})
}

func (s *Server) verifyRecorded(w http.ResponseWriter, state forum.State) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Verification recorded",
		"state":   state,
	})
}

// questionTypeFor resolves the thread's category when the caller supplied a
// thread id; otherwise the stable-concept default applies.
func (s *Server) questionTypeFor(r *http.Request, threadID string) forum.QuestionType {
	if threadID == "" {
		return forum.StableConcept
	}
	thread, err := s.store.RetrieveThread(r.Context(), threadID)
	if err != nil {
		return forum.StableConcept
	}
	return thread.QuestionType()
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	var req struct {
		ThreadID string `json:"thread_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.ThreadID == "" {
		http.Error(w, `{"error":"thread_id is required"}`, http.StatusBadRequest)
		return
	}

	if s.verifier == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "assessment not available: no LLM configured"})
		return
	}

	post, err := s.store.RetrievePost(r.Context(), postID)
	if err != nil {
		s.assessError(w, err)
		return
	}
	thread, err := s.store.RetrieveThread(r.Context(), req.ThreadID)
	if err != nil {
		s.assessError(w, err)
		return
	}

	assessment, err := s.verifier.Assess(r.Context(), post, thread)
	if err != nil {
		http.Error(w, `{"error":"failed to assess answer"}`, http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"assessment": assessment}
	if assessment.IsOutdated {
		resp["explanation"] = assessment.Reasoning
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) assessError(w http.ResponseWriter, err error) {
	if errors.Is(err, forum.ErrNotFound) {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusNotFound)
		return
	}
	http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	if err := s.engine.RecalculateThreadFreshness(r.Context(), threadID); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	s.cache.InvalidateThread(threadID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Thread freshness recalculated",
	})
}

func (s *Server) handleSchedulerTrigger(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.TriggerManual(r.Context()); err != nil {
		http.Error(w, `{"error":"failed to trigger recalculation"}`, http.StatusInternalServerError)
		return
	}
	s.cache.Clear()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Freshness recalculation triggered",
	})
}
