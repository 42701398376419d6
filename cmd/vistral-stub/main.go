// vistral-stub is a canned-data stand-in for the analysis backend, for
// developing the client without the real pipeline. It honors the same
// endpoint contract, including detail-bearing error responses, and fakes
// everything behind it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	processDelay := flag.Duration("process-delay", 2*time.Second, "simulated processing time")
	flag.Parse()

	s := newStub(*processDelay)

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/video/status", s.serviceStatus).Methods("GET")
	r.HandleFunc("/video/process", s.processVideo).Methods("POST")
	r.HandleFunc("/video/history", s.videoHistory).Methods("GET")
	r.HandleFunc("/video/details/{video_id}", s.videoDetails).Methods("GET")
	r.HandleFunc("/analysis/chat/start", s.chatStart).Methods("POST")
	r.HandleFunc("/analysis/chat/message", s.chatMessage).Methods("POST")
	r.HandleFunc("/auth/signin", s.signIn).Methods("POST")
	r.HandleFunc("/auth/signup", s.signIn).Methods("POST")

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler(r)

	fmt.Println("vistral-stub listening on", *addr)
	if err := http.ListenAndServe(*addr, handler); err != nil {
		fmt.Println("server error:", err)
	}
}

type stub struct {
	processDelay time.Duration

	mu       sync.Mutex
	sessions map[string]string // session id -> video id
	videos   []map[string]any
}

func newStub(processDelay time.Duration) *stub {
	return &stub{
		processDelay: processDelay,
		sessions:     make(map[string]string),
		videos: []map[string]any{
			{
				"id": "vid-demo-1", "title": "Falcon Launch Recap", "duration": 323,
				"created_at": "2026-08-30T10:00:00Z", "processing_status": "completed",
				"source_type": "youtube",
			},
			{
				"id": "vid-demo-2", "title": "Stage Test (processing)", "duration": 70,
				"created_at": "2026-08-31T09:30:00Z", "processing_status": "processing",
				"source_type": "upload",
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *stub) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *stub) serviceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"services": map[string]bool{
			"transcriber":  true,
			"vector_store": true,
			"summarizer":   true,
		},
	})
}

func (s *stub) processVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	youtubeURL := r.FormValue("youtube_url")
	_, _, fileErr := r.FormFile("video_file")
	if youtubeURL == "" && fileErr != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "either youtube_url or video_file is required")
		return
	}

	time.Sleep(s.processDelay)

	videoID := "vid-" + uuid.NewString()[:8]
	s.mu.Lock()
	s.videos = append([]map[string]any{{
		"id": videoID, "title": "Falcon Launch Recap", "duration": 323,
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"processing_status": "completed", "source_type": sourceType(youtubeURL),
	}}, s.videos...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.detailsPayload(videoID))
}

func sourceType(youtubeURL string) string {
	if youtubeURL != "" {
		return "youtube"
	}
	return "upload"
}

func (s *stub) videoHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	s.mu.Lock()
	videos := s.videos
	if len(videos) > limit {
		videos = videos[:limit]
	}
	out := append([]map[string]any(nil), videos...)
	s.mu.Unlock()

	payload := map[string]any{"videos": out}
	if r.Header.Get("Authorization") == "" {
		payload["message"] = "Sign in to keep your video history across devices."
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *stub) videoDetails(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["video_id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.videos {
		if v["id"] == videoID {
			if v["processing_status"] != "completed" {
				writeDetail(w, http.StatusConflict, "video is still processing")
				return
			}
			writeJSON(w, http.StatusOK, s.detailsPayload(videoID))
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "video not found")
}

func (s *stub) detailsPayload(videoID string) map[string]any {
	return map[string]any{
		"status":                    "completed",
		"video_id":                  videoID,
		"keyframes_count":           3,
		"transcript_segments_count": 2,
		"summary_generated":         true,
		"metadata": map[string]any{
			"title": "Falcon Launch Recap",
			"video": map[string]any{"title": "Falcon Launch Recap", "duration": 323},
			"transcript": map[string]any{
				"segments": []map[string]string{
					{"text": "Liftoff confirmed, all engines nominal."},
					{"text": "Stage separation at two minutes fifteen."},
				},
			},
			"keyframes": []map[string]any{
				{"frame_id": 1, "timestamp": 4, "scene_description": "Rocket on the pad", "oss_image_url": "http://localhost:8000/static/kf1.jpg"},
				{"frame_id": 2, "timestamp": 135, "scene_description": "Stage separation", "oss_image_url": "http://localhost:8000/static/kf2.jpg"},
				{"timestamp": 310, "description": "Booster landing", "oss_image_url": "http://localhost:8000/static/kf3.jpg"},
			},
		},
		"video_summary": map[string]string{
			"detailed": "## Launch Recap\n\nThe vehicle lifts off at T-0, passes max-q at 1:12, and separates its first stage at **2:15**. The booster lands downrange at 5:10.",
			"brief":    "A launch, separation, and booster landing.",
		},
	}
}

func (s *stub) chatStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "video_id is required")
		return
	}

	sessionID := "sess-" + uuid.NewString()[:8]
	s.mu.Lock()
	s.sessions[sessionID] = req.VideoID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
}

func (s *stub) chatMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   string `json:"session_id"`
		Question    string `json:"question"`
		KeyframeIDs []int  `json:"keyframe_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	_, ok := s.sessions[req.SessionID]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "chat session not found")
		return
	}

	answer := "The first stage separates at **2:15**, right after main engine cutoff."
	if len(req.KeyframeIDs) > 0 {
		answer = fmt.Sprintf("Those %d keyframe(s) show the separation sequence: "+
			"cutoff, pneumatic pushers, then the interstage clearing the second-stage nozzle.",
			len(req.KeyframeIDs))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer": answer,
		"references": map[string]any{
			"time_ranges":  []map[string]float64{{"start_time": 135, "end_time": 150}},
			"keyframe_ids": []int{2},
		},
	})
}

func (s *stub) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": "stub-token-" + uuid.NewString()[:8],
		"token_type":   "bearer",
		"user":         map[string]string{"email": req.Email},
	})
}
