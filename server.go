package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bodul/crossgrid/crossword"
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Server is the main HTTP server.
type Server struct {
	mux        *http.ServeMux
	store      *Store
	scanner    WordListScanner
	sse        *Broadcaster
	log        *zap.Logger
	gen        crossword.Config
	maxUpload  int64
	generateRL *rateLimiter
	scanRL     *rateLimiter
	moveRL     *rateLimiter
}

// NewServer creates a configured HTTP server. scanner may be nil, in which
// case word list scanning is disabled.
func NewServer(cfg Config, store *Store, scanner WordListScanner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mux:        http.NewServeMux(),
		store:      store,
		scanner:    scanner,
		sse:        NewBroadcaster(log.Named("sse")),
		log:        log,
		gen:        cfg.Generator,
		maxUpload:  cfg.Limits.MaxUploadBytes,
		generateRL: newRateLimiter(cfg.Limits.GeneratePerMinute, time.Minute),
		scanRL:     newRateLimiter(cfg.Limits.ScanPerMinute, time.Minute),
		moveRL:     newRateLimiter(cfg.Limits.MovesPerSecond, time.Second),
	}
	s.gen.Logger = log.Named("solver")
	s.routes()
	return s
}

func (s *Server) routes() {
	// Crossword API
	s.mux.HandleFunc("POST /api/crosswords", s.handleCreateCrossword)
	s.mux.HandleFunc("GET /api/crosswords", s.handleListCrosswords)
	s.mux.HandleFunc("GET /api/crosswords/{id}", s.handleGetCrossword)
	s.mux.HandleFunc("POST /api/wordlists/scan", s.handleScanWordList)

	// Game API
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("POST /api/games/{id}/join", s.handleJoinGame)
	s.mux.HandleFunc("POST /api/games/{id}/move", s.handleMove)
	s.mux.HandleFunc("POST /api/games/{id}/check", s.handleCheck)
	s.mux.HandleFunc("GET /api/games/{id}/events", s.handleGameEvents)

	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	s.mux.ServeHTTP(w, r)
}

// limiters returns the per-client rate limiters for background sweeping.
func (s *Server) limiters() []*rateLimiter {
	return []*rateLimiter{s.generateRL, s.scanRL, s.moveRL}
}

// --- Crossword handlers ---

type createCrosswordRequest struct {
	Title string               `json:"title" validate:"max=120"`
	Seed  *int64               `json:"seed"`
	Words []crossword.RawEntry `json:"words" validate:"required,min=2,max=100,dive"`
}

// POST /api/crosswords: generate a crossword from a word list and store it.
func (s *Server) handleCreateCrossword(w http.ResponseWriter, r *http.Request) {
	if !s.generateRL.allow(clientIP(r)) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	var req createCrosswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	cfg := s.gen
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	// Seed 0 selects the default; store the seed actually used.
	if cfg.Seed == 0 {
		cfg.Seed = crossword.DefaultSeed
	}

	start := time.Now()
	res, err := crossword.Generate(r.Context(), req.Words, cfg)
	generationDuration.Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, crossword.ErrTooFewWords):
		generationsTotal.WithLabelValues("too_few_words").Inc()
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, crossword.ErrFatalPlacement):
		generationsTotal.WithLabelValues("fatal_placement").Inc()
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		generationsTotal.WithLabelValues("error").Inc()
		s.log.Error("generate crossword", zap.Error(err))
		jsonError(w, "crossword generation failed", http.StatusInternalServerError)
		return
	}

	cw := s.store.SaveCrossword(newCrossword(strings.TrimSpace(req.Title), cfg.Seed, res))
	skippedWordsTotal.Add(float64(len(res.Skipped)))
	if len(cw.Warnings) > 0 {
		generationsTotal.WithLabelValues("warning").Inc()
		s.log.Warn("crossword generated with warnings",
			zap.String("id", cw.ID),
			zap.Strings("warnings", cw.Warnings))
	} else {
		generationsTotal.WithLabelValues("ok").Inc()
	}
	s.log.Info("crossword generated",
		zap.String("id", cw.ID),
		zap.Int("placed", res.Stats.Placed),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("intersections", res.Stats.Intersections),
		zap.Int64("seed", cfg.Seed))

	writeJSON(w, http.StatusCreated, cw)
}

// GET /api/crosswords: list all crosswords.
func (s *Server) handleListCrosswords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListCrosswords())
}

// GET /api/crosswords/{id}: get a single crossword with its answers.
func (s *Server) handleGetCrossword(w http.ResponseWriter, r *http.Request) {
	cw := s.store.GetCrossword(r.PathValue("id"))
	if cw == nil {
		jsonError(w, "crossword not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cw)
}

// POST /api/wordlists/scan: transcribe a photographed word list.
func (s *Server) handleScanWordList(w http.ResponseWriter, r *http.Request) {
	if !s.scanRL.allow(clientIP(r)) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	if s.scanner == nil {
		jsonError(w, "word list scanning is not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		jsonError(w, "image too large", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, "field 'image' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedMIME[mimeType] {
		jsonError(w, "accepted formats: JPEG or PNG", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "could not read image", http.StatusInternalServerError)
		return
	}

	words, err := s.scanner.ScanWordList(r.Context(), imageData, mimeType)
	switch {
	case errors.Is(err, errEmptyScan):
		scansTotal.WithLabelValues("empty").Inc()
		jsonError(w, "no word/clue pairs found in the image", http.StatusUnprocessableEntity)
		return
	case err != nil:
		scansTotal.WithLabelValues("error").Inc()
		s.log.Error("scan word list", zap.Error(err))
		jsonError(w, "word list scan failed", http.StatusInternalServerError)
		return
	}
	scansTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, map[string]any{"words": words})
}

// --- Game handlers ---

// gameView is a game as shown to players: no answers.
type gameView struct {
	ID          string             `json:"id"`
	CrosswordID string             `json:"crossword_id"`
	Title       string             `json:"title"`
	Players     map[string]*Player `json:"players"`
	State       [][]string         `json:"state"`
	Layout      *crossword.Layout  `json:"layout"`
	Clues       *crossword.Puzzle  `json:"clues"`
	Online      int                `json:"online"`
	CreatedAt   time.Time          `json:"created_at"`
}

func (s *Server) viewGame(game *GameSession) gameView {
	v := gameView{
		ID:          game.ID,
		CrosswordID: game.CrosswordID,
		Players:     game.GetPlayers(),
		State:       game.GetState(),
		Online:      s.sse.ClientCount(game.ID),
		CreatedAt:   game.CreatedAt,
	}
	if cw := s.store.GetCrossword(game.CrosswordID); cw != nil {
		v.Title = cw.Title
		v.Layout = cw.Blank()
		v.Clues = cw.Clues()
	}
	return v
}

// POST /api/games: start a game on a crossword.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CrosswordID string `json:"crossword_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		jsonError(w, "field 'crossword_id' is required", http.StatusBadRequest)
		return
	}

	game, err := s.store.CreateGame(req.CrosswordID)
	if err != nil {
		jsonError(w, "crossword not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, s.viewGame(game))
}

// GET /api/games: list games, most recent first.
func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	games := s.store.ListGames()
	views := make([]gameView, 0, len(games))
	for _, g := range games {
		views = append(views, s.viewGame(g))
	}
	writeJSON(w, http.StatusOK, views)
}

// GET /api/games/{id}: get current game state.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.viewGame(game))
}

// POST /api/games/{id}/join: join a game with a pseudo.
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "game not found", http.StatusNotFound)
		return
	}

	var req struct {
		Pseudo string `json:"pseudo" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		jsonError(w, "field 'pseudo' is required", http.StatusBadRequest)
		return
	}

	pseudo := sanitizePseudo(req.Pseudo)
	if pseudo == "" {
		jsonError(w, "invalid pseudo", http.StatusBadRequest)
		return
	}

	player := game.AddPlayer(pseudo)
	s.sse.Publish(game.ID, Event{Type: "player_joined", Pseudo: player.Pseudo, Color: player.Color})

	writeJSON(w, http.StatusOK, player)
}

type moveRequest struct {
	Pseudo string `json:"pseudo"`
	Row    int    `json:"row" validate:"gte=0"`
	Col    int    `json:"col" validate:"gte=0"`
	Value  string `json:"value"`
}

// POST /api/games/{id}/move: place or erase a letter.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if !s.moveRL.allow(clientIP(r)) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "game not found", http.StatusNotFound)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		jsonError(w, "position out of bounds", http.StatusBadRequest)
		return
	}

	// Value must be empty (erase) or a single letter A-Z.
	value := strings.ToUpper(strings.TrimSpace(req.Value))
	if value != "" && (utf8.RuneCountInString(value) != 1 || value < "A" || value > "Z") {
		jsonError(w, "invalid value: one letter A-Z or empty", http.StatusBadRequest)
		return
	}

	switch err := game.SetCell(req.Row, req.Col, value); {
	case errors.Is(err, errBlackCell):
		jsonError(w, "black square", http.StatusBadRequest)
		return
	case err != nil:
		jsonError(w, "position out of bounds", http.StatusBadRequest)
		return
	}

	s.sse.Publish(game.ID, Event{
		Type:   "cell_update",
		Row:    &req.Row,
		Col:    &req.Col,
		Value:  value,
		Pseudo: sanitizePseudo(req.Pseudo),
	})

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/games/{id}/check: list wrong letters.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "game not found", http.StatusNotFound)
		return
	}

	wrong, solved := game.Check()
	if wrong == nil {
		wrong = []crossword.Coord{}
	}
	if solved {
		s.sse.Publish(game.ID, Event{Type: "solved", Solved: true})
	}
	writeJSON(w, http.StatusOK, map[string]any{"wrong": wrong, "solved": solved})
}

// GET /api/games/{id}/events: SSE stream.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "game not found", http.StatusNotFound)
		return
	}

	playerPseudo := sanitizePseudo(r.URL.Query().Get("pseudo"))

	s.sse.ServeSSE(w, r, game.ID, func(c *client) {
		c.send(Event{
			Type:    "game_state",
			State:   game.GetState(),
			Players: game.GetPlayers(),
			Online:  s.sse.ClientCount(game.ID),
		})
	}, func() {
		if playerPseudo != "" {
			game.RemovePlayer(playerPseudo)
			s.sse.Publish(game.ID, Event{Type: "player_left", Pseudo: playerPseudo})
		}
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// validationMessage reports the first failing field of a validator error.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Field() == "Words" && fe.Tag() == "min" {
			return "at least two words with clues are required"
		}
		return "invalid field " + fe.Namespace() + ": " + fe.Tag()
	}
	return "invalid request"
}

func sanitizePseudo(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 20 {
		s = string([]rune(s)[:20])
	}
	return s
}
