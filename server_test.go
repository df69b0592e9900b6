package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/bodul/crossgrid/crossword"
)

func newTestServer() *Server {
	return NewServer(DefaultConfig(), NewStore(), nil, nil)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

const catCar = `{"title":"pets","words":[{"word":"CAT","clue":"feline"},{"word":"CAR","clue":"vehicle"}]}`

func TestCreateCrossword(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, "POST", "/api/crosswords", catCar)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var cw Crossword
	if err := json.NewDecoder(w.Body).Decode(&cw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cw.ID == "" || cw.Title != "pets" {
		t.Fatalf("unexpected crossword %+v", cw)
	}
	if cw.Seed != crossword.DefaultSeed {
		t.Fatalf("expected default seed, got %d", cw.Seed)
	}
	if len(cw.Puzzle.Across) != 1 || len(cw.Puzzle.Down) != 1 {
		t.Fatalf("expected one across and one down clue, got %+v", cw.Puzzle)
	}
	if len(cw.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", cw.Warnings)
	}

	w = do(t, srv, "GET", "/api/crosswords/"+cw.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/api/crosswords", "")
	var list []Crossword
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("expected 1 crossword listed, got %d", len(list))
	}
	if w := do(t, srv, "GET", "/api/crosswords/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateCrosswordSeedIsReproducible(t *testing.T) {
	srv := newTestServer()
	body := `{"seed":7,"words":[{"word":"PYTHON","clue":"snake"},{"word":"HONEY","clue":"sweet"},{"word":"OTTER","clue":"swimmer"},{"word":"NOTE","clue":"memo"}]}`

	var a, b Crossword
	json.NewDecoder(do(t, srv, "POST", "/api/crosswords", body).Body).Decode(&a)
	json.NewDecoder(do(t, srv, "POST", "/api/crosswords", body).Body).Decode(&b)

	if a.Seed != 7 || b.Seed != 7 {
		t.Fatalf("seed not honoured: %d %d", a.Seed, b.Seed)
	}
	ja, _ := json.Marshal(a.Layout)
	jb, _ := json.Marshal(b.Layout)
	if !bytes.Equal(ja, jb) {
		t.Fatal("same seed and words should produce the same layout")
	}
}

func TestCreateCrosswordErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"one word", `{"words":[{"word":"CAT","clue":"feline"}]}`, http.StatusBadRequest},
		{"missing clue", `{"words":[{"word":"CAT"},{"word":"CAR","clue":"vehicle"}]}`, http.StatusBadRequest},
		{"normalizes to too few", `{"words":[{"word":"CAT","clue":"feline"},{"word":"42","clue":"answer"}]}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, newTestServer(), "POST", "/api/crosswords", tc.body)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateCrosswordFatalPlacement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.Width, cfg.Generator.Height = 5, 5
	srv := NewServer(cfg, NewStore(), nil, nil)

	w := do(t, srv, "POST", "/api/crosswords",
		`{"words":[{"word":"ELEPHANT","clue":"big"},{"word":"ANT","clue":"small"}]}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if len(srv.store.ListCrosswords()) != 0 {
		t.Fatal("failed generation must not be stored")
	}
}

func TestCreateCrosswordSkippedWarning(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, "POST", "/api/crosswords",
		`{"words":[{"word":"CAT","clue":"feline"},{"word":"DOG","clue":"canine"}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var cw Crossword
	json.NewDecoder(w.Body).Decode(&cw)
	if len(cw.Skipped) != 1 || cw.Skipped[0].Text != "DOG" {
		t.Fatalf("expected DOG skipped, got %+v", cw.Skipped)
	}
	if len(cw.Warnings) == 0 {
		t.Fatal("expected a warning for the skipped word")
	}
}

func TestFullGameFlow(t *testing.T) {
	srv := newTestServer()

	var cw Crossword
	json.NewDecoder(do(t, srv, "POST", "/api/crosswords", catCar).Body).Decode(&cw)

	// Create game.
	w := do(t, srv, "POST", "/api/games", `{"crossword_id":"`+cw.ID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d", w.Code)
	}
	var game gameView
	json.NewDecoder(w.Body).Decode(&game)
	if game.ID == "" || game.Title != "pets" {
		t.Fatalf("unexpected game %+v", game)
	}
	for _, row := range game.Layout.Cells {
		for _, cell := range row {
			if cell.Letter != "" {
				t.Fatal("game view leaks answers")
			}
		}
	}

	// Join.
	w = do(t, srv, "POST", "/api/games/"+game.ID+"/join", `{"pseudo":"Alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d", w.Code)
	}
	var player Player
	json.NewDecoder(w.Body).Decode(&player)
	if player.Pseudo != "Alice" || player.Color == "" {
		t.Fatalf("unexpected player %+v", player)
	}

	// Fill every letter cell.
	for r, row := range cw.Layout.Cells {
		for c, cell := range row {
			if cell.Black {
				continue
			}
			body, _ := json.Marshal(moveRequest{Pseudo: "Alice", Row: r, Col: c, Value: strings.ToLower(cell.Letter)})
			if w := do(t, srv, "POST", "/api/games/"+game.ID+"/move", string(body)); w.Code != http.StatusNoContent {
				t.Fatalf("move (%d,%d): expected 204, got %d: %s", r, c, w.Code, w.Body.String())
			}
		}
	}

	// Check.
	w = do(t, srv, "POST", "/api/games/"+game.ID+"/check", "")
	var check struct {
		Wrong  []crossword.Coord `json:"wrong"`
		Solved bool              `json:"solved"`
	}
	json.NewDecoder(w.Body).Decode(&check)
	if !check.Solved || len(check.Wrong) != 0 {
		t.Fatalf("expected solved grid, got %+v", check)
	}

	// Get state.
	w = do(t, srv, "GET", "/api/games/"+game.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get game: expected 200, got %d", w.Code)
	}
	json.NewDecoder(w.Body).Decode(&game)
	if r, c, letter := letterCell(&cw); game.State[r][c] != letter {
		t.Fatal("expected state to hold the played letters")
	}
}

func TestCreateGameUnknownCrossword(t *testing.T) {
	srv := newTestServer()

	if w := do(t, srv, "POST", "/api/games", `{"crossword_id":"nonexistent"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/games", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMoveValidation(t *testing.T) {
	srv := newTestServer()
	var cw Crossword
	json.NewDecoder(do(t, srv, "POST", "/api/crosswords", catCar).Body).Decode(&cw)
	game, err := srv.store.CreateGame(cw.ID)
	if err != nil {
		t.Fatal(err)
	}
	br, bc := blackCell(&cw)
	lr, lc, _ := letterCell(&cw)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"negative row", `{"row":-1,"col":0,"value":"A"}`, http.StatusBadRequest},
		{"out of bounds", `{"row":99,"col":0,"value":"A"}`, http.StatusBadRequest},
		{"two letters", `{"row":` + itoa(lr) + `,"col":` + itoa(lc) + `,"value":"AB"}`, http.StatusBadRequest},
		{"digit", `{"row":` + itoa(lr) + `,"col":` + itoa(lc) + `,"value":"1"}`, http.StatusBadRequest},
		{"black square", `{"row":` + itoa(br) + `,"col":` + itoa(bc) + `,"value":"A"}`, http.StatusBadRequest},
		{"erase", `{"row":` + itoa(lr) + `,"col":` + itoa(lc) + `,"value":""}`, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, srv, "POST", "/api/games/"+game.ID+"/move", tc.body)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}

	if w := do(t, srv, "POST", "/api/games/unknown/move", `{"row":0,"col":0,"value":"A"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

type stubScanner struct {
	words []crossword.RawEntry
	err   error
	mime  string
}

func (s *stubScanner) ScanWordList(_ context.Context, _ []byte, mimeType string) ([]crossword.RawEntry, error) {
	s.mime = mimeType
	return s.words, s.err
}

func multipartImage(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="list.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("\x89PNG fake image"))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestScanWordList(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		w := do(t, newTestServer(), "POST", "/api/wordlists/scan", "")
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
	})

	t.Run("ok", func(t *testing.T) {
		scanner := &stubScanner{words: []crossword.RawEntry{{Word: "chat", Clue: "cat"}, {Word: "chien", Clue: "dog"}}}
		srv := NewServer(DefaultConfig(), NewStore(), scanner, nil)

		body, ct := multipartImage(t, "image/png")
		req := httptest.NewRequest("POST", "/api/wordlists/scan", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Words []crossword.RawEntry `json:"words"`
		}
		json.NewDecoder(w.Body).Decode(&resp)
		if len(resp.Words) != 2 || resp.Words[1].Word != "chien" {
			t.Fatalf("unexpected words %+v", resp.Words)
		}
		if scanner.mime != "image/png" {
			t.Fatalf("scanner got mime %q", scanner.mime)
		}
	})

	t.Run("wrong format", func(t *testing.T) {
		srv := NewServer(DefaultConfig(), NewStore(), &stubScanner{}, nil)
		body, ct := multipartImage(t, "application/pdf")
		req := httptest.NewRequest("POST", "/api/wordlists/scan", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		srv := NewServer(DefaultConfig(), NewStore(), &stubScanner{err: errEmptyScan}, nil)
		body, ct := multipartImage(t, "image/jpeg")
		req := httptest.NewRequest("POST", "/api/wordlists/scan", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer()
	w := do(t, srv, "GET", "/healthz", "")

	if w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for k, v := range headers {
		if got := w.Header().Get(k); got != v {
			t.Errorf("header %s: expected %q, got %q", k, v, got)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer()
	do(t, srv, "POST", "/api/crosswords", catCar)

	w := do(t, srv, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "crossgrid_generation_duration_seconds") {
		t.Fatal("metrics output lacks generation histogram")
	}
}

func TestGenerateRateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.GeneratePerMinute = 1
	srv := NewServer(cfg, NewStore(), nil, nil)

	if w := do(t, srv, "POST", "/api/crosswords", catCar); w.Code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/crosswords", catCar); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Second)

	for i := range 3 {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("4th request should be blocked")
	}
	if !rl.allow("5.6.7.8") {
		t.Fatal("different IP should be allowed")
	}

	rl.mu.Lock()
	rl.visitors["1.2.3.4"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()
	rl.sweep(time.Minute)
	if rl.size() != 1 {
		t.Fatalf("expected idle visitor swept, %d left", rl.size())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected 10.0.0.1, got %s", got)
	}
	req.RemoteAddr = "unix"
	if got := clientIP(req); got != "unix" {
		t.Fatalf("expected raw addr, got %s", got)
	}
}

func TestCreateCrosswordReportsInvalidEntry(t *testing.T) {
	srv := newTestServer()

	for _, clue := range []string{"", "   "} {
		body := `{"words":[{"word":"CAT","clue":"feline"},{"word":"CAR","clue":"vehicle"},{"word":"TAR","clue":"` + clue + `"}]}`
		w := do(t, srv, "POST", "/api/crosswords", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("clue %q: expected 201, got %d: %s", clue, w.Code, w.Body.String())
		}
		var cw Crossword
		json.NewDecoder(w.Body).Decode(&cw)
		if len(cw.Invalid) != 1 || cw.Invalid[0].Index != 2 || cw.Invalid[0].Word != "TAR" {
			t.Fatalf("clue %q: expected TAR reported invalid, got %+v", clue, cw.Invalid)
		}
		if len(cw.Warnings) == 0 {
			t.Fatalf("clue %q: expected a warning", clue)
		}
	}

	w := do(t, srv, "POST", "/api/crosswords", `{"words":[{"word":"CAT","clue":"feline"},{"word":"","clue":"nothing"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("one usable entry: expected 400, got %d", w.Code)
	}
}

func TestCreateCrosswordZeroSeed(t *testing.T) {
	srv := newTestServer()
	body := `{"seed":0,"words":[{"word":"CAT","clue":"feline"},{"word":"CAR","clue":"vehicle"}]}`

	var cw Crossword
	json.NewDecoder(do(t, srv, "POST", "/api/crosswords", body).Body).Decode(&cw)
	if cw.Seed != crossword.DefaultSeed {
		t.Fatalf("expected seed 0 to resolve to %d, got %d", crossword.DefaultSeed, cw.Seed)
	}
	if cw.Stats.Attempts != 1 {
		t.Fatalf("expected a single attempt for a clean layout, got %d", cw.Stats.Attempts)
	}
}

func TestListGames(t *testing.T) {
	srv := newTestServer()
	var cw Crossword
	json.NewDecoder(do(t, srv, "POST", "/api/crosswords", catCar).Body).Decode(&cw)

	first, _ := srv.store.CreateGame(cw.ID)
	second, _ := srv.store.CreateGame(cw.ID)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	c := srv.sse.Register(second.ID)
	defer srv.sse.Unregister(c)

	w := do(t, srv, "GET", "/api/games", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var games []gameView
	json.NewDecoder(w.Body).Decode(&games)
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].ID != second.ID || games[0].Online != 1 || games[1].Online != 0 {
		t.Fatalf("unexpected order or online counts: %+v", games)
	}
	for _, row := range games[0].Layout.Cells {
		for _, cell := range row {
			if cell.Letter != "" {
				t.Fatal("game list leaks answers")
			}
		}
	}
}
