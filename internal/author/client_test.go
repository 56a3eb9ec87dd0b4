package author

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/kinetic/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"content": content}, "finish_reason": "stop"}},
	})
}

// TestGenerateFromIdea verifies the request envelope and that the reply is
// parsed into a draft.
func TestGenerateFromIdea(t *testing.T) {
	var got chatRequest
	var auth, path string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		reply(w, "```json\n{\"programName\":\"Starter\",\"workouts\":[{\"name\":\"A\",\"exercises\":[{\"name\":\"Squat\",\"sets\":3,\"metricValue\":\"5\",\"metricUnit\":\"reps\"}]}]}\n```")
	})

	d, err := c.GenerateFromIdea(context.Background(),
		models.ProgramIdea{ProgramName: "Starter", Goal: "Strength", Level: "Beginner"},
		models.Profile{Name: "Alice", Goal: "muscle-gain"})
	if err != nil {
		t.Fatalf("GenerateFromIdea: %v", err)
	}
	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if path != "/chat/completions" {
		t.Errorf("path = %q", path)
	}
	if got.Model != "test-model" || len(got.Messages) != 1 {
		t.Fatalf("request = %+v", got)
	}
	prompt, _ := got.Messages[0].Content.(string)
	if !strings.Contains(prompt, `"Starter"`) || !strings.Contains(prompt, "goal: muscle-gain") {
		t.Errorf("prompt missing idea or profile context: %s", prompt)
	}
	if d.Program.Name != "Starter" || len(d.Program.Workouts) != 1 {
		t.Errorf("draft = %+v", d)
	}
}

func TestGenerateFromPromptRules(t *testing.T) {
	var prompt string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt, _ = req.Messages[0].Content.(string)
		reply(w, `{"programName":"Week","workouts":[{"name":"Week 1, Day 1 (Monday): Legs","exercises":[{"name":"Squat","sets":3}]},{"name":"Week 1, Day 2 (Tuesday): Rest","exercises":[]}]}`)
	})

	d, err := c.GenerateFromPrompt(context.Background(), "4 week beginner plan", models.DefaultProfile())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"4 week beginner plan", "begin on a Monday", `EMPTY "exercises" array`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !d.Program.Workouts[1].IsRest() {
		t.Error("second day should be a rest day")
	}

	if _, err := c.GenerateFromPrompt(context.Background(), "   ", models.DefaultProfile()); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty prompt err = %v", err)
	}
}

// TestExtractFromDocument checks text goes inline and binaries as data URLs.
func TestExtractFromDocument(t *testing.T) {
	var raw map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		reply(w, `{"programName":"Doc","workouts":[]}`)
	})
	content := func() any {
		return raw["messages"].([]any)[0].(map[string]any)["content"]
	}

	if _, err := c.ExtractFromDocument(context.Background(), "text/plain; charset=utf-8", []byte("Day 1: Squat 3x5")); err != nil {
		t.Fatal(err)
	}
	text, ok := content().(string)
	if !ok || !strings.Contains(text, "Squat 3x5") {
		t.Errorf("text document content = %#v", content())
	}

	if _, err := c.ExtractFromDocument(context.Background(), "application/pdf", []byte("%PDF")); err != nil {
		t.Fatal(err)
	}
	parts, ok := content().([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("pdf content = %#v", content())
	}
	url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if url != "data:application/pdf;base64,JVBERg==" {
		t.Errorf("data url = %q", url)
	}

	if _, err := c.ExtractFromDocument(context.Background(), "text/plain", nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty document err = %v", err)
	}
}

func TestDiscoverIdeas(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, `[{"programName":"A","description":"d","goal":"g","level":"l"},{"programName":"B"}]`)
	})
	ideas, err := c.DiscoverIdeas(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ideas) != 2 || ideas[0].Goal != "g" {
		t.Errorf("ideas = %+v", ideas)
	}
}

func TestClientErrors(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		c := NewClient(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if c.Available() {
			t.Error("client without key should be unavailable")
		}
		if _, err := c.DiscoverIdeas(context.Background()); !errors.Is(err, ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("api error", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
		})
		_, err := c.DiscoverIdeas(context.Background())
		if !errors.Is(err, ErrUpstream) || !strings.Contains(err.Error(), "rate limited") {
			t.Errorf("err = %v, want ErrUpstream with message", err)
		}
	})

	t.Run("non-json error page", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		})
		if _, err := c.DiscoverIdeas(context.Background()); !errors.Is(err, ErrUpstream) {
			t.Errorf("err = %v, want ErrUpstream", err)
		}
	})

	t.Run("garbage reply", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			reply(w, "I cannot do that")
		})
		if _, err := c.GenerateFromPrompt(context.Background(), "x", models.Profile{}); !errors.Is(err, ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			reply(w, "{}")
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.DiscoverIdeas(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
