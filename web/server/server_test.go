package server

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(0, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, status int, v any) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != status {
		t.Fatalf("GET %s: expected status %d, got %d", path, status, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: failed to decode: %v", path, err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	getJSON(t, ts, "/api/health", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestScenes(t *testing.T) {
	ts := newTestServer(t)
	var scenes []struct{ Name string }
	getJSON(t, ts, "/api/scenes", http.StatusOK, &scenes)
	if len(scenes) != 4 {
		t.Errorf("Expected 4 scenes, got %d", len(scenes))
	}
}

func TestSceneConfig(t *testing.T) {
	ts := newTestServer(t)

	var config struct {
		Scene    string
		Defaults map[string]int
	}
	getJSON(t, ts, "/api/scene-config?scene=parallel-planes", http.StatusOK, &config)
	if config.Scene != "parallel-planes" {
		t.Errorf("Expected scene parallel-planes, got %q", config.Scene)
	}
	if config.Defaults["width"] != 15 || config.Defaults["maxDepth"] != 4 {
		t.Errorf("Unexpected defaults %v", config.Defaults)
	}

	var errBody map[string]string
	getJSON(t, ts, "/api/scene-config?scene=nope", http.StatusBadRequest, &errBody)
	if errBody["error"] == "" {
		t.Error("Expected an error message for an unknown scene")
	}
}

func TestInspect(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		query    string
		status   int
		material string
		geometry string
	}{
		{"Cornell lower center", "scene=cornell&width=64&height=64&x=32&y=40", http.StatusOK, "diffuse", "quad"},
		{"Mirror sphere", "scene=cornell-specular&width=64&height=64&x=40&y=50", http.StatusOK, "mirror", "sphere"},
		{"Out of bounds", "scene=cornell&width=64&height=64&x=64&y=0", http.StatusBadRequest, "", ""},
		{"Bad coordinate", "scene=cornell&x=a&y=0", http.StatusBadRequest, "", ""},
		{"Unknown scene", "scene=nope&x=0&y=0", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp InspectResponse
			getJSON(t, ts, "/api/inspect?"+tt.query, tt.status, &resp)
			if tt.status != http.StatusOK {
				return
			}
			if !resp.Hit {
				t.Fatal("Expected the inspection ray to hit")
			}
			if resp.MaterialType != tt.material || resp.GeometryType != tt.geometry {
				t.Errorf("Expected %s %s, got %s %s", tt.material, tt.geometry, resp.MaterialType, resp.GeometryType)
			}
			if resp.Distance <= 0 {
				t.Errorf("Expected a positive hit distance, got %f", resp.Distance)
			}
		})
	}
}

// readEvents collects the SSE event types and payloads of a response
func readEvents(t *testing.T, body io.Reader) (types []string, data []string) {
	t.Helper()
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			types = append(types, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to read event stream: %v", err)
	}
	return types, data
}

func TestRender_StreamsPasses(t *testing.T) {
	ts := newTestServer(t)

	query := url.Values{
		"scene":      {"cornell"},
		"width":      {"16"},
		"height":     {"16"},
		"maxSamples": {"3"},
		"maxPasses":  {"2"},
		"maxDepth":   {"3"},
	}
	resp, err := http.Get(ts.URL + "/api/render?" + query.Encode())
	if err != nil {
		t.Fatalf("Render request failed: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	types, data := readEvents(t, resp.Body)
	if len(types) == 0 || types[len(types)-1] != "complete" {
		t.Fatalf("Expected the stream to end with complete, got %v", types)
	}

	var passes []PassUpdate
	for i, typ := range types {
		if typ != "passComplete" {
			continue
		}
		var update PassUpdate
		if err := json.Unmarshal([]byte(data[i]), &update); err != nil {
			t.Fatalf("Failed to decode pass update: %v", err)
		}
		passes = append(passes, update)
	}
	if len(passes) != 2 {
		t.Fatalf("Expected 2 passes, got %d (%v)", len(passes), types)
	}
	if passes[1].SamplesPerPixel != 3 || !passes[1].IsLast {
		t.Errorf("Expected the last pass at 3 samples per pixel, got %+v", passes[1])
	}
	if passes[0].ImageData == "" || passes[0].TotalPixels != 256 {
		t.Errorf("Expected a 16x16 pass image, got %d pixels", passes[0].TotalPixels)
	}

	var sawConsole bool
	for _, typ := range types {
		sawConsole = sawConsole || typ == "console"
	}
	if !sawConsole {
		t.Error("Expected console messages from the renderer")
	}
}

func TestRender_InvalidRequest(t *testing.T) {
	ts := newTestServer(t)

	for _, query := range []string{"width=abc", "integrator=nope"} {
		t.Run(query, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/render?" + query)
			if err != nil {
				t.Fatalf("Render request failed: %v", err)
			}
			defer resp.Body.Close()

			types, _ := readEvents(t, resp.Body)
			if len(types) != 1 || types[0] != "error" {
				t.Errorf("Expected a single error event, got %v", types)
			}
		})
	}
}

func TestRender_PathTracing(t *testing.T) {
	ts := newTestServer(t)

	query := url.Values{
		"scene":      {"cornell"},
		"width":      {"8"},
		"height":     {"8"},
		"maxSamples": {"2"},
		"maxPasses":  {"1"},
		"maxDepth":   {"3"},
		"integrator": {"path-tracing"},
	}
	resp, err := http.Get(ts.URL + "/api/render?" + query.Encode())
	if err != nil {
		t.Fatalf("Render request failed: %v", err)
	}
	defer resp.Body.Close()

	types, _ := readEvents(t, resp.Body)
	if len(types) == 0 || types[len(types)-1] != "complete" {
		t.Errorf("Expected the stream to end with complete, got %v", types)
	}
}
