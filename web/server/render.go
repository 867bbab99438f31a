package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/df07/go-bdpt/pkg/integrator"
	"github.com/df07/go-bdpt/pkg/renderer"
	"github.com/df07/go-bdpt/pkg/scene"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// PassUpdate is the payload of a passComplete event
type PassUpdate struct {
	PassNumber      int     `json:"passNumber"`
	TotalPasses     int     `json:"totalPasses"`
	ElapsedMs       int64   `json:"elapsedMs"`
	ImageData       string  `json:"imageData"` // Base64 encoded PNG
	TotalPixels     int     `json:"totalPixels"`
	TotalSamples    int     `json:"totalSamples"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	Splats          int     `json:"splats"`
	Connections     int     `json:"connections"`
	MeanLuminance   float64 `json:"meanLuminance"`
	PrimitiveCount  int     `json:"primitiveCount"`
	IsLast          bool    `json:"isLast"`
}

// RenderingPipeline contains the configured scene and renderer
type RenderingPipeline struct {
	Scene     *scene.Scene
	Raytracer *renderer.ProgressiveRaytracer
}

// handleRender streams a progressive render as Server-Sent Events
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)
	ctx := r.Context()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeSSEEvent(w, SSEEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	// One writer goroutine owns the response
	sseEventChan := make(chan SSEEvent, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-done
	}()

	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan, s.logger.Handler())

	pipeline, err := s.setupRenderingPipeline(req, webLogger)
	if err != nil {
		sendEvent(ctx, sseEventChan, SSEEvent{Type: "error", Data: err.Error()})
		return
	}

	startTime := time.Now()
	passChan, errChan := pipeline.Raytracer.RenderProgressive(ctx)
	s.handleRenderingEvents(ctx, sseEventChan, consoleChan, passChan, errChan, pipeline.Scene, req, startTime)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvent writes and flushes one event
func writeSSEEvent(w http.ResponseWriter, event SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// writeSSEEvents writes every queued event until the channel closes or the
// client disconnects
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				// Client disconnected during write; drain so senders never block
				for range sseEventChan {
				}
				return
			}
		case <-ctx.Done():
			for range sseEventChan {
			}
			return
		}
	}
}

// sendEvent queues an event unless the client has gone
func sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, event SSEEvent) {
	select {
	case sseEventChan <- event:
	case <-ctx.Done():
	}
}

// setupRenderingPipeline creates and configures the scene and renderer
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger *slog.Logger) (*RenderingPipeline, error) {
	sceneObj, err := s.createScene(req)
	if err != nil {
		return nil, err
	}

	config := renderer.ProgressiveConfig{
		TileSize:           DefaultTileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: sceneObj.SamplingConfig.SamplesPerPixel,
		MaxPasses:          max(1, min(req.MaxPasses, sceneObj.SamplingConfig.SamplesPerPixel)),
		NumWorkers:         0, // Auto-detect
		Integrator:         req.Integrator,
	}

	raytracer, err := renderer.NewProgressiveRaytracer(sceneObj, sceneObj.SamplingConfig, config, logger, s.metrics)
	if err != nil {
		return nil, err
	}
	return &RenderingPipeline{Scene: sceneObj, Raytracer: raytracer}, nil
}

// handleRenderingEvents forwards console messages and pass results until the
// render finishes or the client disconnects
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent, consoleChan <-chan ConsoleMessage,
	passChan <-chan renderer.PassResult, errChan <-chan error, sceneObj *scene.Scene, req *RenderRequest, startTime time.Time) {

	for passChan != nil {
		select {
		case msg := <-consoleChan:
			s.sendJSON(ctx, sseEventChan, "console", msg)

		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			s.handlePassComplete(ctx, sseEventChan, result, req, sceneObj, startTime)

		case <-ctx.Done():
			return
		}
	}

	// Flush console messages logged after the last pass
	for drained := false; !drained; {
		select {
		case msg := <-consoleChan:
			s.sendJSON(ctx, sseEventChan, "console", msg)
		default:
			drained = true
		}
	}

	if err := <-errChan; err != nil {
		sendEvent(ctx, sseEventChan, SSEEvent{Type: "error", Data: fmt.Sprintf("Rendering failed: %v", err)})
		return
	}
	sendEvent(ctx, sseEventChan, SSEEvent{Type: "complete", Data: "Rendering completed"})
}

// handlePassComplete encodes a finished pass and queues it
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, result renderer.PassResult,
	req *RenderRequest, sceneObj *scene.Scene, startTime time.Time) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		s.logger.Error("failed to encode pass image", "pass", result.PassNumber, "error", err)
		return
	}

	s.sendJSON(ctx, sseEventChan, "passComplete", PassUpdate{
		PassNumber:      result.PassNumber,
		TotalPasses:     req.MaxPasses,
		ElapsedMs:       time.Since(startTime).Milliseconds(),
		ImageData:       imageData,
		TotalPixels:     result.Stats.TotalPixels,
		TotalSamples:    result.Stats.TotalSamples,
		SamplesPerPixel: result.Stats.SamplesPerPixel,
		Splats:          result.Stats.Splats,
		Connections:     result.Stats.Sampling.Connections,
		MeanLuminance:   result.Stats.MeanLuminance,
		PrimitiveCount:  sceneObj.PrimitiveCount(),
		IsLast:          result.IsLast,
	})
}

func (s *Server) sendJSON(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}
	sendEvent(ctx, sseEventChan, SSEEvent{Type: eventType, Data: string(data)})
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	var err error
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", 0, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", 7, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", 0, 1, 64); err != nil {
		return nil, err
	}
	switch req.Integrator = query.Get("integrator"); req.Integrator {
	case "":
		req.Integrator = integrator.NameBDPT
	case integrator.NameBDPT, integrator.NamePathTracing:
	default:
		return nil, fmt.Errorf("unknown integrator %q", req.Integrator)
	}

	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		s.logger.Warn("large image with high samples may render slowly",
			"width", req.Width, "height", req.Height, "maxSamples", req.MaxSamples)
	}
	return req, nil
}
