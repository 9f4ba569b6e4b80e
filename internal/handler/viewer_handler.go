package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-viewer-go/internal/auth"
	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/projector"
	"github.com/jengzang/heatmap-viewer-go/internal/render"
	"github.com/jengzang/heatmap-viewer-go/internal/repository"
	"github.com/jengzang/heatmap-viewer-go/internal/service"
	"github.com/jengzang/heatmap-viewer-go/internal/viewer"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
	"github.com/jengzang/heatmap-viewer-go/pkg/response"
)

// KeepAlive is the idle interval between SSE ping events.
const KeepAlive = 15 * time.Second

// ViewerHandler handles HTTP requests for interactive viewers
type ViewerHandler struct {
	service   *service.ViewerService
	keepAlive time.Duration
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(service *service.ViewerService) *ViewerHandler {
	return &ViewerHandler{service: service, keepAlive: KeepAlive}
}

// Open handles POST /api/v1/viewers
func (h *ViewerHandler) Open(c *gin.Context) {
	var req models.CreateViewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sess, token, err := h.service.Open(req)
	if err != nil {
		viewerError(c, err)
		return
	}
	f, err := sess.Viewer.Frame()
	if err != nil {
		viewerError(c, err)
		return
	}
	response.Created(c, gin.H{
		"viewer": h.service.Info(sess),
		"token":  token,
		"frame":  f,
	})
}

// Get handles GET /api/v1/viewers/:id
func (h *ViewerHandler) Get(c *gin.Context) {
	sess, err := h.service.Get(c.Param("id"))
	if err != nil {
		viewerError(c, err)
		return
	}
	response.Success(c, h.service.Info(sess))
}

// Resize handles PUT /api/v1/viewers/:id/size
func (h *ViewerHandler) Resize(c *gin.Context) {
	var req models.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	changed, err := h.service.Resize(c.Param("id"), req.Width, req.Height)
	if err != nil {
		viewerError(c, err)
		return
	}
	response.Success(c, gin.H{"changed": changed})
}

// SetFlags handles PUT /api/v1/viewers/:id/flags
func (h *ViewerHandler) SetFlags(c *gin.Context) {
	var flags projector.Flags
	if err := c.ShouldBindJSON(&flags); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.service.SetFlags(c.Param("id"), flags); err != nil {
		viewerError(c, err)
		return
	}
	response.Success(c, flags)
}

// Events handles POST /api/v1/viewers/:id/events. The body is one event or
// an array of events, applied in order.
func (h *ViewerHandler) Events(c *gin.Context) {
	events, err := decodeEvents(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "Invalid events: "+err.Error())
		return
	}
	// A batch is applied only if every event in it is valid.
	for i, e := range events {
		if err := e.Validate(); err != nil {
			response.BadRequest(c, fmt.Sprintf("Invalid event %d: %v", i, err))
			return
		}
	}

	id := c.Param("id")
	results := make([]interaction.Result, 0, len(events))
	for _, e := range events {
		res, err := h.service.Dispatch(id, e)
		if err != nil {
			viewerError(c, err)
			return
		}
		results = append(results, res)
	}

	sess, err := h.service.Get(id)
	if err != nil {
		viewerError(c, err)
		return
	}
	response.Success(c, gin.H{
		"results":   results,
		"mode":      sess.Viewer.Mode(),
		"transform": sess.Viewer.Transform(),
	})
}

func decodeEvents(r io.Reader) ([]interaction.Event, error) {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if body[0] == '[' {
		var events []interaction.Event
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, err
		}
		return events, nil
	}
	var e interaction.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	return []interaction.Event{e}, nil
}

// Frame handles GET /api/v1/viewers/:id/frame
func (h *ViewerHandler) Frame(c *gin.Context) {
	f, err := h.service.Frame(c.Param("id"))
	if err != nil {
		viewerError(c, err)
		return
	}
	response.Success(c, f)
}

// FramePNG handles GET /api/v1/viewers/:id/frame.png
func (h *ViewerHandler) FramePNG(c *gin.Context) {
	f, err := h.service.Frame(c.Param("id"))
	if err != nil {
		viewerError(c, err)
		return
	}
	width, height := int(math.Ceil(f.Width)), int(math.Ceil(f.Height))
	if width <= 0 || height <= 0 {
		response.Conflict(c, "Viewer has no drawable area")
		return
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, f.Primitives, width, height); err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to render frame")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// Selection handles GET /api/v1/viewers/:id/selection
func (h *ViewerHandler) Selection(c *gin.Context) {
	samples, err := h.service.Selection(c.Param("id"))
	if err != nil {
		viewerError(c, err)
		return
	}
	if samples == nil {
		samples = []models.Sample{}
	}
	response.Success(c, gin.H{
		"data":  samples,
		"count": len(samples),
	})
}

// Close handles DELETE /api/v1/viewers/:id
func (h *ViewerHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("id")); err != nil {
		viewerError(c, err)
		return
	}
	response.Success(c, nil)
}

type streamEvent struct {
	name string
	data any
}

// Stream handles GET /api/v1/viewers/:id/stream. It sends the current view
// on connect and then every pointer and view change as server-sent events.
func (h *ViewerHandler) Stream(c *gin.Context) {
	id := c.Param("id")
	sess, err := h.service.Get(id)
	if err != nil {
		viewerError(c, err)
		return
	}

	updates := make(chan streamEvent, 64)
	push := func(name string, data any) {
		select {
		case updates <- streamEvent{name: name, data: data}:
		default:
			// Slow client: drop rather than stall the viewer.
		}
	}
	pointer := sess.Viewer.SubscribePointer(func(p interaction.PointerState) { push("pointer", p) })
	view := sess.Viewer.SubscribeView(func(t viewport.Transform) { push("view", t) })
	defer pointer.Remove()
	defer view.Remove()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("view", sess.Viewer.Transform())
	c.Writer.Flush()

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u := <-updates:
			c.SSEvent(u.name, u.data)
			return true
		case <-ticker.C:
			if _, err := h.service.Get(id); err != nil {
				return false
			}
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}

func viewerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrViewerNotFound), errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrTooManyViewers):
		response.TooManyRequests(c, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		response.Unauthorized(c, "Invalid viewer token")
	case errors.Is(err, viewer.ErrClosed):
		response.NotFound(c, "Viewer closed")
	case errors.Is(err, interaction.ErrInvalidEvent), errors.Is(err, service.ErrInvalidSize):
		response.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, "Failed to process viewer request")
	}
}
