package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meshlock/meshlock-go/internal/errors"
	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
	"github.com/meshlock/meshlock-go/internal/overlay"
	"github.com/meshlock/meshlock-go/internal/session"
	"github.com/meshlock/meshlock-go/internal/unlockmode"
)

// initSessionRoutes registers the edit-session endpoints
func (c *Controller) initSessionRoutes() {
	c.Group.POST("/sessions", c.OpenSession)
	c.Group.DELETE("/sessions/:id", c.CloseSession)
	c.Group.POST("/sessions/:id/commit", c.CommitSession)

	c.Group.POST("/sessions/:id/select", c.SetSelection)
	c.Group.POST("/sessions/:id/move", c.MoveSelection)
	c.Group.POST("/sessions/:id/delete", c.DeleteSelection)

	c.Group.POST("/sessions/:id/lock", c.LockSelection)
	c.Group.POST("/sessions/:id/unlock-mode", c.EnterUnlockMode)
	c.Group.POST("/sessions/:id/unlock-mode/commit", c.CommitUnlockMode)
	c.Group.POST("/sessions/:id/unlock-mode/cancel", c.CancelUnlockMode)
	c.Group.POST("/sessions/:id/unlock-all", c.UnlockAll)

	c.Group.GET("/sessions/:id/overlay", c.GetOverlay)
	c.Group.GET("/overlay", c.GetOverlayFrames)
}

// SessionResponse is the session state reported after every operation.
type SessionResponse struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	VertexCount int    `json:"vertex_count"`
	LockedCount int    `json:"locked_count"`
	UnlockMode  bool   `json:"unlock_mode"`
	SelectMode  string `json:"select_mode"`
}

func sessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		ID:          sess.ID,
		Object:      sess.Object.Name,
		VertexCount: sess.Edit.VertexCount(),
		LockedCount: lockstore.CountLockedLayer(sess.Edit),
		UnlockMode:  sess.Object.UnlockMode(),
		SelectMode:  string(sess.Mode),
	}
}

// BlockedResponse is returned with HTTP 409 when the guard refuses an
// edit.
type BlockedResponse struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason"`
	Warning string `json:"warning"`
}

// WorkflowResponse wraps a lock-workflow result together with the
// session state. No-op results keep HTTP 200 with the warning field set,
// mirroring a status message rather than an error.
type WorkflowResponse struct {
	Session  SessionResponse `json:"session"`
	Affected int             `json:"affected"`
	Message  string          `json:"message,omitempty"`
	Warning  string          `json:"warning,omitempty"`
}

func workflowResponse(sess *session.Session, res unlockmode.Result) WorkflowResponse {
	out := WorkflowResponse{Session: sessionResponse(sess), Affected: res.Affected}
	if res.OK {
		out.Message = res.Message
	} else {
		out.Warning = res.Message
	}
	return out
}

func (c *Controller) session(ctx echo.Context) (*session.Session, error) {
	sess, err := c.Sessions.Get(ctx.Param("id"))
	if err != nil {
		return nil, c.HandleError(ctx, err, "Session not found", http.StatusNotFound)
	}
	return sess, nil
}

// OpenSession starts an edit session on a stored document.
func (c *Controller) OpenSession(ctx echo.Context) error {
	var req struct {
		Object string `json:"object"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid session payload", http.StatusBadRequest)
	}
	if req.Object == "" {
		return c.HandleError(ctx, nil, "Object name is required", http.StatusBadRequest)
	}

	sess, err := c.Sessions.Open(req.Object)
	if err != nil {
		switch {
		case errors.IsCategory(err, errors.CategoryNotFound):
			return c.HandleError(ctx, err, "Mesh not found", http.StatusNotFound)
		case errors.IsCategory(err, errors.CategoryState):
			return c.HandleError(ctx, err, "Object already has an open session", http.StatusConflict)
		default:
			return c.HandleError(ctx, err, "Failed to open session", http.StatusInternalServerError)
		}
	}
	c.registerOverlay(sess.ID)
	return ctx.JSON(http.StatusCreated, sessionResponse(sess))
}

// CloseSession ends a session, committing unless ?discard=1.
func (c *Controller) CloseSession(ctx echo.Context) error {
	discard := ctx.QueryParam("discard") == "1" || ctx.QueryParam("discard") == "true"
	if err := c.Sessions.Close(ctx.Param("id"), discard); err != nil {
		if errors.IsCategory(err, errors.CategoryNotFound) {
			return c.HandleError(ctx, err, "Session not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to close session", http.StatusInternalServerError)
	}
	c.dropOverlay(ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

// CommitSession persists the working copy without closing the session.
func (c *Controller) CommitSession(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	if err := c.Sessions.Commit(sess.ID); err != nil {
		return c.HandleError(ctx, err, "Failed to commit session", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, sessionResponse(sess))
}

// SetSelection replaces the current selection by vertex index.
func (c *Controller) SetSelection(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}

	var req struct {
		Indices []int  `json:"indices"`
		Mode    string `json:"mode"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid selection payload", http.StatusBadRequest)
	}
	if req.Mode != "" {
		sess.Mode = geometry.ParseSelectMode(req.Mode)
	}
	sess.Edit.SelectVertsByIndex(req.Indices)
	return ctx.JSON(http.StatusOK, sessionResponse(sess))
}

// MoveSelection translates the selected vertices, guard permitting.
func (c *Controller) MoveSelection(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}

	var req struct {
		Offset geometry.Vec3 `json:"offset"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid move payload", http.StatusBadRequest)
	}

	d := c.Guard.Move(sess.Object, sess.Edit, sess.Mode, req.Offset)
	if d.Blocked() {
		return ctx.JSON(http.StatusConflict, BlockedResponse{
			Blocked: true, Reason: string(d.Reason), Warning: d.Message,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"session": sessionResponse(sess),
		"moved":   len(d.Targets),
	})
}

// DeleteSelection removes the selected vertices, guard permitting.
func (c *Controller) DeleteSelection(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}

	d, removed := c.Guard.Delete(sess.Object, sess.Edit, sess.Mode)
	if d.Blocked() {
		return ctx.JSON(http.StatusConflict, BlockedResponse{
			Blocked: true, Reason: string(d.Reason), Warning: d.Message,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"session": sessionResponse(sess),
		"removed": removed,
	})
}

// LockSelection locks the currently selected vertices.
func (c *Controller) LockSelection(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	res := c.Workflow.LockSelection(sess.Object, sess.Edit, sess.Mode)
	return ctx.JSON(http.StatusOK, workflowResponse(sess, res))
}

// EnterUnlockMode switches the session into unlock-selection mode.
func (c *Controller) EnterUnlockMode(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	res := c.Workflow.Enter(sess.Object, sess.Edit)
	return ctx.JSON(http.StatusOK, workflowResponse(sess, res))
}

// CommitUnlockMode unlocks the selected vertices and leaves the mode.
func (c *Controller) CommitUnlockMode(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	res := c.Workflow.Commit(sess.Object, sess.Edit, sess.Mode)
	return ctx.JSON(http.StatusOK, workflowResponse(sess, res))
}

// CancelUnlockMode leaves the mode without unlocking anything.
func (c *Controller) CancelUnlockMode(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	res := c.Workflow.Cancel(sess.Object, sess.Edit)
	return ctx.JSON(http.StatusOK, workflowResponse(sess, res))
}

// UnlockAll clears every lock on the session's document.
func (c *Controller) UnlockAll(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	res := c.Workflow.UnlockAll(sess.Object, sess.Edit)
	return ctx.JSON(http.StatusOK, workflowResponse(sess, res))
}

// GetOverlay returns the current highlight frame for the session.
func (c *Controller) GetOverlay(ctx echo.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	c.settingsMutex.RLock()
	settings := c.Settings.Overlay
	c.settingsMutex.RUnlock()

	frame := overlay.Build(sess.Object, sess.Edit, settings)
	return ctx.JSON(http.StatusOK, frame)
}

// registerOverlay installs a draw function for the session, mirroring the
// editor's draw-handler registration. The function reads live session
// state, so a session that has gone away contributes an empty frame.
func (c *Controller) registerOverlay(id string) {
	fn := func() overlay.Frame {
		sess, err := c.Sessions.Get(id)
		if err != nil {
			return overlay.Frame{}
		}
		c.settingsMutex.RLock()
		settings := c.Settings.Overlay
		c.settingsMutex.RUnlock()
		return overlay.Build(sess.Object, sess.Edit, settings)
	}
	c.overlayMu.Lock()
	c.overlayIDs[id] = c.overlays.Add(fn)
	c.overlayMu.Unlock()
}

func (c *Controller) dropOverlay(id string) {
	c.overlayMu.Lock()
	if h, ok := c.overlayIDs[id]; ok {
		c.overlays.Remove(h)
		delete(c.overlayIDs, id)
	}
	c.overlayMu.Unlock()
}

// GetOverlayFrames renders every registered draw function and returns the
// non-empty frames. Draw functions for evicted sessions are pruned.
func (c *Controller) GetOverlayFrames(ctx echo.Context) error {
	c.overlayMu.Lock()
	for id, h := range c.overlayIDs {
		if _, err := c.Sessions.Get(id); err != nil {
			c.overlays.Remove(h)
			delete(c.overlayIDs, id)
		}
	}
	c.overlayMu.Unlock()

	out := make([]overlay.Frame, 0)
	for _, f := range c.overlays.Frames() {
		if !f.Empty() {
			out = append(out, f)
		}
	}
	return ctx.JSON(http.StatusOK, out)
}

