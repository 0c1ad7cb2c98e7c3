package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meshlock/meshlock-go/internal/errors"
	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
)

// initMeshRoutes registers the mesh document endpoints
func (c *Controller) initMeshRoutes() {
	c.Group.GET("/meshes", c.ListMeshes)
	c.Group.POST("/meshes", c.CreateMesh)
	c.Group.GET("/meshes/:name", c.GetMesh)
	c.Group.DELETE("/meshes/:name", c.DeleteMesh)
}

// CreateMeshRequest is the payload for creating a mesh document.
type CreateMeshRequest struct {
	Name  string          `json:"name"`
	Verts []geometry.Vec3 `json:"verts"`
	Edges [][2]int        `json:"edges"`
	Faces [][]int         `json:"faces"`
}

// MeshResponse summarizes a stored mesh document.
type MeshResponse struct {
	Name        string          `json:"name"`
	VertexCount int             `json:"vertex_count"`
	EdgeCount   int             `json:"edge_count"`
	FaceCount   int             `json:"face_count"`
	LockedCount int             `json:"locked_count"`
	UnlockMode  bool            `json:"unlock_mode"`
	Verts       []geometry.Vec3 `json:"verts,omitempty"`
	Edges       [][2]int        `json:"edges,omitempty"`
	Faces       [][]int         `json:"faces,omitempty"`
}

func meshResponse(obj *geometry.Object, full bool) MeshResponse {
	m := obj.Mesh
	resp := MeshResponse{
		Name:        m.Name,
		VertexCount: m.VertexCount(),
		EdgeCount:   len(m.Edges),
		FaceCount:   len(m.Faces),
		LockedCount: lockstore.CountLocked(m),
		UnlockMode:  obj.UnlockMode(),
	}
	if full {
		resp.Verts = m.Verts
		resp.Edges = m.Edges
		resp.Faces = m.Faces
	}
	return resp
}

// ListMeshes returns the names of all stored mesh documents.
func (c *Controller) ListMeshes(ctx echo.Context) error {
	names, err := c.DS.ListMeshes()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list meshes", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"meshes": names})
}

// CreateMesh stores a new mesh document.
func (c *Controller) CreateMesh(ctx echo.Context) error {
	var req CreateMeshRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid mesh payload", http.StatusBadRequest)
	}
	if req.Name == "" {
		return c.HandleError(ctx, nil, "Mesh name is required", http.StatusBadRequest)
	}
	if _, err := c.DS.GetMesh(req.Name); err == nil {
		return c.HandleError(ctx, nil, "Mesh already exists", http.StatusConflict)
	}

	m := &geometry.Mesh{Name: req.Name, Verts: req.Verts, Edges: req.Edges, Faces: req.Faces}
	obj := geometry.NewObject(req.Name, m)
	lockstore.EnsureAttribute(m)
	if err := c.DS.SaveMesh(obj); err != nil {
		return c.HandleError(ctx, err, "Failed to save mesh", http.StatusInternalServerError)
	}

	c.apiLogger.Info("mesh created", "mesh", req.Name, "verts", len(req.Verts))
	return ctx.JSON(http.StatusCreated, meshResponse(obj, false))
}

// GetMesh returns the full document including geometry.
func (c *Controller) GetMesh(ctx echo.Context) error {
	obj, err := c.DS.GetMesh(ctx.Param("name"))
	if err != nil {
		if errors.IsCategory(err, errors.CategoryNotFound) {
			return c.HandleError(ctx, err, "Mesh not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load mesh", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, meshResponse(obj, true))
}

// DeleteMesh removes a stored document.
func (c *Controller) DeleteMesh(ctx echo.Context) error {
	name := ctx.Param("name")
	if err := c.DS.DeleteMesh(name); err != nil {
		if errors.IsCategory(err, errors.CategoryNotFound) {
			return c.HandleError(ctx, err, "Mesh not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to delete mesh", http.StatusInternalServerError)
	}
	c.apiLogger.Info("mesh deleted", "mesh", name)
	return ctx.NoContent(http.StatusNoContent)
}
