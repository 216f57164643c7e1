package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gracecoe/placement-portal/src/middleware"
	"github.com/gracecoe/placement-portal/src/models"
)

// PlacementHandler serves the internships board and placement records.
// Reads are public; writes sit behind the admin route guard.
type PlacementHandler struct {
	internships models.InternshipStore
	placements  models.PlacementStore
}

func NewPlacementHandler(internships models.InternshipStore, placements models.PlacementStore) *PlacementHandler {
	return &PlacementHandler{
		internships: internships,
		placements:  placements,
	}
}

func (h *PlacementHandler) ListInternships(c *gin.Context) {
	internships, err := h.internships.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list internships"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"internships": internships})
}

func (h *PlacementHandler) GetInternship(c *gin.Context) {
	internship, err := h.internships.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Internship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get internship"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"internship": internship})
}

type internshipRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	Stipend     string `json:"stipend"`
	Description string `json:"description"`
	ApplyURL    string `json:"apply_url"`
}

func (h *PlacementHandler) CreateInternship(c *gin.Context) {
	var req internshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and company are required"})
		return
	}

	internship := &models.Internship{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Stipend:     req.Stipend,
		Description: req.Description,
		ApplyURL:    req.ApplyURL,
		PostedBy:    postedBy(c),
	}

	if err := h.internships.Create(c.Request.Context(), internship); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create internship"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"internship": internship})
}

func (h *PlacementHandler) UpdateInternship(c *gin.Context) {
	var req internshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and company are required"})
		return
	}

	internship := &models.Internship{
		ID:          c.Param("id"),
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Stipend:     req.Stipend,
		Description: req.Description,
		ApplyURL:    req.ApplyURL,
	}

	if err := h.internships.Update(c.Request.Context(), internship); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Internship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update internship"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"internship": internship})
}

func (h *PlacementHandler) DeleteInternship(c *gin.Context) {
	if err := h.internships.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete internship"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Internship deleted"})
}

func (h *PlacementHandler) ListPlacements(c *gin.Context) {
	placements, err := h.placements.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list placements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"placements": placements})
}

func (h *PlacementHandler) GetPlacement(c *gin.Context) {
	placement, err := h.placements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Placement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get placement"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"placement": placement})
}

type placementRequest struct {
	StudentName  string  `json:"student_name" binding:"required"`
	StudentEmail string  `json:"student_email"`
	Company      string  `json:"company" binding:"required"`
	Role         string  `json:"role" binding:"required"`
	PackageLPA   float64 `json:"package_lpa"`
	Year         int     `json:"year" binding:"required"`
}

func (h *PlacementHandler) CreatePlacement(c *gin.Context) {
	var req placementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student name, company, role, and year are required"})
		return
	}

	placement := &models.Placement{
		StudentName:  req.StudentName,
		StudentEmail: req.StudentEmail,
		Company:      req.Company,
		Role:         req.Role,
		PackageLPA:   req.PackageLPA,
		Year:         req.Year,
	}

	if err := h.placements.Create(c.Request.Context(), placement); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create placement"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"placement": placement})
}

func (h *PlacementHandler) UpdatePlacement(c *gin.Context) {
	var req placementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student name, company, role, and year are required"})
		return
	}

	placement := &models.Placement{
		ID:           c.Param("id"),
		StudentName:  req.StudentName,
		StudentEmail: req.StudentEmail,
		Company:      req.Company,
		Role:         req.Role,
		PackageLPA:   req.PackageLPA,
		Year:         req.Year,
	}

	if err := h.placements.Update(c.Request.Context(), placement); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Placement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update placement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"placement": placement})
}

func (h *PlacementHandler) DeletePlacement(c *gin.Context) {
	if err := h.placements.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete placement"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Placement deleted"})
}

func postedBy(c *gin.Context) string {
	if identValue, ok := c.Get(middleware.ContextIdentityKey); ok {
		if ident, ok := identValue.(*models.CanonicalIdentity); ok {
			return ident.Email
		}
	}
	return ""
}
