package controllers

import (
	"net/http"
	"strings"

	"verivault/app"
	"verivault/db"
	"verivault/models"

	"github.com/gin-gonic/gin"
)

type PackageController struct{ *Srv }

func NewPackageController(s *Srv) *PackageController { return &PackageController{Srv: s} }

type createPackageRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
	Recipient      string `json:"recipient"`
	Sender         string `json:"sender"`
	Description    string `json:"description"`
}

// GET /api/packages?q=&status=received|picked_up
func (pc *PackageController) List(c *gin.Context) {
	limit, offset := pageParams(c)
	items, total, err := pc.Store.ListPackages(c.Request.Context(), db.PackageQuery{
		Q:      c.Query("q"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		pc.respondError(c, err, "Package")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "total": total, "packages": items})
}

// POST /api/packages 同时记一条 package 当日记录
func (pc *PackageController) Create(c *gin.Context) {
	var in createPackageRequest
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Recipient) == "" {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	p := &models.Package{
		TrackingNumber: strings.TrimSpace(in.TrackingNumber),
		Carrier:        in.Carrier,
		Recipient:      strings.TrimSpace(in.Recipient),
		Sender:         in.Sender,
		Description:    in.Description,
		ReceivedBy:     actor(c),
	}
	if err := pc.Store.CreatePackage(c.Request.Context(), p); err != nil {
		pc.respondError(c, err, "Package")
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "package": p})
}

// GET /api/packages/:id
func (pc *PackageController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := pc.Store.FindPackageByID(c.Request.Context(), id)
	if err != nil {
		pc.respondError(c, err, "Package")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "package": p})
}

// PUT /api/packages/:id
func (pc *PackageController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch db.PackagePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := pc.Store.UpdatePackage(c.Request.Context(), id, patch)
	if err != nil {
		pc.respondError(c, err, "Package")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "package": p})
}

// POST /api/packages/:id/pickup {pickedUpBy}
func (pc *PackageController) Pickup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in struct {
		PickedUpBy string `json:"pickedUpBy"`
	}
	_ = c.ShouldBindJSON(&in)
	by := strings.TrimSpace(in.PickedUpBy)
	if by == "" {
		by = actor(c)
	}
	p, err := pc.Store.PickupPackage(c.Request.Context(), id, by)
	if err != nil {
		pc.respondError(c, err, "Package")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "package": p})
}

// DELETE /api/packages/:id
func (pc *PackageController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := pc.Store.DeletePackage(c.Request.Context(), id); err != nil {
		pc.respondError(c, err, "Package")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}
