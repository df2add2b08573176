package controllers

import (
	"net/http"
	"strings"

	"verivault/app"
	"verivault/db"
	"verivault/models"

	"github.com/gin-gonic/gin"
)

type PersonController struct{ *Srv }

func NewPersonController(s *Srv) *PersonController { return &PersonController{Srv: s} }

type createPersonRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Type       string `json:"type"`
	Company    string `json:"company"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

// GET /api/people?q=&type=&limit=&offset=
func (pc *PersonController) List(c *gin.Context) {
	limit, offset := pageParams(c)
	people, total, err := pc.Store.ListPeople(c.Request.Context(), db.PersonQuery{
		Q:      c.Query("q"),
		Type:   c.Query("type"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		pc.respondError(c, err, "Person")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "total": total, "people": people})
}

// POST /api/people
func (pc *PersonController) Create(c *gin.Context) {
	var in createPersonRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	in.FirstName, in.LastName = strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" || in.Type == "" {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	if !models.ValidPersonType(in.Type) {
		fail(c, http.StatusBadRequest, "type must be one of Staff, Vendor, Guest")
		return
	}
	p := &models.Person{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Type:       in.Type,
		Company:    in.Company,
		Department: in.Department,
		Phone:      in.Phone,
		AddedBy:    actor(c),
	}
	if err := pc.Store.CreatePerson(c.Request.Context(), p); err != nil {
		pc.respondError(c, err, "Person")
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "person": p})
}

// GET /api/people/:id
func (pc *PersonController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := pc.Store.FindPersonByID(c.Request.Context(), id)
	if err != nil {
		pc.respondError(c, err, "Person")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "person": p})
}

// PUT /api/people/:id 只覆盖提交的字段
func (pc *PersonController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch db.PersonPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Type != nil && !models.ValidPersonType(*patch.Type) {
		fail(c, http.StatusBadRequest, "type must be one of Staff, Vendor, Guest")
		return
	}
	p, err := pc.Store.UpdatePerson(c.Request.Context(), id, patch)
	if err != nil {
		pc.respondError(c, err, "Person")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "person": p})
}

// DELETE /api/people/:id
func (pc *PersonController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := pc.Store.DeletePerson(c.Request.Context(), id); err != nil {
		pc.respondError(c, err, "Person")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}
