package controllers

import (
	"net/http"
	"time"

	"verivault/app"
	"verivault/db"
	"verivault/models"

	"github.com/gin-gonic/gin"
)

type EntryController struct{ *Srv }

func NewEntryController(s *Srv) *EntryController { return &EntryController{Srv: s} }

const dateLayout = "2006-01-02"

// dayBounds 返回本地时区的 [00:00, 次日 00:00)
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

func (ec *EntryController) list(c *gin.Context, q db.EntryQuery) {
	q.Type = c.Query("type")
	q.Limit, q.Offset = pageParams(c)
	entries, total, err := ec.Store.ListEntries(c.Request.Context(), q)
	if err != nil {
		ec.respondError(c, err, "Entry")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "total": total, "entries": entries})
}

// GET /api/logs?date=YYYY-MM-DD&type=&limit=&offset=
func (ec *EntryController) List(c *gin.Context) {
	var q db.EntryQuery
	if v := c.Query("date"); v != "" {
		day, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			fail(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		q.From, q.To = dayBounds(day)
	}
	ec.list(c, q)
}

// GET /api/daily-entries/today
func (ec *EntryController) Today(c *gin.Context) {
	var q db.EntryQuery
	q.From, q.To = dayBounds(time.Now())
	ec.list(c, q)
}

type createEntryRequest struct {
	Type      string         `json:"type"`
	Details   map[string]any `json:"details"`
	Timestamp *time.Time     `json:"timestamp"`
}

// POST /api/daily-entries
func (ec *EntryController) Create(c *gin.Context) {
	var in createEntryRequest
	if err := c.ShouldBindJSON(&in); err != nil || in.Type == "" {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	if !models.ValidEntryType(in.Type) {
		fail(c, http.StatusBadRequest, "type must be one of guest, vendor, package, note")
		return
	}
	e := &models.DailyEntry{
		Type:      in.Type,
		Details:   in.Details,
		EnteredBy: actor(c),
	}
	if in.Timestamp != nil {
		e.Timestamp = in.Timestamp.UTC()
	}
	if err := ec.Store.CreateEntry(c.Request.Context(), e); err != nil {
		ec.respondError(c, err, "Entry")
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "entry": e})
}

// GET /api/daily-entries/:id
func (ec *EntryController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	e, err := ec.Store.FindEntryByID(c.Request.Context(), id)
	if err != nil {
		ec.respondError(c, err, "Entry")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "entry": e})
}

// PUT /api/daily-entries/:id details 浅合并
func (ec *EntryController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch db.EntryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Type != nil && !models.ValidEntryType(*patch.Type) {
		fail(c, http.StatusBadRequest, "type must be one of guest, vendor, package, note")
		return
	}
	e, err := ec.Store.UpdateEntry(c.Request.Context(), id, patch)
	if err != nil {
		ec.respondError(c, err, "Entry")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "entry": e})
}

// DELETE /api/daily-entries/:id
func (ec *EntryController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ec.Store.DeleteEntry(c.Request.Context(), id); err != nil {
		ec.respondError(c, err, "Entry")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}
