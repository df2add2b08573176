// controllers/equipment_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"verivault/app"
	"verivault/db"
	"verivault/models"

	"github.com/gin-gonic/gin"
)

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController { return &EquipmentController{Srv: s} }

// 管理员登记一件装备
func (ec *EquipmentController) Create(c *gin.Context) {
	var in struct {
		Name   string `json:"name" binding:"required"`
		Serial string `json:"serial" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	e := &models.Equipment{
		Name:   strings.TrimSpace(in.Name),
		Serial: strings.TrimSpace(in.Serial),
		Status: models.EquipmentActive,
	}
	if err := ec.Store.CreateEquipment(c.Request.Context(), e); err != nil {
		ec.respondError(c, err, "Equipment")
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "equipment": e})
}

// 列表（含当前签出人、是否逾期）
// GET /api/equipment?q=&status=open|available|overdue|inactive
func (ec *EquipmentController) List(c *gin.Context) {
	limit, offset := pageParams(c)
	res, err := ec.Store.ListEquipment(c.Request.Context(), db.EquipmentQuery{
		Q:      c.Query("q"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		ec.respondError(c, err, "Equipment")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "total": res.Total, "items": res.Items})
}

// 签出；未给 dueAt 时默认 12 小时
func (ec *EquipmentController) Checkout(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in struct {
		DueAt *time.Time `json:"dueAt"`
		Note  string     `json:"note"`
	}
	_ = c.ShouldBindJSON(&in)

	co, err := ec.Store.CheckoutEquipment(c.Request.Context(), actor(c), id, in.DueAt, in.Note)
	if err != nil {
		ec.respondError(c, err, "Equipment")
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "checkout": co})
}

// 归还（重复归还直接返回原记录）
func (ec *EquipmentController) Return(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	co, err := ec.Store.ReturnCheckout(c.Request.Context(), id, actor(c))
	if err != nil {
		ec.respondError(c, err, "Checkout")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "checkout": co})
}

// 签出记录 ?status=open|returned&officer=&equipmentId=
func (ec *EquipmentController) ListCheckouts(c *gin.Context) {
	q := db.CheckoutQuery{
		Officer: c.Query("officer"),
		Status:  c.Query("status"),
	}
	if v := c.Query("equipmentId"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid equipmentId")
			return
		}
		q.EquipmentID = uint(n)
	}
	items, err := ec.Store.ListCheckouts(c.Request.Context(), q)
	if err != nil {
		ec.respondError(c, err, "Checkout")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "items": items})
}
