package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignation/worldcourse-backend/services"
)

func PlaceOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input services.OrderParams
	if !bindJSON(c, &input) {
		return
	}
	ctx, db := c.Request.Context(), getDB(c)
	order, enrollments, err := services.PlaceOrder(ctx, db, actor.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	services.Background("enrollment", func(ctx context.Context) {
		services.NotifyEnrolled(ctx, db, actor.ID, enrollments)
	})
	c.JSON(http.StatusCreated, gin.H{"order": order, "enrollments": enrollments})
}

func GetOrders(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orders, err := services.ListOrders(c.Request.Context(), getDB(c), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": len(orders)})
}

func GetEnrollments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	list, err := services.ListEnrollments(c.Request.Context(), getDB(c), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}
