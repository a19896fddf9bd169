package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignation/worldcourse-backend/services"
	"github.com/ignation/worldcourse-backend/utils"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (in *LoginInput) Normalize() {
	in.Email = services.NormalizeEmail(in.Email)
}

type PointsInput struct {
	Delta int `json:"delta" binding:"required"`
}

type StatusInput struct {
	Active *bool `json:"active" binding:"required"`
}

func Register(c *gin.Context) {
	var input services.RegisterParams
	if !bindJSON(c, &input) {
		return
	}
	input.Role = "" // public sign-up always creates students

	user, err := services.Register(c.Request.Context(), getDB(c), nil, input)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	services.SendWelcome(getMailer(c), user.FullName(), user.Email)

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user, "token": token})
}

func Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := services.Authenticate(c.Request.Context(), getDB(c), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

func GetMe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	user, err := services.GetUser(c.Request.Context(), getDB(c), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func UpdateMe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input services.ProfileParams
	if !bindJSON(c, &input) {
		return
	}
	user, err := services.UpdateProfile(c.Request.Context(), getDB(c), actor.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser lets an admin create accounts of any role.
func CreateUser(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input services.RegisterParams
	if !bindJSON(c, &input) {
		return
	}
	user, err := services.Register(c.Request.Context(), getDB(c), &actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	services.SendWelcome(getMailer(c), user.FullName(), user.Email)
	c.JSON(http.StatusCreated, user)
}

func AdjustUserPoints(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input PointsInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := services.AdjustPoints(c.Request.Context(), getDB(c), id, input.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "points": user.Points})
}

func SetUserStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input StatusInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := services.SetActive(c.Request.Context(), getDB(c), id, *input.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

