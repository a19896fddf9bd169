package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignation/worldcourse-backend/services"
)

func GetTodoLists(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	lists, err := services.ListTodoLists(c.Request.Context(), getDB(c), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lists, "total": len(lists)})
}

func GetTodoList(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	list, err := services.GetTodoList(c.Request.Context(), getDB(c), actor.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func CreateTodoList(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input services.TodoListParams
	if !bindJSON(c, &input) {
		return
	}
	list, err := services.CreateTodoList(c.Request.Context(), getDB(c), actor.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func UpdateTodoList(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input services.TodoListParams
	if !bindJSON(c, &input) {
		return
	}
	list, err := services.UpdateTodoList(c.Request.Context(), getDB(c), actor.ID, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func DeleteTodoList(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteTodoList(c.Request.Context(), getDB(c), actor.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "todo list deleted"})
}

func AddTask(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input services.TaskParams
	if !bindJSON(c, &input) {
		return
	}
	task, err := services.AddTask(c.Request.Context(), getDB(c), actor.ID, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func UpdateTask(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	taskID, ok := paramUUID(c, "taskId")
	if !ok {
		return
	}
	var input services.TaskParams
	if !bindJSON(c, &input) {
		return
	}
	task, err := services.UpdateTask(c.Request.Context(), getDB(c), actor.ID, id, taskID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTask(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	taskID, ok := paramUUID(c, "taskId")
	if !ok {
		return
	}
	if err := services.DeleteTask(c.Request.Context(), getDB(c), actor.ID, id, taskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
