package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
)

type TodoListParams struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
}

type TaskParams struct {
	Title     string              `json:"title" binding:"required,max=255"`
	Completed bool                `json:"completed"`
	Priority  models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate   *time.Time          `json:"due_date"`
	Position  int                 `json:"position"`
}

func ListTodoLists(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]models.TodoList, error) {
	var lists []models.TodoList
	if err := db.WithContext(ctx).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, created_at ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&lists).Error; err != nil {
		return nil, errors.Wrap(err, "listing todo lists")
	}
	return lists, nil
}

// GetTodoList loads a list and checks it belongs to userID.
func GetTodoList(ctx context.Context, db *gorm.DB, userID, id uuid.UUID) (*models.TodoList, error) {
	var list models.TodoList
	if err := db.WithContext(ctx).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, created_at ASC") }).
		First(&list, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "loading todo list")
	}
	if list.UserID != userID {
		return nil, ErrForbidden
	}
	return &list, nil
}

func CreateTodoList(ctx context.Context, db *gorm.DB, userID uuid.UUID, p TodoListParams) (*models.TodoList, error) {
	list := &models.TodoList{UserID: userID, Title: p.Title, Description: p.Description, Tasks: []models.Task{}}
	if err := db.WithContext(ctx).Create(list).Error; err != nil {
		return nil, errors.Wrap(err, "creating todo list")
	}
	return list, nil
}

func UpdateTodoList(ctx context.Context, db *gorm.DB, userID, id uuid.UUID, p TodoListParams) (*models.TodoList, error) {
	list, err := GetTodoList(ctx, db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(list).Updates(map[string]interface{}{
		"title":       p.Title,
		"description": p.Description,
	}).Error; err != nil {
		return nil, errors.Wrap(err, "updating todo list")
	}
	return GetTodoList(ctx, db, userID, id)
}

func DeleteTodoList(ctx context.Context, db *gorm.DB, userID, id uuid.UUID) error {
	list, err := GetTodoList(ctx, db, userID, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Select("Tasks").Delete(list).Error; err != nil {
		return errors.Wrap(err, "deleting todo list")
	}
	return nil
}

func AddTask(ctx context.Context, db *gorm.DB, userID, listID uuid.UUID, p TaskParams) (*models.Task, error) {
	if _, err := GetTodoList(ctx, db, userID, listID); err != nil {
		return nil, err
	}
	task := &models.Task{
		TodoListID: listID,
		Title:      p.Title,
		Completed:  p.Completed,
		Priority:   p.Priority,
		DueDate:    p.DueDate,
		Position:   p.Position,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if err := db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, errors.Wrap(err, "creating task")
	}
	return task, nil
}

func UpdateTask(ctx context.Context, db *gorm.DB, userID, listID, taskID uuid.UUID, p TaskParams) (*models.Task, error) {
	task, err := ownedTask(ctx, db, userID, listID, taskID)
	if err != nil {
		return nil, err
	}
	priority := p.Priority
	if priority == "" {
		priority = task.Priority
	}
	if err := db.WithContext(ctx).Model(task).Updates(map[string]interface{}{
		"title":     p.Title,
		"completed": p.Completed,
		"priority":  priority,
		"due_date":  p.DueDate,
		"position":  p.Position,
	}).Error; err != nil {
		return nil, errors.Wrap(err, "updating task")
	}
	return ownedTask(ctx, db, userID, listID, taskID)
}

func DeleteTask(ctx context.Context, db *gorm.DB, userID, listID, taskID uuid.UUID) error {
	task, err := ownedTask(ctx, db, userID, listID, taskID)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(task).Error; err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return nil
}

func ownedTask(ctx context.Context, db *gorm.DB, userID, listID, taskID uuid.UUID) (*models.Task, error) {
	if _, err := GetTodoList(ctx, db, userID, listID); err != nil {
		return nil, err
	}
	var task models.Task
	if err := db.WithContext(ctx).First(&task, "id = ? AND todo_list_id = ?", taskID, listID).Error; err != nil {
		return nil, notFound(err, "loading task")
	}
	return &task, nil
}
