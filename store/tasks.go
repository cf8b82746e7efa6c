package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrTaskNotFound is returned for task lookups scoped to the wrong owner as
// well as genuinely missing rows; callers cannot probe other users' tasks.
var ErrTaskNotFound = errors.New("task not found")

// Task is one to-do item, always owned by a single user.
type Task struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"-"`
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// TaskStore persists tasks. Every operation is scoped by owner id.
type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) ListByUser(ctx context.Context, userID int64) ([]*Task, error) {
	var models []TaskModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	tasks := make([]*Task, 0, len(models))
	for i := range models {
		tasks = append(tasks, models[i].ToTask())
	}
	return tasks, nil
}

func (s *TaskStore) Create(ctx context.Context, userID int64, content string) (*Task, error) {
	model := &TaskModel{UserID: userID, Content: content}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	return model.ToTask(), nil
}

// Toggle flips a task's completion state and returns the new value.
func (s *TaskStore) Toggle(ctx context.Context, userID, taskID int64) (bool, error) {
	var model TaskModel
	if err := s.db.WithContext(ctx).First(&model, "id = ? AND user_id = ?", taskID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrTaskNotFound
		}
		return false, err
	}
	done := !model.Done
	if err := s.db.WithContext(ctx).Model(&model).Update("done", done).Error; err != nil {
		return false, err
	}
	return done, nil
}

func (s *TaskStore) Delete(ctx context.Context, userID, taskID int64) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID).Delete(&TaskModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
