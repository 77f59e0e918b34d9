package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSharedWith(t *testing.T) {
	task := &Task{SharedWith: []string{"a", "b"}}
	assert.True(t, task.IsSharedWith("a"))
	assert.False(t, task.IsSharedWith("c"))
	assert.False(t, task.IsSharedWith(""))

	var nilTask *Task
	assert.False(t, nilTask.IsSharedWith("a"))
}

func TestTaskPatchIsEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())

	title := "t"
	assert.False(t, TaskPatch{Title: &title}.IsEmpty())
	assert.False(t, TaskPatch{ClearDueDate: true}.IsEmpty())
	assert.False(t, TaskPatch{SetShared: true}.IsEmpty())

	// A bare shared-with slice without the flag means the field was absent.
	assert.True(t, TaskPatch{SharedWith: []string{"a"}}.IsEmpty())
}
