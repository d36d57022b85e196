package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateSplitsAtCapacity(t *testing.T) {
	alloc := Allocate(10, 8, []string{"t1", "t2", "t3"})

	assert.Equal(t, []string{"t1", "t2"}, alloc.Enrolled)
	assert.Equal(t, []string{"t3"}, alloc.Waitlisted)
}

func TestAllocateAllFit(t *testing.T) {
	alloc := Allocate(10, 2, []string{"t1", "t2"})

	assert.Equal(t, []string{"t1", "t2"}, alloc.Enrolled)
	assert.Empty(t, alloc.Waitlisted)
}

func TestAllocateFullCourse(t *testing.T) {
	alloc := Allocate(10, 10, []string{"t1"})

	assert.Empty(t, alloc.Enrolled)
	assert.Equal(t, []string{"t1"}, alloc.Waitlisted)
}

func TestAllocateOverbooked(t *testing.T) {
	// Current enrollment above capacity must not produce a negative window.
	alloc := Allocate(10, 12, []string{"t1", "t2"})

	assert.Empty(t, alloc.Enrolled)
	assert.Len(t, alloc.Waitlisted, 2)
}
