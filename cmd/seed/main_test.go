package main

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotCatalog_WeekdaysOnly(t *testing.T) {
	// Friday afternoon
	from := time.Date(2030, 1, 4, 15, 30, 0, 0, time.UTC)

	slots := slotCatalog(from, 3, 9, 12)

	// Sat and Sun skipped, Monday kept
	require.Len(t, slots, 3)
	assert.Equal(t, time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC), slots[0])
	assert.Equal(t, time.Date(2030, 1, 7, 11, 0, 0, 0, time.UTC), slots[2])
	for _, s := range slots {
		assert.True(t, s.After(from))
	}
}

func TestSlotCatalog_Empty(t *testing.T) {
	assert.Empty(t, slotCatalog(time.Now(), 0, 9, 17))
}

func TestDemoEmail_Unique(t *testing.T) {
	faker := gofakeit.New(42)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		e := demoEmail(faker, i)
		assert.Contains(t, e, "@")
		assert.Equal(t, strings.ToLower(e), e)
		assert.False(t, seen[e], "duplicate %s", e)
		seen[e] = true
	}
}
