package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindCategory(t *testing.T) {
	tests := []struct {
		kind     Kind
		category Category
	}{
		{KindHighRisk, CategoryNotification},
		{KindEvaluation, CategoryNotification},
		{KindSystem, CategoryNotification},
		{KindRetraining, CategoryNotification},
		{KindInfo, CategoryNotification},
		{KindLogin, CategoryAudit},
		{KindLogout, CategoryAudit},
		{KindPrediction, CategoryAudit},
		{KindRecordEdit, CategoryAudit},
		{KindRecordAdd, CategoryAudit},
		{KindRecordDelete, CategoryAudit},
		{KindDataUpload, CategoryAudit},
		{KindError, CategoryAudit},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			category, ok := tt.kind.Category()
			assert.True(t, ok)
			assert.Equal(t, tt.category, category)
			assert.True(t, tt.kind.IsValid())
		})
	}
}

func TestKindUnknown(t *testing.T) {
	category, ok := Kind("promotion").Category()
	assert.False(t, ok)
	assert.Empty(t, category)
	assert.False(t, Kind("promotion").IsValid())
	assert.False(t, Kind("").IsValid())
}

func TestCategoryIsValid(t *testing.T) {
	assert.True(t, CategoryNotification.IsValid())
	assert.True(t, CategoryAudit.IsValid())
	assert.False(t, Category("alerts").IsValid())
	assert.False(t, Category("").IsValid())
}
