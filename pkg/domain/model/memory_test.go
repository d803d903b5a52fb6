package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"caps at three", []string{"a", "b", "c", "d"}, []string{"a", "b", "c"}},
		{"trims and drops empty", []string{" food ", "", "  ", "italian"}, []string{"food", "italian"}},
		{"nil becomes empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.NormalizeTags(tt.in)).Equal(tt.want)
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	gt.Value(t, model.NormalizeCategory("")).Equal(model.DefaultCategory)
	gt.Value(t, model.NormalizeCategory("  ")).Equal(model.DefaultCategory)
	gt.Value(t, model.NormalizeCategory(" food ")).Equal("food")
}

func TestMemoryValidate(t *testing.T) {
	t.Run("valid memory", func(t *testing.T) {
		m := &model.Memory{UserID: 1, Content: "User likes pasta", Tags: []string{"food"}}
		gt.NoError(t, m.Validate())
	})

	t.Run("empty content", func(t *testing.T) {
		m := &model.Memory{UserID: 1, Content: "   "}
		gt.Bool(t, errors.Is(m.Validate(), model.ErrInvalidMemory)).True()
	})

	t.Run("too many tags", func(t *testing.T) {
		m := &model.Memory{UserID: 1, Content: "User likes pasta", Tags: []string{"a", "b", "c", "d"}}
		gt.Bool(t, errors.Is(m.Validate(), model.ErrInvalidMemory)).True()
	})

	t.Run("missing owner", func(t *testing.T) {
		m := &model.Memory{Content: "User likes pasta"}
		gt.Bool(t, errors.Is(m.Validate(), model.ErrInvalidMemory)).True()
	})
}

func TestMemoryUpdateApply(t *testing.T) {
	m := &model.Memory{UserID: 1, Content: "old", Category: "food", Tags: []string{"x"}}

	content := "new content"
	category := ""
	tags := []string{"a", "b", "c", "d"}
	model.MemoryUpdate{Content: &content, Category: &category, Tags: &tags}.Apply(m)

	gt.Value(t, m.Content).Equal("new content")
	gt.Value(t, m.Category).Equal(model.DefaultCategory)
	gt.Value(t, m.Tags).Equal([]string{"a", "b", "c"})
}

func TestMemoryCopy(t *testing.T) {
	m := &model.Memory{Tags: []string{"a"}, Embedding: []float32{0.1}}
	c := m.Copy()
	c.Tags[0] = "b"
	c.Embedding[0] = 0.9

	gt.Value(t, m.Tags[0]).Equal("a")
	gt.Value(t, m.Embedding[0]).Equal(float32(0.1))
}

func TestGroupByCategory(t *testing.T) {
	memories := []*model.Memory{
		{ID: 1, Category: "food"},
		{ID: 2, Category: ""},
		{ID: 3, Category: "food"},
	}

	grouped := model.GroupByCategory(memories)
	gt.Array(t, grouped["food"]).Length(2)
	gt.Value(t, grouped["food"][0].ID).Equal(model.MemoryID(1))
	gt.Array(t, grouped[model.DefaultCategory]).Length(1)
}

func TestParseUserID(t *testing.T) {
	id, err := model.ParseUserID("42")
	gt.NoError(t, err).Required()
	gt.Value(t, id).Equal(model.UserID(42))

	_, err = model.ParseUserID("0")
	gt.Value(t, err).NotNil()

	_, err = model.ParseUserID("abc")
	gt.Value(t, err).NotNil()
}
