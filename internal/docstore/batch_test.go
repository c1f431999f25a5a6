package docstore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchSplit(t *testing.T) {
	tests := []struct {
		name     string
		writes   int
		size     int
		expected []int
	}{
		{name: "empty", writes: 0, size: 10, expected: nil},
		{name: "exact", writes: 10, size: 5, expected: []int{5, 5}},
		{name: "remainder", writes: 11, size: 5, expected: []int{5, 5, 1}},
		{name: "size above limit is clamped", writes: 1001, size: 5000, expected: []int{500, 500, 1}},
		{name: "non positive size defaults to limit", writes: 3, size: 0, expected: []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := NewBatch()
			for i := 0; i < tt.writes; i++ {
				batch.Delete("assetInstances", fmt.Sprintf("i%d", i))
			}

			var sizes []int
			for _, piece := range batch.Split(tt.size) {
				sizes = append(sizes, piece.Len())
			}
			assert.Equal(t, tt.expected, sizes)
		})
	}
}

func TestBatchSplitPreservesOrder(t *testing.T) {
	batch := NewBatch().
		Create("equipmentMaster", "m1", nil).
		Create("assetInstances", "i1", nil).
		Create("assetInstances", "i2", nil)

	pieces := batch.Split(2)
	assert.Equal(t, "m1", pieces[0].Writes()[0].ID)
	assert.Equal(t, "i1", pieces[0].Writes()[1].ID)
	assert.Equal(t, "i2", pieces[1].Writes()[0].ID)
}
