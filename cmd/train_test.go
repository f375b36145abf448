package cmd

import (
	"math"
	"testing"
)

func TestMeanCentroid(t *testing.T) {
	t.Run("AveragesEmbeddings", func(t *testing.T) {
		embeddings := [][]float32{
			{1, 0, 2},
			{3, 2, 0},
		}
		centroid, err := meanCentroid(embeddings, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []float32{2, 1, 1}
		for i, v := range expected {
			if math.Abs(float64(centroid[i]-v)) > 1e-6 {
				t.Errorf("centroid[%d] = %f, expected %f", i, centroid[i], v)
			}
		}
	})

	t.Run("SingleEmbedding", func(t *testing.T) {
		centroid, err := meanCentroid([][]float32{{0.5, -0.5}}, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if centroid[0] != 0.5 || centroid[1] != -0.5 {
			t.Errorf("unexpected centroid: %v", centroid)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, err := meanCentroid(nil, 3); err == nil {
			t.Error("expected error for empty embedding set")
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		if _, err := meanCentroid([][]float32{{1, 2}}, 3); err == nil {
			t.Error("expected error for dimension mismatch")
		}
	})
}
