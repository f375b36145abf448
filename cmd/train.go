package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
)

var trainCmd = &cobra.Command{
	Use:   "train <embeddings.json>",
	Short: "Compute identity centroids from an embeddings export",
	Long: `Compute identity centroids from a JSON export of labeled face embeddings
and store them as enrolled identities.

The input file holds one entry per person:

  [
    {
      "id": "prof_novak",
      "display_name": "Tomáš Novák",
      "embeddings": [[0.1, ...], [0.2, ...]]
    }
  ]

Each identity's centroid is the arithmetic mean of its embeddings. All
embeddings must match the configured model dimension.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Bool("dry-run", false, "Compute centroids without writing to the database")
}

type trainEntry struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Embeddings  [][]float32 `json:"embeddings"`
}

// meanCentroid averages a set of embeddings into one centroid.
func meanCentroid(embeddings [][]float32, dim int) ([]float32, error) {
	if len(embeddings) == 0 {
		return nil, errors.New("no embeddings")
	}

	centroid := make([]float64, dim)
	for _, embedding := range embeddings {
		if len(embedding) != dim {
			return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(embedding), dim)
		}
		for i, v := range embedding {
			centroid[i] += float64(v)
		}
	}

	result := make([]float32, dim)
	n := float64(len(embeddings))
	for i, sum := range centroid {
		result[i] = float32(sum / n)
	}
	return result, nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	dryRun := mustGetBool(cmd, "dry-run")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading embeddings file: %w", err)
	}

	var entries []trainEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing embeddings file: %w", err)
	}
	if len(entries) == 0 {
		return errors.New("embeddings file contains no identities")
	}

	var store database.IdentityWriter
	if !dryRun {
		if cfg.Database.URL == "" {
			return errors.New("DATABASE_URL environment variable is required")
		}
		if err := postgres.Initialize(&cfg.Database); err != nil {
			return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		pool := postgres.GetGlobalPool()
		defer pool.Close()
		store = postgres.NewStore(pool)
	}

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Training centroids"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("identities"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	trained := 0
	for _, entry := range entries {
		bar.Add(1)

		if entry.ID == "" || entry.DisplayName == "" {
			fmt.Printf("\nSkipping entry without id or display_name\n")
			continue
		}

		centroid, err := meanCentroid(entry.Embeddings, cfg.Matcher.Dim)
		if err != nil {
			fmt.Printf("\nSkipping %s: %v\n", entry.ID, err)
			continue
		}

		if !dryRun {
			identity := database.StoredIdentity{
				ID:          entry.ID,
				DisplayName: entry.DisplayName,
				Centroid:    centroid,
				Dim:         cfg.Matcher.Dim,
				SampleCount: len(entry.Embeddings),
			}
			if err := store.UpsertIdentity(context.Background(), identity); err != nil {
				return fmt.Errorf("storing identity %s: %w", entry.ID, err)
			}
		}
		trained++
	}
	fmt.Println()

	if dryRun {
		fmt.Printf("Dry run: %d of %d identities would be enrolled\n", trained, len(entries))
	} else {
		fmt.Printf("Enrolled %d of %d identities\n", trained, len(entries))
	}
	return nil
}
