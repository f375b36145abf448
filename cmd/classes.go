package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Manage classes",
}

var classesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all classes",
	RunE:  runClassesList,
}

var classesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new class",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassesCreate,
}

func init() {
	rootCmd.AddCommand(classesCmd)
	classesCmd.AddCommand(classesListCmd)
	classesCmd.AddCommand(classesCreateCmd)

	classesCreateCmd.Flags().String("professor", "", "Identity ID of the owning professor")
}

func openStore() (*postgres.Store, func(), error) {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	return postgres.NewStore(pool), func() { pool.Close() }, nil
}

func runClassesList(cmd *cobra.Command, args []string) error {
	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	classes, err := store.ListClasses(context.Background())
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		fmt.Println("No classes")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROFESSOR\tCREATED")
	for _, class := range classes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			class.ID, class.Name, class.ProfessorID, class.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runClassesCreate(cmd *cobra.Command, args []string) error {
	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	professorID := mustGetString(cmd, "professor")
	ctx := context.Background()

	var professor *database.StoredIdentity
	if professorID != "" {
		professor, err = store.GetIdentity(ctx, professorID)
		if err != nil {
			return err
		}
		if professor == nil {
			return fmt.Errorf("professor identity %s not found", professorID)
		}
	}

	class := database.Class{
		ID:          uuid.NewString(),
		Name:        args[0],
		ProfessorID: professorID,
	}
	if err := store.CreateClass(ctx, class); err != nil {
		return err
	}

	if professor != nil {
		member := database.RosterMember{
			ClassID:     class.ID,
			IdentityID:  professor.ID,
			DisplayName: professor.DisplayName,
			Role:        database.RoleProfessor,
		}
		if err := store.AddRosterMember(ctx, member); err != nil {
			return err
		}
	}

	fmt.Printf("Created class %s (%s)\n", class.Name, class.ID)
	return nil
}
