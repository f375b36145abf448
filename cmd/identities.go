package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/database"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Manage enrolled identities",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	RunE:  runIdentitiesList,
}

var identitiesFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Find identities by display name",
	Long: `Find identities by display name. Matching is diacritics-insensitive
and case-insensitive, so "tomas novak" finds "Tomáš Novák".`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentitiesFind,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd)
	identitiesCmd.AddCommand(identitiesFindCmd)
}

func printIdentities(identities []database.StoredIdentity) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDIM\tSAMPLES")
	for _, identity := range identities {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
			identity.ID, identity.DisplayName, identity.Dim, identity.SampleCount)
	}
	return w.Flush()
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	identities, err := store.ListIdentities(context.Background())
	if err != nil {
		return err
	}
	if len(identities) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}
	return printIdentities(identities)
}

func runIdentitiesFind(cmd *cobra.Command, args []string) error {
	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	identities, err := store.FindIdentitiesByName(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(identities) == 0 {
		fmt.Printf("No identities match %q\n", args[0])
		return nil
	}
	return printIdentities(identities)
}
