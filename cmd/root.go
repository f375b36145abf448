package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "A class attendance engine driven by face embeddings",
	Long: `Face Attendance records class attendance from face embeddings produced
by a camera capture pipeline. A session starts when the professor is
recognized, students check in by appearing on camera, and the attendance
ledger is append-only so a summary can always be recomputed.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
