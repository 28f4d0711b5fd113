package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the indexed courses",
	RunE:  runCourses,
}

func runCourses(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	titles, err := dbClient.ListCourseTitles(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	chunks, err := dbClient.CountChunks(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}

	if len(titles) == 0 {
		fmt.Println("No courses indexed yet. Run 'lectern ingest' first.")
		return nil
	}

	fmt.Printf("%d courses, %d chunks\n\n", len(titles), chunks)
	for _, title := range titles {
		fmt.Printf("  %s\n", title)
	}
	return nil
}
