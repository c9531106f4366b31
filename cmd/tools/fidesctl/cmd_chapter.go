package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bibliafides/backend/internal/config"
	"github.com/bibliafides/backend/internal/model/scripture"
	scriptureService "github.com/bibliafides/backend/internal/service/scripture"
)

var chapterVersion string

// chapterCmd prints a chapter from the Bible text API.
var chapterCmd = &cobra.Command{
	Use:   "chapter [book] [chapter]",
	Short: "Print a Bible chapter",
	Long: `Fetches a chapter through the same client the chapter reader uses.

Example:
  fidesctl chapter sl 23 --version acf`,
	Args: cobra.ExactArgs(2),
	RunE: runChapter,
}

func init() {
	chapterCmd.Flags().StringVar(&chapterVersion, "version", "", "translation code (default BIBLE_DEFAULT_VERSION)")
}

func runChapter(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("chapter must be a number: %q", args[1])
	}

	cfg, err := config.LoadScriptureConfig()
	if err != nil {
		return err
	}
	client, err := scriptureService.NewClient(cfg, scripture.NewMemoryCatalog(scripture.Seed()), log)
	if err != nil {
		return err
	}

	chapter, err := client.Chapter(cmd.Context(), chapterVersion, args[0], number)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d (%s)\n\n", chapter.Book.Name, chapter.Number, chapter.Version)
	for _, verse := range chapter.Verses {
		fmt.Fprintf(out, "%3d  %s\n", verse.Number, verse.Text)
	}
	return nil
}
