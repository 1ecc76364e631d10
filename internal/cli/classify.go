package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/infra/classifier"
)

var (
	classifyText     string
	classifyAuthor   string
	classifyLikes    int
	classifyReposts  int
	classifyComments int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single piece of text with the configured provider",
	Run:   runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyText, "text", "", "item text (required)")
	classifyCmd.Flags().StringVar(&classifyAuthor, "author", "", "item author")
	classifyCmd.Flags().IntVar(&classifyLikes, "likes", 0, "like count")
	classifyCmd.Flags().IntVar(&classifyReposts, "reposts", 0, "repost count")
	classifyCmd.Flags().IntVar(&classifyComments, "comments", 0, "comment count")
	_ = classifyCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Classifier.Timeout)
	defer cancel()

	client, err := classifier.New(ctx, cfg.Classifier, classifier.NewProviderMonitor())
	if err != nil {
		slog.Error("Failed to create classifier", "error", err)
		os.Exit(1)
	}

	c, err := client.Classify(ctx, classifier.Request{
		Text:   classifyText,
		Author: classifyAuthor,
		Engagement: domain.Engagement{
			Likes:    classifyLikes,
			Reposts:  classifyReposts,
			Comments: classifyComments,
		},
	})
	if err != nil {
		slog.Error("Classification failed", "provider", client.Name(), "kind", classifier.ClassifyError(err), "error", err)
		os.Exit(1)
	}

	fmt.Printf("provider: %s\n", client.Name())
	fmt.Printf("rating:   %d\n", c.Rating)
	fmt.Printf("ideology: %d\n", c.Ideology)
	fmt.Printf("labels:   %s\n", strings.Join([]string{domain.RatingLabel(c.Rating), domain.IdeologyLabel(c.Ideology)}, " "))
}
