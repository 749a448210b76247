// Command ladder is a spaced-repetition review tracker built on the
// stage-ladder scheduler.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sky-flux/ladder"
	"github.com/sky-flux/ladder/internal/config"
	"github.com/sky-flux/ladder/internal/logging"
	"github.com/sky-flux/ladder/internal/review"
	"github.com/sky-flux/ladder/internal/storage"
)

const version = "v0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ladder",
	Short: "ladder - spaced repetition on a stage ladder",
	Long: `ladder tracks knowledge cards and schedules their reviews on a
stage ladder: passing reviews climb the ladder toward longer intervals,
failing reviews reschedule at the reset stage's interval.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(completionCmd)
}

// app bundles everything a command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *storage.DB
	service *review.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	schedCfg, err := cfg.SchedulerConfig()
	if err != nil {
		return nil, err
	}
	sched, err := ladder.NewScheduler(schedCfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		service: review.NewService(db, sched, logger),
	}, nil
}

func (a *app) close() {
	_ = a.db.Close()
	_ = a.logger.Sync()
}

// withApp wraps a command body with app setup and teardown.
func withApp(run func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return run(a, cmd, args)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ladder", version)
	},
}

var (
	addContent    string
	addTopic      string
	addTags       []string
	addSource     string
	addImportance int
	addConfidence float64
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a card and open its first review",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		card, err := a.service.CreateCard(cmd.Context(), review.CreateCardParams{
			Title:      args[0],
			Content:    addContent,
			Topic:      addTopic,
			Tags:       addTags,
			SourceURL:  addSource,
			Importance: addImportance,
			Confidence: addConfidence,
		})
		if err != nil {
			return err
		}
		open, err := a.service.EnsureOpenReview(cmd.Context(), card.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Card %d created, first review due %s\n", card.ID, open.DueAt.Format(time.DateTime))
		return nil
	}),
}

var (
	listQuery string
	listTopic string
	listTag   string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		cards, err := a.service.ListCards(cmd.Context(), storage.CardFilter{
			Query: listQuery,
			Topic: listTopic,
			Tag:   listTag,
			Limit: listLimit,
		})
		if err != nil {
			return err
		}
		for _, c := range cards {
			topic := c.Topic
			if topic == "" {
				topic = "-"
			}
			fmt.Printf("%4d  %-12s  %s\n", c.ID, topic, c.Title)
		}
		return nil
	}),
}

var (
	linkType    string
	linkContext string
)

var linkCmd = &cobra.Command{
	Use:   "link <from-card-id> <to-card-id>",
	Short: "Link two cards",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		from, err := parseCardID(args[0])
		if err != nil {
			return err
		}
		to, err := parseCardID(args[1])
		if err != nil {
			return err
		}
		l, err := a.service.LinkCards(cmd.Context(), from, to, linkType, linkContext)
		if err != nil {
			return err
		}
		fmt.Printf("Linked %d -> %d (%s)\n", l.FromCardID, l.ToCardID, l.Type)
		return nil
	}),
}

var dueLimit int

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List reviews that are due now",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		now := time.Now().UTC()
		reviews, err := a.service.DueReviews(cmd.Context(), now, dueLimit)
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			fmt.Println("Nothing due.")
			return nil
		}
		for _, r := range reviews {
			title := cardTitle(cmd.Context(), a, r.CardID)
			fmt.Printf("%4d  stage %d  due %s  %s\n", r.CardID, r.Stage, r.DueAt.Format(time.DateTime), title)
		}
		return nil
	}),
}

var reviewScore float64

var reviewCmd = &cobra.Command{
	Use:   "review <card-id>",
	Short: "Complete a card's open review",
	Long: `Complete a card's open review. Pass --score to grade it; omitting
the flag grades the review as failing.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		cardID, err := parseCardID(args[0])
		if err != nil {
			return err
		}

		var score *float64
		if cmd.Flags().Changed("score") {
			score = &reviewScore
		}

		next, err := a.service.CompleteReview(cmd.Context(), cardID, score, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("Card %d -> stage %d, iteration %d, next review %s\n",
			cardID, next.Stage, next.Iteration, next.Due.Format(time.DateTime))
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show review statistics",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		report, err := a.service.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Reviews: %d total, %d passed (%.0f%%), streak %d\n",
			report.Summary.Total, report.Summary.Passed, report.Summary.PassRate()*100, report.Streak)
		for _, s := range report.Summary.Stages {
			fmt.Printf("  stage %d: %d reviews, %.0f%% passed\n", s.Stage, s.Total, s.PassRate()*100)
		}
		return nil
	}),
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the card graph",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		g, err := a.service.GraphSummary(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d cards, %d links\n", len(g.Nodes), len(g.Edges))
		for _, n := range g.Nodes {
			fmt.Printf("%4d  degree %d  %s\n", n.ID, n.Degree, n.Title)
		}
		for _, e := range g.Edges {
			fmt.Printf("      %d -> %d (%s)\n", e.From, e.To, e.Type)
		}
		return nil
	}),
}

var completionCmd = &cobra.Command{
	Use:       "completion [bash|zsh|fish|powershell]",
	Short:     "Generate the autocompletion script for the specified shell",
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

func parseCardID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid card id %q", arg)
	}
	return id, nil
}

func cardTitle(ctx context.Context, a *app, cardID int64) string {
	card, err := a.service.GetCard(ctx, cardID)
	if err != nil {
		return "(unknown card)"
	}
	return card.Title
}

func main() {
	addCmd.Flags().StringVar(&addContent, "content", "", "card body")
	addCmd.Flags().StringVar(&addTopic, "topic", "", "card topic")
	addCmd.Flags().StringSliceVar(&addTags, "tags", nil, "comma-separated tags")
	addCmd.Flags().StringVar(&addSource, "source", "", "source URL")
	addCmd.Flags().IntVar(&addImportance, "importance", 0, "importance 0-10")
	addCmd.Flags().Float64Var(&addConfidence, "confidence", 0, "confidence 0-1")

	listCmd.Flags().StringVar(&listQuery, "query", "", "substring match on title or content")
	listCmd.Flags().StringVar(&listTopic, "topic", "", "filter by topic")
	listCmd.Flags().StringVar(&listTag, "tag", "", "filter by tag")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum cards to list")

	linkCmd.Flags().StringVar(&linkType, "type", "reference", "link type")
	linkCmd.Flags().StringVar(&linkContext, "context", "", "why the cards are linked")

	dueCmd.Flags().IntVar(&dueLimit, "limit", 50, "maximum reviews to list")

	reviewCmd.Flags().Float64Var(&reviewScore, "score", 0, "review score")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
