package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/victorxys/ExamBank-sub004/internal/cache"
	"github.com/victorxys/ExamBank-sub004/internal/fetch"
	"github.com/victorxys/ExamBank-sub004/internal/handler"
	appI18n "github.com/victorxys/ExamBank-sub004/internal/i18n"
	"github.com/victorxys/ExamBank-sub004/internal/media"
	"github.com/victorxys/ExamBank-sub004/internal/model"
	"github.com/victorxys/ExamBank-sub004/internal/qbank"
	"github.com/victorxys/ExamBank-sub004/internal/record"
	"github.com/victorxys/ExamBank-sub004/internal/view"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "exambank",
		Short: "Exam record viewer and question bank client for ExamBank",
	}

	serve := serveCmd()
	root.AddCommand(serve, recordCmd(), questionsCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `exambank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("api-url", "", "ExamBank API base URL")
	f.StringP("lang", "l", "zh", "UI language (zh, en)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local exam record viewer",
		RunE:  runServe,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("cache-db", "", "Session cache SQLite path (empty = in-memory map, \":memory:\" = in-memory SQLite)")
	f.String("video-proxy", "", "Playback proxy endpoint for video URLs")
	f.Bool("cors", true, "Allow cross-origin requests from browser frontends")
	return cmd
}

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Fetch and display one exam record",
		RunE:  runRecord,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("exam-id", "", "Exam identifier")
	f.String("subject-id", "", "Subject identifier")
	f.String("exam-time", "", "Exam timestamp (e.g. \"2024-05-01 10:00:00\")")
	f.String("cache-db", "", "Session cache SQLite path (empty = in-memory map)")
	f.Bool("wrong-only", false, "Show incorrect answers only")
	f.Bool("json", false, "Print the record as JSON")

	// Override fields; set flags take precedence over fetched values.
	f.String("exam-title", "", "Override the exam title")
	f.String("username", "", "Override the username")
	f.Int("attempt", 0, "Override the attempt number")
	f.Float64("total-score", 0, "Override the total score")
	f.Float64("accuracy-rate", 0, "Override the accuracy rate")

	return cmd
}

func questionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage the question bank",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List question bank entries",
		RunE:  runQuestionsList,
	}
	addCommonFlags(list)
	list.Flags().StringP("subject", "s", "", "Filter by subject identifier")

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a question to the bank",
		RunE:  runQuestionsAdd,
	}
	addCommonFlags(add)
	add.Flags().StringP("subject", "s", "", "Subject identifier (required)")
	add.Flags().String("text", "", "Question text (required)")
	add.Flags().String("type", "single", "Question type (single, multi)")
	add.Flags().String("explanation", "", "Answer explanation")
	_ = add.MarkFlagRequired("subject")
	_ = add.MarkFlagRequired("text")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a question from the bank",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuestionsRm,
	}
	addCommonFlags(rm)

	cmd.AddCommand(list, add, rm)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("exambank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/exambank")
	v.AddConfigPath("/etc/exambank")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStore picks the session cache backend: the in-memory map unless a
// SQLite path was configured.
func openStore(v *viper.Viper) (cache.Store, func(), error) {
	path := v.GetString("cache-db")
	if path == "" {
		return cache.NewMemStore(), func() {}, nil
	}
	s, err := cache.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open session cache: %w", err)
	}
	return s, func() { _ = s.Close() }, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	apiURL := v.GetString("api-url")
	if apiURL == "" {
		return fmt.Errorf("api-url is required: set --api-url flag or EXAMBANK_API_URL env var")
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	store, closeStore, err := openStore(v)
	if err != nil {
		return err
	}
	defer closeStore()

	var videos *media.Resolver
	if proxy := v.GetString("video-proxy"); proxy != "" {
		videos = media.NewResolver(proxy)
	}

	h := handler.New(fetch.New(apiURL, nil), cache.New(store), videos)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	if v.GetBool("cors") {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting viewer",
		"addr", addr,
		"api_url", apiURL,
		"lang", lang,
		"cache_db", v.GetString("cache-db"),
	)
	return http.ListenAndServe(addr, r)
}

func runRecord(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	apiURL := v.GetString("api-url")
	if apiURL == "" {
		return fmt.Errorf("api-url is required: set --api-url flag or EXAMBANK_API_URL env var")
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	store, closeStore, err := openStore(v)
	if err != nil {
		return err
	}
	defer closeStore()

	l := record.NewLoader(fetch.New(apiURL, nil), cache.New(store))
	defer l.Close()

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	l.Load(ctx, record.Params{
		ExamID:    v.GetString("exam-id"),
		SubjectID: v.GetString("subject-id"),
		ExamTime:  v.GetString("exam-time"),
	}, overridesFromFlags(cmd, v))

	snap, err := l.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for record: %w", err)
	}
	if snap.State == record.StateError {
		return fmt.Errorf("%s", snap.Message)
	}

	wrongOnly := v.GetBool("wrong-only")
	if v.GetBool("json") {
		out := struct {
			Record   *model.ExamRecord `json:"record"`
			Sections []view.Section    `json:"sections"`
		}{snap.Record, view.Sections(ctx, snap.Record, wrongOnly)}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printRecord(ctx, os.Stdout, snap.Record, wrongOnly)
	return nil
}

// overridesFromFlags collects only the override flags the user actually set,
// so unset flags never clobber fetched values with zero defaults.
func overridesFromFlags(cmd *cobra.Command, v *viper.Viper) model.Overrides {
	var ov model.Overrides
	f := cmd.Flags()
	if f.Changed("exam-title") {
		s := v.GetString("exam-title")
		ov.ExamTitle = &s
	}
	if f.Changed("username") {
		s := v.GetString("username")
		ov.Username = &s
	}
	if f.Changed("attempt") {
		n := v.GetInt("attempt")
		ov.AttemptNumber = &n
	}
	if f.Changed("total-score") {
		x := v.GetFloat64("total-score")
		ov.TotalScore = &x
	}
	if f.Changed("accuracy-rate") {
		x := v.GetFloat64("accuracy-rate")
		ov.AccuracyRate = &x
	}
	return ov
}

func printRecord(ctx context.Context, w io.Writer, rec *model.ExamRecord, wrongOnly bool) {
	fmt.Fprintln(w, rec.ExamTitle)
	fmt.Fprintf(w, "%s: %s\n", appI18n.T(ctx, "LabelUser"), rec.Username)
	fmt.Fprintf(w, "%s: %s\n", appI18n.T(ctx, "LabelExamTime"), rec.ExamTime)
	fmt.Fprintf(w, "%s: %d\n", appI18n.T(ctx, "LabelAttempt"), rec.AttemptNumber)

	scoreResult := "ResultFail"
	if rec.ScorePassed() {
		scoreResult = "ResultPass"
	}
	fmt.Fprintf(w, "%s: %.1f (%s)\n", appI18n.T(ctx, "LabelScore"), rec.TotalScore, appI18n.T(ctx, scoreResult))
	fmt.Fprintf(w, "%s: %.0f%%\n", appI18n.T(ctx, "LabelAccuracy"), rec.AccuracyRate*100)

	fmt.Fprintln(w, appI18n.Td(ctx, "SummarySingleChoice", map[string]any{
		"Total": rec.SingleChoiceTotal, "Correct": rec.SingleChoiceCorrect, "Incorrect": rec.SingleChoiceIncorrect,
	}))
	fmt.Fprintln(w, appI18n.Td(ctx, "SummaryMultiChoice", map[string]any{
		"Total": rec.MultiChoiceTotal, "Correct": rec.MultiChoiceCorrect, "Incorrect": rec.MultiChoiceIncorrect,
	}))

	if len(rec.Courses) > 0 {
		var names []string
		for _, c := range rec.Courses {
			names = append(names, c.Name)
		}
		fmt.Fprintf(w, "%s: %s\n", appI18n.T(ctx, "LabelCourses"), strings.Join(names, ", "))
	}

	for _, section := range view.Sections(ctx, rec, wrongOnly) {
		fmt.Fprintf(w, "\n== %s ==\n", section.Heading)
		for i, q := range section.Questions {
			mark := "✗"
			if q.IsCorrect {
				mark = "✓"
			}
			fmt.Fprintf(w, "%d. [%s] %s\n", i+1, mark, q.QuestionText)
			for _, o := range q.Options {
				sel := " "
				if slices.Contains(q.SelectedOptionIDs, o.ID) {
					sel = "x"
				}
				correct := ""
				if o.IsCorrect {
					correct = " ✓"
				}
				fmt.Fprintf(w, "   [%s] %s. %s%s\n", sel, o.Char, o.Text, correct)
			}
			if q.Explanation != "" {
				fmt.Fprintf(w, "   %s: %s\n", appI18n.T(ctx, "LabelExplanation"), q.Explanation)
			}
		}
	}
}

func qbankClient(v *viper.Viper) (*qbank.Client, error) {
	apiURL := v.GetString("api-url")
	if apiURL == "" {
		return nil, fmt.Errorf("api-url is required: set --api-url flag or EXAMBANK_API_URL env var")
	}
	return qbank.New(apiURL, nil), nil
}

func runQuestionsList(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	client, err := qbankClient(v)
	if err != nil {
		return err
	}

	questions, err := client.List(cmd.Context(), v.GetString("subject"))
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	for _, q := range questions {
		fmt.Printf("%d\t%s\t%s\t%s\n", q.ID, q.SubjectID, q.QuestionType, q.QuestionText)
	}
	return nil
}

func runQuestionsAdd(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	client, err := qbankClient(v)
	if err != nil {
		return err
	}

	qType := v.GetString("type")
	if qType != string(model.QuestionSingleChoice) && qType != string(model.QuestionMultiChoice) {
		return fmt.Errorf("invalid question type %q (want single or multi)", qType)
	}

	created, err := client.Create(cmd.Context(), qbank.Question{
		SubjectID:    v.GetString("subject"),
		QuestionText: v.GetString("text"),
		QuestionType: qType,
		Explanation:  v.GetString("explanation"),
	})
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	fmt.Printf("created question %d\n", created.ID)
	return nil
}

func runQuestionsRm(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	client, err := qbankClient(v)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid question id %q", args[0])
	}
	if err := client.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	fmt.Printf("deleted question %d\n", id)
	return nil
}
