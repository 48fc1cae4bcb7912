package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"marquee/internal/daemonrun"
	"marquee/internal/fileutil"
	"marquee/internal/quiz"
	"marquee/internal/recommend"
	"marquee/internal/tmdb"
)

const quizSourcePages = 2

// quizFile is the on-disk form written by "quiz build" and read by
// "quiz score".
type quizFile struct {
	Seed      uint64          `json:"seed"`
	Questions []quiz.Question `json:"questions"`
}

func newAffinityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "affinity",
		Short: "Show your genre affinity from favorites and positive reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				profile, err := svc.Recommender.Affinity(userCtx, sess.UserID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, profile)
				}
				out := cmd.OutOrStdout()
				if len(profile.Shares) == 0 {
					fmt.Fprintln(out, "No genre signal yet; add favorites or positive reviews")
					return nil
				}
				rows := make([][]string, 0, len(profile.Shares))
				for _, share := range profile.Shares {
					rows = append(rows, []string{share.Genre, strconv.Itoa(share.Percent) + "%"})
				}
				renderTable(out, []column{{header: "Genre"}, {header: "Share", right: true}}, rows)
				return nil
			})
		},
	}
}

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	var limit int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest titles from your top reviewed genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				recs, err := svc.Recommender.Recommend(userCtx, sess.UserID, contentType, limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, recs)
				}
				out := cmd.OutOrStdout()
				if recs.Reason == recommend.ReasonGenres {
					names, _ := svc.Genres.Names(userCtx, recs.GenreIDs)
					fmt.Fprintf(out, "Because you like %s\n", orDash(strings.Join(names, ", ")))
				} else {
					fmt.Fprintln(out, "Trending this week")
				}
				if len(recs.Items) == 0 {
					fmt.Fprintln(out, "No recommendations")
					return nil
				}
				renderTable(out, resultColumns, resultRows(recs.Items))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&contentType, "content-type", "t", tmdb.MediaMovie, "movie or tv")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum titles (default recommend.limit)")
	return cmd
}

func newQuizCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Play a movie trivia quiz",
	}
	cmd.AddCommand(newQuizBuildCommand(ctx))
	cmd.AddCommand(newQuizScoreCommand(ctx))
	return cmd
}

func newQuizBuildCommand(ctx *commandContext) *cobra.Command {
	var mediaType, outPath string
	var questions int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate a quiz from trending titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if questions <= 0 {
				questions = cfg.Quiz.Questions
			}
			if seed == 0 {
				seed = rand.Uint64()
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				records, err := quiz.Pool(cmd.Context(), svc.TMDB, mediaType, quizSourcePages)
				if err != nil {
					return err
				}
				built := quizFile{Seed: seed, Questions: quiz.Build(records, questions, seed)}
				if outPath != "" {
					data, err := json.MarshalIndent(built, "", "  ")
					if err != nil {
						return err
					}
					if err := fileutil.WriteFileAtomic(outPath, append(data, '\n'), 0o644); err != nil {
						return fmt.Errorf("write quiz: %w", err)
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, built)
				}
				out := cmd.OutOrStdout()
				for _, q := range built.Questions {
					fmt.Fprintf(out, "%s. %s\n", q.ID, q.Prompt)
					for i, choice := range q.Choices {
						fmt.Fprintf(out, "   #%d %s\n", i, choice)
					}
				}
				fmt.Fprintf(out, "Seed %d", built.Seed)
				if outPath != "" {
					fmt.Fprintf(out, "; saved to %s", outPath)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&mediaType, "media-type", "m", tmdb.MediaMovie, "movie, tv or all")
	cmd.Flags().IntVarP(&questions, "questions", "n", 0, "Question count (default quiz.questions)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible quiz (random when 0)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the quiz, answers included, to this file")
	return cmd
}

func newQuizScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <quiz.json> [qN=answer ...]",
		Short: "Score answers against a saved quiz; answers are #index or choice text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read quiz: %w", err)
			}
			var saved quizFile
			if err := json.Unmarshal(data, &saved); err != nil {
				return fmt.Errorf("decode quiz %s: %w", args[0], err)
			}
			answers, err := parseAnswers(args[1:])
			if err != nil {
				return err
			}
			result := quiz.Score(saved.Questions, answers)
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(result.Outcomes))
			for _, o := range result.Outcomes {
				mark := "wrong"
				switch {
				case !o.Answered:
					mark = "skipped"
				case o.Correct:
					mark = "correct"
				}
				rows = append(rows, []string{o.QuestionID, mark, o.Expected})
			}
			renderTable(out, []column{{header: "Question"}, {header: "Result"}, {header: "Answer"}}, rows)
			fmt.Fprintf(out, "%d/%d (%d%%) %s\n", result.Correct, result.Total, result.Percent, result.Feedback)
			return nil
		},
	}
}

func parseAnswers(args []string) (map[string]quiz.Answer, error) {
	answers := make(map[string]quiz.Answer, len(args))
	for _, arg := range args {
		id, value, ok := strings.Cut(arg, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid answer %q: expected qN=answer", arg)
		}
		answers[id] = quiz.ParseAnswer(value)
	}
	return answers, nil
}

func newFacesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faces",
		Short: "Find look-alike actors",
	}
	cmd.AddCommand(newFacesMatchCommand(ctx))
	return cmd
}

func newFacesMatchCommand(ctx *commandContext) *cobra.Command {
	var embeddingFile string
	cmd := &cobra.Command{
		Use:   "match [v1,v2,...]",
		Short: "Match a face embedding against the actor set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readEmbedding(args, embeddingFile)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				matches, err := svc.Faces.Match(query)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, matches)
				}
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintln(out, "No look-alikes found")
					return nil
				}
				rows := make([][]string, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, []string{m.Name, strconv.FormatFloat(m.Score, 'f', 3, 64)})
				}
				renderTable(out, []column{{header: "Actor"}, {header: "Similarity", right: true}}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&embeddingFile, "file", "f", "", "Read the embedding from a JSON array file")
	return cmd
}

func readEmbedding(args []string, path string) ([]float64, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read embedding: %w", err)
		}
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", path, err)
		}
		return values, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("an embedding argument or --file is required")
	}
	parts := strings.Split(args[0], ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding value %q", part)
		}
		values = append(values, v)
	}
	return values, nil
}
