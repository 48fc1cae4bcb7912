package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/daemonrun"
	"marquee/internal/tmdb"
)

func newTrendingCommand(ctx *commandContext) *cobra.Command {
	var mediaType, window string
	var page int
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "List trending titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *daemonrun.Components) error {
				resp, err := svc.TMDB.Trending(cmd.Context(), mediaType, window, page)
				if err != nil {
					return err
				}
				return printResults(cmd, ctx, resp)
			})
		},
	}
	cmd.Flags().StringVarP(&mediaType, "media-type", "m", tmdb.MediaAll, "movie, tv, person or all")
	cmd.Flags().StringVarP(&window, "window", "w", tmdb.WindowWeek, "day or week")
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies, shows and people",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *daemonrun.Components) error {
				resp, err := svc.TMDB.Search(cmd.Context(), kind, strings.Join(args, " "), page)
				if err != nil {
					return err
				}
				return printResults(cmd, ctx, resp)
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", tmdb.SearchMulti, "multi, movie, tv or person")
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <movie|tv> <id>",
		Short: "Show details for a title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, id, err := parseTitleRef(args[0], args[1])
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				details, err := svc.TMDB.Details(cmd.Context(), mediaType, id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, details)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", details.DisplayTitle(), orDash(details.Date()))
				fmt.Fprintf(out, "Type:    %s\n", details.MediaType)
				fmt.Fprintf(out, "Rating:  %.1f (%d votes)\n", details.VoteAverage, details.VoteCount)
				fmt.Fprintf(out, "Genres:  %s\n", orDash(strings.Join(details.GenreNames(), ", ")))
				if details.Runtime > 0 {
					fmt.Fprintf(out, "Runtime: %d min\n", details.Runtime)
				}
				if details.NumberOfSeasons > 0 {
					fmt.Fprintf(out, "Seasons: %d\n", details.NumberOfSeasons)
				}
				if details.Overview != "" {
					fmt.Fprintf(out, "\n%s\n", details.Overview)
				}
				return nil
			})
		},
	}
}

func newPersonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "person <id>",
		Short: "Show details for a cast or crew member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q: must be a positive integer", args[0])
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				person, err := svc.TMDB.Person(cmd.Context(), id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, person)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, person.Name)
				fmt.Fprintf(out, "Known for: %s\n", orDash(person.KnownForDepartment))
				fmt.Fprintf(out, "Born:      %s\n", orDash(strings.TrimSpace(person.Birthday+" "+person.PlaceOfBirth)))
				if person.Deathday != "" {
					fmt.Fprintf(out, "Died:      %s\n", person.Deathday)
				}
				if person.Biography != "" {
					fmt.Fprintf(out, "\n%s\n", person.Biography)
				}
				return nil
			})
		},
	}
}

func printResults(cmd *cobra.Command, ctx *commandContext, resp *tmdb.Response) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, resp)
	}
	out := cmd.OutOrStdout()
	if resp == nil || len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results")
		return nil
	}
	renderTable(out, resultColumns, resultRows(resp.Results))
	fmt.Fprintf(out, "Page %d of %d\n", resp.Page, resp.TotalPages)
	return nil
}

var resultColumns = []column{
	{header: "ID", right: true},
	{header: "Type"},
	{header: "Title", maxWidth: 40},
	{header: "Date"},
	{header: "Rating", right: true},
}

func resultRows(results []tmdb.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rating := "-"
		if r.VoteCount > 0 {
			rating = strconv.FormatFloat(r.VoteAverage, 'f', 1, 64)
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			orDash(r.MediaType),
			r.DisplayTitle(),
			orDash(r.Date()),
			rating,
		})
	}
	return rows
}

func parseTitleRef(mediaType, rawID string) (string, int64, error) {
	normalized, err := tmdb.NormalizeMediaType(mediaType)
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid id %q: must be a positive integer", rawID)
	}
	return normalized, id, nil
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
