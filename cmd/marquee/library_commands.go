package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/daemonrun"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

func newFavoritesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite titles",
	}
	cmd.AddCommand(newFavoritesAddCommand(ctx))
	cmd.AddCommand(newFavoritesListCommand(ctx))
	cmd.AddCommand(newFavoritesRemoveCommand(ctx))
	return cmd
}

func newFavoritesAddCommand(ctx *commandContext) *cobra.Command {
	var genres []string
	cmd := &cobra.Command{
		Use:   "add <movie|tv> <id>",
		Short: "Add a title to your favorites",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, id, err := parseTitleRef(args[0], args[1])
			if err != nil {
				return err
			}
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				fav := store.Favorite{UserID: sess.UserID, TMDBID: id, MediaType: mediaType, Genres: genres}
				if details := lookupDetails(userCtx, cmd, svc, mediaType, id); details != nil {
					fav.Title = details.DisplayTitle()
					fav.PosterPath = details.PosterPath
					if len(fav.Genres) == 0 {
						fav.Genres = details.GenreNames()
					}
				}
				saved, created, err := svc.Store.AddFavorite(userCtx, fav)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"favorite": saved, "created": created})
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", favoriteLabel(*saved))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favorite\n", favoriteLabel(*saved))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&genres, "genre", "g", nil, "Genre labels (looked up when omitted)")
	return cmd
}

func newFavoritesListCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				favorites, err := svc.Store.ListFavorites(userCtx, sess.UserID, mediaType)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, favorites)
				}
				out := cmd.OutOrStdout()
				if len(favorites) == 0 {
					fmt.Fprintln(out, "No favorites yet")
					return nil
				}
				rows := make([][]string, 0, len(favorites))
				for _, f := range favorites {
					rows = append(rows, []string{
						strconv.FormatInt(f.TMDBID, 10),
						f.MediaType,
						orDash(f.Title),
						orDash(strings.Join(f.Genres, ", ")),
						f.CreatedAt.Local().Format(time.DateOnly),
					})
				}
				renderTable(out, []column{
					{header: "ID", right: true},
					{header: "Type"},
					{header: "Title", maxWidth: 40},
					{header: "Genres", maxWidth: 40},
					{header: "Added"},
				}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&mediaType, "media-type", "m", "", "Only movie or tv")
	return cmd
}

func newFavoritesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <movie|tv> <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a title from your favorites",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, id, err := parseTitleRef(args[0], args[1])
			if err != nil {
				return err
			}
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				if err := svc.Store.RemoveFavorite(userCtx, sess.UserID, id, mediaType); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %d from favorites\n", mediaType, id)
				return nil
			})
		},
	}
}

func newReviewsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Write and list reviews",
	}
	cmd.AddCommand(newReviewsAddCommand(ctx))
	cmd.AddCommand(newReviewsListCommand(ctx))
	return cmd
}

func newReviewsAddCommand(ctx *commandContext) *cobra.Command {
	var body, sentiment string
	var rating int
	var genreIDs []int
	cmd := &cobra.Command{
		Use:   "add <movie|tv> <id>",
		Short: "Review a title; sentiment is classified when omitted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, id, err := parseTitleRef(args[0], args[1])
			if err != nil {
				return err
			}
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				review := store.Review{
					UserID:      sess.UserID,
					ContentID:   id,
					ContentType: mediaType,
					Body:        body,
					Sentiment:   strings.ToLower(strings.TrimSpace(sentiment)),
					GenreIDs:    genreIDs,
				}
				if cmd.Flags().Changed("rating") {
					review.Rating = &rating
				}
				if details := lookupDetails(userCtx, cmd, svc, mediaType, id); details != nil {
					review.Title = details.DisplayTitle()
					if len(review.GenreIDs) == 0 {
						review.GenreIDs = details.AllGenreIDs()
					}
				}
				if review.Sentiment == "" {
					classifyReview(userCtx, cmd, svc, &review)
				}
				saved, err := svc.Store.CreateReview(userCtx, review)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, saved)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved review %s (sentiment: %s)\n", saved.ID, orDash(saved.Sentiment))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&body, "body", "b", "", "Review text")
	cmd.Flags().StringVarP(&sentiment, "sentiment", "s", "", "positive or negative (classified when omitted)")
	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "Rating from 0 to 10")
	cmd.Flags().IntSliceVar(&genreIDs, "genre-id", nil, "TMDB genre ids (looked up when omitted)")
	return cmd
}

func newReviewsListCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your reviews, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				reviews, err := svc.Store.ListReviewsByUser(userCtx, sess.UserID, contentType)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, reviews)
				}
				out := cmd.OutOrStdout()
				if len(reviews) == 0 {
					fmt.Fprintln(out, "No reviews yet")
					return nil
				}
				rows := make([][]string, 0, len(reviews))
				for _, r := range reviews {
					rating := "-"
					if r.Rating != nil {
						rating = strconv.Itoa(*r.Rating)
					}
					rows = append(rows, []string{
						fmt.Sprintf("%s %d", r.ContentType, r.ContentID),
						orDash(r.Title),
						rating,
						orDash(r.Sentiment),
						orDash(r.Body),
					})
				}
				renderTable(out, []column{
					{header: "Title ID"},
					{header: "Title", maxWidth: 30},
					{header: "Rating", right: true},
					{header: "Sentiment"},
					{header: "Review", maxWidth: 50},
				}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&contentType, "content-type", "t", "", "Only movie or tv")
	return cmd
}

// lookupDetails fetches title details for enrichment; failures are reported
// on stderr and return nil.
func lookupDetails(ctx context.Context, cmd *cobra.Command, svc *daemonrun.Components, mediaType string, id int64) *tmdb.Result {
	details, err := svc.TMDB.Details(ctx, mediaType, id)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: title details unavailable: %v\n", err)
		return nil
	}
	return details
}

// classifyReview fills sentiment from the configured classifier. Without a
// classifier or body the review stays unclassified.
func classifyReview(ctx context.Context, cmd *cobra.Command, svc *daemonrun.Components, review *store.Review) {
	if svc.Sentiment == nil || strings.TrimSpace(review.Body) == "" {
		return
	}
	result, err := svc.Sentiment.ClassifySentiment(ctx, review.Body)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: sentiment not classified: %v\n", err)
		return
	}
	review.Sentiment = result.Label
	score := result.Score
	review.SentimentScore = &score
}

func favoriteLabel(f store.Favorite) string {
	if f.Title != "" {
		return fmt.Sprintf("%s (%s %d)", f.Title, f.MediaType, f.TMDBID)
	}
	return fmt.Sprintf("%s %d", f.MediaType, f.TMDBID)
}
