package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/daemonrun"
	"marquee/internal/store"
)

func newPostsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Share posts and stories",
	}
	cmd.AddCommand(newPostsAddCommand(ctx))
	cmd.AddCommand(newPostsListCommand(ctx))
	cmd.AddCommand(newPostsRemoveCommand(ctx))
	cmd.AddCommand(newPostsPurgeCommand(ctx))
	return cmd
}

func newPostsAddCommand(ctx *commandContext) *cobra.Command {
	var story bool
	var tmdbID int64
	var mediaType string
	cmd := &cobra.Command{
		Use:   "add <body...>",
		Short: "Publish a post, or a story that expires",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			post := store.Post{
				UserID:    sess.UserID,
				Kind:      store.KindPost,
				Body:      strings.Join(args, " "),
				TMDBID:    tmdbID,
				MediaType: mediaType,
			}
			if story {
				post.Kind = store.KindStory
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				saved, err := svc.Store.CreatePost(userCtx, post, cfg.StoryTTL())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, saved)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Published %s %s\n", saved.Kind, saved.ID)
				if saved.ExpiresAt != nil {
					fmt.Fprintf(out, "Expires %s\n", saved.ExpiresAt.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&story, "story", false, "Publish as a story that expires after posts.story_ttl_hours")
	cmd.Flags().Int64Var(&tmdbID, "tmdb-id", 0, "Attach a title by TMDB id")
	cmd.Flags().StringVarP(&mediaType, "media-type", "m", "", "Media type of the attached title (movie or tv)")
	return cmd
}

func newPostsListCommand(ctx *commandContext) *cobra.Command {
	var feed bool
	var limit int
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your posts, or the shared feed with --feed",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				var posts []store.Post
				var err error
				if feed {
					posts, err = svc.Store.Feed(userCtx, limit)
				} else {
					posts, err = svc.Store.PostsByUser(userCtx, sess.UserID, limit)
				}
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, posts)
				}
				out := cmd.OutOrStdout()
				if len(posts) == 0 {
					fmt.Fprintln(out, "No posts")
					return nil
				}
				cols := []column{
					{header: "ID"},
					{header: "User"},
					{header: "Kind"},
					{header: "Title"},
					{header: "Body", maxWidth: 60},
					{header: "Posted"},
				}
				rows := make([][]string, 0, len(posts))
				for _, p := range posts {
					title := "-"
					if p.TMDBID > 0 {
						title = p.MediaType + " " + strconv.FormatInt(p.TMDBID, 10)
					}
					rows = append(rows, []string{
						p.ID, p.UserID, p.Kind, title, p.Body,
						p.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				renderTable(out, cols, rows)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&feed, "feed", false, "Show posts from every user")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum posts (default 50)")
	return cmd
}

func newPostsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one of your posts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userCtx, sess, err := ctx.userContext(cmd)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *daemonrun.Components) error {
				if err := svc.Store.DeletePost(userCtx, sess.UserID, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed post %s\n", args[0])
				return nil
			})
		},
	}
}

func newPostsPurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *daemonrun.Components) error {
				removed, err := svc.Store.PurgeExpiredStories(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired stories\n", removed)
				return nil
			})
		},
	}
}
