package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-blog/inkwell/internal/blog"
	"github.com/inkwell-blog/inkwell/internal/client"
)

func newFeedCmd(cfg *ctlConfig) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the public feed, or your own posts when credentials are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.New(cfg.APIURL)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var posts []blog.Post
			if email != "" {
				if _, err := session.Login(ctx, email, password); err != nil {
					return err
				}
				defer session.Logout()
				posts, err = session.MyPosts(ctx)
			} else {
				posts, err = session.Feed(ctx)
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCREATED")
			for _, p := range posts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Author, p.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "sign in as this account and list its posts")
	cmd.Flags().StringVar(&password, "password", "", "password for --email")
	return cmd
}
