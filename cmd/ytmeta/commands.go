package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/middleware"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/youtube"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>...",
		Short: "Check whether URLs point at YouTube",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			invalid := 0
			for _, u := range args {
				valid := youtube.IsValidURL(u)
				if !valid {
					invalid++
				}
				rows = append(rows, []string{u, yesNo(valid)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"URL", "Valid"}, rows, nil))
			if invalid > 0 {
				return fmt.Errorf("%d of %d URLs are not YouTube URLs", invalid, len(args))
			}
			return nil
		},
	}
}

func newIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "id <url>",
		Short: "Print the video ID of a YouTube URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := youtube.ExtractVideoID(args[0])
			if !ok {
				return fmt.Errorf("no video ID found in %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var format string

	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "Fetch video metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			var opts youtube.Options
			if format != "" {
				opts = client.Options().Merge(youtube.Options{youtube.OptFormat: format})
			}

			details, err := client.GetVideoInfo(cmd.Context(), args[0], opts)
			if err != nil {
				if errors.Is(err, youtube.ErrAuthExpired) {
					return fmt.Errorf("%w (refresh the configured cookie file)", err)
				}
				return err
			}

			if asJSON {
				return writeJSON(cmd, details)
			}

			published := ""
			if details.PublishedAt != nil {
				published = details.PublishedAt.Format(time.RFC3339)
			}
			rows := [][]string{
				{"ID", details.ID},
				{"Title", details.Title},
				{"Channel", details.Channel},
				{"Duration", (time.Duration(details.Duration) * time.Second).String()},
				{"Views", strconv.FormatInt(details.ViewCount, 10)},
				{"Likes", strconv.FormatInt(details.LikeCount, 10)},
				{"Published", published},
				{"Live", yesNo(details.IsLive)},
				{"Age restricted", yesNo(details.AgeRestricted)},
				{"URL", details.VideoURL},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full record as JSON")
	cmd.Flags().StringVar(&format, "format", "", "Override the backend format selector")
	return cmd
}

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var all bool

	cmd := &cobra.Command{
		Use:   "captions <url>",
		Short: "List caption tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			captions := client.ListAvailableCaptions(cmd.Context(), args[0], all)
			if asJSON {
				return writeJSON(cmd, captions)
			}
			if len(captions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No captions available")
				return nil
			}

			var rows [][]string
			for _, lang := range captions.Keys() {
				for _, track := range captions[lang] {
					rows = append(rows, []string{lang, track.Ext.String(), track.Name, track.URL})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Language", "Format", "Name", "URL"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print captions as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "Include every language, not only the preferred ones")
	return cmd
}

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <client-id>",
		Short: "Issue an API token for a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwtSecret is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := middleware.GenerateToken(cfg.Auth.JWTSecret, args[0], ttl)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.tokenTTL)")
	return cmd
}
