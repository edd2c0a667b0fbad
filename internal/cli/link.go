package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gource-tools/gource-tools/internal/linking"
	"github.com/gource-tools/gource-tools/internal/tui"
)

func newLinkCmd(opts *options, unlink bool) *cobra.Command {
	var (
		repoIDs []int64
		delay   time.Duration
	)

	mode := linking.ModeLink
	use, short := "link <project>", "Link repositories to a project"
	if unlink {
		mode = linking.ModeUnlink
		use, short = "unlink <project>", "Remove repositories from a project"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `. <project> is a project id or slug.
Without --repo an interactive picker opens.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			if !cmd.Flags().Changed("redirect-delay") {
				// A failed probe resurfaces in Load.
				if d, err := c.RedirectDelay(cmd.Context()); err == nil {
					delay = d
				}
			}
			flow := linking.New(c, args[0],
				linking.WithMode(mode),
				linking.WithRedirectDelay(delay),
			)

			if len(repoIDs) == 0 {
				p := tea.NewProgram(tui.New(flow, tui.DefaultTheme()))
				final, err := p.Run()
				if err != nil {
					return err
				}
				if m, ok := final.(tui.Model); ok && m.Redirect() != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Open %s\n", m.Redirect().Path)
				}
				return nil
			}

			ctx := cmd.Context()
			if err := flow.Load(ctx); err != nil {
				return fmt.Errorf("%s: %w", flow.Err(), err)
			}
			for _, id := range dedupe(repoIDs) {
				if !flow.Toggle(id) {
					return fmt.Errorf("repository %d cannot be %sed: not a candidate for project %q", id, mode, args[0])
				}
			}
			redirect, err := flow.Submit(ctx)
			if err != nil {
				if msg := flow.Err(); msg != "" {
					return fmt.Errorf("%s: %w", msg, err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), flow.Success())
			fmt.Fprintf(cmd.OutOrStdout(), "Open %s\n", redirect.Path)
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&repoIDs, "repo", nil, "Repository id to "+mode.String()+" (repeatable)")
	cmd.Flags().DurationVar(&delay, "redirect-delay", linking.DefaultRedirectDelay, "How long the success message stays in the picker (default: server setting)")
	return cmd
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
