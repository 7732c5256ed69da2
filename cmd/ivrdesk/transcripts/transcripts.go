package transcriptscmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ivrdesk/pkg/notify"
	"github.com/papercomputeco/ivrdesk/pkg/session"
	"github.com/papercomputeco/ivrdesk/pkg/transcript"
)

const transcriptsLongDesc string = `Inspect archived call transcripts.

Reads the SQLite archive written by "ivrdesk serve --db". The path
defaults to $TRANSCRIPTS_DB.

Examples:
  ivrdesk transcripts list --db transcripts.db
  ivrdesk transcripts show --db transcripts.db 3f2a...
  ivrdesk transcripts show --json 3f2a...
  ivrdesk transcripts merge --db merged.db host1.db host2.db`

const transcriptsShortDesc string = "Inspect archived call transcripts"

type transcriptsCommander struct {
	dbPath string
	json   bool
}

func NewTranscriptsCmd() *cobra.Command {
	cmder := &transcriptsCommander{}

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: transcriptsShortDesc,
		Long:  transcriptsLongDesc,
	}

	cmd.PersistentFlags().StringVarP(&cmder.dbPath, "db", "d", "", "Path to SQLite transcript archive")
	cmd.PersistentFlags().BoolVar(&cmder.json, "json", false, "Print JSON instead of text")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.list(cmd.Context(), cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <hash>",
		Short: "Print the call ending at hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.show(cmd.Context(), cmd, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "merge [sources...]",
		Short: "Merge other archives into --db",
		Long: `Merge one or more source archives into the --db archive.

Turns are content-addressed, so a turn already present in the target
is skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.merge(cmd.Context(), cmd, args)
		},
	})

	return cmd
}

func (c *transcriptsCommander) path() (string, error) {
	path := c.dbPath
	if path == "" {
		path = os.Getenv("TRANSCRIPTS_DB")
	}
	if path == "" {
		return "", errors.New("no transcript archive given: pass --db or set TRANSCRIPTS_DB")
	}
	return path, nil
}

func (c *transcriptsCommander) open() (*transcript.SQLiteStorer, error) {
	path, err := c.path()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("could not open transcript archive %s: %w", path, err)
	}

	return transcript.NewSQLiteStorer(path)
}

func (c *transcriptsCommander) list(ctx context.Context, cmd *cobra.Command) error {
	storer, err := c.open()
	if err != nil {
		return err
	}
	defer storer.Close()

	histories, skipped, err := transcript.Histories(ctx, storer)
	if err != nil {
		return fmt.Errorf("could not list transcripts: %w", err)
	}
	for _, h := range skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: broken transcript ending at %s\n", h)
	}

	out := cmd.OutOrStdout()
	if c.json {
		return json.NewEncoder(out).Encode(histories)
	}

	for _, h := range histories {
		fmt.Fprintf(out, "%s  %-20s %-12s %d turns\n", h.HeadHash[:12], h.CallID, h.Phone, h.Depth)
	}
	fmt.Fprintf(out, "%d calls\n", len(histories))

	return nil
}

func (c *transcriptsCommander) show(ctx context.Context, cmd *cobra.Command, hash string) error {
	storer, err := c.open()
	if err != nil {
		return err
	}
	defer storer.Close()

	history, err := transcript.BuildHistory(ctx, storer, hash)
	if err != nil {
		return fmt.Errorf("could not load transcript %s: %w", hash, err)
	}

	out := cmd.OutOrStdout()
	if c.json {
		return json.NewEncoder(out).Encode(history)
	}

	fmt.Fprintf(out, "call %s from %s\n\n", history.CallID, history.Phone)
	for _, t := range history.Turns {
		fmt.Fprintf(out, "%s: %s\n", notify.SpeakerLabel(session.Speaker(t.Speaker)), t.Text)
	}

	return nil
}

func (c *transcriptsCommander) merge(ctx context.Context, cmd *cobra.Command, sources []string) error {
	targetPath, err := c.path()
	if err != nil {
		return err
	}

	target, err := transcript.NewSQLiteStorer(targetPath)
	if err != nil {
		return fmt.Errorf("could not open target archive %s: %w", targetPath, err)
	}
	defer target.Close()

	var totalNew, totalDuped int

	for _, srcPath := range sources {
		srcNew, srcDuped, err := mergeInto(ctx, target, srcPath)
		if err != nil {
			return err
		}
		totalNew += srcNew
		totalDuped += srcDuped

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d new, %d already existed\n", srcPath, srcNew, srcDuped)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new turns from %d sources (%d already existed) into %s\n",
		totalNew, len(sources), totalDuped, targetPath)

	return nil
}

func mergeInto(ctx context.Context, target transcript.Storer, srcPath string) (added, duped int, err error) {
	if _, err := os.Stat(srcPath); err != nil {
		return 0, 0, fmt.Errorf("could not open source archive %s: %w", srcPath, err)
	}
	source, err := transcript.NewSQLiteStorer(srcPath)
	if err != nil {
		return 0, 0, fmt.Errorf("could not open source archive %s: %w", srcPath, err)
	}
	defer source.Close()

	nodes, err := source.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("could not list turns from %s: %w", srcPath, err)
	}

	var notFound transcript.ErrNotFound
	for _, n := range nodes {
		_, err := target.Get(ctx, n.Hash)
		switch {
		case err == nil:
			duped++
			continue
		case !errors.As(err, &notFound):
			return added, duped, fmt.Errorf("could not check turn %s: %w", n.Hash, err)
		}

		if err := target.Put(ctx, n); err != nil {
			return added, duped, fmt.Errorf("could not put turn %s: %w", n.Hash, err)
		}
		added++
	}

	return added, duped, nil
}
