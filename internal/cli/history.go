package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/store"
)

// HistoryOptions holds flags for the history command and its subcommands.
type HistoryOptions struct {
	*RootOptions
	Database string
	Status   string
	Source   string
	Limit    int
}

// HistoryEntry is one recorded conversion.
type HistoryEntry struct {
	ID               string           `json:"id"`
	Seq              int64            `json:"seq"`
	Source           string           `json:"source"`
	Scopes           []string         `json:"scopes,omitempty"`
	Status           string           `json:"status"`
	ErrorKind        failure.Kind     `json:"error_kind,omitempty"`
	ErrorCount       int              `json:"error_count"`
	OutputHash       string           `json:"output_hash,omitempty"`
	ConverterVersion string           `json:"converter_version"`
	Details          []failure.Detail `json:"details,omitempty"`
}

// DeletedEntry reports a removed conversion.
type DeletedEntry struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// MessageEntry is one row of the message frequency report.
type MessageEntry struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the conversion audit log",
		Long: `List conversions recorded with --db, oldest first.

Examples:
  qppconv history --db audit.db
  qppconv history --db audit.db --status failed --limit 20
  qppconv history show <request-id> --db audit.db
  qppconv history messages --db audit.db
  qppconv history delete <request-id> --db audit.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite audit database; default from config")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (success|failed)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "filter by source name")
	cmd.PersistentFlags().IntVar(&opts.Limit, "limit", 0, "keep only the N most recent rows (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:           "show <request-id>",
		Short:         "Show one conversion with its details",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd.Context(), opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "messages",
		Short:         "Count recorded detail messages, most frequent first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryMessages(cmd.Context(), opts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "delete <request-id>",
		Short:         "Remove one conversion and its details",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryDelete(cmd.Context(), opts, args[0], cmd)
		},
	})

	return cmd
}

// openStore opens the audit database named by --db or the config.
func (o *HistoryOptions) openStore() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.settings().DB
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no audit database: set --db or db in the config")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch store.Status(opts.Status) {
	case "", store.StatusSuccess, store.StatusFailed:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q: must be success or failed", opts.Status))
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListConversions(ctx, store.Filter{
		Status: store.Status(opts.Status),
		Source: opts.Source,
		Limit:  opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list conversions", err)
	}

	entries := make([]HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = historyEntry(r)
	}

	f := opts.formatter(cmd)
	if f.Format == "json" {
		return f.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(f.Writer, "No conversions recorded.")
		return nil
	}
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.Seq, e.ID, e.Source, strings.Join(e.Scopes, ","), e.Status, e.ErrorCount}
	}
	f.Table([]string{"Seq", "Request ID", "Source", "Scopes", "Status", "Errors"}, rows)
	return nil
}

func runHistoryShow(ctx context.Context, opts *HistoryOptions, id string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	rec, err := lookupConversion(ctx, st, f, id)
	if err != nil {
		return err
	}

	details, err := st.Details(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read details", err)
	}
	entry := historyEntry(rec)
	entry.Details = details

	if f.Format == "json" {
		return f.Success(entry)
	}

	w := f.Writer
	fmt.Fprintf(w, "Request ID: %s\n", entry.ID)
	fmt.Fprintf(w, "Seq:        %d\n", entry.Seq)
	fmt.Fprintf(w, "Source:     %s\n", entry.Source)
	if len(entry.Scopes) > 0 {
		fmt.Fprintf(w, "Scopes:     %s\n", strings.Join(entry.Scopes, ", "))
	}
	fmt.Fprintf(w, "Status:     %s\n", entry.Status)
	fmt.Fprintf(w, "Version:    %s\n", entry.ConverterVersion)
	if entry.OutputHash != "" {
		fmt.Fprintf(w, "Output:     %s\n", entry.OutputHash)
	}
	if len(details) > 0 {
		fmt.Fprintf(w, "Errors:     %s, %d detail(s)\n", entry.ErrorKind, len(details))
		rows := make([][]any, len(details))
		for i, d := range details {
			rows[i] = []any{i + 1, d.Message, d.Path}
		}
		f.Table([]string{"#", "Message", "Path"}, rows)
	}
	return nil
}

func runHistoryDelete(ctx context.Context, opts *HistoryOptions, id string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	rec, err := lookupConversion(ctx, st, f, id)
	if err != nil {
		return err
	}
	if err := st.DeleteConversion(ctx, id); err != nil {
		return WrapExitError(ExitCommandError, "failed to delete conversion", err)
	}

	if f.Format == "json" {
		return f.Success(DeletedEntry{ID: rec.ID, Source: rec.Source})
	}
	fmt.Fprintf(f.Writer, "Deleted %s (%s)\n", rec.ID, rec.Source)
	return nil
}

// lookupConversion reads one record, reporting an unknown ID as a
// not-found command error.
func lookupConversion(ctx context.Context, st *store.Store, f *OutputFormatter, id string) (store.Conversion, error) {
	rec, err := st.GetConversion(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		msg := fmt.Sprintf("conversion %s not found", id)
		if f.Format == "json" {
			_ = f.Error(ErrCodeNotFound, msg, nil)
		}
		return store.Conversion{}, NewExitError(ExitCommandError, msg)
	}
	if err != nil {
		return store.Conversion{}, WrapExitError(ExitCommandError, "failed to read conversion", err)
	}
	return rec, nil
}

func runHistoryMessages(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.MessageCounts(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count messages", err)
	}
	entries := make([]MessageEntry, len(counts))
	for i, c := range counts {
		entries[i] = MessageEntry{Message: c.Message, Count: c.Count}
	}

	f := opts.formatter(cmd)
	if f.Format == "json" {
		return f.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(f.Writer, "No failures recorded.")
		return nil
	}
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.Count, e.Message}
	}
	f.Table([]string{"Count", "Message"}, rows)
	return nil
}

func historyEntry(c store.Conversion) HistoryEntry {
	return HistoryEntry{
		ID:               c.ID,
		Seq:              c.Seq,
		Source:           c.Source,
		Scopes:           c.Scopes,
		Status:           string(c.Status),
		ErrorKind:        c.ErrorKind,
		ErrorCount:       c.ErrorCount(),
		OutputHash:       c.OutputHash,
		ConverterVersion: c.ConverterVersion,
	}
}
