package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/config"
	"conatel.gouv.ht/web/internal/listing"
	"conatel.gouv.ht/web/internal/loader"
	"conatel.gouv.ht/web/internal/locale"
	"conatel.gouv.ht/web/internal/observability"
)

type listOptions struct {
	locale string
	page   int
	search string
	typ    string
	month   string
	json    bool
	retries int
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Fetch a content collection and print one filtered page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), root)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cfg, args[0], opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.locale, "locale", "", "content language (defaults to the site default)")
	f.IntVar(&opts.page, "page", 1, "page number, 1-based")
	f.StringVar(&opts.search, "q", "", "case and accent insensitive search text")
	f.StringVar(&opts.typ, "type", listing.TypeAll, "type filter (category name or file extension)")
	f.StringVar(&opts.month, "month", "", "month filter, YYYY-MM")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	f.IntVar(&opts.retries, "retries", 0, "extra attempts after a retryable fetch failure")
	return cmd
}

type listOutput struct {
	Resource   string            `json:"resource"`
	Locale     string            `json:"locale"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Total      int               `json:"total"`
	Items      []cms.ContentItem `json:"items"`
}

func runList(ctx context.Context, cfg config.Config, name string, opts *listOptions, out io.Writer) error {
	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	ctx = observability.WithLogger(ctx, logger)

	table, err := loadTable(cfg.CMS.ResourcesFile)
	if err != nil {
		return err
	}
	res, ok := table.Resource(name)
	if !ok {
		return fmt.Errorf("unknown resource %q (known: %v)", name, table.Names())
	}
	client, err := cms.NewClient(cfg.CMS.BaseURL,
		cms.WithTimeout(cfg.CMS.Timeout),
		cms.WithLogger(logger),
		cms.WithMediaBaseURL(cfg.CMS.MediaBaseURL),
	)
	if err != nil {
		return err
	}
	resolver, err := locale.NewResolver(cfg.Locale.Supported, cfg.Locale.Default)
	if err != nil {
		return err
	}
	l := loader.NewList(func(ctx context.Context, lang string) ([]cms.ContentItem, error) {
		recs, err := client.FetchCollection(ctx, res.Path, lang, res.ListQuery())
		if err != nil {
			return nil, err
		}
		return cms.NormalizeAll(res, recs), nil
	})
	defer l.Close()
	l.OnChange(func(st loader.State[[]cms.ContentItem]) {
		logger.Debug("list state", zap.String("resource", name), zap.Stringer("phase", st.Phase), zap.String("locale", st.Locale))
	})

	// --locale switches the preference; the watching loader fetches in
	// the new language.
	pref := locale.NewPreference(resolver, &locale.MemoryStore{}, "", "")
	stop := l.Watch(ctx, pref)
	if opts.locale != "" {
		if _, err := pref.Set(opts.locale); err != nil {
			stop()
			return err
		}
	}
	stop()

	st := l.State()
	if st.Phase == loader.Idle {
		st, _ = l.Load(ctx, pref.Current())
	}
	for attempt := 0; attempt < opts.retries && st.Phase == loader.Failed && st.Failure().Retryable(); attempt++ {
		logger.Warn("retrying list fetch", zap.String("resource", name), zap.Int("attempt", attempt+1), zap.Error(st.Err))
		st, _ = l.Retry(ctx)
	}
	if st.Phase == loader.Failed {
		return st.Err
	}

	filter, _ := listing.FromQuery(url.Values{"q": {opts.search}, "type": {opts.typ}, "month": {opts.month}})
	p := listing.NewPresenter(res)
	p.SetItems(st.Data)
	p.SetFilter(filter)
	p.SetPage(opts.page)
	slice := p.Slice()

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listOutput{
			Resource:   name,
			Locale:     st.Locale,
			Page:       slice.Page,
			TotalPages: slice.TotalPages,
			Total:      slice.Total,
			Items:      slice.Items,
		})
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tDATE\tTYPE\tTITLE")
	for _, it := range slice.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Key(), it.Date, it.AttachmentExt, it.Title)
	}
	fmt.Fprintf(tw, "\npage %s/%d, %d items (%s)\n", strconv.Itoa(slice.Page), slice.TotalPages, slice.Total, st.Locale)
	return tw.Flush()
}
