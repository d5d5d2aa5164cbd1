package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mikey/llm-mail-triage/internal/adapters/gcal"
	"github.com/mikey/llm-mail-triage/internal/adapters/gmail"
	"github.com/mikey/llm-mail-triage/internal/adapters/googleauth"
	"github.com/mikey/llm-mail-triage/internal/catalog"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/dispatch"
	"github.com/mikey/llm-mail-triage/internal/followup"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
	"github.com/mikey/llm-mail-triage/internal/store"
	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

type command func(c *dig.Container, args []string, out io.Writer) error

var commands = map[string]command{
	"run":             runBatch,
	"followups":       runFollowups,
	"complaints":      listComplaints,
	"close-complaint": closeComplaint,
	"quotes":          listQuotes,
	"history":         showHistory,
	"clear-history":   clearHistory,
	"search":          searchCatalog,
	"price":           showPrice,
	"authorize":       authorize,
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runBatch(c *dig.Container, _ []string, out io.Writer) error {
	return c.Invoke(func(d *dispatch.Dispatcher, oracle core.Oracle, ledger core.Ledger, logger *zap.Logger) error {
		defer logger.Sync()
		defer func() {
			if closer, ok := oracle.(io.Closer); ok {
				_ = closer.Close()
			}
			if stopper, ok := ledger.(interface{ Stop() }); ok {
				stopper.Stop()
			}
		}()

		ctx, stop := signalContext()
		defer stop()

		report, err := d.RunOnce(ctx)
		if report != nil {
			if perr := printJSON(out, report); perr != nil {
				return perr
			}
		}
		return err
	})
}

func runFollowups(c *dig.Container, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("followups", pflag.ContinueOnError)
	threshold := fs.Int("threshold", -1, "Days before a quote is followed up (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return c.Invoke(func(s *followup.Scheduler, cfg *config.Config) error {
		days := *threshold
		if days < 0 {
			days = cfg.GetFollowup().ThresholdDays
		}

		ctx, stop := signalContext()
		defer stop()

		report, err := s.CheckForFollowups(ctx, time.Now(), days)
		if report != nil {
			if perr := printJSON(out, report); perr != nil {
				return perr
			}
		}
		return err
	})
}

func listComplaints(c *dig.Container, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("complaints", pflag.ContinueOnError)
	openOnly := fs.Bool("open", false, "Only list open complaints")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return c.Invoke(func(complaints *store.ComplaintStore) error {
		var rows []store.IndexedComplaint
		if *openOnly {
			open, err := complaints.Open()
			if err != nil {
				return err
			}
			rows = open
		} else {
			all, err := complaints.Load()
			if err != nil {
				return err
			}
			for i, complaint := range all {
				rows = append(rows, store.IndexedComplaint{Index: i, Complaint: complaint})
			}
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tSTATUS\tFROM\tSUBJECT")
		for _, row := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", row.Index, row.Status, row.From, row.Subject)
		}
		return w.Flush()
	})
}

func closeComplaint(c *dig.Container, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: close-complaint <index>")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}

	return c.Invoke(func(complaints *store.ComplaintStore) error {
		closed, err := complaints.Close(index)
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("complaint %d not found or already closed", index)
		}
		fmt.Fprintf(out, "Complaint %d closed\n", index)
		return nil
	})
}

func listQuotes(c *dig.Container, _ []string, out io.Writer) error {
	return c.Invoke(func(quotes *store.QuoteStore, cat *catalog.Catalog) error {
		all, err := quotes.Load()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tDATE\tCUSTOMER\tTOTAL\tFOLLOWED UP\tSUBJECT")
		for i, q := range all {
			total, _ := cat.Total(q.Products)
			fmt.Fprintf(w, "%d\t%s\t%s\t%d SEK\t%t\t%s\n",
				i, q.CreatedAt.Format("2006-01-02 15:04"), q.Customer, total, q.FollowedUp, q.Subject)
		}
		return w.Flush()
	})
}

func showHistory(c *dig.Container, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	limit := fs.Int("limit", 0, "Show only the last N entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: history <customer> [--limit N]")
	}
	customer := senderfilter.Address(fs.Arg(0))

	return c.Invoke(func(conversations *store.ConversationStore) error {
		entries, err := conversations.Recent(customer, *limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(out, "No history for %s\n", customer)
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "[%s] %s: %s\n%s\n\n",
				e.Timestamp.Format(time.RFC3339), e.Role, e.Subject, strings.TrimSpace(e.Message))
		}
		return nil
	})
}

func clearHistory(c *dig.Container, args []string, out io.Writer) error {
	if len(args) > 1 {
		return errors.New("usage: clear-history [customer]")
	}

	return c.Invoke(func(conversations *store.ConversationStore) error {
		if len(args) == 0 {
			if err := conversations.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(out, "All conversation history cleared")
			return nil
		}

		customer := senderfilter.Address(args[0])
		cleared, err := conversations.Clear(customer)
		if err != nil {
			return err
		}
		if !cleared {
			return fmt.Errorf("no history for %s", customer)
		}
		fmt.Fprintf(out, "History cleared for %s\n", customer)
		return nil
	})
}

func searchCatalog(c *dig.Container, args []string, out io.Writer) error {
	query := strings.Join(args, " ")
	return c.Invoke(func(cat *catalog.Catalog) error {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PRODUCT\tPRICE")
		for _, item := range cat.Search(query) {
			fmt.Fprintf(w, "%s\t%d SEK\n", item.ID, item.Price)
		}
		return w.Flush()
	})
}

func showPrice(c *dig.Container, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: price <product>")
	}
	return c.Invoke(func(cat *catalog.Catalog) error {
		price, ok := cat.Price(args[0])
		if !ok {
			if suggestions := cat.Suggest(args[0], 5); len(suggestions) > 0 {
				return fmt.Errorf("unknown product %q, did you mean: %s", args[0], strings.Join(suggestions, ", "))
			}
			return fmt.Errorf("unknown product %q", args[0])
		}
		fmt.Fprintf(out, "%s: %d SEK\n", args[0], price)
		return nil
	})
}

func authorize(c *dig.Container, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: authorize <gmail|calendar>")
	}

	return c.Invoke(func(cfg *config.Config) error {
		var credentials, tokenFile string
		var scopes []string
		switch args[0] {
		case "gmail":
			g := cfg.GetGmail()
			credentials, tokenFile, scopes = g.CredentialsFile, g.TokenFile, gmail.Scopes
		case "calendar":
			cal := cfg.GetCalendar()
			credentials, tokenFile, scopes = cal.CredentialsFile, cal.TokenFile, gcal.Scopes
		default:
			return fmt.Errorf("unknown service %q", args[0])
		}

		oauthCfg, err := googleauth.LoadConfig(credentials, scopes...)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		tok, err := googleauth.Authorize(ctx, oauthCfg, os.Stdin, out)
		if err != nil {
			return err
		}
		if err := googleauth.SaveToken(tokenFile, tok); err != nil {
			return err
		}
		fmt.Fprintf(out, "Token saved to %s\n", tokenFile)
		return nil
	})
}
