// Command splitledger edits a member's groups from the terminal. Every
// change goes through a local session and is replicated to the server and
// to the other members of the group, exactly as the web client does.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/client"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/replication"
	"github.com/mmynk/splitledger/internal/session"
	"github.com/mmynk/splitledger/pkg/logging"
)

const usage = `usage: splitledger <command> [flags]

commands:
  register      -name NAME
  groups
  create-group  -name NAME -member "Name <email>" ...
  delete-group  -group ID
  add-member    -group ID -name NAME -email EMAIL
  remove-member -group ID -member ID
  add-expense   -group ID -desc TEXT -amount N -payer ID [-split TYPE] [-share ID=VALUE ...]
  delete-expense -group ID -expense ID
  pay           -group ID -from ID -to ID -amount N
  summary       -group ID

Credentials and server come from SPLITLEDGER_SERVER_URL, SPLITLEDGER_EMAIL
and SPLITLEDGER_PASSWORD.
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, cmd string, args []string, out io.Writer) error {
	c := client.New(nil, cfg.ServerURL)

	if cmd == "register" {
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		name := fs.String("name", "", "display name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		user, err := c.Register(ctx, cfg.Email, *name, cfg.Password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "registered %s (%s)\n", user.Email, user.ID)
		return nil
	}

	user, err := c.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return err
	}

	repl := replication.New(c, replication.WithLogger(slog.Default()))
	sess := session.Open(ctx, user.ID, repl, session.WithDebounce(cfg.Debounce))
	// Pending edits are pushed before the process exits.
	defer sess.Close(true)

	switch cmd {
	case "groups":
		return listGroups(sess, out)
	case "create-group":
		return createGroup(ctx, sess, args, out)
	case "delete-group":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		groupID := fs.String("group", "", "group ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return sess.DeleteGroup(ctx, *groupID)
	case "add-member":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		groupID := fs.String("group", "", "group ID")
		name := fs.String("name", "", "member name")
		email := fs.String("email", "", "member email")
		if err := fs.Parse(args); err != nil {
			return err
		}
		m, err := sess.AddMember(ctx, *groupID, ledger.NewMember{Name: *name, Email: *email})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added %s (%s)\n", m.Name, m.ID)
		return nil
	case "remove-member":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		groupID := fs.String("group", "", "group ID")
		memberID := fs.String("member", "", "member ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return sess.RemoveMember(ctx, *groupID, *memberID)
	case "add-expense":
		return addExpense(ctx, sess, args, out)
	case "delete-expense":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		groupID := fs.String("group", "", "group ID")
		expenseID := fs.String("expense", "", "expense ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return sess.DeleteExpense(ctx, *groupID, *expenseID)
	case "pay":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		groupID := fs.String("group", "", "group ID")
		from := fs.String("from", "", "paying member ID")
		to := fs.String("to", "", "receiving member ID")
		amount := fs.Float64("amount", 0, "amount paid")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := sess.RecordPayment(ctx, *groupID, ledger.PaymentInput{FromMemberID: *from, ToMemberID: *to, Amount: *amount})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "recorded payment %s of %s\n", p.ID, calculator.FormatCurrency(p.Amount))
		return nil
	case "summary":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		groupID := fs.String("group", "", "group ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return printSummary(sess, *groupID, out)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func listGroups(sess *session.Session, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMEMBERS\tEXPENSES")
	for _, g := range sess.State().Groups {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", g.ID, g.Name, len(g.Members), len(g.Expenses))
	}
	return tw.Flush()
}

func createGroup(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-group", flag.ContinueOnError)
	name := fs.String("name", "", "group name")
	var members memberList
	fs.Var(&members, "member", `member as "Name <email>" (repeatable)`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := sess.CreateGroup(ctx, *name, members)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created group %s (%s)\n", g.Name, g.ID)
	for _, m := range g.Members {
		fmt.Fprintf(out, "  %s\t%s\t%s\n", m.ID, m.Name, m.Email)
	}
	return nil
}

func addExpense(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-expense", flag.ContinueOnError)
	groupID := fs.String("group", "", "group ID")
	desc := fs.String("desc", "", "description")
	amount := fs.Float64("amount", 0, "total amount")
	payer := fs.String("payer", "", "paying member ID")
	splitType := fs.String("split", string(models.SplitEqual), "equal, exact, percentage or proportional")
	var shares shareList
	fs.Var(&shares, "share", "member share as ID=VALUE (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	group, ok := sess.Group(*groupID)
	if !ok {
		return session.ErrGroupNotFound
	}

	st := models.SplitType(strings.ToLower(*splitType))
	details := []models.SplitDetail(shares)
	if len(details) == 0 {
		details = calculator.DefaultSplitDetails(st, *amount, group.Members)
	}

	e, err := sess.AddExpense(ctx, *groupID, ledger.ExpenseInput{
		Description:  *desc,
		Amount:       *amount,
		PaidByID:     *payer,
		SplitType:    st,
		SplitDetails: details,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "added expense %s: %s %s\n", e.ID, e.Description, calculator.FormatCurrency(e.Amount))
	return nil
}

func printSummary(sess *session.Session, groupID string, out io.Writer) error {
	balances, settlements, err := sess.Summary(groupID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tPAID\tOWED\tBALANCE")
	for _, b := range balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Member.Name,
			calculator.FormatCurrency(b.TotalPaid),
			calculator.FormatCurrency(b.TotalOwed),
			calculator.FormatCurrency(b.NetBalance))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(settlements) == 0 {
		fmt.Fprintln(out, "\nall settled up")
		return nil
	}
	fmt.Fprintln(out, "\nto settle:")
	for _, s := range settlements {
		fmt.Fprintf(out, "  %s pays %s %s\n", s.From.Name, s.To.Name, calculator.FormatCurrency(s.Amount))
	}
	return nil
}

// memberList parses repeated "Name <email>" flags.
type memberList []ledger.NewMember

func (l *memberList) String() string { return fmt.Sprint(*l) }

func (l *memberList) Set(v string) error {
	start, end := strings.LastIndex(v, "<"), strings.LastIndex(v, ">")
	if start < 0 || end < start {
		return fmt.Errorf("member %q must look like \"Name <email>\"", v)
	}
	*l = append(*l, ledger.NewMember{
		Name:  strings.TrimSpace(v[:start]),
		Email: strings.TrimSpace(v[start+1 : end]),
	})
	return nil
}

// shareList parses repeated ID=VALUE flags.
type shareList []models.SplitDetail

func (l *shareList) String() string { return fmt.Sprint(*l) }

func (l *shareList) Set(v string) error {
	id, raw, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("share %q must look like ID=VALUE", v)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("share %q: %w", v, err)
	}
	*l = append(*l, models.SplitDetail{MemberID: strings.TrimSpace(id), Value: value})
	return nil
}
