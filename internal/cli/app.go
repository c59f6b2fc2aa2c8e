// Package cli implements the medcli commands on top of internal/client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/client"
)

var ErrNotLoggedIn = errors.New("not logged in; run `medcli login` first")

// App holds what every command needs. Fields are set by NewApp; tests build
// it directly.
type App struct {
	api         *client.APIClient
	sessionPath string
	reader      *bufio.Reader
	out         io.Writer
	// password is used instead of prompting when set.
	password func() (string, error)
}

func NewApp(serverURL, sessionPath string, in io.Reader, out io.Writer) *App {
	a := &App{
		api:         client.NewAPIClient(serverURL),
		sessionPath: sessionPath,
		reader:      bufio.NewReader(in),
		out:         out,
	}
	a.password = func() (string, error) { return promptPassword(a.reader, a.out) }
	return a
}

const usage = `usage: medcli <command> [args]

commands:
  register             create an account
  login                log in and remember the session
  logout               forget the stored session
  analyze <symptoms>   get an AI diagnosis for the given symptoms
  history              list your past diagnoses, newest first
  report               print a report for your latest diagnosis
`

// Run dispatches args[0] to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return flag.ErrHelp
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout()
	case "analyze":
		return a.Analyze(ctx, rest)
	case "history":
		return a.History(ctx)
	case "report":
		return a.Report(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	fmt.Fprint(a.out, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *App) Register(ctx context.Context) error {
	username, err := prompt(a.reader, a.out, "Username")
	if err != nil {
		return err
	}
	email, err := prompt(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := a.password()
	if err != nil {
		return err
	}

	if _, err := a.api.Register(ctx, username, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registration successful. Run `medcli login` to sign in.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := prompt(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := a.password()
	if err != nil {
		return err
	}

	session, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := session.Save(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", session.Username)
	return nil
}

func (a *App) Logout() error {
	if err := client.ClearSession(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Analyze(ctx context.Context, args []string) error {
	session, err := a.session()
	if err != nil {
		return err
	}

	symptoms := strings.TrimSpace(strings.Join(args, " "))
	if symptoms == "" {
		if symptoms, err = prompt(a.reader, a.out, "Describe your symptoms"); err != nil {
			return err
		}
	}
	if symptoms == "" {
		return errors.New("symptoms are required")
	}

	fmt.Fprintln(a.out, "Analyzing...")
	result, err := a.api.Analyze(ctx, session.UserID, symptoms)
	if err != nil {
		return a.checkAuth(err)
	}

	fmt.Fprintf(a.out, "\nPossible condition: %s\n", result.Disease)
	fmt.Fprintf(a.out, "Confidence:         %s\n", result.Probability)
	fmt.Fprintf(a.out, "Advice:             %s\n", result.Advice)
	if meds := client.SplitMedicines(result.Medicines); len(meds) > 0 {
		fmt.Fprintln(a.out, "Medicines:")
		for _, m := range meds {
			fmt.Fprintf(a.out, "  - %s\n", m)
		}
	}
	fmt.Fprintln(a.out, "\n"+client.ReportDisclaimer)
	return nil
}

func (a *App) History(ctx context.Context) error {
	session, err := a.session()
	if err != nil {
		return err
	}

	history, err := a.api.History(ctx, session.UserID)
	if err != nil {
		return a.checkAuth(err)
	}
	if len(history) == 0 {
		fmt.Fprintln(a.out, "No diagnoses yet.")
		return nil
	}
	for _, d := range history {
		fmt.Fprintf(a.out, "%s  %-30s %-8s %s\n",
			d.Date.Local().Format("2006-01-02 15:04"), d.PredictedDisease, d.ConfidenceScore, d.Symptoms)
	}
	return nil
}

func (a *App) Report(ctx context.Context) error {
	session, err := a.session()
	if err != nil {
		return err
	}

	history, err := a.api.History(ctx, session.UserID)
	if err != nil {
		return a.checkAuth(err)
	}
	if len(history) == 0 {
		return errors.New("no diagnosis to report; run `medcli analyze` first")
	}
	return client.WriteReport(a.out, session, history[0])
}

// session loads the stored session and arms the API client with its token.
func (a *App) session() (*client.Session, error) {
	s, err := client.LoadSession(a.sessionPath)
	if err != nil {
		return nil, err
	}
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	a.api.SetToken(s.Token)
	return s, nil
}

// checkAuth drops a session the server no longer accepts.
func (a *App) checkAuth(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == apperr.KindUnauthorized {
		_ = client.ClearSession(a.sessionPath)
		return fmt.Errorf("session expired, please log in again: %w", err)
	}
	return err
}
