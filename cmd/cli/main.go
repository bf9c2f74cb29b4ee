// Command cli is an interactive text session against the voice command
// dispatcher. Each line is handled as if it were a transcribed utterance.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/amirasaad/voicepay/infra/initializer"
	"github.com/amirasaad/voicepay/pkg/app"
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/dispatcher"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/errcode"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const helpText = `Try:
  send 200 to priya@voicepay
  pay 50 to 9876543210
  request 100 from rahul@voicepay for dinner
  what is my balance
Type "exit" to quit.`

func main() {
	if err := run(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err) //nolint: errcheck
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	// The terminal session carries the principal in the context, not a token.
	cfg.Auth.Strategy = "basic"

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close() //nolint: errcheck

	a, err := app.New(deps, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := newSession(a, os.Stdin, os.Stdout)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		s.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(s.out) //nolint: errcheck
			return string(b), err
		}
	}
	return s.run(ctx)
}

type session struct {
	app *app.App
	in  *bufio.Scanner
	out io.Writer
	// readSecret reads the OTP. It defaults to a plain line read.
	readSecret func() (string, error)

	prompt  *color.Color
	success *color.Color
	failure *color.Color
	info    *color.Color
}

func newSession(a *app.App, in io.Reader, out io.Writer) *session {
	s := &session{
		app:     a,
		in:      bufio.NewScanner(in),
		out:     out,
		prompt:  color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		info:    color.New(color.FgYellow),
	}
	s.readSecret = s.readLine
	return s
}

func (s *session) readLine() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *session) ask(label string) (string, error) {
	s.prompt.Fprint(s.out, label) //nolint: errcheck
	return s.readLine()
}

func (s *session) run(ctx context.Context) error {
	ctx, err := s.login(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	p, err := s.app.AuthService.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, helpText) //nolint: errcheck

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.ask(p.Handle + "> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			s.info.Fprintln(s.out, "Bye!") //nolint: errcheck
			return nil
		case "help":
			fmt.Fprintln(s.out, helpText) //nolint: errcheck
			continue
		}
		s.show(s.app.Dispatcher.Handle(ctx, p.Phone, line))
	}
}

// login runs the OTP exchange and signs up unknown phones. The returned
// context carries the principal.
func (s *session) login(ctx context.Context) (context.Context, error) {
	for {
		phone, err := s.ask("Phone number: ")
		if err != nil {
			return nil, err
		}
		issued, err := s.app.IdentityService.Issue(ctx, phone)
		if err != nil {
			s.fail(err)
			continue
		}
		s.info.Fprintf(s.out, "Code sent to %s\n", issued.Phone) //nolint: errcheck
		if issued.Code != "" {
			s.info.Fprintf(s.out, "(development code: %s)\n", issued.Code) //nolint: errcheck
		}

		s.prompt.Fprint(s.out, "Code: ") //nolint: errcheck
		code, err := s.readSecret()
		if err != nil {
			return nil, err
		}
		u, err := s.app.AuthService.Login(ctx, issued.Phone, code)
		if errors.Is(err, user.ErrUserNotFound) {
			u, err = s.signUp(ctx, issued.Phone)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			s.fail(err)
			continue
		}
		s.success.Fprintf(s.out, "Welcome, %s (%s)\n", u.Name, u.Handle) //nolint: errcheck
		return authsvc.WithPrincipal(ctx, u), nil
	}
}

func (s *session) signUp(ctx context.Context, phone string) (*user.User, error) {
	s.info.Fprintln(s.out, "No account for this number yet.") //nolint: errcheck
	for {
		name, err := s.ask("Choose a UPI name: ")
		if err != nil {
			return nil, err
		}
		party, err := s.app.AccountService.SignUp(ctx, name, phone)
		if errors.Is(err, user.ErrNameTaken) || errors.Is(err, user.ErrInvalidName) {
			s.fail(err)
			continue
		}
		if err != nil {
			return nil, err
		}
		return party.User, nil
	}
}

func (s *session) show(res *dispatcher.Result) {
	if res.Status == dispatcher.StatusSuccess {
		s.success.Fprintln(s.out, res.Message) //nolint: errcheck
		return
	}
	s.failure.Fprintf(s.out, "%s [%s]\n", res.Message, res.Code) //nolint: errcheck
}

func (s *session) fail(err error) {
	s.failure.Fprintf(s.out, "%s [%s]\n", errcode.Message(err), errcode.Code(err)) //nolint: errcheck
}
