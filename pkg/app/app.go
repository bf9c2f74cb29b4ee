package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/dispatcher"
	"github.com/amirasaad/voicepay/pkg/eventbus"
	"github.com/amirasaad/voicepay/pkg/lock"
	"github.com/amirasaad/voicepay/pkg/metrics"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/nlu"
	"github.com/amirasaad/voicepay/pkg/notify"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/amirasaad/voicepay/pkg/service/account"
	"github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/amirasaad/voicepay/pkg/service/identity"
	"github.com/amirasaad/voicepay/pkg/service/ledger"
	"github.com/amirasaad/voicepay/pkg/service/moneyrequest"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow      repository.UnitOfWork
	OTPStore repository.OTPStore
	Locker   lock.Locker
	EventBus eventbus.Bus
	Sender   notify.Sender
	// Classifier is the remote intent model; nil uses keyword rules only.
	Classifier nlu.Classifier
	Metrics    metrics.Recorder
	Logger     *slog.Logger

	closers []io.Closer
}

// AddCloser registers c to be closed by Close, in reverse order.
func (d *Deps) AddCloser(c io.Closer) {
	d.closers = append(d.closers, c)
}

// Close releases connections and drains async buses.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}

type App struct {
	Deps   *Deps
	Config *config.App

	Ledger          *ledger.Engine
	IdentityService *identity.Service
	AuthService     *auth.Service
	AccountService  *account.Service
	RequestService  *moneyrequest.Service
	Dispatcher      *dispatcher.Dispatcher
}

func New(deps *Deps, cfg *config.App) (*App, error) {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	grant, err := money.Parse(cfg.Ledger.InitialGrant)
	if err != nil {
		return nil, err
	}

	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()

	app.Ledger = ledger.New(deps.Uow, deps.Locker, deps.EventBus, deps.Metrics, deps.Logger)

	app.IdentityService = identity.New(deps.OTPStore, deps.Sender, cfg.OTP, deps.Metrics, deps.Logger)
	app.IdentityService.RevealCodes = cfg.IsDevelopment()

	authMap := map[string]func() *auth.Service{
		"jwt": func() *auth.Service {
			return auth.NewWithJWT(deps.Uow, app.IdentityService, cfg.Auth.Jwt, deps.Logger)
		},
	}
	if authFactory, ok := authMap[cfg.Auth.Strategy]; ok {
		app.AuthService = authFactory()
	} else {
		app.AuthService = auth.NewWithBasic(deps.Uow, app.IdentityService, deps.Logger)
	}

	app.AccountService = account.New(
		deps.Uow,
		app.Ledger,
		app.IdentityService,
		deps.Logger,
		account.WithInitialGrant(grant),
		account.WithEventBus(deps.EventBus),
	)
	app.RequestService = moneyrequest.New(
		deps.Uow,
		app.Ledger,
		deps.Locker,
		app.AccountService,
		deps.EventBus,
		deps.Metrics,
		deps.Logger,
	)
	app.Dispatcher = dispatcher.New(
		nlu.NewInterpreter(deps.Classifier, cfg.NLU.MinConfidence, deps.Logger),
		app.AccountService,
		app.RequestService,
		nlu.RuleResponder{},
		deps.Metrics,
		deps.Logger,
	)
	return app, nil
}
