package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/chonlathan-cloud/lineoa-public-mirror/binding"
	"github.com/chonlathan-cloud/lineoa-public-mirror/credentials"
	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore/memstore"
	"github.com/chonlathan-cloud/lineoa-public-mirror/identity"
	"github.com/chonlathan-cloud/lineoa-public-mirror/internal/config"
	"github.com/chonlathan-cloud/lineoa-public-mirror/onboarding"
	"github.com/chonlathan-cloud/lineoa-public-mirror/server"
	"github.com/chonlathan-cloud/lineoa-public-mirror/sessions"
	"github.com/chonlathan-cloud/lineoa-public-mirror/shops"
	"github.com/chonlathan-cloud/lineoa-public-mirror/webhook"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	handler, cleanup, err := buildHandler(c, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildHandler(c config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	// The local runtime backs everything with the in-memory store; a
	// deployment swaps in its document database behind the same interface.
	store := memstore.New()

	source, err := credentials.NewDocstoreSource(store)
	if err != nil {
		return nil, nil, err
	}

	credOpts := []credentials.StoreOption{
		credentials.WithTTL(c.GetCredentialTTL()),
		credentials.WithLogger(logger),
	}
	if c.GetFallbackSigningSecret() != "" {
		credOpts = append(credOpts, credentials.WithFallback(c.GetFallbackSigningSecret(), c.GetFallbackAccessToken()))
	}
	credStore, err := credentials.NewStore(source, credOpts...)
	if err != nil {
		return nil, nil, err
	}

	authenticator, err := webhook.NewAuthenticator(credStore, webhook.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	deduper, err := webhook.NewDeduper(store, webhook.DeduperWithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	replier, err := webhook.NewHTTPReplier(credStore)
	if err != nil {
		return nil, nil, err
	}

	sessionStore := sessions.NewInMemoryStore()
	stopSweeper := sessionStore.StartSweeper(time.Minute)

	shopRepo, err := shops.NewRepo(store)
	if err != nil {
		stopSweeper()
		return nil, nil, err
	}
	allocator, err := shops.NewCounterAllocator(store)
	if err != nil {
		stopSweeper()
		return nil, nil, err
	}

	machineOpts := []onboarding.MachineOption{
		onboarding.WithSessionTTL(c.GetSessionTTL()),
		onboarding.WithLogger(logger),
	}
	if token := c.GetFallbackAccessToken(); token != "" {
		profiles, err := onboarding.NewHTTPProfileProvider(func(context.Context) (string, error) {
			return token, nil
		})
		if err != nil {
			stopSweeper()
			return nil, nil, err
		}
		machineOpts = append(machineOpts, onboarding.WithProfileProvider(profiles))
	}
	machine, err := onboarding.NewMachine(sessionStore, shopRepo, allocator, machineOpts...)
	if err != nil {
		stopSweeper()
		return nil, nil, err
	}

	secret := c.GetHandoffSecret()
	if secret == "" {
		stopSweeper()
		return nil, nil, errors.New("HANDOFF_SECRET is required")
	}
	issuer, err := binding.NewIssuer(secret, binding.IssuerWithTTL(c.GetHandoffTTL()))
	if err != nil {
		stopSweeper()
		return nil, nil, err
	}
	binder, err := binding.NewBinder(store, binding.BinderWithLogger(logger))
	if err != nil {
		stopSweeper()
		return nil, nil, err
	}

	resolver, err := buildResolver(c)
	if err != nil {
		stopSweeper()
		return nil, nil, err
	}

	srv, err := server.New(c, server.Deps{
		Credentials:   credStore,
		Authenticator: authenticator,
		Deduper:       deduper,
		Machine:       machine,
		Issuer:        issuer,
		Binder:        binder,
		Identities:    resolver,
		Replier:       replier,
	}, logger)
	if err != nil {
		stopSweeper()
		return nil, nil, err
	}
	return srv, stopSweeper, nil
}

func buildResolver(c config.Config) (identity.Resolver, error) {
	if c.GetOIDCClientID() == "" {
		// No federated login configured; binding cannot verify global
		// identities, so reject everything rather than trust blindly.
		return identity.StaticResolver{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return identity.NewOIDCResolver(ctx, identity.OIDCConfig{
		Issuer:       c.GetOIDCIssuer(),
		ClientID:     c.GetOIDCClientID(),
		ClientSecret: c.GetOIDCClientSecret(),
		RedirectURL:  c.GetOIDCRedirectURL(),
	})
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
