package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/specedu/caseboard/apps/api/di/dig"
	echoapi "github.com/specedu/caseboard/apps/api/echo"
	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/user"
	notifysvc "github.com/specedu/caseboard/services/notify"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		res *dig_container.Resources,
		validate *validator.Validate,
		translator ut.Translator,
		hub *notifysvc.Hub,
		redis *notifysvc.RedisNotifier,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)

		if err := core.ParseEmailTemplates(apiLogger); err != nil {
			apiLogger.Fatal("parsing email templates", err)
		}

		defer apiLogger.Info("Application stopped")
		defer res.Close(apiLogger)
		defer hub.Close()

		// =========================================================================
		// Relay events published by every API process into the local hub

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if redis != nil {
			go func() {
				if err := redis.Relay(ctx, hub, nil); err != nil && ctx.Err() == nil {
					apiLogger.Error(fmt.Sprintf("event relay stopped: %v", err), err)
				}
			}()
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.Publish("subscribers", expvar.Func(func() interface{} { return hub.Subscribers() }))

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// close event streams so their handlers return
			hub.Close()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
