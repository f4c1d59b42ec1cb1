package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"holdem-live/apps/server/internal/auth"
	"holdem-live/apps/server/internal/config"
	"holdem-live/apps/server/internal/gateway"
	"holdem-live/apps/server/internal/ledger"
	"holdem-live/apps/server/internal/lobby"
	"holdem-live/holdem/npc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Fatal("[Server] Exiting")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "holdem-live",
		Short:         "Live multi-table Texas Hold'em server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket game server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	config.BindFlags(serveCmd)
	root.AddCommand(serveCmd)
	return root
}

func serve(ctx context.Context, cfg config.Config) error {
	log := cfg.NewLogger()
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)

	authService, authMode, err := auth.NewService(cfg.AuthMode, cfg.DBPath, cfg.SessionTTL)
	if err != nil {
		return err
	}
	defer authService.Close()

	ledgerService, ledgerMode, err := ledger.NewService(ctx, cfg.LedgerMode, cfg.DBPath, cfg.DSN, cfg.RecentLimit)
	if err != nil {
		return err
	}
	defer ledgerService.Close()

	tableCfg := cfg.TableConfig(log)
	if cfg.PersonasFile != "" {
		personas := npc.NewRegistry()
		if err := personas.LoadFromFile(cfg.PersonasFile); err != nil {
			return err
		}
		tableCfg.Personas = personas
		log.Infof("[Server] Loaded %d bot personas from %s", personas.Count(), cfg.PersonasFile)
	}

	lby := lobby.New(tableCfg, ledgerService, log)
	defer lby.Close()
	go lby.RunReaper(ctx, time.Minute, cfg.IdleTableTTL)

	names := auth.NewNames(authService)
	gw := gateway.New(lby, authService, names, log)
	authHTTP := auth.NewHTTPHandler(authService, names)
	ledgerHTTP := ledger.NewHTTPHandler(authService, ledgerService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)
	ledgerHTTP.RegisterRoutes(mux)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("[Server] Auth mode: %s", authMode)
	log.Infof("[Server] Ledger mode: %s", ledgerMode)
	log.Infof("[Server] Starting WebSocket server on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("[Server] Stopped")
	return nil
}
