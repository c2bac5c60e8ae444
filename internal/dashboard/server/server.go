package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"workOrders/internal/actualizer"
	api "workOrders/internal/api/app"
	"workOrders/internal/cache"
	"workOrders/internal/configuration"
	"workOrders/internal/dashboard/app"
	tmp "workOrders/internal/dashboard/server/templates"
	handlers "workOrders/internal/handlers"
	"workOrders/internal/remote"
	"workOrders/internal/repository"
	inmemoryrepository "workOrders/internal/repository/inmemory_repository"
	mongo "workOrders/internal/repository/mongo_integrations"
	sqliterepository "workOrders/internal/repository/sqlite_repository"

	"github.com/go-openapi/runtime/middleware"
	gorilla_handlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type Server struct {
	Ctx       context.Context
	Server    *http.Server
	Config    *configuration.Configurator
	Dashboard *app.Dashboard

	closeStore  func()
	unsubscribe func()
}

func NewServer(ctx context.Context, config string) (*Server, error) {
	c := configuration.NewConfigurator(ctx, config)
	if err := c.Run(); err != nil {
		return nil, err
	}
	return &Server{
		Ctx:    ctx,
		Config: c,
	}, nil
}

// openStore returns the key/value store backing the local cache and a
// function releasing it.
func openStore(ctx context.Context, settings configuration.CacheSettings) (repository.ReadWriteRepository, func(), error) {
	switch settings.Backend {
	case configuration.BackendSqlite:
		repo, err := sqliterepository.NewSqliteRepository(settings.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Printf("WARNING: Can't close sqlite cache, %s", err)
			}
		}, nil
	case configuration.BackendMongo:
		repo, err := mongo.NewMongoClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.Close(closeCtx); err != nil {
				log.Printf("WARNING: Can't close mongo cache, %s", err)
			}
		}, nil
	default:
		return inmemoryrepository.NewInmemoryRepository(), func() {}, nil
	}
}

func (s *Server) Run() error {
	log.Println("Start web server...")
	conf := s.Config.Get()

	data, closeStore, err := openStore(s.Ctx, conf.Cache)
	if err != nil {
		return errors.Wrapf(err, "opening %s cache", conf.Cache.Backend)
	}
	s.closeStore = closeStore

	client := remote.NewClient(conf.RemoteURL)
	s.Dashboard = app.NewDashboard(s.Ctx, client, cache.New(data), s.Config)
	s.unsubscribe = s.Dashboard.Subscribe(func(snap app.Snapshot) {
		if snap.LoadError != "" {
			log.Printf("WARNING: %s", snap.LoadError)
		}
	})

	a := actualizer.NewActualizer(s.Dashboard, s.Config)
	if err := a.Run(s.Ctx); err != nil {
		return err
	}

	Server := api.NewApi(s.Dashboard)

	var sh http.Handler = middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "./static/api.yaml",
		Path:    "/swagger",
	}, nil)

	t := tmp.NewTemplate(s.Dashboard)

	r := mux.NewRouter()
	if err := api.Register(Server, r); err != nil {
		return err
	}
	t.Register(r)
	r.HandleFunc("/health", handlers.HealthCheckHandler).Methods("GET")
	r.Handle("/swagger", sh).Methods("GET")
	r.HandleFunc("/static/api.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(api.RawSpec())
	}).Methods("GET")

	loggedRouter := gorilla_handlers.LoggingHandler(os.Stdout, r)

	s.Server = &http.Server{
		Handler:     loggedRouter,
		Addr:        fmt.Sprintf("0.0.0.0:%d", conf.ListenPort),
		BaseContext: func(l net.Listener) context.Context { return s.Ctx },
	}

	go func() {
		if err := s.Dashboard.Load(s.Ctx); err != nil {
			log.Printf("WARNING: Initial load failed, %s", err)
		}
	}()

	go func() {
		err := s.Server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	log.Println("Web server started!")
	return nil
}

func (s *Server) Stop() {
	if s.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Server.Shutdown(ctx)
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.Dashboard != nil {
		s.Dashboard.WaitReloads()
	}
	if s.closeStore != nil {
		s.closeStore()
	}
}
