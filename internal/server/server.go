package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "taskboard/docs"
	"taskboard/internal/assign"
	"taskboard/internal/audit"
	"taskboard/internal/auth"
	"taskboard/internal/broadcast"
	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"
	"taskboard/internal/repository/memory"
	"taskboard/internal/service"
	"taskboard/internal/store"
)

type taskRepository interface {
	store.TaskRepository
	assign.ActiveCounter
}

type userRepository interface {
	handler.UserStore
	service.UserDirectory
}

type logRepository interface {
	audit.LogWriter
	service.LogReader
}

type repositories struct {
	tasks taskRepository
	users userRepository
	logs  logRepository
}

type closer struct {
	name  string
	close func() error
}

type Server struct {
	Engine *gin.Engine
	Hub    *broadcast.Hub
	Config *config.Config

	closers []closer
}

func Init(cfg *config.Config) (*Server, error) {
	s := &Server{Config: cfg, Hub: broadcast.NewHub()}

	repos, err := s.openStorage()
	if err != nil {
		s.Close()
		return nil, err
	}

	locker, err := s.openLocker()
	if err != nil {
		s.Close()
		return nil, err
	}

	events, err := s.openRelay()
	if err != nil {
		s.Close()
		return nil, err
	}

	// Собираем конвейер изменений
	st := store.New(repos.tasks, store.WithLocker(locker))
	svc := service.NewTaskService(
		st,
		repos.users,
		repos.logs,
		assign.NewBalancer(repos.users, repos.tasks),
		audit.NewRecorder(repos.logs, repos.users, events),
		events,
		cfg.RecentLogLimit,
	)

	s.Engine = s.routes(svc, repos.users)
	return s, nil
}

func (s *Server) openStorage() (repositories, error) {
	switch s.Config.StorageDriver {
	case "memory":
		slog.Warn("⚠️  Using in-memory storage, data will not survive a restart")
		db := memory.New()
		return repositories{tasks: db.Tasks(), users: db.Users(), logs: db.ActionLogs()}, nil
	case "postgres", "":
		db, err := database.Open(s.Config.DSN())
		if err != nil {
			return repositories{}, err
		}
		slog.Info("✅ Connected to database")
		sqlDB, err := db.DB()
		if err != nil {
			return repositories{}, fmt.Errorf("get sql.DB: %w", err)
		}
		s.closers = append(s.closers, closer{"database", sqlDB.Close})
		return repositories{
			tasks: repository.NewTaskRepository(db),
			users: repository.NewUserRepository(db),
			logs:  repository.NewActionLogRepository(db),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unknown storage driver %q", s.Config.StorageDriver)
	}
}

func (s *Server) openLocker() (store.Locker, error) {
	if s.Config.RedisURL == "" {
		return store.NewKeyedMutex(), nil
	}
	opts, err := redis.ParseURL(s.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	s.closers = append(s.closers, closer{"redis", rdb.Close})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("✅ Connected to Redis, using distributed task locks")
	return store.NewRedisLocker(rdb, s.Config.RedisLockTTL), nil
}

func (s *Server) openRelay() (broadcast.Broadcaster, error) {
	if s.Config.NATSURL == "" {
		return s.Hub, nil
	}
	nc, err := nats.Connect(s.Config.NATSURL, nats.Name("taskboard"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	s.closers = append(s.closers, closer{"nats", func() error { return nc.Drain() }})

	relay := broadcast.NewNATSRelay(nc)
	if err := relay.Forward(s.Hub); err != nil {
		return nil, fmt.Errorf("subscribe to relay: %w", err)
	}
	// Отписка должна идти раньше закрытия соединения
	s.closers = append(s.closers, closer{"relay", relay.Close})
	slog.Info("✅ Connected to NATS, relaying events", "subject", broadcast.Subject)
	return broadcast.Fanout{s.Hub, relay}, nil
}

func (s *Server) routes(svc *service.TaskService, users handler.UserStore) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	issuer := auth.NewIssuer(s.Config.JWTSecret, s.Config.JWTExpiry)
	userHandler := handler.NewUserHandler(users, issuer)
	taskHandler := handler.NewTaskHandler(svc)
	logHandler := handler.NewLogHandler(svc)
	eventHandler := handler.NewEventHandler(s.Hub, s.Config.SubscriberBuffer)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(s.Config.JWTSecret))
	{
		authorized.GET("/users", userHandler.List)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.GetAll)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/smart-assign", taskHandler.SmartAssign)

		// Activity and live updates
		authorized.GET("/logs/recent", logHandler.Recent)
		authorized.GET("/events", eventHandler.Stream)
	}
	return r
}

// Close releases external connections in reverse order of opening.
func (s *Server) Close() error {
	var result error
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	s.closers = nil
	return result
}

func (s *Server) Run() error {
	// Отмена baseCtx завершает открытые SSE потоки перед Shutdown
	baseCtx, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("🚀 Server running on port %s", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		slog.Error("❌ Failed to listen", "error", err)
		return multierror.Append(err, s.Close())
	}
	slog.Info("🛑 Shutting down server...")
	stopStreams()

	var result error
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("❌ Server forced to shutdown", "error", err)
		result = multierror.Append(result, err)
	}
	if err := s.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if result != nil {
		return result
	}

	slog.Info("✅ Server exited properly")
	return nil
}
