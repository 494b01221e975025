package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/account"
	"sortir-backend/internal/ask"
	googleauth "sortir-backend/internal/auth"
	"sortir-backend/internal/documents"
	"sortir-backend/internal/llm"
	"sortir-backend/internal/llm/openai"
	"sortir-backend/internal/shared/auth"
	"sortir-backend/internal/shared/config"
	"sortir-backend/internal/shared/server"
	"sortir-backend/internal/shared/server/middleware"
	"sortir-backend/internal/shared/storage/db"
	"sortir-backend/internal/shared/storage/jsondb"
	"sortir-backend/internal/shared/storage/object"
	localstore "sortir-backend/internal/shared/storage/object/local"
	s3store "sortir-backend/internal/shared/storage/object/s3"
	"sortir-backend/internal/shared/telemetry"
	"sortir-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Gateway          llm.Gateway
	Tokens           *auth.Signer
	DocumentsRepo    documents.Repo
	UsersRepo        users.Repo
	DocumentsService *documents.Service
	AskService       *ask.Service
	UsersService     *users.Service
	AccountService   *account.Service
	GoogleAuth       *googleauth.GoogleService
}

// Overrides replace dependencies that are normally built from config.
// Zero fields are built as usual.
type Overrides struct {
	Gateway llm.Gateway
	Store   object.ObjectStore
}

// Build prepares every dependency and wires the router.
func Build(ctx context.Context, cfg config.Config, overrides Overrides) (*App, error) {
	telemetry.Configure(cfg.LogLevel, cfg.LogPretty)

	app := &App{Config: cfg}

	if err := buildRepos(ctx, app); err != nil {
		return nil, err
	}

	store := overrides.Store
	if store == nil {
		var err error
		if store, err = buildStore(ctx, cfg); err != nil {
			app.Close()
			return nil, err
		}
	}
	app.Store = store

	gateway := overrides.Gateway
	if gateway == nil {
		var err error
		if gateway, err = buildGateway(cfg); err != nil {
			app.Close()
			return nil, err
		}
	}
	app.Gateway = gateway

	tokens, err := auth.NewSigner(cfg.JWTSecret, auth.SessionTTL)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Tokens = tokens

	buildServices(app)
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildRepos(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.MetadataStore {
	case config.MetadataPostgres:
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return err
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
		app.DB = sqlDB
		app.DocumentsRepo = &documents.PGRepo{DB: sqlDB}
		app.UsersRepo = &users.PGRepo{DB: sqlDB}
	case config.MetadataJSONFile:
		file, err := jsondb.Open(cfg.DataFile)
		if err != nil {
			return err
		}
		app.DocumentsRepo = documents.NewJSONRepo(file)
		app.UsersRepo = users.NewJSONRepo(file)
	case config.MetadataMemory, "":
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
	default:
		return fmt.Errorf("unknown metadata store %q", cfg.MetadataStore)
	}
	telemetry.Info("bootstrap.metadata_store", map[string]any{"store": orDefault(cfg.MetadataStore, config.MetadataMemory)})
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildGateway(cfg config.Config) (llm.Gateway, error) {
	if cfg.LLMProvider != "openai" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderGateway{}, nil
	}
	client, err := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.LLMBaseURL,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildServices(app *App) {
	cfg := app.Config
	secure := cfg.Env == "production"

	app.DocumentsService = documents.NewService(app.Store, app.DocumentsRepo, cfg.MaxUploadBytes)
	app.AskService = ask.NewService(app.DocumentsService, app.Gateway, cfg.MaxContextChars)
	app.UsersService = users.NewService(app.UsersRepo)
	app.AccountService = account.NewService(app.DocumentsService, app.UsersService)
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleOptions{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		UIRedirect:   cfg.UIRedirectURL,
		SecureCookie: secure,
	}, app.Tokens, app.UsersService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Tokens:      app.Tokens,
		RateLimiter: middleware.NewRateLimiter(nil),
		Handlers: []server.RouteRegistrar{
			documents.NewHandler(app.DocumentsService),
			ask.NewHandler(app.AskService),
			users.NewHandler(app.UsersService, app.Tokens, secure),
			account.NewHandler(app.AccountService, secure),
			app.GoogleAuth,
		},
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
