package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"workspace-tracker/internal/audit"
	auditrepo "workspace-tracker/internal/audit/repository"
	"workspace-tracker/internal/authz"
	"workspace-tracker/internal/config"
	"workspace-tracker/internal/db"
	healthhandler "workspace-tracker/internal/health/handler"
	identityrepo "workspace-tracker/internal/identity/repository"
	identityservice "workspace-tracker/internal/identity/service"
	membershiprepo "workspace-tracker/internal/membership/repository"
	policyengine "workspace-tracker/internal/policy/engine"
	projectrepo "workspace-tracker/internal/project/repository"
	"workspace-tracker/internal/security"
	"workspace-tracker/internal/server"
	"workspace-tracker/internal/server/interceptors"
	sessionrepo "workspace-tracker/internal/session/repository"
	taskrepo "workspace-tracker/internal/task/repository"
	"workspace-tracker/internal/telemetry"
	telemetryotel "workspace-tracker/internal/telemetry/otel"
	"workspace-tracker/internal/telemetry/producer"
	userrepo "workspace-tracker/internal/user/repository"
	workspacerepo "workspace-tracker/internal/workspace/repository"
)

const healthInterval = 15 * time.Second

var publicMethods = map[string]bool{
	"/tracker.auth.v1.AuthService/Register": true,
	"/tracker.auth.v1.AuthService/Login":    true,
	"/tracker.auth.v1.AuthService/Refresh":  true,
	"/grpc.health.v1.Health/Check":          true,
	"/grpc.health.v1.Health/Watch":          true,
	"/grpc.health.v1.Health/List":           true,
}

var unobservedMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
	"/grpc.health.v1.Health/List":  true,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	var conn *sql.DB
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer conn.Close()
	} else {
		log.Println("db: DATABASE_URL not set; data services are unimplemented")
	}

	loader, err := policyengine.NewCatalogLoader(cfg.AuthzPolicyFile)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	catalog, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	log.Printf("policy: role catalog loaded\n%s", catalog.Describe())

	var prod producer.Producer
	emitters := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		kp, err := producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if err != nil {
			log.Fatalf("telemetry: kafka producer: %v", err)
		}
		prod = kp
		emitters = append(emitters, kp)
		log.Printf("telemetry: producing to %s on %v", cfg.TelemetryKafkaTopic, brokers)
	}
	observer, err := telemetry.NewAuthzObserver(emitters, providers.MeterProvider.Meter("workspace-tracker/authz"), cfg.Env == "development")
	if err != nil {
		log.Fatalf("telemetry: authz observer: %v", err)
	}

	deps := server.Deps{}
	var authInterceptor grpc.UnaryServerInterceptor
	if conn != nil {
		users := userrepo.NewPostgresRepository(conn)
		workspaces := workspacerepo.NewPostgresRepository(conn)
		memberships := membershiprepo.NewPostgresRepository(conn)
		projects := projectrepo.NewPostgresRepository(conn)
		tasks := taskrepo.NewPostgresRepository(conn)
		audits := auditrepo.NewPostgresRepository(conn)

		deps.Users = users
		deps.Workspaces = workspaces
		deps.Memberships = memberships
		deps.Projects = projects
		deps.Tasks = tasks
		deps.AuditRepo = audits
		deps.Guard = authz.NewGuard(
			authz.NewResolver(workspaces, memberships),
			authz.NewChain(projects, tasks),
			authz.NewEngine(catalog),
			memberships,
			authz.WithObserver(observer),
			authz.WithOwnerTransfer(cfg.AllowOwnerTransfer),
		)

		if cfg.AuthEnabled() {
			signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
			if err != nil {
				log.Fatalf("auth: %v", err)
			}
			tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
			deps.Sessions = sessionrepo.NewPostgresRepository(conn)
			deps.AuditLogger = audit.NewLogger(audits, interceptors.ClientIP)
			deps.Auth = identityservice.NewAuthService(
				users,
				identityrepo.NewPostgresRepository(conn),
				deps.Sessions,
				security.NewHasher(cfg.BcryptCost),
				tokens,
				deps.AuditLogger,
			)
			authInterceptor = interceptors.AuthUnary(tokens, publicMethods, deps.Auth.SessionActive)
		} else {
			log.Println("auth: JWT keys not set; AuthService is unimplemented and every call is unauthenticated")
		}
	}

	var pinger healthhandler.Pinger
	if conn != nil {
		pinger = conn
	}
	deps.Health = healthhandler.NewServer(pinger, loader)
	deps.Health.Refresh(ctx)
	go deps.Health.Run(ctx, healthInterval)

	var unary []grpc.UnaryServerInterceptor
	if authInterceptor != nil {
		unary = append(unary, authInterceptor)
	}
	unary = append(unary,
		interceptors.AuditUnary(deps.AuditRepo, unobservedMethods),
		interceptors.TelemetryUnary(prod, unobservedMethods),
	)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unary...),
	)
	server.RegisterServices(s, deps)

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	cancel()
	deps.Health.Shutdown()
	s.GracefulStop()
	if !producer.Drain(producer.ShutdownDrainDuration) {
		log.Printf("telemetry: pending events still in flight after %v", producer.ShutdownDrainDuration)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			log.Printf("telemetry: producer close: %v", err)
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel: shutdown: %v", err)
	}
	log.Println("gRPC server stopped")
}
