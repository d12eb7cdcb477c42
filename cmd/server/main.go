package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"

	"github.com/streetbite/vendorhub/internal/api"
	"github.com/streetbite/vendorhub/internal/config"
	"github.com/streetbite/vendorhub/internal/credential"
	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/distlock"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
	"github.com/streetbite/vendorhub/internal/ratelimit"
	"github.com/streetbite/vendorhub/internal/repository/dynamo"
	"github.com/streetbite/vendorhub/internal/repository/memory"
	"github.com/streetbite/vendorhub/internal/sender"
	"github.com/streetbite/vendorhub/internal/service/broadcast"
	"github.com/streetbite/vendorhub/internal/service/campaign"
	"github.com/streetbite/vendorhub/internal/service/template"
	"github.com/streetbite/vendorhub/internal/session"
	"github.com/streetbite/vendorhub/internal/storage"
)

// dispatchLockTTL is the dispatch lock lease; dispatch renews it while a
// batch is still sending.
const dispatchLockTTL = 2 * time.Minute

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

// stores groups the persistence backends selected at startup.
type stores struct {
	sessions   session.Store
	limits     ratelimit.Store
	admins     credential.Store
	campaigns  campaign.Repository
	recipients campaign.RecipientRepository
	templates  template.Repository
	describer  api.TableDescriber
}

func main() {
	log.Println("vendorhub console backend (cmd/server)")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LogLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}

	if err := checkPortAvailable(cfg.Server.GetHost(), cfg.Server.Port); err != nil {
		log.Fatalf("Startup aborted: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var awsCfg aws.Config
	var haveAWS bool
	if !cfg.UsesMemoryStore() || cfg.Import.AuditBucket != "" || cfg.Email.Provider == "ses" {
		awsCfg, err = storage.LoadAWSConfig(ctx, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		haveAWS = true
	}

	var st stores
	if cfg.UsesMemoryStore() {
		st = memoryStores()
		log.Println("Storage: in-memory (state is lost on restart, no messaging admins exist)")
	} else {
		client := dynamo.NewClient(awsCfg, cfg.Storage.Endpoint)
		st = stores{
			sessions:   dynamo.NewSessionStore(client, cfg.Storage.SessionsTable),
			limits:     dynamo.NewRateLimitStore(client, cfg.Storage.SessionsTable),
			admins:     dynamo.NewAdminStore(client, cfg.Storage.AdminsTable),
			campaigns:  dynamo.NewCampaignRepo(client, cfg.Storage.CampaignsTable),
			recipients: dynamo.NewRecipientRepo(client, cfg.Storage.RecipientsTable),
			templates:  dynamo.NewTemplateRepo(client, cfg.Storage.TemplatesTable),
			describer:  client,
		}
		log.Printf("Storage: DynamoDB (region %s)", cfg.Storage.AWSRegion)
	}

	// Redis is optional: it moves login counters and dispatch locks out of
	// process so several instances share them.
	var redisClient *redis.Client
	if cfg.RateLimit.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisURL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v (falling back to table-backed rate limits and local locks)", err)
			redisClient.Close()
			redisClient = nil
		} else {
			st.limits = ratelimit.NewRedisStore(redisClient)
			log.Println("Redis connected (rate limits and dispatch locks)")
		}
		pingCancel()
	}

	sessions := session.NewManager(st.sessions, session.Config{
		CookieNames: map[domain.SessionKind]string{
			domain.SessionWhatsApp: cfg.Auth.WhatsAppCookieName,
			domain.SessionEmail:    cfg.Auth.EmailCookieName,
		},
		MaxAge: cfg.Auth.SessionMaxAge(),
		Secure: cfg.IsProduction(),
	})
	limiter := ratelimit.New(st.limits, ratelimit.Policy{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Lockout:     cfg.RateLimit.Lockout(),
		RecordTTL:   cfg.RateLimit.RecordTTL(),
	})

	creds := credential.MultiStore{domain.SurfaceWhatsApp: st.admins}
	if cfg.Auth.EmailAdminPasswordHash != "" {
		creds[domain.SurfaceEmail] = &credential.StaticStore{Admin: domain.Admin{
			Username:     cfg.Auth.EmailAdminUsername,
			PasswordHash: cfg.Auth.EmailAdminPasswordHash,
			Surface:      domain.SurfaceEmail,
		}}
	} else {
		log.Println("Email console login disabled (EMAIL_ADMIN_PASSWORD_HASH not set)")
	}

	// Senders
	dry := sender.NewDryRun()
	var waSender sender.TemplateSender = dry
	var approvals template.ApprovalSource
	if !cfg.DryRun && cfg.WhatsApp.Configured() {
		wa := sender.NewWhatsAppClient(cfg.WhatsApp)
		waSender = wa
		if cfg.WhatsApp.BusinessAccountID != "" {
			approvals = wa
		}
		log.Println("WhatsApp Cloud API sender enabled")
	} else {
		log.Println("WhatsApp sender in dry-run mode")
	}

	var emailSender sender.EmailSender = dry
	switch {
	case cfg.DryRun || !cfg.Email.Configured():
		log.Println("Email sender in dry-run mode")
	case cfg.Email.Provider == "ses":
		sesCfg := storage.WithStaticCredentials(awsCfg, cfg.Email.SESRegion, cfg.Email.SESAccessKey, cfg.Email.SESSecretKey)
		emailSender = sender.NewSESSender(sesv2.NewFromConfig(sesCfg), cfg.Email.FromName, cfg.Email.Sender)
		log.Printf("Email sender: SES (%s)", cfg.Email.SESRegion)
	default:
		emailSender = sender.NewGmailSender(cfg.Email)
		log.Println("Email sender: Gmail API")
	}

	templates := template.NewService(st.templates, approvals, waSender)

	campaignOpts := []campaign.Option{
		campaign.WithTemplates(templates),
		campaign.WithSender(waSender),
		campaign.WithSendDelay(cfg.WhatsApp.SendDelay()),
		campaign.WithDispatchLimit(cfg.Import.DispatchLimit),
		campaign.WithMaxLineBytes(cfg.Import.MaxLineBytes),
		campaign.WithDispatchLease(dispatchLockTTL),
		campaign.WithLocker(func(key string, ttl time.Duration) distlock.DistLock {
			return distlock.NewLock(redisClient, key, ttl)
		}),
	}

	var s3Client *s3.Client
	if cfg.Import.AuditBucket != "" && haveAWS {
		s3Client = s3.NewFromConfig(awsCfg)
		campaignOpts = append(campaignOpts, campaign.WithAuditSink(
			storage.NewImportAuditor(s3Client, cfg.Import.AuditBucket, cfg.Import.AuditPrefix)))
		log.Printf("Import reports archived to s3://%s/%s", cfg.Import.AuditBucket, cfg.Import.AuditPrefix)
	}
	campaigns := campaign.NewService(st.campaigns, st.recipients, campaignOpts...)

	broadcasts := broadcast.NewService(emailSender, cfg.Email.SendDelay(), cfg.Email.MaxRecipientsPerRequest)

	var bucketHeader api.BucketHeader
	if s3Client != nil {
		bucketHeader = s3Client
	}
	health := api.NewHealthChecker(st.describer, cfg.Storage.CampaignsTable, redisClient, bucketHeader, cfg.Import.AuditBucket)

	server := api.NewServer(cfg.Server, api.Deps{
		Sessions:         sessions,
		Limiter:          limiter,
		Credentials:      creds,
		Campaigns:        campaigns,
		Templates:        templates,
		Broadcasts:       broadcasts,
		Health:           health,
		FailedLoginDelay: cfg.Auth.FailedLoginDelay(),
	})

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Server stopped")
}

func memoryStores() stores {
	return stores{
		sessions:   memory.NewSessionStore(),
		limits:     memory.NewRateLimitStore(),
		admins:     memory.NewAdminStore(),
		campaigns:  memory.NewCampaignRepo(),
		recipients: memory.NewRecipientRepo(),
		templates:  memory.NewTemplateRepo(),
	}
}
