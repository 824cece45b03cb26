package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	docs "github.com/aryaprtm/audio-steganography-dwt/docs"
	"github.com/aryaprtm/audio-steganography-dwt/handlers"
	"github.com/aryaprtm/audio-steganography-dwt/service"
)

// serverConfig collects the environment knobs the process reads. The
// upload limit bounds carrier size: carriers are held fully in memory
// through the DWT, so the cap is the real memory budget per request.
type serverConfig struct {
	Port        string
	Workdir     string
	CORSOrigins []string
	UploadLimit int64
}

func loadConfig() serverConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := serverConfig{
		Port:        envOr("PORT", "8080"),
		Workdir:     os.Getenv("STEGO_WORKDIR"),
		UploadLimit: 200 << 20,
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	} else {
		cfg.CORSOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// exposedHeaders lists the diagnostic headers the handlers attach;
// CORS has to whitelist them for browser clients to read them.
var exposedHeaders = []string{
	"X-SNR-Value",
	"X-Bits-Length",
	"X-Capacity-Bits",
	"X-Processing-Time",
	"X-Trace-Id",
}

// @BasePath /api/v1

func main() {
	cfg := loadConfig()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(newRouter(cfg), cfg.Port); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[ERROR] server: %v", err)
	}
	log.Println("[INFO] server stopped")
}

// newRouter wires the pipeline (crypto envelope, carrier I/O and
// wavelet engine behind the steganography orchestrator) into the HTTP
// surface.
func newRouter(cfg serverConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		cors.New(corsConfig(cfg.CORSOrigins)),
		traceHeaders(),
		uploadLimit(cfg.UploadLimit),
	)

	stego := service.NewStegoService(
		service.NewCryptographyService(),
		service.NewAudioService(),
		service.NewWaveletService(),
	)
	h := handlers.NewHandlers(stego, cfg.Workdir)

	docs.SwaggerInfo.BasePath = "/api/v1"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.HealthHandler)
		v1.POST("/capacity", h.CapacityHandler)
		v1.POST("/embed", h.EmbedHandler)
		v1.POST("/extract", h.ExtractHandler)
		v1.POST("/inspect", h.InspectHandler)
	}
	return r
}

// run serves until SIGINT/SIGTERM, then drains in-flight requests.
// Embed calls block on RSA key generation, so shutdown allows them a
// grace period instead of cutting over immediately.
func run(handler http.Handler, port string) error {
	srv := &http.Server{
		Addr:           ":" + port,
		Handler:        handler,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[INFO] listening on :%s", port)
		errc <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-stop:
		log.Printf("[INFO] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// requestLogger emits one line per request in the same [LEVEL] style
// the service layer logs with.
func requestLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		level := "INFO"
		if p.StatusCode >= http.StatusBadRequest {
			level = "ERROR"
		}
		line := fmt.Sprintf("[%s] %s %s -> %d (%s) from %s",
			level, p.Method, p.Path, p.StatusCode, p.Latency, p.ClientIP)
		if p.ErrorMessage != "" {
			line += " " + strings.TrimSpace(p.ErrorMessage)
		}
		return line + "\n"
	})
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Content-Length",
			"Authorization",
			"X-Trace-Id",
		},
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// traceHeaders assigns a trace id to every request and sets the
// baseline security headers on the way out.
func traceHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := c.GetHeader("X-Trace-Id")
		if trace == "" {
			trace = fmt.Sprintf("req_%d", time.Now().UnixNano())
		}
		c.Header("X-Trace-Id", trace)
		c.Set("trace_id", trace)

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// uploadLimit caps multipart bodies before the handlers buffer them.
func uploadLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
