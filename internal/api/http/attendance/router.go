package attendance

import (
	"context"
	"errors"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zapcore"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

// Service abstracts the business operations the transport layer depends on.
// Records are addressed by row as shown to operators.
type Service interface {
	ListStudents(ctx context.Context) ([]domain.Record, error)
	AddStudent(ctx context.Context, name, phone, paymentDate string) (domain.Record, error)
	DeleteStudent(ctx context.Context, row int) (domain.Record, error)
	// SetPresence writes the status and returns the notification text the
	// poll loop is going to send for it, or "" when no loop runs here.
	SetPresence(ctx context.Context, row int, status domain.Status) (domain.Record, string, error)
	SetPaymentDate(ctx context.Context, row int, paymentDate string) (domain.Record, error)
	SetPhone(ctx context.Context, row int, phone string) (domain.Record, error)
	SendMessage(ctx context.Context, row int, kind render.ManualKind, override string) (domain.Record, dispatch.Outcome, error)
	Deliveries(ctx context.Context) []dispatch.Outcome
}

var (
	// ErrAlreadyInState is returned when a check-in or check-out would not change anything.
	ErrAlreadyInState = errors.New("record is already in the requested state")
	// ErrNoRecipient is returned for manual sends to a record without a phone.
	ErrNoRecipient = errors.New("record has no phone number")
)

// RouterOption configures the router.
type RouterOption func(*routerOptions)

type routerOptions struct {
	metrics     http.Handler
	accessLevel *zapcore.Level
}

// WithMetricsHandler serves handler on GET /metrics.
func WithMetricsHandler(handler http.Handler) RouterOption {
	return func(o *routerOptions) {
		o.metrics = handler
	}
}

// WithAccessLogLevel logs requests at lvl instead of the process level.
func WithAccessLogLevel(lvl zapcore.Level) RouterOption {
	return func(o *routerOptions) {
		o.accessLevel = &lvl
	}
}

// NewRouter builds the gin engine for the API.
func NewRouter(svc Service, opts ...RouterOption) *gin.Engine {
	o := &routerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Access log and panic recovery through the process logger.
	zl := logger.Logger().Desugar()
	if o.accessLevel != nil {
		zl = zl.WithOptions(logger.WithLevel(*o.accessLevel))
	}

	router.Use(ginzap.Ginzap(zl, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(zl, true))

	h := &handler{service: svc}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if o.metrics != nil {
		router.GET("/metrics", gin.WrapH(o.metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/students", h.listStudents)
		api.POST("/students", h.addStudent)
		api.DELETE("/students/:row", h.deleteStudent)
		api.POST("/students/:row/checkin", h.checkIn)
		api.POST("/students/:row/checkout", h.checkOut)
		api.POST("/students/:row/payment", h.setPayment)
		api.POST("/students/:row/phone", h.setPhone)
		api.POST("/students/:row/message", h.sendMessage)
		api.GET("/deliveries", h.deliveries)
	}

	return router
}
