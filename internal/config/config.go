package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type App struct {
	// HTTP
	Port           string   `envconfig:"PORT" default:"3000"`
	PublicURL      string   `envconfig:"PUBLIC_URL" default:"http://localhost:3000"`
	ClientURL      string   `envconfig:"CLIENT_URL"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	CookieDomain   string   `envconfig:"COOKIE_DOMAIN"`
	// DB
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	// JWT
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessTTL   time.Duration `envconfig:"JWT_ACCESS_TTL" default:"60m"`
	JWTRefreshTTL  time.Duration `envconfig:"JWT_REFRESH_TTL" default:"720h"`
	VerifyTokenTTL time.Duration `envconfig:"VERIFY_TOKEN_TTL" default:"72h"`
	// Mail; an empty RabbitURL logs mail instead of queueing it
	RabbitURL      string `envconfig:"RABBIT_URL"`
	MailExchange   string `envconfig:"MAIL_EXCHANGE" default:"taskboard.mail"`
	MailRoutingKey string `envconfig:"MAIL_ROUTING_KEY" default:"mail.send"`
	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

// Mailer configures cmd/taskboard-mailer.
type Mailer struct {
	// Broker
	RabbitURL      string `envconfig:"RABBIT_URL" required:"true"`
	MailExchange   string `envconfig:"MAIL_EXCHANGE" default:"taskboard.mail"`
	MailRoutingKey string `envconfig:"MAIL_ROUTING_KEY" default:"mail.send"`
	MailQueue      string `envconfig:"MAIL_QUEUE" default:"taskboard.mail.send"`
	// Delivery; an empty SMTPAddr logs mail instead of sending it
	MailFrom     string        `envconfig:"MAIL_FROM" default:"no-reply@taskboard.local"`
	SMTPAddr     string        `envconfig:"SMTP_ADDR"`
	SMTPUsername string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword string        `envconfig:"SMTP_PASSWORD"`
	MaxAttempts  int           `envconfig:"MAIL_MAX_ATTEMPTS" default:"5"`
	RetryBackoff time.Duration `envconfig:"MAIL_RETRY_BACKOFF" default:"2s"`
	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

func LoadMailer() (Mailer, error) {
	var c Mailer
	err := envconfig.Process("", &c)
	return c, err
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Origins returns the development defaults followed by CLIENT_URL and
// ALLOWED_ORIGINS, with blanks and duplicates removed.
func (c App) Origins() []string {
	seen := make(map[string]bool)
	origins := make([]string, 0, len(defaultOrigins)+len(c.AllowedOrigins)+1)

	candidates := append(append(append([]string{}, defaultOrigins...), c.ClientURL), c.AllowedOrigins...)

	for _, origin := range candidates {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}

	return origins
}
