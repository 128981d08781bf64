package main

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/webtrio/webfolio/internal/auth"
	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/email/postmark"
	"github.com/webtrio/webfolio/internal/email/smtp"
	"github.com/webtrio/webfolio/internal/krypto"
	"github.com/webtrio/webfolio/internal/media/cloudinary"
	"github.com/webtrio/webfolio/internal/web"
)

// email drivers supported by the EMAIL_DRIVER env variable.
const (
	emailDriverLog      = "log"
	emailDriverSMTP     = "smtp"
	emailDriverPostmark = "postmark"
)

// httpConfig is the configuration for the HTTP server.
type httpConfig struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	server          web.ServerConfig
}

// dbConfig is the configuration for the MongoDB connection.
type dbConfig struct {
	uri            string
	name           string
	connectTimeout time.Duration
}

// emailConfig is the configuration for outgoing email.
type emailConfig struct {
	driver   string
	from     email.Address
	smtp     smtp.Settings
	postmark postmark.Settings
}

// mediaConfig is the configuration for image uploads. Uploads fall back
// to an in-memory uploader when no cloud name is configured.
type mediaConfig struct {
	cloudinary cloudinary.Settings
}

// authConfig is the configuration for the auth service.
type authConfig struct {
	allowList []email.Address
	service   auth.ServiceConfig
}

// config is the configuration for the server command.
type config struct {
	http  httpConfig
	db    dbConfig
	email emailConfig
	media mediaConfig
	auth  authConfig
}

// defaultConfig returns a config with sane default values.
func defaultConfig() config {
	return config{
		http: httpConfig{
			addr:            ":8888",
			readTimeout:     time.Second * 5,
			writeTimeout:    time.Second * 10,
			idleTimeout:     time.Second * 120,
			shutdownTimeout: time.Second * 15,
			server: web.ServerConfig{
				SecureCookie: true,
			},
		},
		db: dbConfig{
			uri:            "mongodb://localhost:27017",
			name:           "webfolio",
			connectTimeout: time.Second * 10,
		},
		email: emailConfig{
			driver: emailDriverLog,
			smtp: smtp.Settings{
				Port: 587,
			},
			postmark: postmark.Settings{
				APIURL:        mustURL("https://api.postmarkapp.com/email"),
				MessageStream: "outbound",
			},
		},
		auth: authConfig{
			service: auth.ServiceConfig{
				CodeExpiry:    auth.DefaultCodeExpiry,
				SessionExpiry: auth.DefaultSessionExpiry,
			},
		},
	}
}

// requiredKeys are env variables without usable defaults, they must
// be provided.
var requiredKeys = []string{
	"EMAIL_FROM",
	"AUTH_ALLOW_LIST",
}

// envMap maps environment variable names to fields in the config struct.
var envMap = map[string]func(v string, c *config) error{
	"HTTP_ADDR": func(v string, c *config) error {
		c.http.addr = v
		return nil
	},
	"HTTP_READ_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.readTimeout, 0, math.MaxInt64)
	},
	"HTTP_WRITE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.writeTimeout, 0, math.MaxInt64)
	},
	"HTTP_IDLE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.idleTimeout, 0, math.MaxInt64)
	},
	"HTTP_SHUTDOWN_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.shutdownTimeout, 0, math.MaxInt64)
	},
	"HTTP_SECURE_COOKIE": func(v string, c *config) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.http.server.SecureCookie = b
		return nil
	},
	"MONGO_URI": func(v string, c *config) error {
		if v == "" {
			return errors.New("empty mongo uri")
		}
		c.db.uri = v
		return nil
	},
	"MONGO_DB": func(v string, c *config) error {
		if v == "" {
			return errors.New("empty database name")
		}
		c.db.name = v
		return nil
	},
	"MONGO_CONNECT_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.db.connectTimeout, time.Millisecond, math.MaxInt64)
	},
	"EMAIL_DRIVER": func(v string, c *config) error {
		switch v {
		case emailDriverLog, emailDriverSMTP, emailDriverPostmark:
			c.email.driver = v
			return nil
		}
		return fmt.Errorf("unknown email driver %q", v)
	},
	"EMAIL_FROM": func(v string, c *config) error {
		from, err := email.ParseAddress(v)
		if err != nil {
			return err
		}
		c.email.from = from
		return nil
	},
	"SMTP_HOST": func(v string, c *config) error {
		c.email.smtp.Host = v
		return nil
	},
	"SMTP_PORT": func(v string, c *config) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("port %d out of range", port)
		}
		c.email.smtp.Port = port
		return nil
	},
	"SMTP_USERNAME": func(v string, c *config) error {
		c.email.smtp.Username = v
		return nil
	},
	"SMTP_PASSWORD": func(v string, c *config) error {
		c.email.smtp.Password = krypto.NewSecret(v)
		return nil
	},
	"POSTMARK_API_URL": func(v string, c *config) error {
		u, err := url.Parse(v)
		if err != nil {
			return err
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("url %q is missing a scheme or host", v)
		}
		c.email.postmark.APIURL = u
		return nil
	},
	"POSTMARK_SERVER_TOKEN": func(v string, c *config) error {
		c.email.postmark.ServerToken = krypto.NewSecret(v)
		return nil
	},
	"POSTMARK_MESSAGE_STREAM": func(v string, c *config) error {
		c.email.postmark.MessageStream = v
		return nil
	},
	"CLOUDINARY_CLOUD_NAME": func(v string, c *config) error {
		c.media.cloudinary.CloudName = v
		return nil
	},
	"CLOUDINARY_API_KEY": func(v string, c *config) error {
		c.media.cloudinary.APIKey = v
		return nil
	},
	"CLOUDINARY_API_SECRET": func(v string, c *config) error {
		c.media.cloudinary.APISecret = krypto.NewSecret(v)
		return nil
	},
	"CLOUDINARY_FOLDER": func(v string, c *config) error {
		c.media.cloudinary.Folder = v
		return nil
	},
	"AUTH_ALLOW_LIST": func(v string, c *config) error {
		parts := strings.Split(v, ",")
		addrs := make([]email.Address, 0, len(parts))
		for _, part := range parts {
			addr, err := email.ParseAddress(strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", part, err)
			}
			addrs = append(addrs, addr)
		}
		c.auth.allowList = addrs
		return nil
	},
	"AUTH_CODE_EXPIRY": func(v string, c *config) error {
		return confDuration(v, &c.auth.service.CodeExpiry, time.Second, math.MaxInt64)
	},
	"AUTH_SESSION_EXPIRY": func(v string, c *config) error {
		return confDuration(v, &c.auth.service.SessionExpiry, time.Second, math.MaxInt64)
	},
}

// configFromEnv returns a config with values from the environment. It falls
// back to default values for any missing non-required environment variables.
//
// It does a best effort to validate provided values, so that mistakes are
// caught ASAP. However, there is no guarantee that the returned config
// is valid and will work.
func configFromEnv() (config, error) {
	c := defaultConfig()

	var errs []error
	for _, key := range requiredKeys {
		if _, ok := os.LookupEnv(key); !ok {
			errs = append(errs, fmt.Errorf("missing required env variable %s", key))
		}
	}

	for key, mf := range envMap {
		if val, ok := os.LookupEnv(key); ok {
			if err := mf(val, &c); err != nil {
				errs = append(errs, fmt.Errorf("invalid env variable %s: %w", key, err))
			}
		}
	}

	return c, errors.Join(errs...)
}

// confDuration attempts to parse v into tgt and checks if the result is in
// the provided range (inclusive).
func confDuration(v string, tgt *time.Duration, min, max time.Duration) error {
	dur, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	if dur < min || dur > max {
		return fmt.Errorf("duration %s not in range [%s, %s] (inclusive)", dur, min, max)
	}

	*tgt = dur

	return nil
}

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
