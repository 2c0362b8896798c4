package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/senseyeio/duration"
)

type Config struct {
	Name       string     `yaml:"name" json:"name" env:"APP_NAME" env-default:"flowbridge"`
	Server     Server     `yaml:"server" json:"server"` // configuration of the public REST server
	Engine     Engine     `yaml:"engine" json:"engine"`
	Mail       Mail       `yaml:"mail" json:"mail"`
	Notify     Notify     `yaml:"notify" json:"notify"`
	Erp        Erp        `yaml:"erp" json:"erp"`
	Escalation Escalation `yaml:"escalation" json:"escalation"`
	Tracing    Tracing    `yaml:"tracing" json:"tracing"`
}

type Server struct {
	Context string `yaml:"context" json:"context" env:"REST_API_CONTEXT" env-default:"/"`
	Addr    string `yaml:"addr" json:"addr" env:"REST_API_ADDR" env-default:":8080"`
}

// Engine holds the connection details of the external process engine.
type Engine struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint" env:"ENGINE_ENDPOINT" env-default:"http://localhost:8090"`
	Tenant   string        `yaml:"tenant" json:"tenant" env:"ENGINE_TENANT"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" env:"ENGINE_TIMEOUT" env-default:"10s"`
}

type Mail struct {
	From     string `yaml:"from" json:"from" env:"MAIL_FROM" env-default:"workflow@example.com"`
	Host     string `yaml:"host" json:"host" env:"MAIL_HOST"`
	Port     int    `yaml:"port" json:"port" env:"MAIL_PORT" env-default:"587"`
	Username string `yaml:"username" json:"username" env:"MAIL_USERNAME"`
	Password string `yaml:"password" json:"password" env:"MAIL_PASSWORD"`
	// Mock replaces the SMTP sender with a log-only sender
	Mock bool `yaml:"mock" json:"mock" env:"MAIL_MOCK" env-default:"true"`
}

type Notify struct {
	QueueSize int `yaml:"queueSize" json:"queueSize" env:"NOTIFY_QUEUE_SIZE" env-default:"256"`
	// TemplateFile optionally overrides the built in notification texts
	TemplateFile string `yaml:"templateFile" json:"templateFile" env:"NOTIFY_TEMPLATE_FILE"`
}

type Erp struct {
	Endpoint string `yaml:"endpoint" json:"endpoint" env:"ERP_ENDPOINT"`
	Mock     bool   `yaml:"mock" json:"mock" env:"ERP_MOCK" env-default:"true"`
}

// Escalation carries the grace period mentioned in overdue notifications.
// The period uses the ISO-8601 notation of the engine's boundary timers so
// both sides of the configuration read the same.
type Escalation struct {
	Grace string `yaml:"grace" json:"grace" env:"ESCALATION_GRACE" env-default:"PT24H"`
}

// GraceDuration parses the configured ISO-8601 grace period.
func (e Escalation) GraceDuration() (duration.Duration, error) {
	return duration.ParseISO8601(e.Grace)
}

type Tracing struct {
	Enabled  bool   `yaml:"enabled" json:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	Endpoint string `yaml:"endpoint" json:"endpoint" env:"TRACING_ENDPOINT"`
	Name     string `yaml:"name" json:"name" env:"TRACING_NAME"`
	// TransferHeaders are copied from incoming requests onto the request span
	TransferHeaders []string `yaml:"transferHeaders" json:"transferHeaders" env:"TRACING_TRANSFER_HEADERS"`
}

func (c Config) defaults() Config {
	if c.Tracing.Name == "" {
		c.Tracing.Name = c.Name
	}
	return c
}

func (c Config) Validate() error {
	if _, err := c.Escalation.GraceDuration(); err != nil {
		return fmt.Errorf("invalid escalation grace %q: %w", c.Escalation.Grace, err)
	}
	if !c.Mail.Mock && c.Mail.Host == "" {
		return errors.New("mail.host must be set when mail.mock is disabled")
	}
	return nil
}

func InitConfig() Config {
	c := Config{}
	var fileName string
	confFile := os.Getenv("CONFIG_FILE")
	if confFile == "" {
		wd, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		fileName = fmt.Sprintf("%s/conf.yaml", wd)
	} else {
		fileName = confFile
	}
	var err error
	if _, perr := os.Stat(fileName); errors.Is(perr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(&c)
		fmt.Printf("Configuration file %s not found. Reading config from ENV.\n", fileName)
	} else {
		err = cleanenv.ReadConfig(fileName, &c)
	}
	if err != nil {
		fmt.Printf("Error occurred while reading the configuration: %s\n", err)
		panic(err)
	}
	c = c.defaults()
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c
}
