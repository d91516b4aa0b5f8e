package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Scan     Scan     `yaml:"scan"`
	Database Database `yaml:"database"`
	SMTP     SMTP     `yaml:"smtp"`
}

type Scan struct {
	BatchSize       int    `yaml:"batch_size"`
	CooldownMinutes int    `yaml:"cooldown_minutes"`
	RetentionHours  int    `yaml:"retention_hours"`
	Timezone        string `yaml:"timezone"`
}

type Database struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Addr     string `yaml:"addr"`
}

type SMTP struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	To       []string `yaml:"to"`
}

func New(filepath string) (*Config, error) {
	fileBytes, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(err, "read file %s", filepath)
	}
	var cfg Config
	if err = yaml.Unmarshal(fileBytes, &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal yaml")
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scan.BatchSize == 0 {
		c.Scan.BatchSize = 10
	}
	if c.Scan.CooldownMinutes == 0 {
		c.Scan.CooldownMinutes = 5
	}
	if c.Scan.RetentionHours == 0 {
		c.Scan.RetentionHours = 48
	}
	if c.Scan.Timezone == "" {
		c.Scan.Timezone = "Asia/Ho_Chi_Minh"
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}
