package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging   LoggingConfig   `yaml:"logging"`
	LLM       LLMConfig       `yaml:"llm"`
	LLMQuota  LLMQuotaConfig  `yaml:"llm_quota"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Collector CollectorConfig `yaml:"collector"`
	Store     StoreConfig     `yaml:"store"`
	Events    EventsConfig    `yaml:"events"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Server    ServerConfig    `yaml:"server"`
	Monthly   MonthlyConfig   `yaml:"monthly"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	ModelName   string  `yaml:"model_name"`
	Temperature float32 `yaml:"temperature"`

	// UsageLog records every call in the mongo ai_logs collection. Always on with the mongo store.
	UsageLog bool   `yaml:"usage_log"`
	APIKey   string `yaml:"-"`
}

// LLMQuotaConfig 는 LLM 호출에 대한 분당/일일 한도를 정의한다.
// 0 이하면 제한 없음으로 간주한다.
type LLMQuotaConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerDay    int `yaml:"requests_per_day"`
}

// ScoringConfig holds the relevance weights and the reference post cap.
// The 1/2/3 defaults must stay stable so historical scores remain comparable.
type ScoringConfig struct {
	LikeWeight         float64 `yaml:"like_weight"`
	CommentWeight      float64 `yaml:"comment_weight"`
	ShareWeight        float64 `yaml:"share_weight"`
	ReferencePostLimit int     `yaml:"reference_post_limit"`
}

// CollectorConfig configures the post source. Keywords and Feeds are keyed by area slug.
type CollectorConfig struct {
	Kind             string              `yaml:"kind"`
	MaxPostsPerArea  int                 `yaml:"max_posts_per_area"`
	KeywordsPerArea  int                 `yaml:"keywords_per_area"`
	MinContentLength int                 `yaml:"min_content_length"`
	RequestDelay     time.Duration       `yaml:"request_delay"`
	Timeout          time.Duration       `yaml:"timeout"`
	ChromePath       string              `yaml:"chrome_path"`
	Headless         bool                `yaml:"headless"`
	SearchURL        string              `yaml:"search_url"`
	Keywords         map[string][]string `yaml:"keywords"`
	Feeds            map[string][]string `yaml:"feeds"`
}

type StoreConfig struct {
	Backend string            `yaml:"backend"`
	File    FileStoreConfig   `yaml:"file"`
	SQLite  SQLiteStoreConfig `yaml:"sqlite"`
	Mongo   MongoStoreConfig  `yaml:"mongo"`
	GitHub  GitHubStoreConfig `yaml:"github"`
}

type FileStoreConfig struct {
	Root string `yaml:"root"`
}

type SQLiteStoreConfig struct {
	Path string `yaml:"path"`
}

type MongoStoreConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type GitHubStoreConfig struct {
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	BaseURL string `yaml:"base_url"`
	DataDir string `yaml:"data_dir"`
	DocsDir string `yaml:"docs_dir"`
	Token   string `yaml:"-"`
}

type EventsConfig struct {
	Backend string      `yaml:"backend"`
	Kafka   KafkaConfig `yaml:"kafka"`
	NATS    NATSConfig  `yaml:"nats"`
}

type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
}

// ScheduleConfig uses standard 5-field cron specs evaluated in Timezone.
type ScheduleConfig struct {
	Timezone   string        `yaml:"timezone"`
	Daily      string        `yaml:"daily"`
	Weekly     string        `yaml:"weekly"`
	Monthly    string        `yaml:"monthly"`
	RunTimeout time.Duration `yaml:"run_timeout"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MonthlyConfig struct {
	ExcerptLength int `yaml:"excerpt_length"`
}

var config *AppConfig

// Default returns a configuration that works out of the box with the file store.
func Default() AppConfig {
	return AppConfig{
		Logging: LoggingConfig{Level: "info"},
		LLM: LLMConfig{
			Provider:    "google",
			ModelName:   "gemini-2.5-flash",
			Temperature: 0.7,
		},
		LLMQuota: LLMQuotaConfig{RequestsPerMinute: 10, RequestsPerDay: 500},
		Scoring: ScoringConfig{
			LikeWeight:         1,
			CommentWeight:      2,
			ShareWeight:        3,
			ReferencePostLimit: 10,
		},
		Collector: CollectorConfig{
			Kind:             "browser",
			MaxPostsPerArea:  20,
			KeywordsPerArea:  3,
			MinContentLength: 50,
			RequestDelay:     2 * time.Second,
			Timeout:          30 * time.Second,
			Headless:         true,
			SearchURL:        "https://www.linkedin.com/search/results/content/?keywords=%s&origin=GLOBAL_SEARCH_HEADER",
			Keywords:         defaultKeywords(),
			Feeds:            map[string][]string{},
		},
		Store: StoreConfig{
			Backend: "file",
			File:    FileStoreConfig{Root: "./out"},
			SQLite:  SQLiteStoreConfig{Path: "./trends.db"},
			Mongo:   MongoStoreConfig{URI: "mongodb://localhost:27017", Database: "techtrends"},
			GitHub: GitHubStoreConfig{
				BaseURL: "https://api.github.com",
				DataDir: "data",
				DocsDir: "trends",
			},
		},
		Events: EventsConfig{
			Backend: "none",
			Kafka:   KafkaConfig{Topic: "tech-trends.artifact.events"},
			NATS:    NATSConfig{URL: "nats://localhost:4222", Stream: "TRENDS", Subject: "trends.artifact.published"},
		},
		Schedule: ScheduleConfig{
			Timezone:   "UTC",
			Daily:      "0 6 * * *",
			Weekly:     "0 7 * * 0",
			Monthly:    "0 8 1 * *",
			RunTimeout: 2 * time.Hour,
		},
		Server:  ServerConfig{Addr: ":8080", AllowedOrigins: []string{"*"}},
		Monthly: MonthlyConfig{ExcerptLength: 500},
	}
}

func defaultKeywords() map[string][]string {
	return map[string][]string{
		"general-it":                         {"technology trends", "IT innovation", "digital transformation", "tech industry", "software development"},
		"back-end":                           {"backend development", "server-side", "API design", "microservices", "backend architecture"},
		"front-end":                          {"frontend development", "React", "Vue", "Angular", "web development"},
		"ai-llm-and-machine-learning":        {"artificial intelligence", "machine learning", "LLM", "generative AI", "AI development"},
		"database":                           {"database", "SQL", "NoSQL", "data engineering", "PostgreSQL"},
		"devops-and-infrastructure":          {"DevOps", "CI/CD", "cloud infrastructure", "Kubernetes", "infrastructure as code"},
		"architecture-governance-and-design": {"software architecture", "system design", "enterprise architecture", "design patterns", "technical leadership"},
		"testing-and-qa":                     {"software testing", "QA", "test automation", "TDD", "quality assurance"},
	}
}

// Load reads a yaml file on top of Default and applies environment overrides.
// An empty path yields the defaults plus overrides.
func Load(path string) (AppConfig, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&c)
	return c, nil
}

// InitApp loads .env and config.yaml from the base path into the global config.
func InitApp() {
	base := GetBasePath()
	godotenv.Load(filepath.Join(base, ENV_FILE))

	path := ""
	if base != "" {
		path = filepath.Join(base, CONFIG_FILE)
	}
	c, err := Load(path)
	if err != nil {
		panic(err)
	}
	config = &c
}

// InitAppFrom is InitApp with an explicit config file.
func InitAppFrom(path string) error {
	godotenv.Load(filepath.Join(filepath.Dir(path), ENV_FILE))
	c, err := Load(path)
	if err != nil {
		return err
	}
	config = &c
	return nil
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyEnvOverrides(c *AppConfig) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.LLM.ModelName = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Store.Mongo.URI = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Store.GitHub.Token = v
	}
	if owner, repo := os.Getenv("GITHUB_REPO_OWNER"), os.Getenv("GITHUB_REPO_NAME"); owner != "" && repo != "" {
		c.Store.GitHub.Owner = owner
		c.Store.GitHub.Repo = repo
	} else if full := os.Getenv("GITHUB_REPOSITORY"); full != "" && c.Store.GitHub.Owner == "" {
		// GitHub Actions 환경에서는 owner/repo 형태로 주어진다.
		if owner, repo, ok := strings.Cut(full, "/"); ok {
			c.Store.GitHub.Owner = owner
			c.Store.GitHub.Repo = repo
		}
	}
	if v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); v != "" {
		c.Events.Kafka.Brokers = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Events.NATS.URL = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		c.Collector.ChromePath = v
	}
	if os.Getenv("BROWSER_HEADLESS") == "false" {
		c.Collector.Headless = false
	}
}
