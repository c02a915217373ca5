package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DirName         = ".assignment_tracker"
	ConfigFile      = "config.yaml"
	CredentialsFile = "credentials.json"
	EnvFile         = ".env"

	EnvSheetID    = "SHEET_ID"
	EnvDropboxKey = "DROPBOXKEY"
)

// ErrNotConfigured 尚未运行设置向导
var ErrNotConfigured = errors.New("assignment tracker is not configured")

type Config struct {
	App      AppConfig      `yaml:"app"`
	Dropbox  DropboxConfig  `yaml:"dropbox"`
	Sheet    SheetConfig    `yaml:"sheet"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type AppConfig struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
}

type DropboxConfig struct {
	Folder              string `yaml:"folder"`
	TemplateName        string `yaml:"template_name"`
	TemplateDescription string `yaml:"template_description"`
	FallbackDir         string `yaml:"fallback_dir"`
}

type SheetConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Secrets 来自 .env 文件，进程环境变量优先
type Secrets struct {
	SheetID      string
	DropboxToken string
}

// 默认配置
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:         "Assignment Tracker",
			Version:      "1.0.0",
			WindowWidth:  600,
			WindowHeight: 280,
		},
		Dropbox: DropboxConfig{
			Folder:              "Northside Debate 2025-2026",
			TemplateName:        "Debate Metadata",
			TemplateDescription: "Tagging debate assignments",
			FallbackDir:         "/path/to",
		},
		Sheet: SheetConfig{
			CredentialsFile: CredentialsFile,
		},
		Database: DatabaseConfig{
			Path: "history.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

type Manager struct {
	config     *Config
	configDir  string
	configPath string
}

// NewManager 从 dir 加载 config.yaml，文件缺失或无法读取时写入默认值。
// dir 为空时使用 ~/.assignment_tracker
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	manager := &Manager{
		configDir:  dir,
		configPath: filepath.Join(dir, ConfigFile),
	}

	// 加载或创建配置
	if err := manager.loadConfig(); err != nil {
		manager.config = DefaultConfig()
		if err := manager.SaveConfig(); err != nil {
			return nil, err
		}
	}

	return manager, nil
}

func (m *Manager) loadConfig() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	// 缺省字段沿用默认值
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return err
	}

	m.config = config
	return nil
}

func (m *Manager) SaveConfig() error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return err
	}

	return os.WriteFile(m.configPath, data, 0644)
}

func (m *Manager) GetConfig() *Config {
	return m.config
}

func (m *Manager) Dir() string {
	return m.configDir
}

func (m *Manager) CredentialsPath() string {
	return m.resolve(m.config.Sheet.CredentialsFile)
}

func (m *Manager) EnvPath() string {
	return filepath.Join(m.configDir, EnvFile)
}

func (m *Manager) DatabasePath() string {
	return m.resolve(m.config.Database.Path)
}

// 相对路径按配置目录解析
func (m *Manager) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.configDir, p)
}

// LoadSecrets 读取向导写入的 .env，进程环境变量优先
func (m *Manager) LoadSecrets() (Secrets, error) {
	values, err := godotenv.Read(m.EnvPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Secrets{}, fmt.Errorf("read %s: %w", m.EnvPath(), err)
	}
	if values == nil {
		values = map[string]string{}
	}

	secrets := Secrets{
		SheetID:      lookup(values, EnvSheetID),
		DropboxToken: lookup(values, EnvDropboxKey),
	}
	if secrets.SheetID == "" {
		return secrets, ErrNotConfigured
	}
	return secrets, nil
}

// Configured 向导写入的两个文件是否都存在
func (m *Manager) Configured() bool {
	if _, err := os.Stat(m.CredentialsPath()); err != nil {
		return false
	}
	_, err := m.LoadSecrets()
	return err == nil
}

func (m *Manager) UpdateWindowSize(width, height int) error {
	m.config.App.WindowWidth = width
	m.config.App.WindowHeight = height
	return m.SaveConfig()
}

func lookup(values map[string]string, key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return values[key]
}

// DefaultDir 返回用户目录下的配置目录
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, DirName), nil
}
