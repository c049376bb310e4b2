package config

import (
	"context"
	"strings"

	"github.com/ceyewan/aegis/xerrors"
)

// Option 配置加载器选项函数
type Option func(*settings)

// settings 加载器自身的配置（内部使用）
type settings struct {
	Name      string   // 配置文件名称（不含扩展名），默认 "config"
	Paths     []string // 配置文件搜索路径，默认 [".", "./config"]
	FileType  string   // 配置文件类型 (yaml, json, ...)，默认 "yaml"
	EnvPrefix string   // 环境变量前缀，默认 "AEGIS"
}

func (s *settings) validate() {
	if s.Name == "" {
		s.Name = "config"
	}
	if s.Paths == nil {
		s.Paths = []string{".", "./config"}
	}
	if s.FileType == "" {
		s.FileType = "yaml"
	}
	if s.EnvPrefix == "" {
		s.EnvPrefix = "AEGIS"
	}
	s.EnvPrefix = strings.ToUpper(s.EnvPrefix)
}

// WithConfigName 设置配置文件名称（不带扩展名）
func WithConfigName(name string) Option {
	return func(s *settings) {
		s.Name = name
	}
}

// WithConfigPaths 设置配置文件搜索路径（覆盖默认值）
func WithConfigPaths(paths ...string) Option {
	return func(s *settings) {
		s.Paths = paths
	}
}

// WithConfigType 设置配置文件类型 (yaml, json, ...)
func WithConfigType(typ string) Option {
	return func(s *settings) {
		s.FileType = typ
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) Option {
	return func(s *settings) {
		s.EnvPrefix = prefix
	}
}

// New 创建配置加载器，不执行加载。
func New(opts ...Option) (Loader, error) {
	s := &settings{}
	for _, o := range opts {
		o(s)
	}
	s.validate()

	return newLoader(s), nil
}

// MustLoad 一步创建并加载配置，出错时 panic。仅用于初始化阶段。
func MustLoad(opts ...Option) Loader {
	loader := xerrors.Must(New(opts...))
	if err := loader.Load(context.Background()); err != nil {
		panic(err)
	}
	return loader
}
