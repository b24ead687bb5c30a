// Package logger 日志配置项，映射到 kart-io/logger 的 option.LogOption。
package logger

import (
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-kb/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 日志配置。
type Options struct {
	Engine            string   `json:"engine" mapstructure:"engine"`
	Level             string   `json:"level" mapstructure:"level"`
	Format            string   `json:"format" mapstructure:"format"`
	OutputPaths       []string `json:"output-paths" mapstructure:"output-paths"`
	Development       bool     `json:"development" mapstructure:"development"`
	DisableCaller     bool     `json:"disable-caller" mapstructure:"disable-caller"`
	DisableStacktrace bool     `json:"disable-stacktrace" mapstructure:"disable-stacktrace"`
}

// NewOptions 创建默认日志配置，命令行工具默认输出到 stderr。
func NewOptions() *Options {
	d := option.DefaultLogOption()
	return &Options{
		Engine:            d.Engine,
		Level:             d.Level,
		Format:            "console",
		OutputPaths:       []string{"stderr"},
		Development:       d.Development,
		DisableCaller:     d.DisableCaller,
		DisableStacktrace: d.DisableStacktrace,
	}
}

// AddFlags 注册 --log.* 参数。
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Engine, p+"log.engine", o.Engine, "Logging engine (zap|slog).")
	fs.StringVar(&o.Level, p+"log.level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL).")
	fs.StringVar(&o.Format, p+"log.format", o.Format, "Log format (json|console).")
	fs.StringSliceVar(&o.OutputPaths, p+"log.output-paths", o.OutputPaths, "Output paths for logs.")
	fs.BoolVar(&o.Development, p+"log.development", o.Development, "Enable development mode.")
	fs.BoolVar(&o.DisableCaller, p+"log.disable-caller", o.DisableCaller, "Disable caller detection.")
	fs.BoolVar(&o.DisableStacktrace, p+"log.disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture.")
}

// Validate 校验日志配置。
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	if err := o.LogOption().Validate(); err != nil {
		return []error{err}
	}
	return nil
}

// Complete 补全默认值。
func (o *Options) Complete() error {
	o.Level = strings.ToUpper(o.Level)
	if len(o.OutputPaths) == 0 {
		o.OutputPaths = []string{"stderr"}
	}
	return nil
}

// LogOption 转换为 kart-io/logger 配置。
func (o *Options) LogOption() *option.LogOption {
	lo := option.DefaultLogOption()
	lo.Engine = o.Engine
	lo.Level = o.Level
	lo.Format = o.Format
	lo.OutputPaths = o.OutputPaths
	lo.Development = o.Development
	lo.DisableCaller = o.DisableCaller
	lo.DisableStacktrace = o.DisableStacktrace
	return lo
}

// CreateLogger 按配置创建日志实例。
func (o *Options) CreateLogger() (core.Logger, error) {
	return logger.New(o.LogOption())
}

// Init 按配置初始化全局日志。
func (o *Options) Init() error {
	log, err := o.CreateLogger()
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}
