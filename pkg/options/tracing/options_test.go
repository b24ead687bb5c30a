package tracing

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	opts := NewOptions()
	assert.False(t, opts.Enabled)
	assert.Equal(t, "sentinel-kb", opts.ServiceName)
	assert.Equal(t, ExporterOTLPGRPC, opts.ExporterType)
	assert.Equal(t, SamplerParentBased, opts.SamplerType)
	assert.Empty(t, opts.Validate())
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr int
	}{
		{"关闭时不校验", func(o *Options) { o.ExporterType = "bogus" }, 0},
		{"启用默认配置", func(o *Options) { o.Enabled = true }, 0},
		{"缺少服务名", func(o *Options) { o.Enabled = true; o.ServiceName = "" }, 1},
		{"OTLP 缺少地址", func(o *Options) { o.Enabled = true; o.Endpoint = "" }, 1},
		{"stdout 无需地址", func(o *Options) {
			o.Enabled = true
			o.ExporterType = ExporterStdout
			o.Endpoint = ""
		}, 0},
		{"未知导出器", func(o *Options) { o.Enabled = true; o.ExporterType = "zipkin" }, 1},
		{"未知采样器", func(o *Options) { o.Enabled = true; o.SamplerType = "sometimes" }, 1},
		{"采样率越界", func(o *Options) { o.Enabled = true; o.SamplerRatio = 1.5 }, 1},
		{"超时非正", func(o *Options) {
			o.Enabled = true
			o.BatchTimeout = 0
			o.ExportTimeout = -time.Second
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.mutate(opts)
			assert.Len(t, opts.Validate(), tt.wantErr)
		})
	}
}

func TestOptionsAddFlags(t *testing.T) {
	opts := NewOptions()
	opts.Headers = nil
	require.NoError(t, opts.Complete())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--tracing.enabled",
		"--tracing.exporter-type=stdout",
		"--tracing.headers=authorization=token",
		"--tracing.sampler-ratio=0.25",
	}))

	assert.True(t, opts.Enabled)
	assert.Equal(t, ExporterStdout, opts.ExporterType)
	assert.Equal(t, map[string]string{"authorization": "token"}, opts.Headers)
	assert.InDelta(t, 0.25, opts.SamplerRatio, 1e-9)
}
