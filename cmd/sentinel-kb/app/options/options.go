// Package options contains flags and options for the knowledge base CLI.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	ragsvc "github.com/kart-io/sentinel-kb/internal/rag"
	"github.com/kart-io/sentinel-kb/pkg/app/cliflag"
	cacheopts "github.com/kart-io/sentinel-kb/pkg/options/cache"
	kbopts "github.com/kart-io/sentinel-kb/pkg/options/kb"
	llmopts "github.com/kart-io/sentinel-kb/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-kb/pkg/options/logger"
	milvusopts "github.com/kart-io/sentinel-kb/pkg/options/milvus"
	tracingopts "github.com/kart-io/sentinel-kb/pkg/options/tracing"
)

// KBOptions contains the configuration options for the knowledge base CLI.
type KBOptions struct {
	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// KBOptions contains ingestion and retrieval configuration.
	KBOptions *kbopts.Options `json:"kb" mapstructure:"kb"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ChatOptions `json:"chat" mapstructure:"chat"`

	// CacheOptions contains embedding cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// MilvusOptions contains Milvus configuration, used by the milvus index backend.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// TracingOptions contains OpenTelemetry tracing configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`
}

// NewKBOptions creates a KBOptions instance with default values.
func NewKBOptions() *KBOptions {
	return &KBOptions{
		LogOptions:       logopts.NewOptions(),
		KBOptions:        kbopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		CacheOptions:     cacheopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		TracingOptions:   tracingopts.NewOptions(),
	}
}

// Flags returns flags grouped by section.
func (o *KBOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.KBOptions.AddFlags(fss.FlagSet("kb"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	return fss
}

// Complete completes all the required options.
func (o *KBOptions) Complete() error {
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.KBOptions.Complete(); err != nil {
		return fmt.Errorf("kb: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Validate checks whether the options in KBOptions are valid.
func (o *KBOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.KBOptions.Validate()...)
	errs = append(errs, prefixed("embedding", o.EmbeddingOptions.Validate())...)
	errs = append(errs, prefixed("chat", o.ChatOptions.Validate())...)
	errs = append(errs, o.CacheOptions.Validate()...)
	// Milvus 只在选用 milvus 后端时需要
	if o.KBOptions.IndexBackend == kbopts.BackendMilvus {
		errs = append(errs, o.MilvusOptions.Validate()...)
	}
	errs = append(errs, o.TracingOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

func prefixed(section string, errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		out = append(out, fmt.Errorf("%s: %w", section, err))
	}
	return out
}

// Config builds a ragsvc.Config based on KBOptions.
func (o *KBOptions) Config() *ragsvc.Config {
	return &ragsvc.Config{
		LogOptions:       o.LogOptions,
		KBOptions:        o.KBOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		CacheOptions:     o.CacheOptions,
		MilvusOptions:    o.MilvusOptions,
		TracingOptions:   o.TracingOptions,
	}
}
