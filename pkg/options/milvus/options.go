// Package milvusopts provides options for Milvus client configuration.
package milvusopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-kb/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options Milvus 连接与索引参数。
type Options struct {
	// Address Milvus 服务地址（host:port）。
	Address  string `json:"address" mapstructure:"address"`
	Database string `json:"database" mapstructure:"database"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	// Timeout 建立连接的超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// NList IVF_FLAT 索引的聚类中心数。
	NList int `json:"nlist" mapstructure:"nlist"`
	// NProbe 检索时探查的聚类数，不能超过 NList。
	NProbe int `json:"nprobe" mapstructure:"nprobe"`
}

// NewOptions 返回默认配置。
func NewOptions() *Options {
	return &Options{
		Address:  "localhost:19530",
		Database: "default",
		Timeout:  30 * time.Second,
		NList:    128,
		NProbe:   16,
	}
}

// AddFlags 注册 milvus.* 标志。
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "milvus."
	fs.StringVar(&o.Address, p+"address", o.Address, "Milvus server address (host:port).")
	fs.StringVar(&o.Database, p+"database", o.Database, "Milvus database name.")
	fs.StringVar(&o.Username, p+"username", o.Username, "Milvus username for authentication.")
	fs.StringVar(&o.Password, p+"password", o.Password, "Milvus password for authentication.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Connection timeout.")
	fs.IntVar(&o.NList, p+"nlist", o.NList, "Number of IVF_FLAT clusters created for each collection.")
	fs.IntVar(&o.NProbe, p+"nprobe", o.NProbe, "Number of clusters probed per search.")
}

// Validate 校验配置。
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Address == "" {
		errs = append(errs, fmt.Errorf("milvus address is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("milvus timeout must be positive"))
	}
	if o.NList < 1 || o.NList > 65536 {
		errs = append(errs, fmt.Errorf("milvus nlist must be in [1, 65536], got %d", o.NList))
	}
	if o.NProbe < 1 || o.NProbe > o.NList {
		errs = append(errs, fmt.Errorf("milvus nprobe must be in [1, nlist], got %d", o.NProbe))
	}
	return errs
}
