// Package cliflag groups command line flags into named sections.
package cliflag

import (
	"github.com/spf13/pflag"
)

// NamedFlagSets 按名称保存一组 FlagSet，Order 记录注册顺序。
type NamedFlagSets struct {
	// Order 是 FlagSet 的注册顺序。
	Order []string
	// FlagSets 按名称索引。
	FlagSets map[string]*pflag.FlagSet
}

// FlagSet 返回指定名称的 FlagSet，不存在时创建。
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		nfs.FlagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}

// AddTo 按注册顺序把所有 FlagSet 合并到 fs。
func (nfs *NamedFlagSets) AddTo(fs *pflag.FlagSet) {
	for _, name := range nfs.Order {
		fs.AddFlagSet(nfs.FlagSets[name])
	}
}
