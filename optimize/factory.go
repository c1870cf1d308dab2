package optimize

import (
	"github.com/uniyakcom/pulse/core"
	"github.com/uniyakcom/pulse/internal/impl/local"
)

// Build 按 Profile 构造总线。p 为 nil 时取 Default。
func Build(p *Profile) (core.Bus, error) {
	if p == nil {
		p = Default()
	}
	return local.New(local.Config{
		PoolSize:    p.PoolSize,
		MemoBound:   p.MemoBound,
		MaxParallel: p.MaxParallel,
		Logger:      p.Logger,
		Sink:        p.Sink,
	})
}
