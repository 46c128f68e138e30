package chart

import (
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/transform"
)

type Options struct {
	xAxis  *transform.SharedAxis
	yAxis  *transform.SharedAxis
	mapper *gaps.Mapper
}

type Option func(o *Options)

func optionNew(option ...Option) *Options {
	opts := &Options{}
	for _, o := range option {
		o(opts)
	}

	return opts
}

// SharedXOption makes the series follow an x axis shared with other series. All series on one
// x axis must share the mapper too.
func SharedXOption(axis *transform.SharedAxis) Option {
	return func(o *Options) {
		o.xAxis = axis
	}
}

func SharedYOption(axis *transform.SharedAxis) Option {
	return func(o *Options) {
		o.yAxis = axis
	}
}

// MapperOption replaces the mapper built from the configured rules.
func MapperOption(mapper *gaps.Mapper) Option {
	return func(o *Options) {
		o.mapper = mapper
	}
}
