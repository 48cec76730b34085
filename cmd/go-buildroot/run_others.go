//go:build !linux

package main

import (
	"errors"

	"github.com/mockbuild/go-buildroot/cmd/go-buildroot/config"
)

func run(conf *config.Config) error {
	return errors.New("go-buildroot only supports linux hosts")
}
