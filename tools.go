//go:build tools
// +build tools

// Package tools 记录 go generate 用到的工具依赖
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
