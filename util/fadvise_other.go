//go:build !linux

package util

import "os"

func AdviseSequential(*os.File) {}
