// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/projectmap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
