// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build tools

// Package main keeps test-only libraries in go.mod for packages that are
// compiled only under build tags. mockery is a program, so it is pinned by
// the tool directive in go.mod instead.
package main

import (
	// Ginkgo suites run under the integration tag.
	_ "github.com/onsi/ginkgo/v2"
	_ "github.com/onsi/gomega"
	// Generated mocks in internal/auth/mocks embed mock.Mock.
	_ "github.com/stretchr/testify/mock"
)
