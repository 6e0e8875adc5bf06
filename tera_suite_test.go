// Copyright (c) 2024 Neomantra Corp

package tera_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTera(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "tera-go suite")
}
