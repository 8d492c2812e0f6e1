package utils_test

import (
	. "github.com/bnosac/audiowhisper/pkg/utils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VerifyPath", func() {
	DescribeTable("checks the path stays below the base",
		func(path, base string, ok bool) {
			err := VerifyPath(path, base)
			if ok {
				Expect(err).ToNot(HaveOccurred())
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("file in base", "ggml-base.bin", "/models", true),
		Entry("nested file", "en/ggml-base.bin", "/models", true),
		Entry("cleaned inside", "en/../ggml-base.bin", "/models", true),
		Entry("parent", "../ggml-base.bin", "/models", false),
		Entry("sibling", "../models2/ggml-base.bin", "/models", false),
		Entry("the base itself", ".", "/models", false),
		Entry("relative base", "ggml-base.bin", "models", true),
		Entry("relative escape", "../../x", "models", false),
	)
})
