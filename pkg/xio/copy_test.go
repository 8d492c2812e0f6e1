package xio_test

import (
	"bytes"
	"context"
	"strings"

	. "github.com/bnosac/audiowhisper/pkg/xio"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Copy", func() {
	It("copies everything while the context is live", func() {
		var dst bytes.Buffer
		n, err := Copy(context.Background(), &dst, strings.NewReader("RIFF....WAVE"))
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(BeEquivalentTo(12))
		Expect(dst.String()).To(Equal("RIFF....WAVE"))
	})

	It("stops once the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var dst bytes.Buffer
		n, err := Copy(ctx, &dst, strings.NewReader("RIFF....WAVE"))
		Expect(err).To(MatchError(context.Canceled))
		Expect(n).To(BeZero())
	})
})
