package config_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/core/schema"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const baseEn = `name: base.en
backend: whisper
parameters:
  model: ggml-base.en.bin
language: en
threads: 2
processors: 3
word_threshold: 0.05
token_timestamps: true
`

const remote = `name: cloud
backend: openai
parameters:
  model: whisper-1
remote:
  base_url: http://localhost:8080/v1
  api_key: secret
`

var _ = Describe("ModelConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		Expect(os.WriteFile(p, []byte(content), 0o644)).To(Succeed())
		return p
	}

	It("loads every yaml file of a directory", func() {
		write("base.en.yaml", baseEn)
		write("cloud.yml", remote)
		write(".hidden.yaml", baseEn)
		write("README.md", "not a config")
		write("broken.yaml", "name: [")

		cl := NewModelConfigLoader(dir)
		Expect(cl.LoadModelConfigsFromPath(dir)).To(Succeed())

		all := cl.GetAllModelsConfigs()
		Expect(all).To(HaveLen(2))
		Expect(all[0].Name).To(Equal("base.en"))
		Expect(all[1].Name).To(Equal("cloud"))

		c, ok := cl.GetModelConfig("base.en")
		Expect(ok).To(BeTrue())
		Expect(*c.Threads).To(Equal(2))
		Expect(c.Processors).To(Equal(3))
		Expect(c.ModelFile(dir)).To(Equal(filepath.Join(dir, "ggml-base.en.bin")))
		Expect(c.ConfigFile()).To(Equal(filepath.Join(dir, "base.en.yaml")))

		r, ok := cl.GetModelConfig("cloud")
		Expect(ok).To(BeTrue())
		Expect(r.Backend).To(Equal(BackendOpenAI))
		Expect(r.Remote.APIKey).To(Equal("secret"))
		Expect(r.Remote.Model).To(Equal("whisper-1"))
	})

	It("applies loader defaults", func() {
		p := write("tiny.yaml", "parameters:\n  model: ggml-tiny.bin\n")
		cl := NewModelConfigLoader(dir)
		Expect(cl.ReadModelConfig(p, LoadOptionThreads(7), LoadOptionProcessors(2), LoadOptionLibrary("/opt/libgowhisper.so"))).To(Succeed())

		c, ok := cl.GetModelConfig("tiny")
		Expect(ok).To(BeTrue())
		Expect(c.Backend).To(Equal(BackendWhisper))
		Expect(*c.Threads).To(Equal(7))
		Expect(c.Processors).To(Equal(2))
		Expect(c.Library).To(Equal("/opt/libgowhisper.so"))
	})

	It("falls back to the model name as a file", func() {
		cl := NewModelConfigLoader(dir)
		c, err := cl.LoadModelConfigFileByName("ggml-small.bin", dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Parameters.Model).To(Equal("ggml-small.bin"))
		Expect(c.Backend).To(Equal(BackendWhisper))
	})

	It("rejects model names outside the models path", func() {
		cl := NewModelConfigLoader(dir)
		_, err := cl.LoadModelConfigFileByName("../ggml-small.bin", dir)
		Expect(err).To(MatchError(ErrInvalidModelName))
		_, err = cl.LoadModelConfigFileByName("/etc/passwd", dir)
		Expect(err).To(MatchError(ErrInvalidModelName))
	})

	It("reads <name>.yaml on demand", func() {
		write("base.en.yaml", baseEn)
		cl := NewModelConfigLoader(dir)
		c, err := cl.LoadModelConfigFileByName("base.en", dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Parameters.Model).To(Equal("ggml-base.en.bin"))
	})

	DescribeTable("validation",
		func(c ModelConfig, valid bool) {
			ok, err := c.Validate()
			Expect(ok).To(Equal(valid))
			if !valid {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("whisper model", ModelConfig{Name: "a", Backend: BackendWhisper, Parameters: ModelParameters{Model: "a.bin"}}, true),
		Entry("remote model", ModelConfig{Name: "a", Backend: BackendOpenAI}, true),
		Entry("missing model file", ModelConfig{Name: "a", Backend: BackendWhisper}, false),
		Entry("path traversal", ModelConfig{Name: "a", Backend: BackendWhisper, Parameters: ModelParameters{Model: "../a.bin"}}, false),
		Entry("absolute path", ModelConfig{Name: "a", Backend: BackendWhisper, Parameters: ModelParameters{Model: "/etc/passwd"}}, false),
		Entry("unknown backend", ModelConfig{Name: "a", Backend: "llama", Parameters: ModelParameters{Model: "a.bin"}}, false),
		Entry("bad backend name", ModelConfig{Name: "a", Backend: "wh isper", Parameters: ModelParameters{Model: "a.bin"}}, false),
		Entry("no name", ModelConfig{Backend: BackendOpenAI}, false),
	)

	Context("request defaults", func() {
		var c *ModelConfig

		BeforeEach(func() {
			threads := 2
			c = &ModelConfig{
				Name: "base.en", Language: "en", Threads: &threads, Processors: 3,
				WordThreshold: 0.05, TokenTimestamps: true,
			}
		})

		It("fills unset fields", func() {
			req := &schema.TranscriptionRequest{File: "a.wav"}
			Expect(c.ApplyDefaults(req)).To(Succeed())
			Expect(req.Model).To(Equal("base.en"))
			Expect(req.Language).To(Equal("en"))
			Expect(req.Threads).To(Equal(2))
			Expect(req.Processors).To(Equal(3))
			Expect(req.WordThreshold).To(BeNumerically("~", 0.05, 1e-6))
			Expect(req.TokenTimestamps).To(BeTrue())
			Expect(req.File).To(Equal("a.wav"))
		})

		It("keeps caller values", func() {
			req := &schema.TranscriptionRequest{Language: "nl", Processors: 1, Threads: 8}
			Expect(c.ApplyDefaults(req)).To(Succeed())
			Expect(req.Language).To(Equal("nl"))
			Expect(req.Processors).To(Equal(1))
			Expect(req.Threads).To(Equal(8))
		})
	})

	It("tracks changes on disk", func() {
		cl := NewModelConfigLoader(dir)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		Expect(cl.Watch(ctx, dir, 0)).To(Succeed())

		p := write("base.en.yaml", baseEn)
		Eventually(func() bool {
			_, ok := cl.GetModelConfig("base.en")
			return ok
		}, 5*time.Second).Should(BeTrue())

		Expect(os.Remove(p)).To(Succeed())
		Eventually(func() bool {
			_, ok := cl.GetModelConfig("base.en")
			return ok
		}, 5*time.Second).Should(BeFalse())
	})
})

var _ = Describe("ApplicationConfig", func() {
	It("applies options over defaults", func() {
		o := NewApplicationConfig(
			WithModelPath("/models"),
			WithThreads(0),
			WithProcessors(4),
			WithApiKeys([]string{"k"}),
			WithWatchModelConfigs(true, time.Second),
		)
		Expect(o.ModelPath).To(Equal("/models"))
		Expect(o.Threads).To(Equal(0))
		Expect(o.Processors).To(Equal(4))
		Expect(o.UploadLimitMB).To(Equal(15))
		Expect(o.ApiKeys).To(ConsistOf("k"))
		Expect(o.WatchModelConfigs).To(BeTrue())
		Expect(o.ToConfigLoaderOptions()).To(HaveLen(4))
	})
})
